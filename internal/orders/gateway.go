package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PaymentGateway is the external card processor boundary. The card path
// charges through it before an order can complete; a gateway failure
// translates to an explicit cancel, never a dangling order.
type PaymentGateway interface {
	Confirm(ctx context.Context, orderID uuid.UUID, confirmation string, amountMinor int64) error
}

// AcceptAllGateway confirms every payment. Used in development and as
// the default until a real processor is wired in.
type AcceptAllGateway struct{}

func (AcceptAllGateway) Confirm(ctx context.Context, orderID uuid.UUID, confirmation string, amountMinor int64) error {
	if confirmation == "" {
		return fmt.Errorf("payment confirmation is empty")
	}
	return nil
}
