package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"cash pending to completed", StatusPendingCashPayment, StatusCompleted, true},
		{"cash pending to cancelled", StatusPendingCashPayment, StatusCancelled, true},
		{"cash pending to expired", StatusPendingCashPayment, StatusExpired, true},
		{"card pending to completed", StatusPendingCardPayment, StatusCompleted, true},
		{"card pending to cancelled", StatusPendingCardPayment, StatusCancelled, true},
		{"card pending to expired", StatusPendingCardPayment, StatusExpired, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusCompleted, false},
		{"expired is terminal", StatusExpired, StatusCompleted, false},
		{"no self transition", StatusPendingCashPayment, StatusPendingCashPayment, false},
		{"no pending to pending", StatusPendingCardPayment, StatusPendingCashPayment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPendingCashPayment.IsTerminal())
	assert.False(t, StatusPendingCardPayment.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestPaymentMethodInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPendingCashPayment, PaymentMethodCash.InitialStatus())
	assert.Equal(t, StatusPendingCardPayment, PaymentMethodCard.InitialStatus())
}

func TestTicketStatusForTarget(t *testing.T) {
	assert.Equal(t, TicketStatusValid, ticketStatusFor(StatusCompleted))
	assert.Equal(t, TicketStatusCancelled, ticketStatusFor(StatusCancelled))
	assert.Equal(t, TicketStatusExpired, ticketStatusFor(StatusExpired))
}
