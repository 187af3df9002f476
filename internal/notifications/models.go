package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LifecycleKind names the order transition being announced.
type LifecycleKind string

const (
	LifecycleOrderCreated   LifecycleKind = "ORDER_CREATED"
	LifecycleOrderCompleted LifecycleKind = "ORDER_COMPLETED"
	LifecycleOrderCancelled LifecycleKind = "ORDER_CANCELLED"
	LifecycleOrderExpired   LifecycleKind = "ORDER_EXPIRED"
)

// LifecycleEvent is the wire payload published on every order transition.
// Downstream consumers (receipts, organizer dashboards) key off Kind.
type LifecycleEvent struct {
	ID         uuid.UUID     `json:"id"`
	Kind       LifecycleKind `json:"kind"`
	OrderID    uuid.UUID     `json:"order_id"`
	EventID    uuid.UUID     `json:"event_id"`
	Status     string        `json:"status"`
	TotalMinor int64         `json:"total_minor"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func (e *LifecycleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps all transitions of one order on the same partition
// so consumers observe them in order.
func (e *LifecycleEvent) PartitionKey() string {
	return e.OrderID.String()
}
