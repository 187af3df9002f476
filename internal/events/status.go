package events

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusDraft     EventStatus = "DRAFT"
	StatusPublished EventStatus = "PUBLISHED"
	StatusCancelled EventStatus = "CANCELLED"
	StatusCompleted EventStatus = "COMPLETED"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s EventStatus) String() string {
	return string(s)
}

// IsPurchasable reports whether orders may be placed against an event
// in this state. Only published events sell tickets.
func (s EventStatus) IsPurchasable() bool {
	return s == StatusPublished
}

// PaymentModel decides how an event takes money.
type PaymentModel string

const (
	// ModelPrepay: the buyer pays the organizer upfront; the platform
	// takes no cut beyond card processing.
	ModelPrepay PaymentModel = "PREPAY"

	// ModelCreditCard: the platform charges the card and takes a
	// percentage plus a fixed fee per transaction.
	ModelCreditCard PaymentModel = "CREDIT_CARD"
)

func (m PaymentModel) IsValid() bool {
	return m == ModelPrepay || m == ModelCreditCard
}
