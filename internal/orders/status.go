package orders

// Status is an order's lifecycle state. Transitions go through
// CanTransitionTo only; terminal states accept nothing.
type Status string

const (
	StatusPendingCashPayment Status = "PENDING_CASH_PAYMENT"
	StatusPendingCardPayment Status = "PENDING_CARD_PAYMENT"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
	StatusExpired            Status = "EXPIRED"
)

// transitions is the full state table. Expiry applies to the cash
// pending state only; the card path either completes or cancels.
var transitions = map[Status][]Status{
	StatusPendingCashPayment: {StatusCompleted, StatusCancelled, StatusExpired},
	StatusPendingCardPayment: {StatusCompleted, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
	StatusExpired:            {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PaymentMethod selects the order's initial state.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodCash PaymentMethod = "CASH"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCash
}

// InitialStatus maps a payment method to the order's starting state.
func (m PaymentMethod) InitialStatus() Status {
	if m == PaymentMethodCash {
		return StatusPendingCashPayment
	}
	return StatusPendingCardPayment
}

// TicketStatus tracks a ticket's own state. It mirrors the order until
// SCANNED, which is ticket-only.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusValid     TicketStatus = "VALID"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusExpired   TicketStatus = "EXPIRED"
	TicketStatusScanned   TicketStatus = "SCANNED"
)

// ticketStatusFor maps an order transition target to the ticket state
// that accompanies it.
func ticketStatusFor(target Status) TicketStatus {
	switch target {
	case StatusCompleted:
		return TicketStatusValid
	case StatusCancelled:
		return TicketStatusCancelled
	case StatusExpired:
		return TicketStatusExpired
	default:
		return TicketStatusPending
	}
}
