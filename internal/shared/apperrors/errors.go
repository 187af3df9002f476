package apperrors

import "errors"

// Domain error taxonomy. Services return these wrapped with context;
// controllers match with errors.Is to pick status codes.
var (
	// ErrInsufficientInventory means a reservation would oversell a tier.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrTicketsNotYetAvailable means the event has no active payment
	// configuration (or is not published) and cannot accept orders.
	ErrTicketsNotYetAvailable = errors.New("tickets not yet available")

	// ErrInvalidStateTransition means the order (or ticket) is already in
	// a terminal state, or the requested transition is not allowed.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInvalidReferralCode means referral resolution failed. Order
	// creation tolerates this and proceeds without attribution.
	ErrInvalidReferralCode = errors.New("invalid referral code")

	// ErrCyclicHierarchy means a staff insert/re-parent would create a
	// cycle in the hierarchy.
	ErrCyclicHierarchy = errors.New("cyclic staff hierarchy")

	// ErrAllocationExceeded means a sub-seller allocation exceeds the
	// parent's remaining allocation.
	ErrAllocationExceeded = errors.New("allocation exceeded")
)
