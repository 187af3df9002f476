package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tickethub/internal/notifications"
	"tickethub/internal/shared/apperrors"
	"tickethub/pkg/logger"
	"tickethub/pkg/metrics"
)

// InventoryLedger is the tier ledger boundary. Satisfied by
// tiers.Ledger; tx-scoped so order and reservation commit together.
type InventoryLedger interface {
	ReserveTx(tx *gorm.DB, tierID uuid.UUID, quantity int) (int64, error)
	ReleaseTx(tx *gorm.DB, tierID uuid.UUID, quantity int) (int, error)
}

// PurchaseGate decides whether an event accepts money and on what
// terms. Satisfied by events.Service.
type PurchaseGate interface {
	PurchaseTerms(ctx context.Context, eventID uuid.UUID) (methods []string, platformFeePercent, processingFeePercent float64, fixedFeeMinor int64, err error)
}

// TierCatalog exposes the tier fields purchase validation needs.
// Satisfied by tiers.Service.
type TierCatalog interface {
	TierPurchaseInfo(ctx context.Context, tierID uuid.UUID) (eventID uuid.UUID, isTablePackage bool, seatsPerTable int, err error)
	InvalidateAvailability(ctx context.Context, tierIDs ...uuid.UUID) error
}

// ReferralResolver maps a referral code to a staff node. Satisfied by
// staff.Service.
type ReferralResolver interface {
	ResolveReferral(ctx context.Context, eventID uuid.UUID, code string) (uuid.UUID, error)
}

// CommissionRecorder posts commission for a completed sale. Satisfied
// by staff.Service.
type CommissionRecorder interface {
	RecordSale(ctx context.Context, staffID, orderID uuid.UUID, ticketCount int, saleTotalMinor int64) error
}

type Service interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID, confirmation string) (*OrderResponse, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error)
	ListUserOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]OrderResponse, int64, error)
	SweepExpiredCashHolds(ctx context.Context) (*SweepResult, error)
	ScanTicket(ctx context.Context, ticketID uuid.UUID) (*Ticket, error)
}

type service struct {
	repo       Repository
	ledger     InventoryLedger
	gate       PurchaseGate
	catalog    TierCatalog
	referrals  ReferralResolver
	commission CommissionRecorder
	gateway    PaymentGateway
	producer   notifications.LifecycleProducer
	log        *logger.Logger

	cashHoldDuration time.Duration
}

type ServiceDeps struct {
	Repo       Repository
	Ledger     InventoryLedger
	Gate       PurchaseGate
	Catalog    TierCatalog
	Referrals  ReferralResolver
	Commission CommissionRecorder
	Gateway    PaymentGateway
	Producer   notifications.LifecycleProducer
	Logger     *logger.Logger

	CashHoldDuration time.Duration
}

func NewService(deps ServiceDeps) Service {
	if deps.Gateway == nil {
		deps.Gateway = AcceptAllGateway{}
	}
	if deps.Producer == nil {
		deps.Producer = notifications.NoopProducer{}
	}
	if deps.CashHoldDuration <= 0 {
		deps.CashHoldDuration = 30 * time.Minute
	}

	return &service{
		repo:             deps.Repo,
		ledger:           deps.Ledger,
		gate:             deps.Gate,
		catalog:          deps.Catalog,
		referrals:        deps.Referrals,
		commission:       deps.Commission,
		gateway:          deps.Gateway,
		producer:         deps.Producer,
		log:              deps.Logger,
		cashHoldDuration: deps.CashHoldDuration,
	}
}

// CreateOrder reserves inventory and creates the order plus its tickets
// in one transaction. Payment terms are checked first; fees are
// snapshotted onto the order so later config changes never touch it.
func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	method := PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, fmt.Errorf("invalid payment method: %s", req.PaymentMethod)
	}

	methods, platformPct, processingPct, fixedFee, err := s.gate.PurchaseTerms(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !methodAllowed(methods, method) {
		return nil, fmt.Errorf("payment method %s not accepted for this event: %w",
			method, apperrors.ErrTicketsNotYetAvailable)
	}

	// Referral failures never block the purchase; the order just loses
	// attribution.
	var referralStaffID *uuid.UUID
	if req.ReferralCode != "" && s.referrals != nil {
		staffID, err := s.referrals.ResolveReferral(ctx, eventID, req.ReferralCode)
		switch {
		case err == nil:
			referralStaffID = &staffID
		case errors.Is(err, apperrors.ErrInvalidReferralCode):
			s.log.WarnContext(ctx, "unknown referral code, continuing without attribution",
				"event_id", eventID.String(), "code", req.ReferralCode)
		default:
			return nil, err
		}
	}

	order := &Order{
		ID:                   uuid.New(),
		EventID:              eventID,
		BuyerID:              buyerID,
		BuyerName:            req.BuyerName,
		BuyerEmail:           req.BuyerEmail,
		BuyerPhone:           req.BuyerPhone,
		PlatformFeePercent:   platformPct,
		ProcessingFeePercent: processingPct,
		FixedFeeMinor:        fixedFee,
		PaymentMethod:        method,
		Status:               method.InitialStatus(),
		ReferralStaffID:      referralStaffID,
	}
	if method == PaymentMethodCash {
		expiresAt := time.Now().Add(s.cashHoldDuration)
		order.HoldExpiresAt = &expiresAt
	}

	tierIDs := make([]uuid.UUID, 0, len(req.Items))

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		for _, item := range req.Items {
			tierID, err := uuid.Parse(item.TierID)
			if err != nil {
				return fmt.Errorf("invalid tier id %q: %w", item.TierID, err)
			}

			tierEventID, isTable, seatsPerTable, err := s.catalog.TierPurchaseInfo(ctx, tierID)
			if err != nil {
				return fmt.Errorf("failed to load tier %s: %w", tierID, err)
			}
			if tierEventID != eventID {
				return fmt.Errorf("tier %s does not belong to event %s", tierID, eventID)
			}

			unitPrice, err := s.ledger.ReserveTx(tx, tierID, item.Quantity)
			if err != nil {
				return err
			}

			order.Items = append(order.Items, OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				TierID:         tierID,
				Quantity:       item.Quantity,
				UnitPriceMinor: unitPrice,
			})
			order.TotalMinor += unitPrice * int64(item.Quantity)

			// Table packages reserve whole tables; each seat gets its
			// own ticket.
			ticketCount := item.Quantity
			if isTable && seatsPerTable > 0 {
				ticketCount = item.Quantity * seatsPerTable
			}
			for i := 0; i < ticketCount; i++ {
				order.Tickets = append(order.Tickets, Ticket{
					ID:      uuid.New(),
					OrderID: order.ID,
					TierID:  tierID,
					EventID: eventID,
					Status:  TicketStatusPending,
				})
			}

			tierIDs = append(tierIDs, tierID)
		}

		return s.repo.CreateOrder(tx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := s.catalog.InvalidateAvailability(ctx, tierIDs...); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate availability cache", "error", err.Error())
	}

	metrics.TrackOrderTransition(string(order.Status))
	s.log.LogOrderCreated(ctx, order.ID.String(), eventID.String(), string(method), len(order.Tickets))

	s.publish(ctx, notifications.LifecycleOrderCreated, order)

	resp := order.ToResponse()
	return &resp, nil
}

// CompleteOrder confirms payment and finalizes the order. On the card
// path a gateway failure translates to an explicit cancel so the
// reservation is never left dangling.
func (s *service) CompleteOrder(ctx context.Context, orderID uuid.UUID, confirmation string) (*OrderResponse, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, apperrors.ErrInvalidStateTransition)
	}

	if order.PaymentMethod == PaymentMethodCard {
		if err := s.gateway.Confirm(ctx, orderID, confirmation, order.TotalMinor); err != nil {
			s.log.ErrorWithContext(ctx, "payment gateway rejected charge, cancelling order", err,
				map[string]interface{}{"order_id": orderID.String()})
			if _, cancelErr := s.CancelOrder(ctx, orderID, "payment gateway failure"); cancelErr != nil {
				return nil, fmt.Errorf("gateway failed and cancel failed: %v: %w", cancelErr, err)
			}
			return nil, fmt.Errorf("payment failed: %w", err)
		}
	}

	updated, err := s.transition(ctx, orderID, StatusCompleted, false)
	if err != nil {
		return nil, err
	}

	if updated.ReferralStaffID != nil && s.commission != nil {
		if err := s.commission.RecordSale(ctx, *updated.ReferralStaffID, updated.ID, updated.TicketCount(), updated.TotalMinor); err != nil {
			// Commission is bookkeeping; the completed sale stands.
			s.log.ErrorWithContext(ctx, "failed to post commission", err,
				map[string]interface{}{"order_id": orderID.String()})
		}
	}

	metrics.TrackOrderTransition(string(StatusCompleted))
	s.log.LogOrderCompleted(ctx, updated.ID.String(), updated.TotalMinor)
	s.publish(ctx, notifications.LifecycleOrderCompleted, updated)

	resp := updated.ToResponse()
	return &resp, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	updated, err := s.transition(ctx, orderID, StatusCancelled, false)
	if err != nil {
		return nil, err
	}

	metrics.TrackOrderTransition(string(StatusCancelled))
	s.log.LogOrderCancelled(ctx, updated.ID.String(), reason)
	s.publish(ctx, notifications.LifecycleOrderCancelled, updated)

	resp := updated.ToResponse()
	return &resp, nil
}

// ExpireOrder applies the hold-expiry transition to one cash order. The
// hold deadline is re-checked under the row lock so an order refreshed
// mid-sweep is never expired early.
func (s *service) expireOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, orderID, StatusExpired, true)
}

// transition applies a single state change atomically: lock the order
// row, validate against the transition table, write the new order and
// ticket statuses, and release inventory on terminal non-completed
// states exactly once.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, target Status, checkHold bool) (*Order, error) {
	var result *Order
	var releasedTiers []uuid.UUID

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.GetOrderForUpdate(tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("order %s not found", orderID)
		}

		if !order.Status.CanTransitionTo(target) {
			return fmt.Errorf("cannot move order %s from %s to %s: %w",
				orderID, order.Status, target, apperrors.ErrInvalidStateTransition)
		}

		if checkHold {
			if order.HoldExpiresAt == nil || time.Now().Before(*order.HoldExpiresAt) {
				return fmt.Errorf("order %s hold has not lapsed: %w", orderID, apperrors.ErrInvalidStateTransition)
			}
		}

		order.Status = target

		if target != StatusCompleted && !order.InventoryReleased {
			for _, item := range order.Items {
				if _, err := s.ledger.ReleaseTx(tx, item.TierID, item.Quantity); err != nil {
					return fmt.Errorf("failed to release tier %s: %w", item.TierID, err)
				}
				releasedTiers = append(releasedTiers, item.TierID)
			}
			order.InventoryReleased = true
		}

		if err := s.repo.UpdateOrder(tx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if err := s.repo.UpdateTicketStatuses(tx, orderID, ticketStatusFor(target)); err != nil {
			return fmt.Errorf("failed to update tickets: %w", err)
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(releasedTiers) > 0 {
		if err := s.catalog.InvalidateAvailability(ctx, releasedTiers...); err != nil {
			s.log.WarnContext(ctx, "failed to invalidate availability cache", "error", err.Error())
		}
	}

	return result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	resp := order.ToResponse()
	return &resp, nil
}

func (s *service) ListUserOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]OrderResponse, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, total, err := s.repo.ListUserOrders(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = orders[i].ToResponse()
	}
	return responses, total, nil
}

// SweepExpiredCashHolds expires every cash order whose hold has lapsed.
// Orders are processed independently: one failure is logged and skipped,
// never fatal to the batch.
func (s *service) SweepExpiredCashHolds(ctx context.Context) (*SweepResult, error) {
	start := time.Now()

	ids, err := s.repo.ListExpiredCashOrderIDs(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}

	result := &SweepResult{}
	for _, id := range ids {
		order, err := s.expireOrder(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidStateTransition) {
				// Raced with a cancel, completion, or a prior sweep.
				continue
			}
			s.log.ErrorWithContext(ctx, "failed to expire order", err,
				map[string]interface{}{"order_id": id.String()})
			continue
		}

		result.ExpiredCount++
		// Count ticket rows, not item quantities: a table package
		// reserves tables but issues a ticket per seat.
		result.TicketsReleased += len(order.Tickets)

		metrics.TrackOrderTransition(string(StatusExpired))
		s.publish(ctx, notifications.LifecycleOrderExpired, order)
	}

	elapsed := time.Since(start)
	metrics.TrackSweep(result.ExpiredCount, elapsed.Seconds())
	s.log.LogSweepRun(ctx, result.ExpiredCount, result.TicketsReleased, elapsed)

	return result, nil
}

// ScanTicket marks a valid ticket as scanned at the venue door.
func (s *service) ScanTicket(ctx context.Context, ticketID uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		return nil, fmt.Errorf("ticket %s not found", ticketID)
	}
	if ticket.Status != TicketStatusValid {
		return nil, fmt.Errorf("ticket %s is %s, not scannable: %w",
			ticketID, ticket.Status, apperrors.ErrInvalidStateTransition)
	}

	now := time.Now()
	ticket.Status = TicketStatusScanned
	ticket.ScannedAt = &now

	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return ticket, nil
}

func (s *service) publish(ctx context.Context, kind notifications.LifecycleKind, order *Order) {
	err := s.producer.PublishOrderLifecycle(ctx, kind, order.ID, order.EventID, string(order.Status), order.TotalMinor)
	if err != nil {
		s.log.WarnContext(ctx, "failed to publish lifecycle event",
			"kind", string(kind), "order_id", order.ID.String(), "error", err.Error())
	}
}

func methodAllowed(methods []string, method PaymentMethod) bool {
	for _, m := range methods {
		if m == string(method) {
			return true
		}
	}
	return false
}
