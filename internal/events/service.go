package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickethub/internal/shared/apperrors"
	"tickethub/internal/shared/constants"
	"tickethub/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SalesChecker reports whether an event already has completed sales.
// Implemented by the orders repository; defined here to avoid a cycle.
type SalesChecker interface {
	HasCompletedSales(ctx context.Context, eventID uuid.UUID) (bool, error)
}

type Service interface {
	SetSalesChecker(checker SalesChecker)

	CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	PublishEvent(ctx context.Context, id uuid.UUID, organizerID uuid.UUID) error
	GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)

	SetPaymentConfig(ctx context.Context, eventID uuid.UUID, organizerID uuid.UUID, req SetPaymentConfigRequest) (*PaymentConfig, error)
	ResetPaymentConfig(ctx context.Context, eventID uuid.UUID, organizerID uuid.UUID) error

	// PurchaseTerms returns the payment methods an event currently
	// accepts plus its fee schedule. Fails with ErrTicketsNotYetAvailable
	// when the event is unpublished or has no active config.
	PurchaseTerms(ctx context.Context, eventID uuid.UUID) (methods []string, platformFeePercent, processingFeePercent float64, fixedFeeMinor int64, err error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	cacheTTL     time.Duration
	salesChecker SalesChecker
}

func NewService(repo Repository, cacheService cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:         repo,
		cacheService: cacheService,
		cacheTTL:     cacheTTL,
	}
}

func (s *service) SetSalesChecker(checker SalesChecker) {
	s.salesChecker = checker
}

// invalidateEventCache drops cached event reads after a write. When an
// event id is given its detail entries go too; list pages always go
// because any event write can reorder or refilter them.
func (s *service) invalidateEventCache(ctx context.Context, eventID *uuid.UUID) {
	if s.cacheService == nil {
		return
	}

	patterns := []string{constants.PATTERN_INVALIDATE_EVENT_ALL}
	if eventID != nil {
		patterns = append(patterns, constants.PATTERN_INVALIDATE_EVENT_DETAIL+eventID.String()+"*")
	}

	for _, pattern := range patterns {
		// Best effort; a failed invalidation only shortens freshness.
		_ = s.cacheService.DeletePattern(ctx, pattern)
	}
}

func (s *service) CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	event := &Event{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      StatusDraft,
		OrganizerID: organizerID,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidateEventCache(ctx, nil)

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) PublishEvent(ctx context.Context, id uuid.UUID, organizerID uuid.UUID) error {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	if event.OrganizerID != organizerID {
		return errors.New("event does not belong to organizer")
	}
	if event.Status != StatusDraft {
		return fmt.Errorf("only draft events can be published, current status: %s", event.Status)
	}

	if err := s.repo.UpdateEventStatus(ctx, id, StatusPublished); err != nil {
		return err
	}

	s.invalidateEventCache(ctx, &id)
	return nil
}

func (s *service) GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	key := constants.CACHE_EVENT_DETAIL + id.String()

	if s.cacheService != nil {
		var cached EventResponse
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := event.ToResponse()

	if s.cacheService != nil {
		// Best effort; a failed cache write never fails the read.
		_ = s.cacheService.Set(ctx, key, resp, s.cacheTTL)
	}

	return &resp, nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	// Search queries bypass the cache so free-text terms never pile up
	// as cache keys.
	key := ""
	if s.cacheService != nil && query.Search == "" {
		key = fmt.Sprintf("%s:%d:%d:%s", constants.CACHE_EVENT_LIST, query.Page, query.Limit, query.Status)

		var cached PaginatedEvents
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	events, totalCount, err := s.repo.ListEvents(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	result := &PaginatedEvents{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
	}

	if key != "" {
		_ = s.cacheService.Set(ctx, key, result, s.cacheTTL)
	}

	return result, nil
}

// SetPaymentConfig creates or replaces the event's payment config. The
// payment model is locked once the event has completed sales; the
// organizer must reset the config first. Fee changes apply prospectively
// only because orders snapshot fees at creation time.
func (s *service) SetPaymentConfig(ctx context.Context, eventID uuid.UUID, organizerID uuid.UUID, req SetPaymentConfigRequest) (*PaymentConfig, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, errors.New("event does not belong to organizer")
	}

	model := PaymentModel(req.Model)
	if !model.IsValid() {
		return nil, fmt.Errorf("invalid payment model: %s", req.Model)
	}

	existing, err := s.repo.GetPaymentConfig(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment config: %w", err)
	}

	if existing != nil && existing.IsActive && existing.Model != model && s.salesChecker != nil {
		hasSales, err := s.salesChecker.HasCompletedSales(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to check completed sales: %w", err)
		}
		if hasSales {
			return nil, errors.New("payment model is locked after completed sales; reset the config first")
		}
	}

	config := existing
	if config == nil {
		config = &PaymentConfig{EventID: eventID}
	}
	config.Model = model
	config.CashEnabled = req.CashEnabled
	config.PlatformFeePercent = req.PlatformFeePercent
	config.ProcessingFeePercent = req.ProcessingFeePercent
	config.FixedFeeMinor = req.FixedFeeMinor
	config.IsActive = true

	if err := s.repo.SavePaymentConfig(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to save payment config: %w", err)
	}

	s.invalidateEventCache(ctx, &eventID)

	return config, nil
}

func (s *service) ResetPaymentConfig(ctx context.Context, eventID uuid.UUID, organizerID uuid.UUID) error {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return errors.New("event does not belong to organizer")
	}

	if err := s.repo.DeactivatePaymentConfig(ctx, eventID); err != nil {
		return err
	}

	s.invalidateEventCache(ctx, &eventID)
	return nil
}

// PurchaseTerms reads straight from the repository. Purchase gating can
// never act on a stale cached event.
func (s *service) PurchaseTerms(ctx context.Context, eventID uuid.UUID) ([]string, float64, float64, int64, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, 0, fmt.Errorf("event %s: %w", eventID, apperrors.ErrTicketsNotYetAvailable)
		}
		return nil, 0, 0, 0, fmt.Errorf("failed to get event: %w", err)
	}

	if !event.Status.IsPurchasable() {
		return nil, 0, 0, 0, fmt.Errorf("event %s is not published: %w", eventID, apperrors.ErrTicketsNotYetAvailable)
	}

	config := event.PaymentConfig
	if config == nil || !config.IsActive {
		return nil, 0, 0, 0, fmt.Errorf("event %s has no active payment config: %w", eventID, apperrors.ErrTicketsNotYetAvailable)
	}

	// Both models accept cards; cash is opt-in per event.
	methods := []string{"CARD"}
	if config.CashEnabled {
		methods = append(methods, "CASH")
	}

	platformPct := config.PlatformFeePercent
	if config.Model == ModelPrepay {
		// Prepay events keep the full ticket price; only processing
		// fees apply.
		platformPct = 0
	}

	return methods, platformPct, config.ProcessingFeePercent, config.FixedFeeMinor, nil
}
