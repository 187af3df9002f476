package tiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickethub/internal/shared/constants"
	"tickethub/pkg/cache"

	"github.com/google/uuid"
)

type Service interface {
	CreateTier(ctx context.Context, eventID uuid.UUID, req CreateTierRequest) (*TierResponse, error)
	GetTierByID(ctx context.Context, id uuid.UUID) (*TierResponse, error)
	TierPurchaseInfo(ctx context.Context, tierID uuid.UUID) (eventID uuid.UUID, isTablePackage bool, seatsPerTable int, err error)
	ListTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]TierResponse, error)

	// GetAvailability returns remaining capacity and the active price,
	// served from cache when fresh.
	GetAvailability(ctx context.Context, tierID uuid.UUID) (*AvailabilityResponse, error)

	// InvalidateAvailability drops the cached availability for tiers
	// whose sold count just moved.
	InvalidateAvailability(ctx context.Context, tierIDs ...uuid.UUID) error
}

type service struct {
	repo            Repository
	cacheService    cache.Service
	availabilityTTL time.Duration
}

func NewService(repo Repository, cacheService cache.Service, availabilityTTL time.Duration) Service {
	return &service{
		repo:            repo,
		cacheService:    cacheService,
		availabilityTTL: availabilityTTL,
	}
}

func (s *service) CreateTier(ctx context.Context, eventID uuid.UUID, req CreateTierRequest) (*TierResponse, error) {
	if req.IsTablePackage && req.SeatsPerTable <= 0 {
		return nil, errors.New("table packages require seats_per_table")
	}

	tier := &TicketTier{
		EventID:        eventID,
		Name:           req.Name,
		PriceMinor:     req.PriceMinor,
		Quantity:       req.Quantity,
		IsTablePackage: req.IsTablePackage,
		SeatsPerTable:  req.SeatsPerTable,
	}

	for i, w := range req.PriceWindows {
		if !w.ValidFrom.Before(w.ValidUntil) {
			return nil, fmt.Errorf("price window %d: valid_from must precede valid_until", i)
		}
		tier.PriceWindows = append(tier.PriceWindows, TierPriceWindow{
			PriceMinor: w.PriceMinor,
			ValidFrom:  w.ValidFrom,
			ValidUntil: w.ValidUntil,
			Position:   i,
		})
	}

	if err := s.repo.CreateTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create tier: %w", err)
	}

	resp := tier.ToResponse(time.Now())
	return &resp, nil
}

// TierPurchaseInfo returns the fields a purchase flow needs to validate
// a line item without importing this package's models.
func (s *service) TierPurchaseInfo(ctx context.Context, tierID uuid.UUID) (eventID uuid.UUID, isTablePackage bool, seatsPerTable int, err error) {
	tier, err := s.repo.GetTierByID(ctx, tierID)
	if err != nil {
		return uuid.Nil, false, 0, err
	}
	return tier.EventID, tier.IsTablePackage, tier.SeatsPerTable, nil
}

func (s *service) GetTierByID(ctx context.Context, id uuid.UUID) (*TierResponse, error) {
	tier, err := s.repo.GetTierByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := tier.ToResponse(time.Now())
	return &resp, nil
}

func (s *service) ListTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]TierResponse, error) {
	tiers, err := s.repo.ListTiersByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}

	now := time.Now()
	responses := make([]TierResponse, 0, len(tiers))
	for i := range tiers {
		responses = append(responses, tiers[i].ToResponse(now))
	}
	return responses, nil
}

func (s *service) GetAvailability(ctx context.Context, tierID uuid.UUID) (*AvailabilityResponse, error) {
	key := constants.CACHE_TIER_AVAILABILITY + tierID.String()

	if s.cacheService != nil {
		var cached AvailabilityResponse
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	tier, err := s.repo.GetTierByID(ctx, tierID)
	if err != nil {
		return nil, err
	}

	resp := &AvailabilityResponse{
		TierID:           tier.ID.String(),
		Remaining:        tier.Remaining(),
		ActivePriceMinor: tier.ActivePrice(time.Now()),
	}

	if s.cacheService != nil {
		// Best effort; a failed cache write never fails the read.
		_ = s.cacheService.Set(ctx, key, resp, s.availabilityTTL)
	}

	return resp, nil
}

func (s *service) InvalidateAvailability(ctx context.Context, tierIDs ...uuid.UUID) error {
	if s.cacheService == nil || len(tierIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tierIDs))
	for _, id := range tierIDs {
		keys = append(keys, constants.CACHE_TIER_AVAILABILITY+id.String())
	}
	return s.cacheService.Delete(ctx, keys...)
}
