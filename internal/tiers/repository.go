package tiers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTier(ctx context.Context, tier *TicketTier) error
	GetTierByID(ctx context.Context, id uuid.UUID) (*TicketTier, error)
	ListTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketTier, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTier(ctx context.Context, tier *TicketTier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

func (r *repository) GetTierByID(ctx context.Context, id uuid.UUID) (*TicketTier, error) {
	var tier TicketTier
	err := r.db.WithContext(ctx).
		Preload("PriceWindows").
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) ListTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketTier, error) {
	var tiers []TicketTier
	err := r.db.WithContext(ctx).
		Preload("PriceWindows").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&tiers).Error
	return tiers, err
}
