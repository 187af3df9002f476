package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status EventStatus) error

	GetPaymentConfig(ctx context.Context, eventID uuid.UUID) (*PaymentConfig, error)
	SavePaymentConfig(ctx context.Context, config *PaymentConfig) error
	DeactivatePaymentConfig(ctx context.Context, eventID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Preload("PaymentConfig").
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).Model(&Event{})

	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}
	if query.Search != "" {
		baseQuery = baseQuery.Where("name ILIKE ?", "%"+query.Search+"%")
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("PaymentConfig").
		Order("starts_at ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error

	return events, totalCount, err
}

func (r *repository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status EventStatus) error {
	return r.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) GetPaymentConfig(ctx context.Context, eventID uuid.UUID) (*PaymentConfig, error) {
	var config PaymentConfig
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

func (r *repository) SavePaymentConfig(ctx context.Context, config *PaymentConfig) error {
	return r.db.WithContext(ctx).Save(config).Error
}

func (r *repository) DeactivatePaymentConfig(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&PaymentConfig{}).
		Where("event_id = ?", eventID).
		Update("is_active", false).Error
}
