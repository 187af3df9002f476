package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, node *EventStaff) error
	GetByID(ctx context.Context, id uuid.UUID) (*EventStaff, error)
	GetByReferral(ctx context.Context, eventID uuid.UUID, code string) (*EventStaff, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]EventStaff, error)
	ChildrenAllocationSum(ctx context.Context, parentID uuid.UUID) (int, error)
	UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	UpdateSaleCounters(ctx context.Context, id uuid.UUID, ticketCount int, earnedMinor int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, node *EventStaff) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*EventStaff, error) {
	var node EventStaff
	if err := r.db.WithContext(ctx).First(&node, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &node, nil
}

func (r *repository) GetByReferral(ctx context.Context, eventID uuid.UUID, code string) (*EventStaff, error) {
	var node EventStaff
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND referral_code = ?", eventID, code).
		First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &node, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]EventStaff, error) {
	var nodes []EventStaff
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *repository) ChildrenAllocationSum(ctx context.Context, parentID uuid.UUID) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&EventStaff{}).
		Where("parent_id = ?", parentID).
		Select("COALESCE(SUM(allocated_tickets), 0)").
		Scan(&sum).Error
	return int(sum), err
}

func (r *repository) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&EventStaff{}).
		Where("id = ?", id).
		Update("parent_id", parentID).Error
}

// UpdateSaleCounters bumps the running totals with column expressions so
// concurrent sales against the same node don't lose updates.
func (r *repository) UpdateSaleCounters(ctx context.Context, id uuid.UUID, ticketCount int, earnedMinor int64) error {
	return r.db.WithContext(ctx).
		Model(&EventStaff{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tickets_sold":            gorm.Expr("tickets_sold + ?", ticketCount),
			"commission_earned_minor": gorm.Expr("commission_earned_minor + ?", earnedMinor),
		}).Error
}
