package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	CreateOrder(tx *gorm.DB, order *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderForUpdate(tx *gorm.DB, id uuid.UUID) (*Order, error)
	UpdateOrder(tx *gorm.DB, order *Order) error
	UpdateTicketStatuses(tx *gorm.DB, orderID uuid.UUID, status TicketStatus) error
	GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	UpdateTicket(ctx context.Context, ticket *Ticket) error
	ListUserOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Order, int64, error)
	ListExpiredCashOrderIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	HasCompletedSales(ctx context.Context, eventID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) CreateOrder(tx *gorm.DB, order *Order) error {
	return tx.Create(order).Error
}

func (r *repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Tickets").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate locks the order row for the transaction so that
// concurrent terminal transitions serialize. SQLite has no FOR UPDATE;
// its single-writer model covers tests.
func (r *repository) GetOrderForUpdate(tx *gorm.DB, id uuid.UUID) (*Order, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order Order
	err := q.Preload("Items").Preload("Tickets").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(tx *gorm.DB, order *Order) error {
	return tx.Model(&Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":             order.Status,
			"inventory_released": order.InventoryReleased,
			"updated_at":         time.Now(),
		}).Error
}

func (r *repository) UpdateTicketStatuses(tx *gorm.DB, orderID uuid.UUID, status TicketStatus) error {
	return tx.Model(&Ticket{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) UpdateTicket(ctx context.Context, ticket *Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *repository) ListUserOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{}).Where("buyer_id = ?", buyerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Items").
		Preload("Tickets").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// ListExpiredCashOrderIDs returns ids only; the sweep re-reads each
// order under a row lock before expiring it, so a stale snapshot here
// is harmless.
func (r *repository) ListExpiredCashOrderIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?",
			StatusPendingCashPayment, now).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) HasCompletedSales(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("event_id = ? AND status = ?", eventID, StatusCompleted).
		Count(&count).Error
	return count > 0, err
}
