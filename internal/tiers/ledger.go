package tiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickethub/internal/shared/apperrors"
	"tickethub/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the only component allowed to move a tier's Sold counter.
// Each reserve/release is a single atomic read-modify-write: the tier
// row is locked for the duration of the transaction, so no two
// reservations can both observe the pre-increment count and oversell.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// lockForUpdate applies a row lock on dialects that support it. SQLite
// (used in tests) serializes writers on its own, so the clause is
// skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Reserve atomically reserves quantity tickets from a tier and returns
// the unit price active at reservation time. Fails with
// ErrInsufficientInventory when the tier cannot cover the request.
func (l *Ledger) Reserve(ctx context.Context, tierID uuid.UUID, quantity int) (int64, error) {
	var unitPrice int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		price, err := l.ReserveTx(tx, tierID, quantity)
		unitPrice = price
		return err
	})
	return unitPrice, err
}

// ReserveTx is Reserve running inside a caller-owned transaction, so an
// order and its reservations commit or roll back together.
func (l *Ledger) ReserveTx(tx *gorm.DB, tierID uuid.UUID, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	var tier TicketTier
	err := lockForUpdate(tx).
		Preload("PriceWindows").
		First(&tier, "id = ?", tierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("tier %s not found", tierID)
		}
		return 0, fmt.Errorf("failed to lock tier: %w", err)
	}

	if tier.Sold+quantity > tier.Quantity {
		metrics.TrackReservation("insufficient")
		return 0, fmt.Errorf("tier %s has %d tickets left, requested %d: %w",
			tierID, tier.Remaining(), quantity, apperrors.ErrInsufficientInventory)
	}

	err = tx.Model(&TicketTier{}).
		Where("id = ?", tierID).
		Updates(map[string]interface{}{
			"sold":       tier.Sold + quantity,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		metrics.TrackReservation("error")
		return 0, fmt.Errorf("failed to increment sold count: %w", err)
	}

	metrics.TrackReservation("reserved")
	return tier.ActivePrice(time.Now()), nil
}

// Release returns quantity tickets to a tier's inventory, floored at
// zero. Callers guard against double release with the order's
// inventory_released flag; the floor is a second line of defense.
func (l *Ledger) Release(ctx context.Context, tierID uuid.UUID, quantity int) (int, error) {
	var released int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := l.ReleaseTx(tx, tierID, quantity)
		released = n
		return err
	})
	return released, err
}

// ReleaseTx is Release running inside a caller-owned transaction.
func (l *Ledger) ReleaseTx(tx *gorm.DB, tierID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	var tier TicketTier
	err := lockForUpdate(tx).First(&tier, "id = ?", tierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("tier %s not found", tierID)
		}
		return 0, fmt.Errorf("failed to lock tier: %w", err)
	}

	released := quantity
	if released > tier.Sold {
		released = tier.Sold
	}
	if released == 0 {
		return 0, nil
	}

	err = tx.Model(&TicketTier{}).
		Where("id = ?", tierID).
		Updates(map[string]interface{}{
			"sold":       tier.Sold - released,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to decrement sold count: %w", err)
	}

	metrics.TrackInventoryRelease(released)
	return released, nil
}
