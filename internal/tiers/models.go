package tiers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketTier is a purchasable ticket category with finite inventory.
// Quantity is immutable after creation; Sold moves only through the
// Ledger.
type TicketTier struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null"`
	Name    string    `json:"name" gorm:"not null;size:255"`

	// PriceMinor is the base unit price in minor currency units.
	PriceMinor int64 `json:"price_minor" gorm:"not null;check:price_minor >= 0"`

	Quantity int `json:"quantity" gorm:"not null;check:quantity > 0"`
	Sold     int `json:"sold" gorm:"default:0;check:sold >= 0"`

	// Table packages sell whole tables; SeatsPerTable is the per-table
	// seat capacity.
	IsTablePackage bool `json:"is_table_package" gorm:"default:false"`
	SeatsPerTable  int  `json:"seats_per_table" gorm:"default:0"`

	PriceWindows []TierPriceWindow `json:"price_windows,omitempty" gorm:"foreignKey:TierID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TierPriceWindow is one entry of a tier's time-bounded pricing
// schedule. Position records definition order; when windows overlap the
// highest position wins.
type TierPriceWindow struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TierID     uuid.UUID `json:"tier_id" gorm:"type:uuid;index;not null"`
	PriceMinor int64     `json:"price_minor" gorm:"not null;check:price_minor >= 0"`
	ValidFrom  time.Time `json:"valid_from" gorm:"not null"`
	ValidUntil time.Time `json:"valid_until" gorm:"not null"`
	Position   int       `json:"position" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (TicketTier) TableName() string {
	return "ticket_tiers"
}

func (TierPriceWindow) TableName() string {
	return "tier_price_windows"
}

func (t *TicketTier) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (w *TierPriceWindow) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Remaining returns how many tickets are still available.
func (t *TicketTier) Remaining() int {
	remaining := t.Quantity - t.Sold
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

type PriceWindowRequest struct {
	PriceMinor int64     `json:"price_minor" binding:"min=0"`
	ValidFrom  time.Time `json:"valid_from" binding:"required"`
	ValidUntil time.Time `json:"valid_until" binding:"required"`
}

type CreateTierRequest struct {
	Name           string               `json:"name" binding:"required,min=1,max=255"`
	PriceMinor     int64                `json:"price_minor" binding:"min=0"`
	Quantity       int                  `json:"quantity" binding:"required,min=1,max=100000"`
	IsTablePackage bool                 `json:"is_table_package"`
	SeatsPerTable  int                  `json:"seats_per_table" binding:"omitempty,min=1"`
	PriceWindows   []PriceWindowRequest `json:"price_windows"`
}

type AvailabilityResponse struct {
	TierID           string `json:"tier_id"`
	Remaining        int    `json:"remaining"`
	ActivePriceMinor int64  `json:"active_price_minor"`
}

type TierResponse struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	Name             string    `json:"name"`
	PriceMinor       int64     `json:"price_minor"`
	ActivePriceMinor int64     `json:"active_price_minor"`
	Quantity         int       `json:"quantity"`
	Sold             int       `json:"sold"`
	Remaining        int       `json:"remaining"`
	IsTablePackage   bool      `json:"is_table_package"`
	SeatsPerTable    int       `json:"seats_per_table"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToResponse converts a tier to its API shape, resolving the active
// price at the given instant.
func (t *TicketTier) ToResponse(now time.Time) TierResponse {
	return TierResponse{
		ID:               t.ID.String(),
		EventID:          t.EventID.String(),
		Name:             t.Name,
		PriceMinor:       t.PriceMinor,
		ActivePriceMinor: t.ActivePrice(now),
		Quantity:         t.Quantity,
		Sold:             t.Sold,
		Remaining:        t.Remaining(),
		IsTablePackage:   t.IsTablePackage,
		SeatsPerTable:    t.SeatsPerTable,
		CreatedAt:        t.CreatedAt,
	}
}
