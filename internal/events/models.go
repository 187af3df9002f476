package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Venue       string      `json:"venue" gorm:"size:255"`
	StartsAt    time.Time   `json:"starts_at" gorm:"not null"`
	EndsAt      *time.Time  `json:"ends_at,omitempty"`
	Status      EventStatus `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	OrganizerID uuid.UUID   `json:"organizer_id" gorm:"type:uuid;index;not null"`

	PaymentConfig *PaymentConfig `json:"payment_config,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PaymentConfig gates whether and how an event accepts money. An event
// with no active config cannot accept any order.
type PaymentConfig struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;uniqueIndex;not null"`

	Model       PaymentModel `json:"model" gorm:"type:varchar(20);not null"`
	CashEnabled bool         `json:"cash_enabled" gorm:"default:false"`

	// Fee schedule, snapshotted onto orders at creation time so
	// re-configuration never rewrites historical fee math.
	PlatformFeePercent   float64 `json:"platform_fee_percent" gorm:"default:0"`
	ProcessingFeePercent float64 `json:"processing_fee_percent" gorm:"default:0"`
	FixedFeeMinor        int64   `json:"fixed_fee_minor" gorm:"default:0"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (c *PaymentConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (PaymentConfig) TableName() string {
	return "event_payment_configs"
}

type CreateEventRequest struct {
	Name        string     `json:"name" binding:"required,min=3,max=255"`
	Description string     `json:"description" binding:"max=2000"`
	Venue       string     `json:"venue" binding:"max=255"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

type SetPaymentConfigRequest struct {
	Model                string  `json:"model" binding:"required,oneof=PREPAY CREDIT_CARD"`
	CashEnabled          bool    `json:"cash_enabled"`
	PlatformFeePercent   float64 `json:"platform_fee_percent" binding:"min=0,max=100"`
	ProcessingFeePercent float64 `json:"processing_fee_percent" binding:"min=0,max=100"`
	FixedFeeMinor        int64   `json:"fixed_fee_minor" binding:"min=0"`
}

type EventListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Status string `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
}

type EventResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Venue       string      `json:"venue"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      *time.Time  `json:"ends_at,omitempty"`
	Status      EventStatus `json:"status"`
	Purchasable bool        `json:"purchasable"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

// ToResponse converts an Event to its API shape. Purchasable requires a
// published event with an active payment config.
func (e *Event) ToResponse() EventResponse {
	purchasable := e.Status.IsPurchasable() && e.PaymentConfig != nil && e.PaymentConfig.IsActive

	return EventResponse{
		ID:          e.ID.String(),
		Name:        e.Name,
		Description: e.Description,
		Venue:       e.Venue,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Status:      e.Status,
		Purchasable: purchasable,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
