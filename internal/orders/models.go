package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is one purchase transaction. Status moves only through the
// service's transition methods; the sweep job drives expiry.
type Order struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null"`
	BuyerID uuid.UUID `json:"buyer_id" gorm:"type:uuid;index;not null"`

	BuyerName  string `json:"buyer_name" gorm:"size:255"`
	BuyerEmail string `json:"buyer_email" gorm:"size:255"`
	BuyerPhone string `json:"buyer_phone" gorm:"size:32"`

	// TotalMinor and the fee snapshot are fixed at creation time.
	// Later payment-config changes never rewrite a historical order.
	TotalMinor           int64   `json:"total_minor" gorm:"not null"`
	PlatformFeePercent   float64 `json:"platform_fee_percent" gorm:"default:0"`
	ProcessingFeePercent float64 `json:"processing_fee_percent" gorm:"default:0"`
	FixedFeeMinor        int64   `json:"fixed_fee_minor" gorm:"default:0"`

	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(10);not null"`
	Status        Status        `json:"status" gorm:"type:varchar(30);index;not null"`

	// HoldExpiresAt is set only on cash orders; the sweep compares
	// against this stored instant, never recomputes from CreatedAt.
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty" gorm:"index"`

	ReferralStaffID *uuid.UUID `json:"referral_staff_id,omitempty" gorm:"type:uuid;index"`

	// InventoryReleased guards against double release on repeated
	// terminal attempts.
	InventoryReleased bool `json:"inventory_released" gorm:"default:false"`

	Items   []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
	Tickets []Ticket    `json:"tickets,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// OrderItem is one tier line of an order. UnitPriceMinor is the active
// price captured at reservation time.
type OrderItem struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `json:"order_id" gorm:"type:uuid;index;not null"`
	TierID         uuid.UUID `json:"tier_id" gorm:"type:uuid;index;not null"`
	Quantity       int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPriceMinor int64     `json:"unit_price_minor" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Ticket is one admission unit, created atomically with its order.
type Ticket struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID    `json:"order_id" gorm:"type:uuid;index;not null"`
	TierID    uuid.UUID    `json:"tier_id" gorm:"type:uuid;index;not null"`
	EventID   uuid.UUID    `json:"event_id" gorm:"type:uuid;index;not null"`
	Status    TicketStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	ScannedAt *time.Time   `json:"scanned_at,omitempty"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
func (Ticket) TableName() string    { return "tickets" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TicketCount sums item quantities.
func (o *Order) TicketCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

type OrderItemRequest struct {
	TierID   string `json:"tier_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=100"`
}

type CreateOrderRequest struct {
	EventID       string             `json:"event_id" binding:"required,uuid"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string             `json:"payment_method" binding:"required,paymentmethod"`
	BuyerName     string             `json:"buyer_name" binding:"required,max=255"`
	BuyerEmail    string             `json:"buyer_email" binding:"required,email"`
	BuyerPhone    string             `json:"buyer_phone" binding:"max=32"`
	ReferralCode  string             `json:"referral_code" binding:"omitempty,max=32"`
}

type CompleteOrderRequest struct {
	PaymentConfirmation string `json:"payment_confirmation" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type OrderItemResponse struct {
	TierID         string `json:"tier_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	EventID       string              `json:"event_id"`
	BuyerID       string              `json:"buyer_id"`
	Status        Status              `json:"status"`
	PaymentMethod PaymentMethod       `json:"payment_method"`
	TotalMinor    int64               `json:"total_minor"`
	HoldExpiresAt *time.Time          `json:"hold_expires_at,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	TicketIDs     []string            `json:"ticket_ids"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (o *Order) ToResponse() OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			TierID:         item.TierID.String(),
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		}
	}

	ticketIDs := make([]string, len(o.Tickets))
	for i, ticket := range o.Tickets {
		ticketIDs[i] = ticket.ID.String()
	}

	return OrderResponse{
		ID:            o.ID.String(),
		EventID:       o.EventID.String(),
		BuyerID:       o.BuyerID.String(),
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		TotalMinor:    o.TotalMinor,
		HoldExpiresAt: o.HoldExpiresAt,
		Items:         items,
		TicketIDs:     ticketIDs,
		CreatedAt:     o.CreatedAt,
	}
}

// SweepResult reports one sweep pass.
type SweepResult struct {
	ExpiredCount    int `json:"expired_count"`
	TicketsReleased int `json:"tickets_released"`
}
