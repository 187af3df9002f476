package staff

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the position type of a staff node on an event.
type Role string

const (
	RoleStaff       Role = "STAFF"
	RoleTeamMembers Role = "TEAM_MEMBERS"
	RoleAssociates  Role = "ASSOCIATES"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStaff, RoleTeamMembers, RoleAssociates:
		return true
	}
	return false
}

// CommissionType decides how a node earns on a completed sale.
type CommissionType string

const (
	CommissionFixed   CommissionType = "FIXED"
	CommissionPercent CommissionType = "PERCENT"
)

func (c CommissionType) IsValid() bool {
	return c == CommissionFixed || c == CommissionPercent
}

// EventStaff is one node of an event's seller hierarchy. ParentID forms
// a tree: sub-sellers point at the node that allocated them tickets.
type EventStaff struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:ux_event_staff_referral"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Name    string    `json:"name" gorm:"size:255"`

	Role     Role       `json:"role" gorm:"type:varchar(20);not null"`
	ParentID *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`

	AllocatedTickets int `json:"allocated_tickets" gorm:"not null;check:allocated_tickets >= 0"`

	CommissionType  CommissionType `json:"commission_type" gorm:"type:varchar(10);not null"`
	CommissionValue float64        `json:"commission_value" gorm:"not null;check:commission_value >= 0"`

	// ReferralCode attributes sales to this node; unique per event.
	ReferralCode string `json:"referral_code" gorm:"size:32;not null;uniqueIndex:ux_event_staff_referral"`

	// Running counters, moved only by RecordSale.
	TicketsSold           int   `json:"tickets_sold" gorm:"default:0"`
	CommissionEarnedMinor int64 `json:"commission_earned_minor" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (EventStaff) TableName() string {
	return "event_staff"
}

func (s *EventStaff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Commission computes this node's earnings for a completed sale of
// ticketCount tickets totalling saleTotalMinor.
func (s *EventStaff) Commission(ticketCount int, saleTotalMinor int64) int64 {
	switch s.CommissionType {
	case CommissionFixed:
		return int64(math.Round(s.CommissionValue)) * int64(ticketCount)
	case CommissionPercent:
		return int64(math.Round(float64(saleTotalMinor) * s.CommissionValue / 100))
	default:
		return 0
	}
}

type CreateStaffRequest struct {
	UserID           string  `json:"user_id" binding:"required,uuid"`
	Name             string  `json:"name" binding:"max=255"`
	Role             string  `json:"role" binding:"required,oneof=STAFF TEAM_MEMBERS ASSOCIATES"`
	ParentID         string  `json:"parent_id" binding:"omitempty,uuid"`
	AllocatedTickets int     `json:"allocated_tickets" binding:"min=0"`
	CommissionType   string  `json:"commission_type" binding:"required,oneof=FIXED PERCENT"`
	CommissionValue  float64 `json:"commission_value" binding:"min=0"`
}

// ReparentStaffRequest moves a node in the hierarchy. An empty parent
// id detaches the node to the top level.
type ReparentStaffRequest struct {
	ParentID string `json:"parent_id" binding:"omitempty,uuid"`
}

type StaffResponse struct {
	ID                    string    `json:"id"`
	EventID               string    `json:"event_id"`
	UserID                string    `json:"user_id"`
	Name                  string    `json:"name"`
	Role                  Role      `json:"role"`
	ParentID              *string   `json:"parent_id,omitempty"`
	AllocatedTickets      int       `json:"allocated_tickets"`
	CommissionType        CommissionType `json:"commission_type"`
	CommissionValue       float64   `json:"commission_value"`
	ReferralCode          string    `json:"referral_code"`
	TicketsSold           int       `json:"tickets_sold"`
	CommissionEarnedMinor int64     `json:"commission_earned_minor"`
	CreatedAt             time.Time `json:"created_at"`
}

func (s *EventStaff) ToResponse() StaffResponse {
	var parentID *string
	if s.ParentID != nil {
		id := s.ParentID.String()
		parentID = &id
	}

	return StaffResponse{
		ID:                    s.ID.String(),
		EventID:               s.EventID.String(),
		UserID:                s.UserID.String(),
		Name:                  s.Name,
		Role:                  s.Role,
		ParentID:              parentID,
		AllocatedTickets:      s.AllocatedTickets,
		CommissionType:        s.CommissionType,
		CommissionValue:       s.CommissionValue,
		ReferralCode:          s.ReferralCode,
		TicketsSold:           s.TicketsSold,
		CommissionEarnedMinor: s.CommissionEarnedMinor,
		CreatedAt:             s.CreatedAt,
	}
}
