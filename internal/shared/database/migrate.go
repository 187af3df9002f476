package database

import (
	"tickethub/internal/events"
	"tickethub/internal/orders"
	"tickethub/internal/staff"
	"tickethub/internal/tiers"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&events.PaymentConfig{},
		&tiers.TicketTier{},
		&tiers.TierPriceWindow{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.Ticket{},
		&staff.EventStaff{},
	)
}
