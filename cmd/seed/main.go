package main

import (
	"fmt"
	"log"
	"time"

	"tickethub/internal/events"
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/database"
	"tickethub/internal/staff"
	"tickethub/internal/tiers"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting TicketHub Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"tickets",
		"order_items",
		"orders",
		"event_staff",
		"tier_price_windows",
		"ticket_tiers",
		"event_payment_configs",
		"events",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds a published demo event with tiers, a payment config,
// and a small seller hierarchy.
func (s *Seeder) SeedAll() error {
	db := s.db.PostgreSQL
	organizerID := uuid.New()
	endsAt := time.Now().Add(32 * 24 * time.Hour)

	event := &events.Event{
		ID:          uuid.New(),
		Name:        "Summer Music Festival",
		Description: "Three stages, two nights, one unforgettable weekend",
		Venue:       "Riverside Park",
		StartsAt:    time.Now().Add(30 * 24 * time.Hour),
		EndsAt:      &endsAt,
		Status:      events.StatusPublished,
		OrganizerID: organizerID,
	}
	if err := db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to seed event: %w", err)
	}
	fmt.Printf("  Created event: %s (%s)\n", event.Name, event.ID)

	paymentConfig := &events.PaymentConfig{
		EventID:              event.ID,
		Model:                events.ModelCreditCard,
		CashEnabled:          true,
		PlatformFeePercent:   5,
		ProcessingFeePercent: 2.9,
		FixedFeeMinor:        30,
		IsActive:             true,
	}
	if err := db.Create(paymentConfig).Error; err != nil {
		return fmt.Errorf("failed to seed payment config: %w", err)
	}
	fmt.Println("  Created payment config: CREDIT_CARD, cash enabled")

	earlyBirdEnd := time.Now().Add(7 * 24 * time.Hour)
	seedTiers := []*tiers.TicketTier{
		{
			ID:         uuid.New(),
			EventID:    event.ID,
			Name:       "General Admission",
			PriceMinor: 7500,
			Quantity:   500,
			PriceWindows: []tiers.TierPriceWindow{
				{
					ID:         uuid.New(),
					PriceMinor: 5500,
					ValidFrom:  time.Now().Add(-24 * time.Hour),
					ValidUntil: earlyBirdEnd,
					Position:   0,
				},
			},
		},
		{
			ID:         uuid.New(),
			EventID:    event.ID,
			Name:       "VIP",
			PriceMinor: 20000,
			Quantity:   100,
		},
		{
			ID:             uuid.New(),
			EventID:        event.ID,
			Name:           "VIP Table",
			PriceMinor:     150000,
			Quantity:       20,
			IsTablePackage: true,
			SeatsPerTable:  8,
		},
	}
	for _, tier := range seedTiers {
		if err := db.Create(tier).Error; err != nil {
			return fmt.Errorf("failed to seed tier %s: %w", tier.Name, err)
		}
		fmt.Printf("  Created tier: %s (%d @ %d minor)\n", tier.Name, tier.Quantity, tier.PriceMinor)
	}

	// Seller hierarchy: one root staff, a team member under them, an
	// associate under the team member.
	root := &staff.EventStaff{
		ID:               uuid.New(),
		EventID:          event.ID,
		UserID:           uuid.New(),
		Name:             "Head of Sales",
		Role:             staff.RoleStaff,
		AllocatedTickets: 200,
		CommissionType:   staff.CommissionPercent,
		CommissionValue:  10,
		ReferralCode:     "HEADSALE",
	}
	teamMemberParent := root.ID
	teamMember := &staff.EventStaff{
		ID:               uuid.New(),
		EventID:          event.ID,
		UserID:           uuid.New(),
		Name:             "Regional Lead",
		Role:             staff.RoleTeamMembers,
		ParentID:         &teamMemberParent,
		AllocatedTickets: 80,
		CommissionType:   staff.CommissionPercent,
		CommissionValue:  5,
		ReferralCode:     "REGLEAD1",
	}
	associateParent := teamMember.ID
	associate := &staff.EventStaff{
		ID:               uuid.New(),
		EventID:          event.ID,
		UserID:           uuid.New(),
		Name:             "Street Promoter",
		Role:             staff.RoleAssociates,
		ParentID:         &associateParent,
		AllocatedTickets: 30,
		CommissionType:   staff.CommissionFixed,
		CommissionValue:  300,
		ReferralCode:     "PROMO300",
	}
	for _, node := range []*staff.EventStaff{root, teamMember, associate} {
		if err := db.Create(node).Error; err != nil {
			return fmt.Errorf("failed to seed staff %s: %w", node.Name, err)
		}
		fmt.Printf("  Created staff: %s (%s, code %s)\n", node.Name, node.Role, node.ReferralCode)
	}

	return nil
}
