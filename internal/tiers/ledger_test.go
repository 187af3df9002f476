package tiers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tickethub/internal/shared/apperrors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&TicketTier{}, &TierPriceWindow{}))
	return db
}

func seedTier(t *testing.T, db *gorm.DB, quantity int, priceMinor int64) *TicketTier {
	t.Helper()

	tier := &TicketTier{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		Name:       "General Admission",
		PriceMinor: priceMinor,
		Quantity:   quantity,
	}
	require.NoError(t, db.Create(tier).Error)
	return tier
}

func TestLedgerReserve(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 10, 5000)

	price, err := ledger.Reserve(ctx, tier.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), price)

	var reloaded TicketTier
	require.NoError(t, db.First(&reloaded, "id = ?", tier.ID).Error)
	assert.Equal(t, 3, reloaded.Sold)
}

func TestLedgerReserveInsufficient(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 5, 5000)

	_, err := ledger.Reserve(ctx, tier.ID, 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientInventory))

	var reloaded TicketTier
	require.NoError(t, db.First(&reloaded, "id = ?", tier.ID).Error)
	assert.Equal(t, 0, reloaded.Sold)
}

func TestLedgerReserveUsesActivePrice(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 10, 7500)
	window := &TierPriceWindow{
		ID:         uuid.New(),
		TierID:     tier.ID,
		PriceMinor: 5500,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Position:   0,
	}
	require.NoError(t, db.Create(window).Error)

	price, err := ledger.Reserve(ctx, tier.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5500), price)
}

func TestLedgerConcurrentReserveNoOversell(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 2, 5000)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, tier.ID, 2)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		if err == nil {
			succeeded++
		} else if errors.Is(err, apperrors.ErrInsufficientInventory) {
			insufficient++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	var reloaded TicketTier
	require.NoError(t, db.First(&reloaded, "id = ?", tier.ID).Error)
	assert.Equal(t, 2, reloaded.Sold)
}

func TestLedgerRelease(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 10, 5000)
	_, err := ledger.Reserve(ctx, tier.ID, 4)
	require.NoError(t, err)

	released, err := ledger.Release(ctx, tier.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, released)

	var reloaded TicketTier
	require.NoError(t, db.First(&reloaded, "id = ?", tier.ID).Error)
	assert.Equal(t, 0, reloaded.Sold)
}

func TestLedgerReleaseFlooredAtZero(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	tier := seedTier(t, db, 10, 5000)
	_, err := ledger.Reserve(ctx, tier.ID, 2)
	require.NoError(t, err)

	// Releasing more than is sold releases only what is sold; a second
	// release finds nothing left.
	released, err := ledger.Release(ctx, tier.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	released, err = ledger.Release(ctx, tier.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	var reloaded TicketTier
	require.NoError(t, db.First(&reloaded, "id = ?", tier.ID).Error)
	assert.Equal(t, 0, reloaded.Sold)
}
