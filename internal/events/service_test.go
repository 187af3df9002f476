package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tickethub/internal/shared/apperrors"
	"tickethub/pkg/cache"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Event{}, &PaymentConfig{}))

	return NewService(NewRepository(db), nil, 0), db
}

// memoryCache is an in-process cache.Service for exercising the
// read-through and invalidation paths.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

func newCachedTestService(t *testing.T) (Service, *gorm.DB, *memoryCache) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Event{}, &PaymentConfig{}))

	mc := newMemoryCache()
	return NewService(NewRepository(db), mc, time.Hour), db, mc
}

func createPublishedEvent(t *testing.T, svc Service) (uuid.UUID, uuid.UUID) {
	t.Helper()

	organizerID := uuid.New()
	event, err := svc.CreateEvent(context.Background(), organizerID, CreateEventRequest{
		Name:     "Launch Party",
		Venue:    "Main Hall",
		StartsAt: time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	eventID := uuid.MustParse(event.ID)
	require.NoError(t, svc.PublishEvent(context.Background(), eventID, organizerID))
	return eventID, organizerID
}

type salesCheckerStub struct {
	hasSales bool
}

func (s salesCheckerStub) HasCompletedSales(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return s.hasSales, nil
}

func TestPurchaseTermsRequiresActiveConfig(t *testing.T) {
	svc, _ := newTestService(t)
	eventID, _ := createPublishedEvent(t, svc)

	_, _, _, _, err := svc.PurchaseTerms(context.Background(), eventID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTicketsNotYetAvailable))
}

func TestPurchaseTermsRequiresPublishedEvent(t *testing.T) {
	svc, _ := newTestService(t)

	organizerID := uuid.New()
	event, err := svc.CreateEvent(context.Background(), organizerID, CreateEventRequest{
		Name:     "Draft Only",
		StartsAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	eventID := uuid.MustParse(event.ID)

	_, err = svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model: "CREDIT_CARD",
	})
	require.NoError(t, err)

	_, _, _, _, err = svc.PurchaseTerms(context.Background(), eventID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTicketsNotYetAvailable))
}

func TestPurchaseTermsCreditCard(t *testing.T) {
	svc, _ := newTestService(t)
	eventID, organizerID := createPublishedEvent(t, svc)

	_, err := svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model:                "CREDIT_CARD",
		CashEnabled:          true,
		PlatformFeePercent:   5,
		ProcessingFeePercent: 2.9,
		FixedFeeMinor:        30,
	})
	require.NoError(t, err)

	methods, platformPct, processingPct, fixedFee, err := svc.PurchaseTerms(context.Background(), eventID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CARD", "CASH"}, methods)
	assert.Equal(t, 5.0, platformPct)
	assert.Equal(t, 2.9, processingPct)
	assert.Equal(t, int64(30), fixedFee)
}

func TestPurchaseTermsPrepayZeroesPlatformFee(t *testing.T) {
	svc, _ := newTestService(t)
	eventID, organizerID := createPublishedEvent(t, svc)

	_, err := svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model:                "PREPAY",
		PlatformFeePercent:   5,
		ProcessingFeePercent: 2.9,
	})
	require.NoError(t, err)

	methods, platformPct, _, _, err := svc.PurchaseTerms(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CARD"}, methods)
	assert.Equal(t, 0.0, platformPct)
}

func TestPaymentModelLockedAfterSales(t *testing.T) {
	svc, _ := newTestService(t)
	eventID, organizerID := createPublishedEvent(t, svc)

	_, err := svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model: "CREDIT_CARD",
	})
	require.NoError(t, err)

	svc.SetSalesChecker(salesCheckerStub{hasSales: true})

	_, err = svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model: "PREPAY",
	})
	require.Error(t, err)

	// Fee tweaks within the same model stay allowed; they apply to new
	// orders only.
	_, err = svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model:              "CREDIT_CARD",
		PlatformFeePercent: 7,
	})
	require.NoError(t, err)
}

func TestResetPaymentConfigDisablesPurchases(t *testing.T) {
	svc, _ := newTestService(t)
	eventID, organizerID := createPublishedEvent(t, svc)

	_, err := svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model: "CREDIT_CARD",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPaymentConfig(context.Background(), eventID, organizerID))

	_, _, _, _, err = svc.PurchaseTerms(context.Background(), eventID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTicketsNotYetAvailable))
}

func TestGetEventReadsThroughCache(t *testing.T) {
	svc, db, _ := newCachedTestService(t)
	eventID, _ := createPublishedEvent(t, svc)

	first, err := svc.GetEventByID(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Party", first.Name)

	// A direct row change is invisible until something invalidates the
	// cached detail entry.
	require.NoError(t, db.Model(&Event{}).
		Where("id = ?", eventID).
		Update("name", "Renamed Behind The Cache").Error)

	cachedRead, err := svc.GetEventByID(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Party", cachedRead.Name)
}

func TestPaymentConfigChangeInvalidatesEventCache(t *testing.T) {
	svc, _, mc := newCachedTestService(t)
	eventID, organizerID := createPublishedEvent(t, svc)

	detail, err := svc.GetEventByID(context.Background(), eventID)
	require.NoError(t, err)
	assert.False(t, detail.Purchasable)
	assert.NotEmpty(t, mc.entries)

	_, err = svc.SetPaymentConfig(context.Background(), eventID, organizerID, SetPaymentConfigRequest{
		Model: "CREDIT_CARD",
	})
	require.NoError(t, err)
	assert.Empty(t, mc.entries)

	refreshed, err := svc.GetEventByID(context.Background(), eventID)
	require.NoError(t, err)
	assert.True(t, refreshed.Purchasable)
}

func TestListEventsCachedPerPage(t *testing.T) {
	svc, _, mc := newCachedTestService(t)
	createPublishedEvent(t, svc)

	page, err := svc.ListEvents(context.Background(), EventListQuery{Status: "PUBLISHED"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Contains(t, mc.entries, "event:list:1:10:PUBLISHED")

	// Creating another event drops every cached list page.
	_, err = svc.CreateEvent(context.Background(), uuid.New(), CreateEventRequest{
		Name:     "Second Night",
		StartsAt: time.Now().Add(14 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.NotContains(t, mc.entries, "event:list:1:10:PUBLISHED")
}
