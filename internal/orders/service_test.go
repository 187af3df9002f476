package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tickethub/internal/shared/apperrors"
	"tickethub/internal/tiers"
	"tickethub/pkg/logger"
)

type tierInfo struct {
	eventID uuid.UUID
	isTable bool
	seats   int
}

type catalogStub struct {
	infos map[uuid.UUID]tierInfo
}

func (c *catalogStub) TierPurchaseInfo(ctx context.Context, tierID uuid.UUID) (uuid.UUID, bool, int, error) {
	info, ok := c.infos[tierID]
	if !ok {
		return uuid.Nil, false, 0, fmt.Errorf("tier %s not found", tierID)
	}
	return info.eventID, info.isTable, info.seats, nil
}

func (c *catalogStub) InvalidateAvailability(ctx context.Context, tierIDs ...uuid.UUID) error {
	return nil
}

type gateStub struct {
	methods       []string
	platformPct   float64
	processingPct float64
	fixedFee      int64
	err           error
}

func (g *gateStub) PurchaseTerms(ctx context.Context, eventID uuid.UUID) ([]string, float64, float64, int64, error) {
	if g.err != nil {
		return nil, 0, 0, 0, g.err
	}
	return g.methods, g.platformPct, g.processingPct, g.fixedFee, nil
}

type referralStub struct {
	codes map[string]uuid.UUID
}

func (r *referralStub) ResolveReferral(ctx context.Context, eventID uuid.UUID, code string) (uuid.UUID, error) {
	if id, ok := r.codes[code]; ok {
		return id, nil
	}
	return uuid.Nil, apperrors.ErrInvalidReferralCode
}

type commissionCall struct {
	staffID    uuid.UUID
	orderID    uuid.UUID
	tickets    int
	totalMinor int64
}

type commissionStub struct {
	calls []commissionCall
}

func (c *commissionStub) RecordSale(ctx context.Context, staffID, orderID uuid.UUID, ticketCount int, saleTotalMinor int64) error {
	c.calls = append(c.calls, commissionCall{staffID, orderID, ticketCount, saleTotalMinor})
	return nil
}

type failingGateway struct{}

func (failingGateway) Confirm(ctx context.Context, orderID uuid.UUID, confirmation string, amountMinor int64) error {
	return errors.New("card declined")
}

type testEnv struct {
	db         *gorm.DB
	service    Service
	ledger     *tiers.Ledger
	catalog    *catalogStub
	gate       *gateStub
	referrals  *referralStub
	commission *commissionStub

	eventID uuid.UUID
	tierID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&tiers.TicketTier{}, &tiers.TierPriceWindow{}, &Order{}, &OrderItem{}, &Ticket{}))

	eventID := uuid.New()
	tier := &tiers.TicketTier{
		ID:         uuid.New(),
		EventID:    eventID,
		Name:       "General Admission",
		PriceMinor: 5000,
		Quantity:   10,
	}
	require.NoError(t, db.Create(tier).Error)

	env := &testEnv{
		db:     db,
		ledger: tiers.NewLedger(db),
		catalog: &catalogStub{infos: map[uuid.UUID]tierInfo{
			tier.ID: {eventID: eventID},
		}},
		gate: &gateStub{
			methods:       []string{"CARD", "CASH"},
			platformPct:   5,
			processingPct: 2.9,
			fixedFee:      30,
		},
		referrals:  &referralStub{codes: map[string]uuid.UUID{}},
		commission: &commissionStub{},
		eventID:    eventID,
		tierID:     tier.ID,
	}

	env.service = NewService(ServiceDeps{
		Repo:       NewRepository(db),
		Ledger:     env.ledger,
		Gate:       env.gate,
		Catalog:    env.catalog,
		Referrals:  env.referrals,
		Commission: env.commission,
		Logger:     logger.GetDefault(),
	})

	return env
}

func (e *testEnv) createOrder(t *testing.T, method string, quantity int, referralCode string) *OrderResponse {
	t.Helper()

	order, err := e.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       e.eventID.String(),
		Items:         []OrderItemRequest{{TierID: e.tierID.String(), Quantity: quantity}},
		PaymentMethod: method,
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
		ReferralCode:  referralCode,
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) tierSold(t *testing.T) int {
	t.Helper()
	var tier tiers.TicketTier
	require.NoError(t, e.db.First(&tier, "id = ?", e.tierID).Error)
	return tier.Sold
}

func (e *testEnv) setHoldExpiry(t *testing.T, orderID string, at time.Time) {
	t.Helper()
	require.NoError(t, e.db.Model(&Order{}).
		Where("id = ?", orderID).
		Update("hold_expires_at", at).Error)
}

func TestCreateCardOrder(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CARD", 2, "")

	assert.Equal(t, StatusPendingCardPayment, order.Status)
	assert.Nil(t, order.HoldExpiresAt)
	assert.Equal(t, int64(10000), order.TotalMinor)
	assert.Len(t, order.TicketIDs, 2)
	assert.Equal(t, 2, env.tierSold(t))

	var tickets []Ticket
	require.NoError(t, env.db.Find(&tickets, "order_id = ?", order.ID).Error)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusPending, ticket.Status)
	}
}

func TestCreateCashOrderSetsHold(t *testing.T) {
	env := newTestEnv(t)

	before := time.Now()
	order := env.createOrder(t, "CASH", 1, "")

	assert.Equal(t, StatusPendingCashPayment, order.Status)
	require.NotNil(t, order.HoldExpiresAt)

	// Default hold is 30 minutes from creation.
	expected := before.Add(30 * time.Minute)
	assert.WithinDuration(t, expected, *order.HoldExpiresAt, 5*time.Second)
}

func TestCreateOrderInsufficientInventoryRollsBack(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       env.eventID.String(),
		Items:         []OrderItemRequest{{TierID: env.tierID.String(), Quantity: 11}},
		PaymentMethod: "CARD",
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientInventory))

	assert.Equal(t, 0, env.tierSold(t))

	var count int64
	require.NoError(t, env.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderRejectsDisallowedMethod(t *testing.T) {
	env := newTestEnv(t)
	env.gate.methods = []string{"CARD"}

	_, err := env.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       env.eventID.String(),
		Items:         []OrderItemRequest{{TierID: env.tierID.String(), Quantity: 1}},
		PaymentMethod: "CASH",
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTicketsNotYetAvailable))
	assert.Equal(t, 0, env.tierSold(t))
}

func TestCreateOrderGateFailure(t *testing.T) {
	env := newTestEnv(t)
	env.gate.err = apperrors.ErrTicketsNotYetAvailable

	_, err := env.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       env.eventID.String(),
		Items:         []OrderItemRequest{{TierID: env.tierID.String(), Quantity: 1}},
		PaymentMethod: "CARD",
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTicketsNotYetAvailable))
}

func TestReferralAttribution(t *testing.T) {
	env := newTestEnv(t)
	staffID := uuid.New()
	env.referrals.codes["GOODCODE"] = staffID

	order := env.createOrder(t, "CARD", 1, "GOODCODE")

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.ReferralStaffID)
	assert.Equal(t, staffID, *stored.ReferralStaffID)
}

func TestInvalidReferralToleratedWithoutAttribution(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CARD", 1, "BADCODE")

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", order.ID).Error)
	assert.Nil(t, stored.ReferralStaffID)
}

func TestCompleteOrderPostsCommission(t *testing.T) {
	env := newTestEnv(t)
	staffID := uuid.New()
	env.referrals.codes["SELLER01"] = staffID

	order := env.createOrder(t, "CARD", 4, "SELLER01")

	completed, err := env.service.CompleteOrder(context.Background(), uuid.MustParse(order.ID), "ch_12345")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	// Inventory stays reserved on completion.
	assert.Equal(t, 4, env.tierSold(t))

	var tickets []Ticket
	require.NoError(t, env.db.Find(&tickets, "order_id = ?", order.ID).Error)
	require.Len(t, tickets, 4)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusValid, ticket.Status)
	}

	require.Len(t, env.commission.calls, 1)
	call := env.commission.calls[0]
	assert.Equal(t, staffID, call.staffID)
	assert.Equal(t, 4, call.tickets)
	assert.Equal(t, int64(20000), call.totalMinor)
}

func TestCompleteWithoutReferralSkipsCommission(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CARD", 1, "")
	_, err := env.service.CompleteOrder(context.Background(), uuid.MustParse(order.ID), "ch_12345")
	require.NoError(t, err)

	assert.Empty(t, env.commission.calls)
}

func TestTerminalOrderRejectsFurtherTransitions(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CARD", 1, "")
	orderID := uuid.MustParse(order.ID)

	_, err := env.service.CompleteOrder(context.Background(), orderID, "ch_12345")
	require.NoError(t, err)

	_, err = env.service.CompleteOrder(context.Background(), orderID, "ch_12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))

	_, err = env.service.CancelOrder(context.Background(), orderID, "change of plans")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))

	assert.Equal(t, 1, env.tierSold(t))
}

func TestCancelReleasesInventoryOnce(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CASH", 3, "")
	orderID := uuid.MustParse(order.ID)
	assert.Equal(t, 3, env.tierSold(t))

	cancelled, err := env.service.CancelOrder(context.Background(), orderID, "buyer request")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, env.tierSold(t))

	var tickets []Ticket
	require.NoError(t, env.db.Find(&tickets, "order_id = ?", order.ID).Error)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusCancelled, ticket.Status)
	}

	// A repeated cancel is rejected and must not double-release.
	_, err = env.service.CancelOrder(context.Background(), orderID, "again")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
	assert.Equal(t, 0, env.tierSold(t))
}

func TestGatewayFailureCancelsOrder(t *testing.T) {
	env := newTestEnv(t)
	env.service = NewService(ServiceDeps{
		Repo:       NewRepository(env.db),
		Ledger:     env.ledger,
		Gate:       env.gate,
		Catalog:    env.catalog,
		Referrals:  env.referrals,
		Commission: env.commission,
		Gateway:    failingGateway{},
		Logger:     logger.GetDefault(),
	})

	order := env.createOrder(t, "CARD", 2, "")
	orderID := uuid.MustParse(order.ID)

	_, err := env.service.CompleteOrder(context.Background(), orderID, "ch_12345")
	require.Error(t, err)

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", orderID).Error)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, 0, env.tierSold(t))
	assert.Empty(t, env.commission.calls)
}

func TestSweepExpiresLapsedCashHolds(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CASH", 2, "")
	env.setHoldExpiry(t, order.ID, time.Now().Add(-time.Minute))

	result, err := env.service.SweepExpiredCashHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Equal(t, 2, result.TicketsReleased)
	assert.Equal(t, 0, env.tierSold(t))

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, StatusExpired, stored.Status)

	var tickets []Ticket
	require.NoError(t, env.db.Find(&tickets, "order_id = ?", order.ID).Error)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusExpired, ticket.Status)
	}
}

func TestSweepIgnoresFreshHolds(t *testing.T) {
	env := newTestEnv(t)

	// A hold checked ten minutes in is untouched until the full thirty
	// have lapsed.
	order := env.createOrder(t, "CASH", 2, "")
	env.setHoldExpiry(t, order.ID, time.Now().Add(20*time.Minute))

	result, err := env.service.SweepExpiredCashHolds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.ExpiredCount)
	assert.Equal(t, 2, env.tierSold(t))

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, StatusPendingCashPayment, stored.Status)
}

func TestSweepSkipsCancelledOrders(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CASH", 2, "")
	orderID := uuid.MustParse(order.ID)

	_, err := env.service.CancelOrder(context.Background(), orderID, "buyer request")
	require.NoError(t, err)
	assert.Equal(t, 0, env.tierSold(t))

	// Even with a lapsed hold timestamp the cancelled order is not
	// expired or double-released.
	env.setHoldExpiry(t, order.ID, time.Now().Add(-time.Hour))

	result, err := env.service.SweepExpiredCashHolds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.ExpiredCount)
	assert.Equal(t, 0, env.tierSold(t))

	var stored Order
	require.NoError(t, env.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestTablePackageCreatesSeatTickets(t *testing.T) {
	env := newTestEnv(t)

	tableTier := &tiers.TicketTier{
		ID:             uuid.New(),
		EventID:        env.eventID,
		Name:           "VIP Table",
		PriceMinor:     150000,
		Quantity:       5,
		IsTablePackage: true,
		SeatsPerTable:  8,
	}
	require.NoError(t, env.db.Create(tableTier).Error)
	env.catalog.infos[tableTier.ID] = tierInfo{eventID: env.eventID, isTable: true, seats: 8}

	order, err := env.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       env.eventID.String(),
		Items:         []OrderItemRequest{{TierID: tableTier.ID.String(), Quantity: 1}},
		PaymentMethod: "CARD",
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
	})
	require.NoError(t, err)

	// One table reserved, eight seat tickets issued.
	assert.Equal(t, int64(150000), order.TotalMinor)
	assert.Len(t, order.TicketIDs, 8)

	var tier tiers.TicketTier
	require.NoError(t, env.db.First(&tier, "id = ?", tableTier.ID).Error)
	assert.Equal(t, 1, tier.Sold)
}

func TestSweepReportsSeatTicketsForTablePackages(t *testing.T) {
	env := newTestEnv(t)

	tableTier := &tiers.TicketTier{
		ID:             uuid.New(),
		EventID:        env.eventID,
		Name:           "VIP Table",
		PriceMinor:     150000,
		Quantity:       5,
		IsTablePackage: true,
		SeatsPerTable:  8,
	}
	require.NoError(t, env.db.Create(tableTier).Error)
	env.catalog.infos[tableTier.ID] = tierInfo{eventID: env.eventID, isTable: true, seats: 8}

	order, err := env.service.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		EventID:       env.eventID.String(),
		Items:         []OrderItemRequest{{TierID: tableTier.ID.String(), Quantity: 1}},
		PaymentMethod: "CASH",
		BuyerName:     "Test Buyer",
		BuyerEmail:    "buyer@example.com",
	})
	require.NoError(t, err)
	env.setHoldExpiry(t, order.ID, time.Now().Add(-time.Minute))

	// One expired table order releases one inventory unit but eight
	// seat tickets.
	result, err := env.service.SweepExpiredCashHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Equal(t, 8, result.TicketsReleased)

	var tier tiers.TicketTier
	require.NoError(t, env.db.First(&tier, "id = ?", tableTier.ID).Error)
	assert.Equal(t, 0, tier.Sold)

	var tickets []Ticket
	require.NoError(t, env.db.Find(&tickets, "order_id = ?", order.ID).Error)
	require.Len(t, tickets, 8)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusExpired, ticket.Status)
	}
}

func TestScanTicket(t *testing.T) {
	env := newTestEnv(t)

	order := env.createOrder(t, "CARD", 1, "")
	orderID := uuid.MustParse(order.ID)
	ticketID := uuid.MustParse(order.TicketIDs[0])

	// Pending tickets are not scannable.
	_, err := env.service.ScanTicket(context.Background(), ticketID)
	require.Error(t, err)

	_, err = env.service.CompleteOrder(context.Background(), orderID, "ch_12345")
	require.NoError(t, err)

	ticket, err := env.service.ScanTicket(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, TicketStatusScanned, ticket.Status)
	require.NotNil(t, ticket.ScannedAt)

	// Double scan is rejected.
	_, err = env.service.ScanTicket(context.Background(), ticketID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
}
