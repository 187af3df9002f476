package staff

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tickethub/internal/shared/apperrors"
	"tickethub/pkg/logger"
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

	require.NoError(t, db.AutoMigrate(&EventStaff{}))

	return NewService(NewRepository(db), logger.GetDefault()), db
}

func addNode(t *testing.T, svc Service, eventID uuid.UUID, parentID string, allocated int, commissionType string, value float64) *StaffResponse {
	t.Helper()

	node, err := svc.AddStaff(context.Background(), eventID, CreateStaffRequest{
		UserID:           uuid.New().String(),
		Name:             "Seller",
		Role:             string(RoleStaff),
		ParentID:         parentID,
		AllocatedTickets: allocated,
		CommissionType:   commissionType,
		CommissionValue:  value,
	})
	require.NoError(t, err)
	return node
}

func TestAddStaffBuildsHierarchy(t *testing.T) {
	svc, _ := newTestService(t)
	eventID := uuid.New()

	root := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	child := addNode(t, svc, eventID, root.ID, 40, "FIXED", 300)

	assert.NotEmpty(t, root.ReferralCode)
	assert.NotEqual(t, root.ReferralCode, child.ReferralCode)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
}

func TestAddStaffRejectsUnknownParent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddStaff(context.Background(), uuid.New(), CreateStaffRequest{
		UserID:         uuid.New().String(),
		Role:           string(RoleAssociates),
		ParentID:       uuid.New().String(),
		CommissionType: "FIXED",
	})
	require.Error(t, err)
}

func TestAddStaffRejectsAllocationExceeded(t *testing.T) {
	svc, _ := newTestService(t)
	eventID := uuid.New()

	root := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	addNode(t, svc, eventID, root.ID, 60, "FIXED", 200)

	// 60 already distributed; another 50 would exceed the root's 100.
	_, err := svc.AddStaff(context.Background(), eventID, CreateStaffRequest{
		UserID:           uuid.New().String(),
		Role:             string(RoleTeamMembers),
		ParentID:         root.ID,
		AllocatedTickets: 50,
		CommissionType:   "FIXED",
		CommissionValue:  100,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAllocationExceeded))
}

func TestReparentRejectsCycle(t *testing.T) {
	svc, _ := newTestService(t)
	eventID := uuid.New()

	root := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	child := addNode(t, svc, eventID, root.ID, 80, "FIXED", 300)
	grandchild := addNode(t, svc, eventID, child.ID, 40, "FIXED", 100)

	// Moving the root under its own descendant would close a loop.
	_, err := svc.ReparentStaff(context.Background(), eventID, uuid.MustParse(root.ID), ReparentStaffRequest{
		ParentID: grandchild.ID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCyclicHierarchy))

	// Self-parenting is the degenerate loop.
	_, err = svc.ReparentStaff(context.Background(), eventID, uuid.MustParse(child.ID), ReparentStaffRequest{
		ParentID: child.ID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCyclicHierarchy))
}

func TestReparentMovesNode(t *testing.T) {
	svc, db := newTestService(t)
	eventID := uuid.New()

	rootA := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	rootB := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	child := addNode(t, svc, eventID, rootA.ID, 40, "FIXED", 300)

	moved, err := svc.ReparentStaff(context.Background(), eventID, uuid.MustParse(child.ID), ReparentStaffRequest{
		ParentID: rootB.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, rootB.ID, *moved.ParentID)

	var reloaded EventStaff
	require.NoError(t, db.First(&reloaded, "id = ?", uuid.MustParse(child.ID)).Error)
	require.NotNil(t, reloaded.ParentID)
	assert.Equal(t, rootB.ID, reloaded.ParentID.String())

	// Detaching clears the parent entirely.
	detached, err := svc.ReparentStaff(context.Background(), eventID, uuid.MustParse(child.ID), ReparentStaffRequest{})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestReparentRejectsOverAllocatedParent(t *testing.T) {
	svc, _ := newTestService(t)
	eventID := uuid.New()

	rootA := addNode(t, svc, eventID, "", 100, "PERCENT", 10)
	rootB := addNode(t, svc, eventID, "", 50, "PERCENT", 10)
	addNode(t, svc, eventID, rootB.ID, 30, "FIXED", 100)
	child := addNode(t, svc, eventID, rootA.ID, 40, "FIXED", 300)

	// rootB has 30 of 50 distributed; the incoming 40 would exceed it.
	_, err := svc.ReparentStaff(context.Background(), eventID, uuid.MustParse(child.ID), ReparentStaffRequest{
		ParentID: rootB.ID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAllocationExceeded))
}

func TestResolveReferral(t *testing.T) {
	svc, _ := newTestService(t)
	eventID := uuid.New()

	node := addNode(t, svc, eventID, "", 50, "PERCENT", 5)

	resolved, err := svc.ResolveReferral(context.Background(), eventID, node.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, node.ID, resolved.String())

	_, err = svc.ResolveReferral(context.Background(), eventID, "NOPE1234")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidReferralCode))

	// Codes are scoped per event.
	_, err = svc.ResolveReferral(context.Background(), uuid.New(), node.ReferralCode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidReferralCode))
}

func TestRecordSaleFixedCommission(t *testing.T) {
	svc, db := newTestService(t)
	eventID := uuid.New()

	node := addNode(t, svc, eventID, "", 50, "FIXED", 300)
	nodeID := uuid.MustParse(node.ID)

	require.NoError(t, svc.RecordSale(context.Background(), nodeID, uuid.New(), 4, 20000))

	var reloaded EventStaff
	require.NoError(t, db.First(&reloaded, "id = ?", nodeID).Error)
	assert.Equal(t, 4, reloaded.TicketsSold)
	assert.Equal(t, int64(1200), reloaded.CommissionEarnedMinor)
}

func TestRecordSalePercentCommission(t *testing.T) {
	svc, db := newTestService(t)
	eventID := uuid.New()

	node := addNode(t, svc, eventID, "", 50, "PERCENT", 10)
	nodeID := uuid.MustParse(node.ID)

	require.NoError(t, svc.RecordSale(context.Background(), nodeID, uuid.New(), 2, 5000))

	var reloaded EventStaff
	require.NoError(t, db.First(&reloaded, "id = ?", nodeID).Error)
	assert.Equal(t, 2, reloaded.TicketsSold)
	assert.Equal(t, int64(500), reloaded.CommissionEarnedMinor)
}

func TestRecordSaleAccumulates(t *testing.T) {
	svc, db := newTestService(t)
	eventID := uuid.New()

	node := addNode(t, svc, eventID, "", 50, "FIXED", 100)
	nodeID := uuid.MustParse(node.ID)

	require.NoError(t, svc.RecordSale(context.Background(), nodeID, uuid.New(), 1, 1000))
	require.NoError(t, svc.RecordSale(context.Background(), nodeID, uuid.New(), 3, 3000))

	var reloaded EventStaff
	require.NoError(t, db.First(&reloaded, "id = ?", nodeID).Error)
	assert.Equal(t, 4, reloaded.TicketsSold)
	assert.Equal(t, int64(400), reloaded.CommissionEarnedMinor)
}
