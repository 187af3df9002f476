package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tickethub/internal/shared/apperrors"
	"tickethub/pkg/logger"
	"tickethub/pkg/metrics"
)

type Service interface {
	AddStaff(ctx context.Context, eventID uuid.UUID, req CreateStaffRequest) (*StaffResponse, error)
	ReparentStaff(ctx context.Context, eventID, staffID uuid.UUID, req ReparentStaffRequest) (*StaffResponse, error)
	GetStaff(ctx context.Context, id uuid.UUID) (*StaffResponse, error)
	ListEventStaff(ctx context.Context, eventID uuid.UUID) ([]StaffResponse, error)
	ResolveReferral(ctx context.Context, eventID uuid.UUID, code string) (staffID uuid.UUID, err error)
	RecordSale(ctx context.Context, staffID, orderID uuid.UUID, ticketCount int, saleTotalMinor int64) error
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) AddStaff(ctx context.Context, eventID uuid.UUID, req CreateStaffRequest) (*StaffResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	node := &EventStaff{
		ID:               uuid.New(),
		EventID:          eventID,
		UserID:           userID,
		Name:             req.Name,
		Role:             Role(req.Role),
		AllocatedTickets: req.AllocatedTickets,
		CommissionType:   CommissionType(req.CommissionType),
		CommissionValue:  req.CommissionValue,
		ReferralCode:     newReferralCode(),
	}

	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent id: %w", err)
		}

		parent, err := s.repo.GetByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent: %w", err)
		}
		if parent == nil || parent.EventID != eventID {
			return nil, fmt.Errorf("parent staff not found on this event")
		}

		if err := s.checkNoCycle(ctx, node.ID, parentID); err != nil {
			return nil, err
		}
		if err := s.checkAllocation(ctx, parent, req.AllocatedTickets); err != nil {
			return nil, err
		}

		node.ParentID = &parentID
	}

	if err := s.repo.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	s.log.InfoContext(ctx, "event staff added",
		"staff_id", node.ID.String(),
		"event_id", eventID.String(),
		"role", string(node.Role),
	)

	resp := node.ToResponse()
	return &resp, nil
}

// ReparentStaff moves an existing node under a new parent, or detaches
// it when no parent is given. Moving a node under its own descendant
// would close a loop, so the full ancestor chain is re-walked.
func (s *service) ReparentStaff(ctx context.Context, eventID, staffID uuid.UUID, req ReparentStaffRequest) (*StaffResponse, error) {
	node, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	if node == nil || node.EventID != eventID {
		return nil, fmt.Errorf("staff not found on this event")
	}

	if req.ParentID == "" {
		if err := s.repo.UpdateParent(ctx, staffID, nil); err != nil {
			return nil, fmt.Errorf("failed to detach staff: %w", err)
		}
		node.ParentID = nil
		resp := node.ToResponse()
		return &resp, nil
	}

	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("invalid parent id: %w", err)
	}
	if parentID == staffID {
		return nil, apperrors.ErrCyclicHierarchy
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	if parent == nil || parent.EventID != eventID {
		return nil, fmt.Errorf("parent staff not found on this event")
	}

	if err := s.checkNoCycle(ctx, staffID, parentID); err != nil {
		return nil, err
	}
	if err := s.checkAllocation(ctx, parent, node.AllocatedTickets); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateParent(ctx, staffID, &parentID); err != nil {
		return nil, fmt.Errorf("failed to reparent staff: %w", err)
	}

	s.log.InfoContext(ctx, "event staff reparented",
		"staff_id", staffID.String(),
		"parent_id", parentID.String(),
	)

	node.ParentID = &parentID
	resp := node.ToResponse()
	return &resp, nil
}

// checkNoCycle walks the parent chain up from the proposed parent. Finding
// the new node's own id on the way up would close a loop.
func (s *service) checkNoCycle(ctx context.Context, nodeID, parentID uuid.UUID) error {
	seen := map[uuid.UUID]bool{nodeID: true}
	current := parentID
	for {
		if seen[current] {
			return apperrors.ErrCyclicHierarchy
		}
		seen[current] = true

		ancestor, err := s.repo.GetByID(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to walk hierarchy: %w", err)
		}
		if ancestor == nil || ancestor.ParentID == nil {
			return nil
		}
		current = *ancestor.ParentID
	}
}

// checkAllocation ensures children's allocations never exceed the parent's.
func (s *service) checkAllocation(ctx context.Context, parent *EventStaff, requested int) error {
	childSum, err := s.repo.ChildrenAllocationSum(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("failed to sum child allocations: %w", err)
	}
	if childSum+requested > parent.AllocatedTickets {
		return apperrors.ErrAllocationExceeded
	}
	return nil
}

func (s *service) GetStaff(ctx context.Context, id uuid.UUID) (*StaffResponse, error) {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("staff not found")
	}
	resp := node.ToResponse()
	return &resp, nil
}

func (s *service) ListEventStaff(ctx context.Context, eventID uuid.UUID) ([]StaffResponse, error) {
	nodes, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	responses := make([]StaffResponse, len(nodes))
	for i, node := range nodes {
		responses[i] = node.ToResponse()
	}
	return responses, nil
}

func (s *service) ResolveReferral(ctx context.Context, eventID uuid.UUID, code string) (uuid.UUID, error) {
	node, err := s.repo.GetByReferral(ctx, eventID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up referral: %w", err)
	}
	if node == nil {
		return uuid.Nil, apperrors.ErrInvalidReferralCode
	}
	return node.ID, nil
}

func (s *service) RecordSale(ctx context.Context, staffID, orderID uuid.UUID, ticketCount int, saleTotalMinor int64) error {
	node, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return fmt.Errorf("failed to load staff: %w", err)
	}
	if node == nil {
		return fmt.Errorf("staff not found")
	}

	earned := node.Commission(ticketCount, saleTotalMinor)
	if err := s.repo.UpdateSaleCounters(ctx, staffID, ticketCount, earned); err != nil {
		return fmt.Errorf("failed to update sale counters: %w", err)
	}

	metrics.TrackCommission(earned)
	s.log.LogCommissionPosted(ctx, staffID.String(), orderID.String(), earned)
	return nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
