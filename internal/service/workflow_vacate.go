package service

import (
	"context"
	"strings"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// SubmitVacateRequest records a pending request to end the tenant's occupancy.
// The tenant must be the current occupant of the house.
func (s *WorkflowService) SubmitVacateRequest(ctx context.Context, actor models.Actor, req dto.SubmitVacateRequest) (*models.VacateRequest, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid vacate request payload"); err != nil {
		return nil, err
	}

	var created models.VacateRequest
	_, err := s.mutate(ctx, "submit_vacate_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		houseIdx := working.HouseIndex(req.HouseID)
		if houseIdx < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "house "+req.HouseID+" does not exist")
		}
		if !working.Houses[houseIdx].IsOccupiedBy(req.TenantID) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "tenant "+req.TenantID+" does not occupy house "+req.HouseID)
		}
		created = models.VacateRequest{
			ID:          s.newID(),
			HouseID:     req.HouseID,
			TenantID:    req.TenantID,
			Reason:      strings.TrimSpace(req.Reason),
			Status:      models.RequestStatusPending,
			SubmittedBy: actor.UserID,
			SubmittedAt: s.now(),
		}
		if req.MoveOutDate != nil {
			created.MoveOutDate = timePtr(req.MoveOutDate.UTC())
		}
		working.VacateRequests = append(working.VacateRequests, created)
		return []models.WorkflowEvent{event(models.EventVacateRequested, created.ID, map[string]string{
			"houseId":  req.HouseID,
			"tenantId": req.TenantID,
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ApproveVacateRequest frees the house and moves the tenant into history.
func (s *WorkflowService) ApproveVacateRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) (*models.VacateApproval, error) {
	if err := requireRole(actor, approverRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(review, "invalid review payload"); err != nil {
		return nil, err
	}

	committed, err := s.mutate(ctx, "approve_vacate_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx, err := pendingVacateRequest(working, id)
		if err != nil {
			return nil, err
		}
		request := working.VacateRequests[idx]
		houseIdx := working.HouseIndex(request.HouseID)
		if houseIdx < 0 || !working.Houses[houseIdx].IsOccupiedBy(request.TenantID) {
			return nil, appErrors.Clone(appErrors.ErrHouseNotOccupied, "house "+request.HouseID+" is no longer occupied by tenant "+request.TenantID)
		}
		tenantIdx := working.TenantIndex(request.TenantID)
		if tenantIdx < 0 {
			return nil, appErrors.Clone(appErrors.ErrHouseNotOccupied, "tenant "+request.TenantID+" no longer exists")
		}

		now := s.now()
		house := working.Houses[houseIdx]
		house.Status = models.HouseStatusVacant
		house.TenantID = ""
		house.UpdatedAt = now
		working.Houses[houseIdx] = house

		tenant := working.Tenants[tenantIdx]
		tenant.LastHouseID = tenant.HouseID
		tenant.HouseID = ""
		tenant.VacatedAt = timePtr(now)
		working.Tenants[tenantIdx] = tenant

		request.Status = models.RequestStatusApproved
		markReviewed(&request.ReviewedBy, &request.ReviewedAt, &request.ReviewNote, actor, now, review.Note)
		working.VacateRequests[idx] = request

		return []models.WorkflowEvent{event(models.EventVacateApproved, request.ID, map[string]string{
			"houseId":  request.HouseID,
			"tenantId": request.TenantID,
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.VacateApproval{
		Houses:         committed.Houses,
		Tenants:        committed.Tenants,
		VacateRequests: committed.VacateRequests,
	}, nil
}

// RejectVacateRequest closes a pending vacate request; occupancy is unchanged.
func (s *WorkflowService) RejectVacateRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) ([]models.VacateRequest, error) {
	if err := requireRole(actor, approverRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(review, "invalid review payload"); err != nil {
		return nil, err
	}

	committed, err := s.mutate(ctx, "reject_vacate_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx, err := pendingVacateRequest(working, id)
		if err != nil {
			return nil, err
		}
		request := working.VacateRequests[idx]
		request.Status = models.RequestStatusRejected
		markReviewed(&request.ReviewedBy, &request.ReviewedAt, &request.ReviewNote, actor, s.now(), review.Note)
		working.VacateRequests[idx] = request
		return []models.WorkflowEvent{event(models.EventVacateRejected, request.ID, map[string]string{"houseId": request.HouseID})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.VacateRequests, nil
}

func pendingVacateRequest(snapshot *models.Snapshot, id string) (int, error) {
	idx := snapshot.VacateRequestIndex(id)
	if idx < 0 {
		return -1, appErrors.Clone(appErrors.ErrNotFound, "vacate request "+id+" not found")
	}
	if snapshot.VacateRequests[idx].Status != models.RequestStatusPending {
		return -1, appErrors.Clone(appErrors.ErrAlreadyResolved, "vacate request "+id+" is already "+string(snapshot.VacateRequests[idx].Status))
	}
	return idx, nil
}
