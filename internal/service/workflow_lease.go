package service

import (
	"context"
	"strings"
	"time"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// SubmitLeaseRequest records a pending application for a house. Several pending
// applications may target the same house.
func (s *WorkflowService) SubmitLeaseRequest(ctx context.Context, actor models.Actor, req dto.SubmitLeaseRequest) (*models.LeaseRequest, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid lease request payload"); err != nil {
		return nil, err
	}

	var created models.LeaseRequest
	_, err := s.mutate(ctx, "submit_lease_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		if working.HouseIndex(req.HouseID) < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "house "+req.HouseID+" does not exist")
		}
		now := s.now()
		start := req.LeaseStartDate
		if start.IsZero() {
			start = now
		}
		created = models.LeaseRequest{
			ID:             s.newID(),
			HouseID:        req.HouseID,
			ApplicantName:  strings.TrimSpace(req.ApplicantName),
			ApplicantPhone: strings.TrimSpace(req.ApplicantPhone),
			ApplicantEmail: strings.TrimSpace(req.ApplicantEmail),
			LeaseStartDate: start.UTC(),
			Note:           req.Note,
			Status:         models.RequestStatusPending,
			SubmittedBy:    actor.UserID,
			SubmittedAt:    now,
		}
		working.LeaseRequests = append(working.LeaseRequests, created)
		return []models.WorkflowEvent{event(models.EventLeaseRequested, created.ID, map[string]string{"houseId": req.HouseID})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ApproveLeaseRequest creates a tenant from the application and occupies the
// house. Only the first approval among competing requests for a house succeeds.
func (s *WorkflowService) ApproveLeaseRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) (*models.LeaseApproval, error) {
	if err := requireRole(actor, approverRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(review, "invalid review payload"); err != nil {
		return nil, err
	}

	committed, err := s.mutate(ctx, "approve_lease_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx, err := pendingLeaseRequest(working, id)
		if err != nil {
			return nil, err
		}
		request := working.LeaseRequests[idx]
		houseIdx := working.HouseIndex(request.HouseID)
		if houseIdx < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "house "+request.HouseID+" no longer exists")
		}
		if !working.Houses[houseIdx].IsVacant() {
			return nil, appErrors.Clone(appErrors.ErrHouseNotVacant, "house "+request.HouseID+" is already occupied")
		}

		now := s.now()
		tenant := models.Tenant{
			ID:             s.newID(),
			HouseID:        request.HouseID,
			Name:           request.ApplicantName,
			Phone:          request.ApplicantPhone,
			Email:          request.ApplicantEmail,
			LeaseStartDate: request.LeaseStartDate,
			LeaseRequestID: request.ID,
			CreatedAt:      now,
		}
		working.Tenants = append(working.Tenants, tenant)

		house := working.Houses[houseIdx]
		house.Status = models.HouseStatusOccupied
		house.TenantID = tenant.ID
		house.UpdatedAt = now
		working.Houses[houseIdx] = house

		request.Status = models.RequestStatusApproved
		request.TenantID = tenant.ID
		markReviewed(&request.ReviewedBy, &request.ReviewedAt, &request.ReviewNote, actor, now, review.Note)
		working.LeaseRequests[idx] = request

		return []models.WorkflowEvent{event(models.EventLeaseApproved, request.ID, map[string]string{
			"houseId":  request.HouseID,
			"tenantId": tenant.ID,
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.LeaseApproval{
		Tenants:       committed.Tenants,
		Houses:        committed.Houses,
		LeaseRequests: committed.LeaseRequests,
	}, nil
}

// RejectLeaseRequest closes a pending application without touching anything else.
func (s *WorkflowService) RejectLeaseRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) ([]models.LeaseRequest, error) {
	if err := requireRole(actor, approverRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(review, "invalid review payload"); err != nil {
		return nil, err
	}

	committed, err := s.mutate(ctx, "reject_lease_request", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx, err := pendingLeaseRequest(working, id)
		if err != nil {
			return nil, err
		}
		request := working.LeaseRequests[idx]
		request.Status = models.RequestStatusRejected
		markReviewed(&request.ReviewedBy, &request.ReviewedAt, &request.ReviewNote, actor, s.now(), review.Note)
		working.LeaseRequests[idx] = request
		return []models.WorkflowEvent{event(models.EventLeaseRejected, request.ID, map[string]string{"houseId": request.HouseID})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.LeaseRequests, nil
}

func pendingLeaseRequest(snapshot *models.Snapshot, id string) (int, error) {
	idx := snapshot.LeaseRequestIndex(id)
	if idx < 0 {
		return -1, appErrors.Clone(appErrors.ErrNotFound, "lease request "+id+" not found")
	}
	if snapshot.LeaseRequests[idx].Status != models.RequestStatusPending {
		return -1, appErrors.Clone(appErrors.ErrAlreadyResolved, "lease request "+id+" is already "+string(snapshot.LeaseRequests[idx].Status))
	}
	return idx, nil
}

// markReviewed assigns fresh pointers so the previous snapshot is never aliased.
func markReviewed(by **string, at **time.Time, note **string, actor models.Actor, now time.Time, text string) {
	*by = stringPtr(actor.UserID)
	*at = timePtr(now)
	if strings.TrimSpace(text) != "" {
		*note = stringPtr(text)
	}
}
