package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// AddPayment appends a rent receipt for the active tenant of a house. Houses and
// tenants are never modified by payments.
func (s *WorkflowService) AddPayment(ctx context.Context, actor models.Actor, req dto.AddPaymentRequest) (*models.PaymentReceipt, error) {
	if err := requireRole(actor, collectorRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid payment payload"); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, fmt.Sprintf("payment amount %.2f must be greater than zero", req.Amount))
	}

	var created models.Payment
	committed, err := s.mutate(ctx, "add_payment", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		houseIdx := working.HouseIndex(req.HouseID)
		if houseIdx < 0 || !working.Houses[houseIdx].IsOccupiedBy(req.TenantID) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "house "+req.HouseID+" is not occupied by tenant "+req.TenantID)
		}
		now := s.now()
		date := req.Date
		if date.IsZero() {
			date = now
		}
		method := req.Method
		if method == "" {
			method = models.PaymentMethodCash
		}
		created = models.Payment{
			ID:         s.newID(),
			HouseID:    req.HouseID,
			TenantID:   req.TenantID,
			Amount:     req.Amount,
			Date:       date.UTC(),
			Method:     method,
			Note:       strings.TrimSpace(req.Note),
			RecordedBy: actor.UserID,
			CreatedAt:  now,
		}
		working.Payments = append(working.Payments, created)
		return []models.WorkflowEvent{event(models.EventPaymentRecorded, created.ID, map[string]string{
			"houseId":  created.HouseID,
			"tenantId": created.TenantID,
			"amount":   fmt.Sprintf("%.2f", created.Amount),
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.PaymentReceipt{Payment: created, Houses: committed.Houses}, nil
}

// AddCashHandover records cash passed on by the acting collector. The timestamp
// is always assigned here.
func (s *WorkflowService) AddCashHandover(ctx context.Context, actor models.Actor, req dto.AddCashHandoverRequest) (*models.CashHandover, error) {
	if err := requireRole(actor, collectorRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid handover payload"); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, fmt.Sprintf("handover amount %.2f must be greater than zero", req.Amount))
	}

	var created models.CashHandover
	_, err := s.mutate(ctx, "add_cash_handover", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		created = models.CashHandover{
			ID:           s.newID(),
			Amount:       req.Amount,
			Timestamp:    s.now(),
			HandedOverBy: actor.UserID,
			ReceivedBy:   strings.TrimSpace(req.ReceivedBy),
			Note:         strings.TrimSpace(req.Note),
		}
		working.Handovers = append(working.Handovers, created)
		return []models.WorkflowEvent{event(models.EventHandoverRecorded, created.ID, map[string]string{
			"amount": fmt.Sprintf("%.2f", created.Amount),
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListPayments returns payments matching the filter in recorded order.
func (s *WorkflowService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	snapshot, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0, len(snapshot.Payments))
	for _, p := range snapshot.Payments {
		if filter.HouseID != "" && p.HouseID != filter.HouseID {
			continue
		}
		if filter.TenantID != "" && p.TenantID != filter.TenantID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListHandovers returns every cash handover in recorded order.
func (s *WorkflowService) ListHandovers(ctx context.Context) ([]models.CashHandover, error) {
	snapshot, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Handovers, nil
}
