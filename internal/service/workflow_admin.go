package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

// AddLocation creates a location.
func (s *WorkflowService) AddLocation(ctx context.Context, actor models.Actor, req dto.LocationRequest) ([]models.Location, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid location payload"); err != nil {
		return nil, err
	}
	committed, err := s.mutate(ctx, "add_location", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		now := s.now()
		location := models.Location{ID: s.newID(), Name: strings.TrimSpace(req.Name), CreatedAt: now, UpdatedAt: now}
		working.Locations = append(working.Locations, location)
		return []models.WorkflowEvent{event(models.EventLocationChanged, location.ID, map[string]string{"change": "created"})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Locations, nil
}

// UpdateLocation renames a location.
func (s *WorkflowService) UpdateLocation(ctx context.Context, actor models.Actor, id string, req dto.LocationRequest) ([]models.Location, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid location payload"); err != nil {
		return nil, err
	}
	committed, err := s.mutate(ctx, "update_location", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx := working.LocationIndex(id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location "+id+" not found")
		}
		working.Locations[idx].Name = strings.TrimSpace(req.Name)
		working.Locations[idx].UpdatedAt = s.now()
		return []models.WorkflowEvent{event(models.EventLocationChanged, id, map[string]string{"change": "renamed"})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Locations, nil
}

// DeleteLocation removes a location that no house references.
func (s *WorkflowService) DeleteLocation(ctx context.Context, actor models.Actor, id string) ([]models.Location, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	committed, err := s.mutate(ctx, "delete_location", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx := working.LocationIndex(id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location "+id+" not found")
		}
		if n := working.CountHousesAt(id); n > 0 {
			return nil, appErrors.Clone(appErrors.ErrHasDependents, fmt.Sprintf("location %s still has %d house(s)", id, n))
		}
		working.Locations = append(working.Locations[:idx], working.Locations[idx+1:]...)
		return []models.WorkflowEvent{event(models.EventLocationChanged, id, map[string]string{"change": "deleted"})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Locations, nil
}

// AddHouse creates a vacant house under an existing location.
func (s *WorkflowService) AddHouse(ctx context.Context, actor models.Actor, req dto.AddHouseRequest) ([]models.House, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid house payload"); err != nil {
		return nil, err
	}
	if req.RentAmount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "rent amount must be greater than zero")
	}
	committed, err := s.mutate(ctx, "add_house", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		if working.LocationIndex(req.LocationID) < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "location "+req.LocationID+" does not exist")
		}
		now := s.now()
		house := models.House{
			ID:         s.newID(),
			LocationID: req.LocationID,
			Name:       strings.TrimSpace(req.Name),
			RentAmount: req.RentAmount,
			Status:     models.HouseStatusVacant,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		working.Houses = append(working.Houses, house)
		return []models.WorkflowEvent{event(models.EventHouseChanged, house.ID, map[string]string{"change": "created", "locationId": house.LocationID})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Houses, nil
}

// UpdateHouse edits name, rent and location. Status and tenant link are left alone.
func (s *WorkflowService) UpdateHouse(ctx context.Context, actor models.Actor, id string, req dto.UpdateHouseRequest) ([]models.House, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	if err := s.validate(req, "invalid house payload"); err != nil {
		return nil, err
	}
	if req.RentAmount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "rent amount must be greater than zero")
	}
	committed, err := s.mutate(ctx, "update_house", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx := working.HouseIndex(id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "house "+id+" not found")
		}
		if working.LocationIndex(req.LocationID) < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "location "+req.LocationID+" does not exist")
		}
		house := working.Houses[idx]
		house.Name = strings.TrimSpace(req.Name)
		house.RentAmount = req.RentAmount
		house.LocationID = req.LocationID
		house.UpdatedAt = s.now()
		working.Houses[idx] = house
		return []models.WorkflowEvent{event(models.EventHouseChanged, id, map[string]string{"change": "updated", "locationId": house.LocationID})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Houses, nil
}

// DeleteHouse removes a vacant house with no pending requests and no payment history.
func (s *WorkflowService) DeleteHouse(ctx context.Context, actor models.Actor, id string) ([]models.House, error) {
	if err := requireRole(actor, adminRoles...); err != nil {
		return nil, err
	}
	committed, err := s.mutate(ctx, "delete_house", actor, func(working *models.Snapshot) ([]models.WorkflowEvent, error) {
		idx := working.HouseIndex(id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "house "+id+" not found")
		}
		house := working.Houses[idx]
		if house.Status == models.HouseStatusOccupied {
			return nil, appErrors.Clone(appErrors.ErrHasDependents, "house "+id+" is occupied")
		}
		if working.HasPendingRequestFor(id) {
			return nil, appErrors.Clone(appErrors.ErrHasDependents, "house "+id+" has pending requests")
		}
		for _, p := range working.Payments {
			if p.HouseID == id {
				return nil, appErrors.Clone(appErrors.ErrHasDependents, "house "+id+" has recorded payments")
			}
		}
		for _, t := range working.Tenants {
			if t.LastHouseID == id {
				return nil, appErrors.Clone(appErrors.ErrHasDependents, "house "+id+" has tenant history")
			}
		}
		working.Houses = append(working.Houses[:idx], working.Houses[idx+1:]...)
		return []models.WorkflowEvent{event(models.EventHouseChanged, id, map[string]string{"change": "deleted"})}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed.Houses, nil
}
