package dto

import "time"

// SubmitVacateRequest asks to end a tenant's occupancy of a house.
type SubmitVacateRequest struct {
	HouseID     string     `json:"houseId" validate:"required"`
	TenantID    string     `json:"tenantId" validate:"required"`
	Reason      string     `json:"reason" validate:"omitempty,max=500"`
	MoveOutDate *time.Time `json:"moveOutDate"`
}
