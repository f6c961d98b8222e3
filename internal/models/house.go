package models

import "time"

// HouseStatus is derived from tenant occupancy and only changes through lease/vacate approval.
type HouseStatus string

const (
	HouseStatusVacant   HouseStatus = "VACANT"
	HouseStatusOccupied HouseStatus = "OCCUPIED"
)

// House is a rentable unit inside a Location.
type House struct {
	ID         string      `db:"id" json:"id"`
	LocationID string      `db:"location_id" json:"locationId"`
	Name       string      `db:"name" json:"name"`
	RentAmount float64     `db:"rent_amount" json:"rentAmount"`
	Status     HouseStatus `db:"status" json:"status"`
	// TenantID names the active tenant; empty while vacant.
	TenantID  string    `db:"tenant_id" json:"tenantId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsVacant reports whether the house can accept a new lease.
func (h House) IsVacant() bool {
	return h.Status == HouseStatusVacant
}

// IsOccupiedBy reports whether tenantID is the active occupant.
func (h House) IsOccupiedBy(tenantID string) bool {
	return h.Status == HouseStatusOccupied && tenantID != "" && h.TenantID == tenantID
}
