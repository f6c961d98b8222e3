package models

import "time"

// Tenant is created when a lease request is approved. The record is kept after
// vacating; only HouseID is cleared.
type Tenant struct {
	ID             string     `db:"id" json:"id"`
	HouseID        string     `db:"house_id" json:"houseId,omitempty"`
	LastHouseID    string     `db:"last_house_id" json:"lastHouseId,omitempty"`
	Name           string     `db:"name" json:"name"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Email          string     `db:"email" json:"email,omitempty"`
	LeaseStartDate time.Time  `db:"lease_start_date" json:"leaseStartDate"`
	LeaseRequestID string     `db:"lease_request_id" json:"leaseRequestId,omitempty"`
	VacatedAt      *time.Time `db:"vacated_at" json:"vacatedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// Active reports whether the tenant currently occupies a house.
func (t Tenant) Active() bool {
	return t.HouseID != ""
}
