package models

// LeaseApproval carries the refreshed collections touched by a lease approval.
type LeaseApproval struct {
	Tenants       []Tenant       `json:"tenants"`
	Houses        []House        `json:"houses"`
	LeaseRequests []LeaseRequest `json:"leaseRequests"`
}

// VacateApproval carries the refreshed collections touched by a vacate approval.
type VacateApproval struct {
	Houses         []House         `json:"houses"`
	Tenants        []Tenant        `json:"tenants"`
	VacateRequests []VacateRequest `json:"vacateRequests"`
}

// PaymentReceipt is the created payment plus the (unchanged) house collection.
type PaymentReceipt struct {
	Payment Payment `json:"payment"`
	Houses  []House `json:"houses"`
}
