package models

import "time"

// RequestStatus captures workflow states for lease and vacate requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// LeaseRequest is an application to occupy a specific house.
type LeaseRequest struct {
	ID             string        `db:"id" json:"id"`
	HouseID        string        `db:"house_id" json:"houseId"`
	ApplicantName  string        `db:"applicant_name" json:"applicantName"`
	ApplicantPhone string        `db:"applicant_phone" json:"applicantPhone,omitempty"`
	ApplicantEmail string        `db:"applicant_email" json:"applicantEmail,omitempty"`
	LeaseStartDate time.Time     `db:"lease_start_date" json:"leaseStartDate"`
	Note           string        `db:"note" json:"note,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	SubmittedBy    string        `db:"submitted_by" json:"submittedBy"`
	SubmittedAt    time.Time     `db:"submitted_at" json:"submittedAt"`
	ReviewedBy     *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNote     *string       `db:"review_note" json:"reviewNote,omitempty"`
	// TenantID is set on approval to the tenant created from this request.
	TenantID string `db:"tenant_id" json:"tenantId,omitempty"`
}

// VacateRequest is an application to end a tenant's occupancy of a house.
type VacateRequest struct {
	ID          string        `db:"id" json:"id"`
	HouseID     string        `db:"house_id" json:"houseId"`
	TenantID    string        `db:"tenant_id" json:"tenantId"`
	Reason      string        `db:"reason" json:"reason"`
	MoveOutDate *time.Time    `db:"move_out_date" json:"moveOutDate,omitempty"`
	Status      RequestStatus `db:"status" json:"status"`
	SubmittedBy string        `db:"submitted_by" json:"submittedBy"`
	SubmittedAt time.Time     `db:"submitted_at" json:"submittedAt"`
	ReviewedBy  *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNote  *string       `db:"review_note" json:"reviewNote,omitempty"`
}
