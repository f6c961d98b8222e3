package dto

import "time"

// SubmitLeaseRequest is the applicant payload for a lease application.
type SubmitLeaseRequest struct {
	HouseID        string    `json:"houseId" validate:"required"`
	ApplicantName  string    `json:"applicantName" validate:"required,max=120"`
	ApplicantPhone string    `json:"applicantPhone" validate:"omitempty,max=40"`
	ApplicantEmail string    `json:"applicantEmail" validate:"omitempty,email"`
	LeaseStartDate time.Time `json:"leaseStartDate"`
	Note           string    `json:"note" validate:"omitempty,max=500"`
}

// ReviewRequest carries an optional reviewer note for approve/reject.
type ReviewRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}
