package models

import "time"

// PaymentMethod describes how rent was collected.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodMobile   PaymentMethod = "MOBILE"
)

// Payment is an immutable rent receipt against a house and its tenant at the time of payment.
type Payment struct {
	ID         string        `db:"id" json:"id"`
	HouseID    string        `db:"house_id" json:"houseId"`
	TenantID   string        `db:"tenant_id" json:"tenantId"`
	Amount     float64       `db:"amount" json:"amount"`
	Date       time.Time     `db:"date" json:"date"`
	Method     PaymentMethod `db:"method" json:"method"`
	Note       string        `db:"note" json:"note,omitempty"`
	RecordedBy string        `db:"recorded_by" json:"recordedBy"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// CashHandover records collected cash passed from a collector to a manager.
type CashHandover struct {
	ID           string    `db:"id" json:"id"`
	Amount       float64   `db:"amount" json:"amount"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	HandedOverBy string    `db:"handed_over_by" json:"handedOverBy"`
	ReceivedBy   string    `db:"received_by" json:"receivedBy,omitempty"`
	Note         string    `db:"note" json:"note,omitempty"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	HouseID  string
	TenantID string
}
