package dto

import (
	"time"

	"github.com/noah-isme/rentflow-api/internal/models"
)

// AddPaymentRequest records rent paid by the active tenant of a house.
type AddPaymentRequest struct {
	HouseID  string               `json:"houseId" validate:"required"`
	TenantID string               `json:"tenantId" validate:"required"`
	Amount   float64              `json:"amount"`
	Date     time.Time            `json:"date"`
	Method   models.PaymentMethod `json:"method" validate:"omitempty,oneof=CASH TRANSFER MOBILE"`
	Note     string               `json:"note" validate:"omitempty,max=500"`
}

// AddCashHandoverRequest records cash passed on from a collector.
type AddCashHandoverRequest struct {
	Amount     float64 `json:"amount"`
	ReceivedBy string  `json:"receivedBy" validate:"omitempty,max=120"`
	Note       string  `json:"note" validate:"omitempty,max=500"`
}

// LedgerExportQuery selects the statement format and scope.
type LedgerExportQuery struct {
	Format   string
	HouseID  string
	TenantID string
}
