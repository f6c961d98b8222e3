package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/internal/service"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

type ledgerWorkflow interface {
	AddPayment(ctx context.Context, actor models.Actor, req dto.AddPaymentRequest) (*models.PaymentReceipt, error)
	AddCashHandover(ctx context.Context, actor models.Actor, req dto.AddCashHandoverRequest) (*models.CashHandover, error)
}

type ledgerExporter interface {
	ExportPayments(ctx context.Context, query dto.LedgerExportQuery) (*service.ExportFile, error)
	ExportHandovers(ctx context.Context, query dto.LedgerExportQuery) (*service.ExportFile, error)
}

// LedgerHandler exposes payment and cash handover endpoints.
type LedgerHandler struct {
	service  ledgerWorkflow
	exporter ledgerExporter
}

// NewLedgerHandler builds a new handler.
func NewLedgerHandler(service ledgerWorkflow, exporter ledgerExporter) *LedgerHandler {
	return &LedgerHandler{service: service, exporter: exporter}
}

// AddPayment godoc
// @Summary Record a rent payment
// @Description Appends a payment for the house's active tenant. Returns the payment and the unchanged house list.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param payload body dto.AddPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments [post]
func (h *LedgerHandler) AddPayment(c *gin.Context) {
	var req dto.AddPaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	receipt, err := h.service.AddPayment(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// AddHandover godoc
// @Summary Record a cash handover
// @Tags Ledger
// @Accept json
// @Produce json
// @Param payload body dto.AddCashHandoverRequest true "Handover"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /handovers [post]
func (h *LedgerHandler) AddHandover(c *gin.Context) {
	var req dto.AddCashHandoverRequest
	if !bindJSON(c, &req, "invalid handover payload") {
		return
	}
	handover, err := h.service.AddCashHandover(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, handover)
}

// ExportPayments godoc
// @Summary Download a payment statement
// @Tags Ledger
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param houseId query string false "House filter"
// @Param tenantId query string false "Tenant filter"
// @Success 200 {file} file
// @Router /payments/export [get]
func (h *LedgerHandler) ExportPayments(c *gin.Context) {
	file, err := h.exporter.ExportPayments(c.Request.Context(), exportQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ExportHandovers godoc
// @Summary Download a cash handover statement
// @Tags Ledger
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /handovers/export [get]
func (h *LedgerHandler) ExportHandovers(c *gin.Context) {
	file, err := h.exporter.ExportHandovers(c.Request.Context(), exportQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func exportQuery(c *gin.Context) dto.LedgerExportQuery {
	return dto.LedgerExportQuery{
		Format:   c.Query("format"),
		HouseID:  c.Query("houseId"),
		TenantID: c.Query("tenantId"),
	}
}
