package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

type vacateWorkflow interface {
	SubmitVacateRequest(ctx context.Context, actor models.Actor, req dto.SubmitVacateRequest) (*models.VacateRequest, error)
	ApproveVacateRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) (*models.VacateApproval, error)
	RejectVacateRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) ([]models.VacateRequest, error)
}

// VacateHandler exposes vacate request endpoints.
type VacateHandler struct {
	service vacateWorkflow
}

// NewVacateHandler builds a new handler.
func NewVacateHandler(service vacateWorkflow) *VacateHandler {
	return &VacateHandler{service: service}
}

// Submit godoc
// @Summary Submit a vacate request
// @Tags Vacates
// @Accept json
// @Produce json
// @Param payload body dto.SubmitVacateRequest true "Vacate request"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /vacate-requests [post]
func (h *VacateHandler) Submit(c *gin.Context) {
	var req dto.SubmitVacateRequest
	if !bindJSON(c, &req, "invalid vacate request payload") {
		return
	}
	created, err := h.service.SubmitVacateRequest(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Approve godoc
// @Summary Approve a vacate request
// @Tags Vacates
// @Produce json
// @Param id path string true "Vacate request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /vacate-requests/{id}/approve [post]
func (h *VacateHandler) Approve(c *gin.Context) {
	var review dto.ReviewRequest
	if !bindOptionalJSON(c, &review, "invalid review payload") {
		return
	}
	result, err := h.service.ApproveVacateRequest(c.Request.Context(), actorFromContext(c), c.Param("id"), review)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reject godoc
// @Summary Reject a vacate request
// @Tags Vacates
// @Produce json
// @Param id path string true "Vacate request ID"
// @Success 200 {object} response.Envelope
// @Router /vacate-requests/{id}/reject [post]
func (h *VacateHandler) Reject(c *gin.Context) {
	var review dto.ReviewRequest
	if !bindOptionalJSON(c, &review, "invalid review payload") {
		return
	}
	requests, err := h.service.RejectVacateRequest(c.Request.Context(), actorFromContext(c), c.Param("id"), review)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"vacateRequests": requests})
}
