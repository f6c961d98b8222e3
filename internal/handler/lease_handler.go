package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

type leaseWorkflow interface {
	SubmitLeaseRequest(ctx context.Context, actor models.Actor, req dto.SubmitLeaseRequest) (*models.LeaseRequest, error)
	ApproveLeaseRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) (*models.LeaseApproval, error)
	RejectLeaseRequest(ctx context.Context, actor models.Actor, id string, review dto.ReviewRequest) ([]models.LeaseRequest, error)
}

// LeaseHandler exposes lease request endpoints.
type LeaseHandler struct {
	service leaseWorkflow
}

// NewLeaseHandler builds a new handler.
func NewLeaseHandler(service leaseWorkflow) *LeaseHandler {
	return &LeaseHandler{service: service}
}

// Submit godoc
// @Summary Submit a lease request
// @Tags Leases
// @Accept json
// @Produce json
// @Param payload body dto.SubmitLeaseRequest true "Applicant details"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lease-requests [post]
func (h *LeaseHandler) Submit(c *gin.Context) {
	var req dto.SubmitLeaseRequest
	if !bindJSON(c, &req, "invalid lease request payload") {
		return
	}
	created, err := h.service.SubmitLeaseRequest(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Approve godoc
// @Summary Approve a lease request
// @Description Creates the tenant and occupies the house. Returns tenants, houses and lease requests.
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease request ID"
// @Param payload body dto.ReviewRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lease-requests/{id}/approve [post]
func (h *LeaseHandler) Approve(c *gin.Context) {
	var review dto.ReviewRequest
	if !bindOptionalJSON(c, &review, "invalid review payload") {
		return
	}
	result, err := h.service.ApproveLeaseRequest(c.Request.Context(), actorFromContext(c), c.Param("id"), review)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reject godoc
// @Summary Reject a lease request
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease request ID"
// @Param payload body dto.ReviewRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lease-requests/{id}/reject [post]
func (h *LeaseHandler) Reject(c *gin.Context) {
	var review dto.ReviewRequest
	if !bindOptionalJSON(c, &review, "invalid review payload") {
		return
	}
	requests, err := h.service.RejectLeaseRequest(c.Request.Context(), actorFromContext(c), c.Param("id"), review)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"leaseRequests": requests})
}
