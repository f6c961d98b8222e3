package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

type snapshotReader interface {
	GetSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// SnapshotHandler serves the full application state to clients.
type SnapshotHandler struct {
	service snapshotReader
}

// NewSnapshotHandler builds a new handler.
func NewSnapshotHandler(service snapshotReader) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// Get godoc
// @Summary Fetch all collections
// @Tags Snapshot
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /snapshot [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshot, err := h.service.GetSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"version": snapshot.Version})
}
