package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

type propertyAdministration interface {
	AddLocation(ctx context.Context, actor models.Actor, req dto.LocationRequest) ([]models.Location, error)
	UpdateLocation(ctx context.Context, actor models.Actor, id string, req dto.LocationRequest) ([]models.Location, error)
	DeleteLocation(ctx context.Context, actor models.Actor, id string) ([]models.Location, error)
	AddHouse(ctx context.Context, actor models.Actor, req dto.AddHouseRequest) ([]models.House, error)
	UpdateHouse(ctx context.Context, actor models.Actor, id string, req dto.UpdateHouseRequest) ([]models.House, error)
	DeleteHouse(ctx context.Context, actor models.Actor, id string) ([]models.House, error)
}

// AdminHandler exposes location and house administration. Every response
// carries the full refreshed collection.
type AdminHandler struct {
	service propertyAdministration
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(service propertyAdministration) *AdminHandler {
	return &AdminHandler{service: service}
}

// AddLocation godoc
// @Summary Create a location
// @Tags Administration
// @Accept json
// @Produce json
// @Param payload body dto.LocationRequest true "Location"
// @Success 201 {object} response.Envelope
// @Router /locations [post]
func (h *AdminHandler) AddLocation(c *gin.Context) {
	var req dto.LocationRequest
	if !bindJSON(c, &req, "invalid location payload") {
		return
	}
	locations, err := h.service.AddLocation(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"locations": locations})
}

// UpdateLocation godoc
// @Summary Rename a location
// @Tags Administration
// @Accept json
// @Produce json
// @Param id path string true "Location ID"
// @Param payload body dto.LocationRequest true "Location"
// @Success 200 {object} response.Envelope
// @Router /locations/{id} [put]
func (h *AdminHandler) UpdateLocation(c *gin.Context) {
	var req dto.LocationRequest
	if !bindJSON(c, &req, "invalid location payload") {
		return
	}
	locations, err := h.service.UpdateLocation(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"locations": locations})
}

// DeleteLocation godoc
// @Summary Delete a location without houses
// @Tags Administration
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /locations/{id} [delete]
func (h *AdminHandler) DeleteLocation(c *gin.Context) {
	locations, err := h.service.DeleteLocation(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"locations": locations})
}

// AddHouse godoc
// @Summary Create a vacant house
// @Tags Administration
// @Accept json
// @Produce json
// @Param payload body dto.AddHouseRequest true "House"
// @Success 201 {object} response.Envelope
// @Router /houses [post]
func (h *AdminHandler) AddHouse(c *gin.Context) {
	var req dto.AddHouseRequest
	if !bindJSON(c, &req, "invalid house payload") {
		return
	}
	houses, err := h.service.AddHouse(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"houses": houses})
}

// UpdateHouse godoc
// @Summary Update house name, rent and location
// @Tags Administration
// @Accept json
// @Produce json
// @Param id path string true "House ID"
// @Param payload body dto.UpdateHouseRequest true "House"
// @Success 200 {object} response.Envelope
// @Router /houses/{id} [put]
func (h *AdminHandler) UpdateHouse(c *gin.Context) {
	var req dto.UpdateHouseRequest
	if !bindJSON(c, &req, "invalid house payload") {
		return
	}
	houses, err := h.service.UpdateHouse(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"houses": houses})
}

// DeleteHouse godoc
// @Summary Delete a vacant house
// @Tags Administration
// @Produce json
// @Param id path string true "House ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /houses/{id} [delete]
func (h *AdminHandler) DeleteHouse(c *gin.Context) {
	houses, err := h.service.DeleteHouse(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"houses": houses})
}
