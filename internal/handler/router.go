package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/middleware"
	"github.com/noah-isme/rentflow-api/internal/models"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth     *AuthHandler
	Snapshot *SnapshotHandler
	Lease    *LeaseHandler
	Vacate   *VacateHandler
	Ledger   *LedgerHandler
	Admin    *AdminHandler
	Metrics  *MetricsHandler
}

// RegisterRoutes mounts the public probes and the versioned API on r.
func RegisterRoutes(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	approvers := middleware.RequireRoles(models.RoleManager, models.RoleAdmin)
	collectors := middleware.RequireRoles(models.RoleCollector, models.RoleManager, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/snapshot", h.Snapshot.Get)

	secured.POST("/lease-requests", h.Lease.Submit)
	secured.POST("/lease-requests/:id/approve", approvers, h.Lease.Approve)
	secured.POST("/lease-requests/:id/reject", approvers, h.Lease.Reject)

	secured.POST("/vacate-requests", h.Vacate.Submit)
	secured.POST("/vacate-requests/:id/approve", approvers, h.Vacate.Approve)
	secured.POST("/vacate-requests/:id/reject", approvers, h.Vacate.Reject)

	secured.POST("/payments", collectors, h.Ledger.AddPayment)
	secured.GET("/payments/export", approvers, h.Ledger.ExportPayments)
	secured.POST("/handovers", collectors, h.Ledger.AddHandover)
	secured.GET("/handovers/export", approvers, h.Ledger.ExportHandovers)

	locations := secured.Group("/locations", admins)
	locations.POST("", h.Admin.AddLocation)
	locations.PUT("/:id", h.Admin.UpdateLocation)
	locations.DELETE("/:id", h.Admin.DeleteLocation)

	houses := secured.Group("/houses", admins)
	houses.POST("", h.Admin.AddHouse)
	houses.PUT("/:id", h.Admin.UpdateHouse)
	houses.DELETE("/:id", h.Admin.DeleteHouse)
}
