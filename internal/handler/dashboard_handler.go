package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/middleware"
	"github.com/campussports/sportsdesk-api/internal/service"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// DashboardHandler wires the admin dashboard endpoint.
type DashboardHandler struct {
	service *service.DashboardService
	metrics *service.MetricsService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics}
}

// Overview godoc
// @Summary Admin dashboard
// @Description Aggregate stats, per-sport activity, trends and recent transactions
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, cached, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// SystemMetrics godoc
// @Summary System metrics snapshot
// @Description Lightweight instrumentation snapshot for administrators
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *DashboardHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
