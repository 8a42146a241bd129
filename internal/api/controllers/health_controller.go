package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certean-billing/internal/services"
)

type HealthController struct {
	healthService services.HealthService
}

func NewHealthController(healthService services.HealthService) *HealthController {
	return &HealthController{healthService: healthService}
}

// Health godoc
// @Summary Service health
// @Description Always 200; status is degraded when the store is unreachable
// @Tags Health
// @Produce json
// @Success 200 {object} response_models.HealthResponse
// @Router /health [get]
func (h *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthService.Check(c.Request.Context()))
}
