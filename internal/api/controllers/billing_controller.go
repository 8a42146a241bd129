package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certean-billing/internal/services"
	"certean-billing/pkg/middleware"
	"certean-billing/pkg/utils"
)

type BillingController struct {
	billingService services.BillingViewService
	log            *zap.Logger
}

func NewBillingController(billingService services.BillingViewService, log *zap.Logger) *BillingController {
	return &BillingController{billingService: billingService, log: log}
}

// GetBillingInfo godoc
// @Summary Get billing info for a client
// @Description Subscription, recent invoices and usage for the current period
// @Tags Billing
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/stripe/billing/{client_id} [get]
func (b *BillingController) GetBillingInfo(c *gin.Context) {
	clientID := c.Param("client_id")

	if !middleware.AuthorizeClient(c, clientID) {
		utils.HandleServiceError(c, b.log, utils.ErrClientMismatch)
		return
	}

	view, err := b.billingService.Build(c.Request.Context(), clientID)
	if err != nil {
		utils.HandleServiceError(c, b.log, err)
		return
	}

	utils.RespondSuccess(c, view, "Billing info retrieved successfully")
}
