package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certean-billing/internal/models/request_models"
	"certean-billing/internal/services"
	"certean-billing/pkg/middleware"
	"certean-billing/pkg/utils"
)

const maxWebhookBody = 1 << 20

type PaymentController struct {
	paymentService services.PaymentService
	webhookService services.WebhookService
	log            *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, webhookService services.WebhookService, log *zap.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		webhookService: webhookService,
		log:            log,
	}
}

// CreateCheckoutSession godoc
// @Summary Create a Stripe checkout session
// @Description Starts a subscription checkout for a client and price
// @Tags Stripe
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Checkout request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/stripe/create-checkout-session [post]
func (p *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var req request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if !middleware.AuthorizeClient(c, req.ClientID) {
		utils.HandleServiceError(c, p.log, utils.ErrClientMismatch)
		return
	}

	resp, err := p.paymentService.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, p.log, err)
		return
	}

	utils.RespondSuccess(c, resp, "Checkout session created successfully")
}

// CreatePortalSession godoc
// @Summary Create a Stripe customer portal session
// @Tags Stripe
// @Accept json
// @Produce json
// @Param request body request_models.CreatePortalRequest true "Portal request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/stripe/create-portal-session [post]
func (p *PaymentController) CreatePortalSession(c *gin.Context) {
	var req request_models.CreatePortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := p.paymentService.CreatePortal(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, p.log, err)
		return
	}

	utils.RespondSuccess(c, resp, "Portal session created successfully")
}

// HandleWebhook godoc
// @Summary Receive Stripe webhook events
// @Description Verifies the Stripe-Signature header and applies the event
// @Tags Stripe
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /api/stripe/webhooks/stripe [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	res, err := p.webhookService.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.HandleServiceError(c, p.log, err)
		return
	}

	utils.RespondSuccess(c, res, "Webhook processed")
}
