package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certean-billing/internal/api/controllers"
	"certean-billing/pkg/metrics"
	"certean-billing/pkg/middleware"
	"certean-billing/pkg/utils"
)

type RouterOptions struct {
	JWTSecret   string
	CORSOrigins []string
}

func NewRouter(
	opts RouterOptions,
	log *zap.Logger,
	m *metrics.Metrics,
	paymentController *controllers.PaymentController,
	billingController *controllers.BillingController,
	healthController *controllers.HealthController) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log, m))
	r.Use(middleware.CORSMiddleware(opts.CORSOrigins))

	RegisterRoutes(r, opts, m, paymentController, billingController, healthController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	opts RouterOptions,
	m *metrics.Metrics,
	paymentController *controllers.PaymentController,
	billingController *controllers.BillingController,
	healthController *controllers.HealthController) {

	r.GET("/health", healthController.Health)
	r.GET("/metrics",
		middleware.JWTAuthMiddleware(opts.JWTSecret),
		middleware.RoleMiddleware(utils.RoleAdmin),
		gin.WrapH(m.Handler()))

	stripeGroup := r.Group("/api/stripe")
	stripeGroup.POST("/webhooks/stripe", paymentController.HandleWebhook)

	authed := stripeGroup.Group("")
	authed.Use(middleware.JWTAuthMiddleware(opts.JWTSecret))
	authed.POST("/create-checkout-session", paymentController.CreateCheckoutSession)
	authed.POST("/create-portal-session", paymentController.CreatePortalSession)
	authed.GET("/billing/:client_id", billingController.GetBillingInfo)
}
