package payment_service_fx

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"certean-billing/internal/config"
	"certean-billing/internal/services"
)

var Module = fx.Provide(
	provideProcessor, providePaymentService,
)

func provideProcessor(s *config.Settings, log *zap.Logger) (services.Processor, error) {
	httpClient := &http.Client{Timeout: s.ProcessorTimeout}
	return services.NewStripeProcessor(s.StripeSecretKey, httpClient, log.Named("stripe"))
}

func providePaymentService(processor services.Processor, s *config.Settings, log *zap.Logger) services.PaymentService {
	return services.NewPaymentService(processor, services.PaymentConfig{FrontendURL: s.FrontendURL}, log)
}
