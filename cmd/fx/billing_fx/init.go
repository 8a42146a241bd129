package billing_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"certean-billing/internal/config"
	"certean-billing/internal/repositories"
	"certean-billing/internal/services"
)

var Module = fx.Options(
	fx.Provide(
		provideTierResolver,
		provideEventNormalizer,
		services.NewReconcilerService,
		services.NewWebhookService,
		services.NewBillingViewService,
		provideHealthService,
	),
)

// provideTierResolver loads the price table and hot-reloads it when the tier
// file changes.
func provideTierResolver(s *config.Settings, log *zap.Logger) (*services.TierResolver, error) {
	source := config.NewTierSource(s, log)
	entries, err := source.Load()
	if err != nil {
		return nil, err
	}

	resolver, err := services.NewTierResolver(entries, log)
	if err != nil {
		return nil, err
	}
	if resolver.Size() == 0 {
		log.Warn("no price tiers configured, every checkout resolves to free")
	}

	if err := source.Watch(resolver.Reload); err != nil {
		log.Debug("tier file watch disabled", zap.Error(err))
	}
	return resolver, nil
}

func provideEventNormalizer(s *config.Settings, log *zap.Logger) *services.EventNormalizer {
	if s.StripeWebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET is not set, webhook deliveries will be rejected")
	}
	return services.NewEventNormalizer(s.StripeWebhookSecret, s.WebhookTolerance)
}

func provideHealthService(store repositories.Store, s *config.Settings, log *zap.Logger) services.HealthService {
	return services.NewHealthService(store, s.StoreTimeout, log)
}
