package memcache_fx

import (
	"go.uber.org/fx"

	"certean-billing/internal/config"
	mem "certean-billing/pkg/memcache"
)

var Module = fx.Provide(provideProcessedEvents)

func provideProcessedEvents(s *config.Settings) mem.EventStore {
	return mem.NewProcessedEvents(s.EventCacheTTL)
}
