package config_fx

import (
	"go.uber.org/fx"

	"certean-billing/internal/config"
)

var Module = fx.Provide(config.Load)
