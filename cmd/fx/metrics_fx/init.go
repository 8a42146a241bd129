package metrics_fx

import (
	"go.uber.org/fx"

	"certean-billing/pkg/metrics"
)

var Module = fx.Provide(metrics.NewMetrics)
