package billing

import (
	"github.com/ajyalhq/ajyal/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.aggregator",
	fx.Provide(service.NewAggregator),
)
