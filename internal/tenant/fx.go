package tenant

import (
	"github.com/ajyalhq/ajyal/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(service.NewService),
)
