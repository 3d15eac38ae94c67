package laborer

import (
	"github.com/ajyalhq/ajyal/internal/laborer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("laborer.service",
	fx.Provide(service.NewService),
)
