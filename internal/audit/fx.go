package audit

import (
	"github.com/ajyalhq/ajyal/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(service.NewService),
)
