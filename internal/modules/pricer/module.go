package pricer

import (
	"ema_pricer/internal/modules/pricer/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("pricer",
		fx.Provide(
			service.NewRegistry, // *service.Registry
		),
	)
}
