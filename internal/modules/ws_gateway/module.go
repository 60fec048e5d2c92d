package ws_gateway

import (
	"context"

	"go.uber.org/fx"

	"ema_pricer/internal/modules/ws_gateway/service"
)

// Module поднимает WebSocket-шлюз цен. Хендлер вешается на mux в health.
func Module() fx.Option {
	return fx.Module("ws_gateway",
		fx.Provide(
			service.NewGateway, // *service.Gateway
		),
		fx.Invoke(func(lc fx.Lifecycle, gw *service.Gateway) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					gw.Close()
					return nil
				},
			})
		}),
	)
}
