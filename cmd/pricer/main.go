package main

import (
	"context"

	"go.uber.org/fx"

	"ema_pricer/internal/modules/config"
	"ema_pricer/internal/modules/health"
	"ema_pricer/internal/modules/pricer"
	wsgateway "ema_pricer/internal/modules/ws_gateway"
	"ema_pricer/internal/notify"
	"ema_pricer/pkg/logger"
)

func main() {
	app := fx.New(
		config.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if _, err := logger.Init(cfg.Service.Name, cfg.Service.LogLevel); err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					logger.Info("[BOOT] stopping...")
					logger.Sync()
					return nil
				},
			})
			return nil
		}),
		pricer.Module(),
		wsgateway.Module(),
		health.Module(),
		notify.Module(),
	)
	app.Run()
}
