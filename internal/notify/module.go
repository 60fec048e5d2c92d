package notify

import (
	"context"

	"go.uber.org/fx"

	"ema_pricer/internal/modules/config"
	pricer "ema_pricer/internal/modules/pricer/service"
	"ema_pricer/pkg/logger"
)

// NewNotifier: если TELEGRAM_* нет или бот не поднялся, пишем в stdout.
func NewNotifier(cfg *config.Config, reg *pricer.Registry) Notifier {
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, reg)
		if err == nil {
			return tg
		}
		logger.Error("[TG] init: %v, fallback to stdout", err)
	}
	return NewStdout()
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(NewNotifier),
		fx.Invoke(func(lc fx.Lifecycle, n Notifier, cfg *config.Config) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					if tg, ok := n.(*Telegram); ok {
						if err := tg.Start(ctx); err != nil {
							return err
						}
					}
					n.Sendf("🚀 %s запущен: alpha=%.3f, адрес %s",
						cfg.Service.Name, cfg.Pricer.Alpha, cfg.Service.Addr)
					return nil
				},
				OnStop: func(_ context.Context) error {
					if cancel != nil {
						cancel()
					}
					if tg, ok := n.(*Telegram); ok {
						tg.Stop()
					}
					return nil
				},
			})
		}),
	)
}
