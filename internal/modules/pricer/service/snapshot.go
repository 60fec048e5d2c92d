package service

import (
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"ema_pricer/internal/helper"
	"ema_pricer/internal/models"
	"ema_pricer/pkg/ema"
	"ema_pricer/pkg/logger"
)

// Snapshot сериализует текущие EMA в {"ema_prices": {...}}.
func (r *Registry) Snapshot() ([]byte, error) {
	snap := models.Snapshot{EMAPrices: make(map[string]float64)}
	for _, q := range r.Quotes() {
		snap.EMAPrices[q.Product] = q.AcceptablePrice
	}

	data, err := sonic.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Restore пересоздаёт EMA продуктов из снапшота, используя значения как seed.
// Либо применяется весь снапшот, либо ничего.
func (r *Registry) Restore(data []byte) error {
	var snap models.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w: %v", ema.ErrInvalidInput, err)
	}

	restored := make(map[string]*entry, len(snap.EMAPrices))
	now := r.now()
	for name, v := range snap.EMAPrices {
		product := helper.NormProduct(name)
		if product == "" || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("restore %q=%v: %w", name, v, ema.ErrInvalidInput)
		}
		est, err := ema.New(r.cfg.AlphaFor(product), ema.WithSeed(v))
		if err != nil {
			return fmt.Errorf("restore %s: %w", product, err)
		}
		restored[product] = &entry{est: est, updatedAt: now}
	}

	r.mu.Lock()
	for product, e := range restored {
		r.entries[product] = e
	}
	r.mu.Unlock()

	logger.Info("[PRICER] restored %d products", len(restored))
	return nil
}
