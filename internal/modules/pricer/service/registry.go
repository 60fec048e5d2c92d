package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ema_pricer/internal/helper"
	"ema_pricer/internal/models"
	"ema_pricer/internal/modules/config"
	"ema_pricer/pkg/ema"
	"ema_pricer/pkg/logger"
)

type entry struct {
	est       *ema.Estimator
	updatedAt time.Time
}

// Registry держит по одной EMA на продукт.
type Registry struct {
	cfg *config.Config
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry сразу создаёт продукты, у которых в конфиге задан seed.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}

	for product := range cfg.Pricer.Products {
		seed, ok := cfg.SeedFor(product)
		if !ok {
			continue
		}
		est, err := ema.New(cfg.AlphaFor(product), ema.WithSeed(seed))
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", product, err)
		}
		r.entries[product] = &entry{est: est, updatedAt: r.now()}
	}
	return r, nil
}

// Observe прогоняет цену через EMA продукта и возвращает свежую котировку.
// Невалидная цена ничего не меняет: продукт даже не создаётся.
func (r *Registry) Observe(u models.PriceUpdate) (models.Quote, error) {
	product := helper.NormProduct(u.Product)
	if product == "" {
		return models.Quote{}, fmt.Errorf("empty product: %w", ema.ErrInvalidInput)
	}
	if math.IsNaN(u.Price) || math.IsInf(u.Price, 0) {
		return models.Quote{}, fmt.Errorf("observe %s price %v: %w", product, u.Price, ema.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[product]
	if !ok {
		est, err := r.newEstimator(product)
		if err != nil {
			return models.Quote{}, err
		}
		e = &entry{est: est}
		r.entries[product] = e
	}

	v, err := e.est.Update(u.Price)
	if err != nil {
		return models.Quote{}, fmt.Errorf("observe %s: %w", product, err)
	}
	e.updatedAt = r.now()

	return models.Quote{
		Product:         product,
		AcceptablePrice: v,
		Alpha:           e.est.Alpha(),
		Samples:         e.est.Samples(),
		UpdatedAt:       e.updatedAt,
	}, nil
}

// ObserveBook считает mid по лучшим bid/ask и скармливает его в EMA.
func (r *Registry) ObserveBook(b models.BookTop) (models.Quote, error) {
	mid, ok := helper.MidPrice(b.BestBid, b.BestAsk)
	if !ok {
		return models.Quote{}, fmt.Errorf("book %s bid=%v ask=%v: %w",
			helper.NormProduct(b.Product), b.BestBid, b.BestAsk, ema.ErrInvalidInput)
	}
	return r.Observe(models.PriceUpdate{Product: b.Product, Price: mid})
}

func (r *Registry) Quote(product string) (models.Quote, error) {
	product = helper.NormProduct(product)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[product]
	if !ok {
		return models.Quote{}, fmt.Errorf("quote %s: %w", product, ema.ErrNotInitialized)
	}
	return r.quote(product, e)
}

// Quotes: все инициализированные продукты, по алфавиту.
func (r *Registry) Quotes() []models.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Quote, 0, len(r.entries))
	for product, e := range r.entries {
		q, err := r.quote(product, e)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) quote(product string, e *entry) (models.Quote, error) {
	v, err := e.est.Current()
	if err != nil {
		return models.Quote{}, fmt.Errorf("quote %s: %w", product, err)
	}
	return models.Quote{
		Product:         product,
		AcceptablePrice: v,
		Alpha:           e.est.Alpha(),
		Samples:         e.est.Samples(),
		UpdatedAt:       e.updatedAt,
	}, nil
}

func (r *Registry) newEstimator(product string) (*ema.Estimator, error) {
	alpha := r.cfg.AlphaFor(product)
	est, err := ema.New(alpha)
	if err != nil {
		return nil, fmt.Errorf("new estimator %s: %w", product, err)
	}
	logger.Debug("[PRICER] new estimator %s alpha=%.4f", product, alpha)
	return est, nil
}
