package ema

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrInvalidParameter = errors.New("ema: invalid parameter")
	ErrInvalidInput     = errors.New("ema: invalid input")
	ErrNotInitialized   = errors.New("ema: not initialized")
)

// DefaultAlpha: коэффициент сглаживания по умолчанию.
const DefaultAlpha = 0.3

// Estimator держит одну сглаженную цену.
// value не задан, пока не пришла первая цена или seed.
type Estimator struct {
	mu sync.Mutex

	alpha   float64
	value   float64
	set     bool
	samples int
}

type Option func(*options)

type options struct {
	seed    float64
	hasSeed bool
}

// WithSeed задаёт стартовое значение вместо первой цены.
func WithSeed(price float64) Option {
	return func(o *options) {
		o.seed = price
		o.hasSeed = true
	}
}

func New(alpha float64, opts ...Option) (*Estimator, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, errors.Wrapf(ErrInvalidParameter, "alpha %v not in (0, 1]", alpha)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Estimator{alpha: alpha}
	if o.hasSeed {
		if !finite(o.seed) {
			return nil, errors.Wrapf(ErrInvalidParameter, "seed %v", o.seed)
		}
		e.value = o.seed
		e.set = true
	}
	return e, nil
}

// Update добавляет наблюдение и возвращает новое значение.
// На ошибке состояние не меняется.
func (e *Estimator) Update(price float64) (float64, error) {
	if !finite(price) {
		return 0, errors.Wrapf(ErrInvalidInput, "price %v", price)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set {
		e.value = price
		e.set = true
	} else {
		e.value = e.alpha*price + (1-e.alpha)*e.value
	}
	e.samples++
	return e.value, nil
}

func (e *Estimator) Current() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set {
		return 0, ErrNotInitialized
	}
	return e.value, nil
}

func (e *Estimator) Alpha() float64 { return e.alpha }

// Samples: сколько цен принято через Update (seed не считается).
func (e *Estimator) Samples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.samples
}

func (e *Estimator) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
