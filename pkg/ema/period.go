package ema

import "github.com/pkg/errors"

// AlphaFromPeriod переводит период N в alpha = 2/(N+1).
// N=5 даёт 1/3, N=1 даёт 1 (только последняя цена).
func AlphaFromPeriod(n int) (float64, error) {
	if n < 1 {
		return 0, errors.Wrapf(ErrInvalidParameter, "period %d", n)
	}
	return 2.0 / (float64(n) + 1), nil
}
