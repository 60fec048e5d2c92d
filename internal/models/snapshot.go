package models

// Snapshot: состояние всех EMA в формате {"ema_prices": {...}}.
type Snapshot struct {
	EMAPrices map[string]float64 `json:"ema_prices"`
}
