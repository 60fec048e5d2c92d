package models

import "time"

// PriceUpdate: одна цена от внешнего контроллера (обычно mid).
type PriceUpdate struct {
	Product string
	Price   float64
}

// BookTop: лучшие bid/ask стакана, из них считаем mid.
type BookTop struct {
	Product string
	BestBid float64
	BestAsk float64
}

// Quote: текущая "приемлемая цена" по продукту.
type Quote struct {
	Product         string    `json:"product"`
	AcceptablePrice float64   `json:"acceptable_price"`
	Alpha           float64   `json:"alpha"`
	Samples         int       `json:"samples"`
	UpdatedAt       time.Time `json:"updated_at"`
}
