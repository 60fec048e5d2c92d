package helper

import (
	"math"
	"strings"
)

// NormProduct приводит символ к одному виду: " kelp " -> "KELP".
func NormProduct(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// MidPrice: середина между лучшими bid и ask.
// ok=false если одной стороны нет или стакан пересёкся (bid >= ask).
func MidPrice(bid, ask float64) (mid float64, ok bool) {
	if !isFinite(bid) || !isFinite(ask) {
		return 0, false
	}
	if bid <= 0 || ask <= 0 {
		return 0, false
	}
	if bid >= ask {
		return 0, false
	}
	return (bid + ask) / 2, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
