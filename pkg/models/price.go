package models

import (
	"sort"
	"strings"
	"time"
)

// KindLatestUpdate is the only message kind pushed on the websocket channel.
const KindLatestUpdate = "latest_update"

// PriceObservation represents a single price snapshot for one coin.
// Symbol is the lower-cased ticker and, together with Timestamp, identifies
// the observation uniquely.
type PriceObservation struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"current_price"`
	MarketCap    *float64  `json:"market_cap"`
	TotalVolume  *float64  `json:"total_volume"`
	Timestamp    time.Time `json:"timestamp"`
}

// Envelope wraps a snapshot set for the push channel.
type Envelope struct {
	Kind string             `json:"kind"`
	Data []PriceObservation `json:"data"`
}

// NormalizeSymbol lower-cases and trims a ticker so it can be used as a map key.
func NormalizeSymbol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SortByMarketCapDesc orders observations by market cap descending, rows
// without a market cap last. Ties keep their relative order.
func SortByMarketCapDesc(obs []PriceObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		a, b := obs[i].MarketCap, obs[j].MarketCap
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}
