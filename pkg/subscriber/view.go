package subscriber

import (
	"sync"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// ViewState is the symbol-keyed dashboard state. ApplySnapshot is the only
// mutation entry point; both the initial REST fetch and every channel push go
// through it, so the per-symbol uniqueness and last-write-wins invariants hold
// regardless of call order.
type ViewState struct {
	mu      sync.RWMutex
	entries map[string]models.PriceObservation
}

func NewViewState() *ViewState {
	return &ViewState{entries: make(map[string]models.PriceObservation)}
}

// ApplySnapshot upserts every observation by its normalized symbol. A symbol
// appearing twice in one payload keeps the later occurrence; symbols absent
// from the payload keep their last known value.
func (v *ViewState) ApplySnapshot(obs []models.PriceObservation) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, o := range obs {
		key := models.NormalizeSymbol(o.Symbol)
		o.Symbol = key
		v.entries[key] = o
	}
}

// Get looks up one symbol, case-insensitively.
func (v *ViewState) Get(symbol string) (models.PriceObservation, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.entries[models.NormalizeSymbol(symbol)]
	return o, ok
}

func (v *ViewState) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Rows returns the market-cap-ordered projection of the current state.
// Ordering is recomputed from the mapping on every call, never cached from
// push time.
func (v *ViewState) Rows() []models.PriceObservation {
	v.mu.RLock()
	out := make([]models.PriceObservation, 0, len(v.entries))
	for _, o := range v.entries {
		out = append(out, o)
	}
	v.mu.RUnlock()

	models.SortByMarketCapDesc(out)
	return out
}
