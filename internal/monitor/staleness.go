package monitor

import (
	"time"

	"github.com/mExOms/mm-kernel/pkg/cache"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// TickWatchdog remembers the most recent tick seen per symbol and flags
// a symbol stale once ttl has elapsed since its last Observe call. It
// adapts pkg/cache's generic TTL store to a single domain use: knowing
// when a feed has gone quiet without polling every symbol on a timer.
type TickWatchdog struct {
	cache *cache.MemoryCache
	ttl   time.Duration
}

// NewTickWatchdog builds a watchdog that considers a symbol stale once
// ttl has passed since its last observed tick.
func NewTickWatchdog(ttl time.Duration) *TickWatchdog {
	return &TickWatchdog{cache: cache.NewMemoryCache(), ttl: ttl}
}

// Observe records tick as the latest seen for symbol, resetting its TTL.
func (w *TickWatchdog) Observe(symbol string, tick types.MarketTick) {
	w.cache.Set(symbol, tick, w.ttl)
}

// Last returns the most recently observed tick for symbol, or false if
// none was recorded or it has expired.
func (w *TickWatchdog) Last(symbol string) (types.MarketTick, bool) {
	v, ok := w.cache.Get(symbol)
	if !ok {
		return types.MarketTick{}, false
	}
	return v.(types.MarketTick), true
}

// IsStale reports whether symbol has no tick within the last ttl.
func (w *TickWatchdog) IsStale(symbol string) bool {
	_, ok := w.cache.Get(symbol)
	return !ok
}

// Live returns every symbol currently within its TTL window.
func (w *TickWatchdog) Live() []string {
	all := w.cache.GetAll()
	out := make([]string, 0, len(all))
	for symbol := range all {
		out = append(out, symbol)
	}
	return out
}
