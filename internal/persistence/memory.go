package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/internal/risk"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// idGenerator mints "{ms_since_epoch}-{local_counter}" identifiers; the
// counter disambiguates two records minted within the same millisecond.
type idGenerator struct {
	counter atomic.Uint64
}

func (g *idGenerator) next(nowMs int64) string {
	return fmt.Sprintf("%d-%d", nowMs, g.counter.Add(1))
}

// InMemory is a Repository backed by plain Go maps and slices under one
// mutex, adapting pkg/cache/memory_cache.go's store-everything-in-memory
// shape to the repository contract's range and index queries, which a
// flat TTL cache has no way to serve.
type InMemory struct {
	mu  sync.RWMutex
	ids idGenerator

	fills     map[string]Fill
	snapshots []PositionSnapshot
	dailyPnL  map[string]DailyPnL // key: date+"|"+symbol
	configs   map[string]ConfigEntry
	events    []EventLog
}

// NewInMemory builds an empty in-memory repository.
func NewInMemory() *InMemory {
	return &InMemory{
		fills:    make(map[string]Fill),
		dailyPnL: make(map[string]DailyPnL),
		configs:  make(map[string]ConfigEntry),
	}
}

func dailyPnLKey(date, symbol string) string { return date + "|" + symbol }

func (r *InMemory) SaveFill(_ context.Context, fill Fill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fill.ID == "" {
		fill.ID = r.ids.next(fill.TimestampMs)
	}
	r.fills[fill.ID] = fill
	return nil
}

func (r *InMemory) GetFill(_ context.Context, id string) (Fill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fills[id]
	if !ok {
		return Fill{}, errs.Persistence("InMemory.GetFill", ErrNotFound)
	}
	return f, nil
}

func (r *InMemory) GetFills(_ context.Context, startMs, endMs int64) ([]Fill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Fill, 0)
	for _, f := range r.fills {
		if f.TimestampMs >= startMs && f.TimestampMs <= endMs {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

func (r *InMemory) GetFillsBySymbol(_ context.Context, symbol string) ([]Fill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Fill, 0)
	for _, f := range r.fills {
		if f.Symbol == symbol {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

func (r *InMemory) DeleteFill(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fills[id]; !ok {
		return errs.Persistence("InMemory.DeleteFill", ErrNotFound)
	}
	delete(r.fills, id)
	return nil
}

func (r *InMemory) SavePositionSnapshot(_ context.Context, snap PositionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap.ID == "" {
		snap.ID = r.ids.next(snap.TimestampMs)
	}
	r.snapshots = append(r.snapshots, snap)
	return nil
}

func (r *InMemory) GetLatestPosition(_ context.Context, symbol string) (PositionSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest PositionSnapshot
	found := false
	for _, s := range r.snapshots {
		if s.Symbol != symbol {
			continue
		}
		if !found || s.TimestampMs > latest.TimestampMs {
			latest = s
			found = true
		}
	}
	if !found {
		return PositionSnapshot{}, errs.Persistence("InMemory.GetLatestPosition", ErrNotFound)
	}
	return latest, nil
}

func (r *InMemory) GetPositionHistory(_ context.Context, symbol string, startMs, endMs int64) ([]PositionSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PositionSnapshot, 0)
	for _, s := range r.snapshots {
		if s.Symbol == symbol && s.TimestampMs >= startMs && s.TimestampMs <= endMs {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

func (r *InMemory) SaveDailyPnL(_ context.Context, pnl DailyPnL) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pnl.ID == "" {
		pnl.ID = r.ids.next(pnl.TimestampMs)
	}
	r.dailyPnL[dailyPnLKey(pnl.Date, pnl.Symbol)] = pnl
	return nil
}

func (r *InMemory) GetDailyPnL(_ context.Context, date, symbol string) (DailyPnL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.dailyPnL[dailyPnLKey(date, symbol)]
	if !ok {
		return DailyPnL{}, errs.Persistence("InMemory.GetDailyPnL", ErrNotFound)
	}
	return p, nil
}

func (r *InMemory) GetPnLHistory(_ context.Context, symbol, startDate, endDate string) ([]DailyPnL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DailyPnL, 0)
	for _, p := range r.dailyPnL {
		if p.Symbol == symbol && p.Date >= startDate && p.Date <= endDate {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *InMemory) SaveConfig(_ context.Context, entry ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[entry.Key] = entry
	return nil
}

func (r *InMemory) GetConfig(_ context.Context, key string) (ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[key]
	if !ok {
		return ConfigEntry{}, errs.Persistence("InMemory.GetConfig", ErrNotFound)
	}
	return c, nil
}

func (r *InMemory) GetAllConfig(_ context.Context) ([]ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConfigEntry, 0, len(r.configs))
	for _, c := range r.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *InMemory) DeleteConfig(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.configs[key]; !ok {
		return errs.Persistence("InMemory.DeleteConfig", ErrNotFound)
	}
	delete(r.configs, key)
	return nil
}

func (r *InMemory) SaveEvent(_ context.Context, event EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = r.ids.next(event.TimestampMs)
	}
	r.events = append(r.events, event)
	return nil
}

func (r *InMemory) GetEvents(_ context.Context, startMs, endMs int64) ([]EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventLog, 0)
	for _, e := range r.events {
		if e.TimestampMs >= startMs && e.TimestampMs <= endMs {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

func (r *InMemory) GetEventsByType(_ context.Context, kind types.EventKind) ([]EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventLog, 0)
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *InMemory) GetEventsBySeverity(_ context.Context, min risk.Severity) ([]EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventLog, 0)
	for _, e := range r.events {
		if e.Severity >= min {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *InMemory) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fills = make(map[string]Fill)
	r.snapshots = nil
	r.dailyPnL = make(map[string]DailyPnL)
	r.configs = make(map[string]ConfigEntry)
	r.events = nil
	return nil
}

func (r *InMemory) FillCount(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fills), nil
}

func (r *InMemory) EventCount(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events), nil
}
