// Package monitor tracks live trading counters and gauges and exports a
// point-in-time snapshot, plus the shared logrus setup every other
// package logs through.
package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable point-in-time view of the metrics state,
// including rates derived at snapshot time rather than maintained live.
type Snapshot struct {
	Timestamp time.Time

	Quotes       uint64
	Submissions  uint64
	OrdersOpen   uint64
	OrdersFilled uint64
	Cancels      uint64
	Fills        uint64
	Partials     uint64

	OpenOrders int64

	Position      decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal

	FillRate      decimal.Decimal // fills / quotes
	CancelRate    decimal.Decimal // cancels / submissions
	QuotesPerSec  decimal.Decimal
	FillsPerSec   decimal.Decimal
}

// Metrics holds lock-free counters/gauges for independent integer
// series, and a reader-writer lock around the Decimal P&L fields that
// aren't safe as atomic primitives.
type Metrics struct {
	startedAt time.Time

	quotes       atomic.Uint64
	submissions  atomic.Uint64
	ordersOpen   atomic.Uint64
	ordersFilled atomic.Uint64
	cancels      atomic.Uint64
	fills        atomic.Uint64
	partials     atomic.Uint64

	openOrders atomic.Int64

	mu            sync.RWMutex
	position      decimal.Decimal
	realizedPnL   decimal.Decimal
	unrealizedPnL decimal.Decimal
}

// New creates a Metrics instance with its uptime clock starting now.
func New(now time.Time) *Metrics {
	return &Metrics{startedAt: now}
}

func (m *Metrics) IncQuotes()       { m.quotes.Add(1) }
func (m *Metrics) IncSubmissions()  { m.submissions.Add(1) }
func (m *Metrics) IncOrdersOpen()   { m.ordersOpen.Add(1) }
func (m *Metrics) IncOrdersFilled() { m.ordersFilled.Add(1) }
func (m *Metrics) IncCancels()      { m.cancels.Add(1) }
func (m *Metrics) IncFills()        { m.fills.Add(1) }
func (m *Metrics) IncPartials()     { m.partials.Add(1) }

// SetOpenOrders sets the current open-order gauge.
func (m *Metrics) SetOpenOrders(n int64) { m.openOrders.Store(n) }

// SetPosition, SetRealizedPnL, SetUnrealizedPnL update the Decimal fields
// under the write lock.
func (m *Metrics) SetPosition(v decimal.Decimal) {
	m.mu.Lock()
	m.position = v
	m.mu.Unlock()
}

func (m *Metrics) SetRealizedPnL(v decimal.Decimal) {
	m.mu.Lock()
	m.realizedPnL = v
	m.mu.Unlock()
}

func (m *Metrics) SetUnrealizedPnL(v decimal.Decimal) {
	m.mu.Lock()
	m.unrealizedPnL = v
	m.mu.Unlock()
}

// Snapshot takes an immutable reading of every counter, gauge and
// Decimal field, plus the derived rates, as of now.
func (m *Metrics) Snapshot(now time.Time) Snapshot {
	m.mu.RLock()
	position, realized, unrealized := m.position, m.realizedPnL, m.unrealizedPnL
	m.mu.RUnlock()

	quotes := m.quotes.Load()
	submissions := m.submissions.Load()
	fills := m.fills.Load()
	cancels := m.cancels.Load()

	uptime := now.Sub(m.startedAt).Seconds()

	fillRate := decimal.Zero
	if quotes > 0 {
		fillRate = decimal.NewFromInt(int64(fills)).Div(decimal.NewFromInt(int64(quotes)))
	}
	cancelRate := decimal.Zero
	if submissions > 0 {
		cancelRate = decimal.NewFromInt(int64(cancels)).Div(decimal.NewFromInt(int64(submissions)))
	}
	quotesPerSec := decimal.Zero
	fillsPerSec := decimal.Zero
	if uptime > 0 {
		uptimeDec := decimal.NewFromFloat(uptime)
		quotesPerSec = decimal.NewFromInt(int64(quotes)).Div(uptimeDec)
		fillsPerSec = decimal.NewFromInt(int64(fills)).Div(uptimeDec)
	}

	return Snapshot{
		Timestamp:     now,
		Quotes:        quotes,
		Submissions:   submissions,
		OrdersOpen:    m.ordersOpen.Load(),
		OrdersFilled:  m.ordersFilled.Load(),
		Cancels:       cancels,
		Fills:         fills,
		Partials:      m.partials.Load(),
		OpenOrders:    m.openOrders.Load(),
		Position:      position,
		RealizedPnL:   realized,
		UnrealizedPnL: unrealized,
		FillRate:      fillRate,
		CancelRate:    cancelRate,
		QuotesPerSec:  quotesPerSec,
		FillsPerSec:   fillsPerSec,
	}
}
