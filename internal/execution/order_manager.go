// Package execution tracks working orders through their exchange-side
// lifecycle: registration, acknowledgement, fills, cancellation, and
// eventual cleanup, all behind a single reader-writer lock so per-symbol
// listings never block concurrent by-id lookups from other goroutines.
package execution

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// Config bounds how many orders may be open per symbol and how long an
// order may stay open before CheckTimeouts reports it. Cleanup's
// retention for terminal orders is passed to Cleanup directly.
type Config struct {
	MaxOpenOrdersPerSymbol int
	OrderTimeout           time.Duration
	RejectDuplicateClient  bool
}

// Stats summarizes manager state for metrics/health reporting.
type Stats struct {
	ByStatus  map[types.StatusKind]int
	FillCount int
}

// Manager is the order-lifecycle tracker. Zero value is not usable; use
// NewManager.
type Manager struct {
	mu sync.RWMutex

	cfg Config

	orders       map[string]*types.ManagedOrder // client_order_id -> order
	byExchangeID map[string]string              // exchange_order_id -> client_order_id
	openBySymbol map[string][]string            // symbol -> ordered client_order_ids

	fillCount int

	log *logrus.Entry
}

// NewManager builds an empty order manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:          cfg,
		orders:       make(map[string]*types.ManagedOrder),
		byExchangeID: make(map[string]string),
		openBySymbol: make(map[string][]string),
		log:          logrus.WithField("component", "execution.order_manager"),
	}
}

// Register inserts a new order in Pending status. Fails without mutating
// anything if client_order_id is a duplicate (when RejectDuplicateClient
// is set) or the symbol is already at its open-order cap.
func (m *Manager) Register(symbol string, side types.Side, typ types.OrderType, clientOrderID string, price, qty decimal.Decimal, now time.Time) (*types.ManagedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.RejectDuplicateClient {
		if _, exists := m.orders[clientOrderID]; exists {
			return nil, errs.Newf(errs.ErrInvalidMarketState, "Manager.Register", "duplicate client_order_id %q", clientOrderID)
		}
	}
	if m.cfg.MaxOpenOrdersPerSymbol > 0 && len(m.openBySymbol[symbol]) >= m.cfg.MaxOpenOrdersPerSymbol {
		return nil, errs.Newf(errs.ErrInvalidMarketState, "Manager.Register", "symbol %s at max open orders (%d)", symbol, m.cfg.MaxOpenOrdersPerSymbol)
	}

	order := &types.ManagedOrder{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Type:          typ,
		OriginalPrice: price,
		OriginalQty:   qty,
		RemainingQty:  qty,
		Status:        types.OrderStatus{Kind: types.StatusPending},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	m.orders[clientOrderID] = order
	m.openBySymbol[symbol] = append(m.openBySymbol[symbol], clientOrderID)
	return order, nil
}

// Update installs the exchange-assigned id on first acknowledgement and
// moves the order to Open; if already Open/PartiallyFilled it is a no-op
// on status but still refreshes UpdatedAt.
func (m *Manager) Update(clientOrderID, exchangeOrderID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[clientOrderID]
	if !ok {
		return errs.Newf(errs.ErrInvalidMarketState, "Manager.Update", "unknown client_order_id %q", clientOrderID)
	}

	if order.ExchangeOrderID == "" {
		order.ExchangeOrderID = exchangeOrderID
		m.byExchangeID[exchangeOrderID] = clientOrderID
	}
	if order.Status.Kind == types.StatusPending {
		order.Status = types.OrderStatus{Kind: types.StatusOpen}
	}
	order.UpdatedAt = now
	return nil
}

// RecordFill locates the order owning exchangeOrderID, applies the fill,
// and removes the order from its symbol's open index once terminal. It
// is an error to fill an unknown exchange id.
func (m *Manager) RecordFill(fill types.Fill, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clientOrderID, ok := m.byExchangeID[fill.ExchangeOrderID]
	if !ok {
		return errs.Newf(errs.ErrInvalidMarketState, "Manager.RecordFill", "unknown exchange_order_id %q", fill.ExchangeOrderID)
	}
	order := m.orders[clientOrderID]
	order.ApplyFill(fill, now)
	m.fillCount++

	if order.Status.IsTerminal() {
		m.removeFromOpenIndex(order.Symbol, clientOrderID)
	}
	return nil
}

// MarkCancelled forces the order to Cancelled{filled} and removes it from
// the open index.
func (m *Manager) MarkCancelled(clientOrderID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[clientOrderID]
	if !ok {
		return errs.Newf(errs.ErrInvalidMarketState, "Manager.MarkCancelled", "unknown client_order_id %q", clientOrderID)
	}
	order.Status = types.OrderStatus{Kind: types.StatusCancelled, Filled: order.FilledQty}
	order.UpdatedAt = now
	m.removeFromOpenIndex(order.Symbol, clientOrderID)
	return nil
}

// removeFromOpenIndex drops clientOrderID from a symbol's open-order
// list. Caller must hold m.mu.
func (m *Manager) removeFromOpenIndex(symbol, clientOrderID string) {
	ids := m.openBySymbol[symbol]
	for i, id := range ids {
		if id == clientOrderID {
			m.openBySymbol[symbol] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// GetByClientID returns a copy of the order's current state.
func (m *Manager) GetByClientID(clientOrderID string) (types.ManagedOrder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[clientOrderID]
	if !ok {
		return types.ManagedOrder{}, false
	}
	return *order, true
}

// GetByExchangeID returns a copy of the order's current state, looked up
// by exchange-assigned id.
func (m *Manager) GetByExchangeID(exchangeOrderID string) (types.ManagedOrder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clientOrderID, ok := m.byExchangeID[exchangeOrderID]
	if !ok {
		return types.ManagedOrder{}, false
	}
	order := m.orders[clientOrderID]
	return *order, true
}

// GetOpen returns copies of every currently open order for a symbol, in
// registration order.
func (m *Manager) GetOpen(symbol string) []types.ManagedOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.openBySymbol[symbol]
	out := make([]types.ManagedOrder, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.orders[id])
	}
	return out
}

// GetOpenQuantity sums remaining quantity across open orders for symbol
// on the given side.
func (m *Manager) GetOpenQuantity(symbol string, side types.Side) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, id := range m.openBySymbol[symbol] {
		order := m.orders[id]
		if order.Side == side {
			total = total.Add(order.RemainingQty)
		}
	}
	return total
}

// CheckTimeouts returns client ids of orders still open/pending whose age
// exceeds the configured timeout. It does not mutate state.
func (m *Manager) CheckTimeouts(now time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id, order := range m.orders {
		if !order.Status.IsTerminal() && now.Sub(order.CreatedAt) > m.cfg.OrderTimeout {
			out = append(out, id)
		}
	}
	return out
}

// Cleanup drops terminal orders last updated before now-retention from
// both indices.
func (m *Manager) Cleanup(retention time.Duration, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-retention)
	dropped := 0
	for id, order := range m.orders {
		if order.Status.IsTerminal() && order.UpdatedAt.Before(cutoff) {
			delete(m.orders, id)
			if order.ExchangeOrderID != "" {
				delete(m.byExchangeID, order.ExchangeOrderID)
			}
			dropped++
		}
	}
	return dropped
}

// Stats reports order counts by status and total fills recorded.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[types.StatusKind]int)
	for _, order := range m.orders {
		counts[order.Status.Kind]++
	}
	return Stats{ByStatus: counts, FillCount: m.fillCount}
}
