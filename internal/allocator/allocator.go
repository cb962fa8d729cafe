// Package allocator runs market making across several underlyings behind
// one capital pool and one pricer per symbol: per-underlying configs with
// target weights and Greek caps, pairwise correlations set one pair at a
// time as assets are added, and a unified risk view aggregating across
// all of them. Capital allocation borrows its shape (an enum of
// strategies plus per-target clamps) from a selection-strategy pattern
// used for account routing elsewhere in this codebase.
package allocator

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/internal/risk"
	"github.com/mExOms/mm-kernel/pkg/decimalx"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// AllocationStrategy selects how Allocator.Reallocate splits the capital
// pool across active underlyings.
type AllocationStrategy int

const (
	// AllocEqual splits capital evenly across active underlyings.
	AllocEqual AllocationStrategy = iota
	// AllocProportionalToVolatility weights by each underlying's vega
	// exposure, so the more volatile books draw more capital.
	AllocProportionalToVolatility
	// AllocProportionalToEdge weights by each underlying's realized plus
	// unrealized P&L (floored at a small epsilon so a lossy book still
	// gets a token allocation rather than zero).
	AllocProportionalToEdge
)

// UnderlyingStatus gates whether an underlying is eligible for new quotes.
type UnderlyingStatus int

const (
	StatusActive UnderlyingStatus = iota
	StatusHalted
)

// HedgeType distinguishes the Greek a cross-asset hedge suggestion is
// aimed at neutralizing.
type HedgeType int

const (
	HedgeDelta HedgeType = iota
	HedgeVega
)

// UnderlyingConfig is the static configuration for one underlying's slot
// in the pool: its target capital weight, allocation clamps, and
// per-Greek risk caps.
type UnderlyingConfig struct {
	Symbol           string
	TargetWeight     decimal.Decimal
	MinAllocation    decimal.Decimal
	MaxAllocation    decimal.Decimal // zero means unclamped
	MaxDelta         decimal.Decimal
	MaxGamma         decimal.Decimal
	MaxVega          decimal.Decimal
	MaxPositionValue decimal.Decimal
}

// NewUnderlyingConfig builds a config with the given symbol and target
// weight; every other field defaults to zero (no clamp, no cap) until
// set with the With* builders.
func NewUnderlyingConfig(symbol string, targetWeight decimal.Decimal) UnderlyingConfig {
	return UnderlyingConfig{Symbol: symbol, TargetWeight: targetWeight}
}

func (c UnderlyingConfig) WithMaxDelta(v decimal.Decimal) UnderlyingConfig {
	c.MaxDelta = v
	return c
}

func (c UnderlyingConfig) WithMaxGamma(v decimal.Decimal) UnderlyingConfig {
	c.MaxGamma = v
	return c
}

func (c UnderlyingConfig) WithMaxVega(v decimal.Decimal) UnderlyingConfig {
	c.MaxVega = v
	return c
}

func (c UnderlyingConfig) WithMaxPositionValue(v decimal.Decimal) UnderlyingConfig {
	c.MaxPositionValue = v
	return c
}

func (c UnderlyingConfig) WithAllocationClamp(min, max decimal.Decimal) UnderlyingConfig {
	c.MinAllocation, c.MaxAllocation = min, max
	return c
}

// UnderlyingState is one underlying's live book: its config, its quoting
// position and limits, and everything the manager tracks from market and
// Greeks updates.
type UnderlyingState struct {
	Config           UnderlyingConfig
	Status           UnderlyingStatus
	Price            decimal.Decimal
	Position         types.InventoryPosition
	Limits           risk.Limits
	Delta            decimal.Decimal
	Gamma            decimal.Decimal
	Vega             decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	RealizedPnL      decimal.Decimal
	PositionValue    decimal.Decimal
	AllocatedCapital decimal.Decimal
}

// DollarDelta is Delta * Price, the position's notional directional
// exposure.
func (s UnderlyingState) DollarDelta() decimal.Decimal {
	return s.Delta.Mul(s.Price)
}

// DollarGamma is Gamma * Price, mirroring DollarDelta for second-order
// exposure.
func (s UnderlyingState) DollarGamma() decimal.Decimal {
	return s.Gamma.Mul(s.Price)
}

// UnifiedGreeks aggregates Greek exposure across every tracked underlying.
type UnifiedGreeks struct {
	TotalDollarDelta    decimal.Decimal
	TotalDollarGamma    decimal.Decimal
	TotalDollarVega     decimal.Decimal
	PortfolioVolatility decimal.Decimal
	UnderlyingCount     int
}

// UnifiedRisk is the pool-wide risk snapshot GetUnifiedRisk returns.
type UnifiedRisk struct {
	TotalCapital       decimal.Decimal
	TotalPositionValue decimal.Decimal
	TotalUnrealizedPnL decimal.Decimal
	TotalRealizedPnL   decimal.Decimal
	Greeks             UnifiedGreeks
	DeltaUtilization   decimal.Decimal // percent of MaxTotalDelta used
	VegaUtilization    decimal.Decimal // percent of MaxTotalVega used
	ActiveUnderlyings  int
	HaltedUnderlyings  int
}

// CrossAssetHedge is one suggested hedge: reduce source's net exposure by
// trading hedge in proportion to HedgeRatio, justified by Correlation and
// the residual-risk reduction it buys.
type CrossAssetHedge struct {
	SourceUnderlying string
	HedgeUnderlying  string
	HedgeRatio       decimal.Decimal
	Correlation      decimal.Decimal
	RiskReduction    decimal.Decimal // percent
	HedgeType        HedgeType
}

var minHedgeExposure = decimal.NewFromInt(1)

// PricerFunc prices one tick for a registered underlying, given its
// current inventory and its allocator-derived risk limits.
type PricerFunc func(tick types.MarketTick, pos types.InventoryPosition, limits risk.Limits) (types.Quote, error)

// Manager pools capital and aggregate Greek limits across several
// underlyings, owns one pricer per symbol, and re-derives each symbol's
// effective notional cap from the current capital split whenever it's
// reallocated. Correlations are stored independently of the underlying
// list, so a pair may be set before either symbol is registered.
type Manager struct {
	mu             sync.RWMutex
	capital        decimal.Decimal
	strategy       AllocationStrategy
	maxUnderlyings int
	maxTotalDelta  decimal.Decimal
	maxTotalVega   decimal.Decimal
	order          []string
	states         map[string]*UnderlyingState
	pricers        map[string]PricerFunc
	correlations   map[string]decimal.Decimal // canonical "a|b" -> rho
	log            *logrus.Entry
}

// NewManager builds a pool with the given total capital and no
// underlyings, limits, or strategy restriction beyond AllocEqual.
func NewManager(capital decimal.Decimal) *Manager {
	return &Manager{
		capital:      capital,
		strategy:     AllocEqual,
		order:        make([]string, 0),
		states:       make(map[string]*UnderlyingState),
		pricers:      make(map[string]PricerFunc),
		correlations: make(map[string]decimal.Decimal),
		log:          logrus.WithField("component", "allocator"),
	}
}

func (m *Manager) WithAllocationStrategy(s AllocationStrategy) *Manager {
	m.strategy = s
	return m
}

func (m *Manager) WithMaxUnderlyings(n int) *Manager {
	m.maxUnderlyings = n
	return m
}

func (m *Manager) WithMaxTotalDelta(v decimal.Decimal) *Manager {
	m.maxTotalDelta = v
	return m
}

func (m *Manager) WithMaxTotalVega(v decimal.Decimal) *Manager {
	m.maxTotalVega = v
	return m
}

func (m *Manager) AllocationStrategy() AllocationStrategy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strategy
}

func (m *Manager) SetAllocationStrategy(s AllocationStrategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy = s
}

func correlationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// AddUnderlying registers a new underlying, optionally with the pricer
// that will serve its Tick calls. Rejects duplicates and rejects
// exceeding MaxUnderlyings when one was configured.
func (m *Manager) AddUnderlying(cfg UnderlyingConfig, pricer PricerFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.states[cfg.Symbol]; exists {
		return errs.Newf(errs.ErrInvalidConfiguration, "Manager.AddUnderlying", "underlying %q already registered", cfg.Symbol)
	}
	if m.maxUnderlyings > 0 && len(m.order) >= m.maxUnderlyings {
		return errs.Newf(errs.ErrInvalidConfiguration, "Manager.AddUnderlying", "max underlyings %d reached", m.maxUnderlyings)
	}

	m.states[cfg.Symbol] = &UnderlyingState{Config: cfg, Status: StatusActive}
	m.order = append(m.order, cfg.Symbol)
	if pricer != nil {
		m.pricers[cfg.Symbol] = pricer
	}
	return nil
}

func (m *Manager) UnderlyingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *Manager) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// SetCorrelation records rho(a,b); either symbol may be added to the
// manager before or after this call.
func (m *Manager) SetCorrelation(a, b string, rho decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.correlations[correlationKey(a, b)] = rho
}

func (m *Manager) GetCorrelation(a, b string) (decimal.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rho, ok := m.correlations[correlationKey(a, b)]
	return rho, ok
}

func (m *Manager) mustState(symbol string) (*UnderlyingState, error) {
	s, ok := m.states[symbol]
	if !ok {
		return nil, errs.Newf(errs.ErrInvalidMarketState, "Manager", "unknown underlying %q", symbol)
	}
	return s, nil
}

func (m *Manager) UpdatePrice(symbol string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.Price = price
	return nil
}

func (m *Manager) UpdateGreeks(symbol string, delta, gamma, vega decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.Delta, s.Gamma, s.Vega = delta, gamma, vega
	return nil
}

func (m *Manager) UpdatePnL(symbol string, unrealized, realized decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.UnrealizedPnL, s.RealizedPnL = unrealized, realized
	return nil
}

func (m *Manager) UpdatePositionValue(symbol string, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.PositionValue = value
	return nil
}

func (m *Manager) SetStatus(symbol string, status UnderlyingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.Status = status
	return nil
}

// GetState returns a copy of the underlying's current state.
func (m *Manager) GetState(symbol string) (UnderlyingState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[symbol]
	if !ok {
		return UnderlyingState{}, false
	}
	return *s, true
}

// Tick prices one market observation for symbol through its registered
// pricer, passing the underlying's current inventory and its
// allocator-derived risk limits (MaxNotional capped to AllocatedCapital,
// so a symbol can never quote past the capital Reallocate gave it).
func (m *Manager) Tick(symbol string, tick types.MarketTick) (*types.Quote, error) {
	m.mu.RLock()
	s, err := m.mustState(symbol)
	if err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	pricer, ok := m.pricers[symbol]
	if !ok {
		m.mu.RUnlock()
		return nil, errs.Newf(errs.ErrInvalidConfiguration, "Manager.Tick", "no pricer registered for %q", symbol)
	}
	if s.Status != StatusActive {
		m.mu.RUnlock()
		return nil, errs.Newf(errs.ErrInvalidMarketState, "Manager.Tick", "underlying %q is halted", symbol)
	}
	limits := s.Limits
	if s.AllocatedCapital.IsPositive() && s.AllocatedCapital.LessThan(limits.MaxNotional) {
		limits.MaxNotional = s.AllocatedCapital
	}
	pos := s.Position
	m.mu.RUnlock()

	quote, err := pricer(tick, pos, limits)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	s.Price = tick.Mid()
	m.mu.Unlock()

	return &quote, nil
}

// SetPosition and SetLimits let the order manager / risk layer keep a
// symbol's inventory and base limits current between ticks.
func (m *Manager) SetPosition(symbol string, pos types.InventoryPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.Position = pos
	return nil
}

func (m *Manager) SetLimits(symbol string, limits risk.Limits) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.mustState(symbol)
	if err != nil {
		return err
	}
	s.Limits = limits
	return nil
}

// GetUnifiedRisk aggregates capital, P&L, Greeks, and limit utilization
// across every tracked underlying. Portfolio volatility applies the
// recorded pairwise correlations directly to dollar-delta exposures
// (sum_i sum_j ddelta_i*ddelta_j*rho_ij, square-rooted) rather than to a
// separately tracked per-asset volatility series, since the manager's
// inputs are Greeks and prices, not return histories; internal/risk's
// Portfolio type is for the case where volatilities are known.
func (m *Manager) GetUnifiedRisk() UnifiedRisk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := UnifiedRisk{TotalCapital: m.capital}
	dollarDeltas := make(map[string]decimal.Decimal, len(m.order))

	for _, symbol := range m.order {
		s := m.states[symbol]
		out.TotalPositionValue = out.TotalPositionValue.Add(s.PositionValue)
		out.TotalUnrealizedPnL = out.TotalUnrealizedPnL.Add(s.UnrealizedPnL)
		out.TotalRealizedPnL = out.TotalRealizedPnL.Add(s.RealizedPnL)

		dd := s.DollarDelta()
		dollarDeltas[symbol] = dd
		out.Greeks.TotalDollarDelta = out.Greeks.TotalDollarDelta.Add(dd)
		out.Greeks.TotalDollarGamma = out.Greeks.TotalDollarGamma.Add(s.DollarGamma())
		out.Greeks.TotalDollarVega = out.Greeks.TotalDollarVega.Add(s.Vega)

		if s.Status == StatusActive {
			out.ActiveUnderlyings++
		} else {
			out.HaltedUnderlyings++
		}
	}
	out.Greeks.UnderlyingCount = len(m.order)
	out.Greeks.PortfolioVolatility = m.portfolioVolatility(dollarDeltas)

	hundred := decimal.NewFromInt(100)
	if m.maxTotalDelta.IsPositive() {
		out.DeltaUtilization = out.Greeks.TotalDollarDelta.Abs().Div(m.maxTotalDelta).Mul(hundred)
	}
	if m.maxTotalVega.IsPositive() {
		out.VegaUtilization = out.Greeks.TotalDollarVega.Abs().Div(m.maxTotalVega).Mul(hundred)
	}
	return out
}

func (m *Manager) portfolioVolatility(dollarDeltas map[string]decimal.Decimal) decimal.Decimal {
	variance := decimal.Zero
	for si, di := range dollarDeltas {
		for sj, dj := range dollarDeltas {
			rho := decimal.NewFromInt(1)
			if si != sj {
				if r, ok := m.correlations[correlationKey(si, sj)]; ok {
					rho = r
				} else {
					continue
				}
			}
			variance = variance.Add(di.Mul(dj).Mul(rho))
		}
	}
	if variance.IsNegative() {
		return decimal.Zero
	}
	return decimalx.Sqrt(variance)
}

// GetCrossAssetHedges proposes, for every correlated pair of active
// underlyings with material delta exposure, a hedge ratio and the
// residual-risk reduction applying it buys, via internal/risk.HedgeRatio
// treating each side's absolute dollar delta as its volatility proxy.
func (m *Manager) GetCrossAssetHedges() []CrossAssetHedge {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]CrossAssetHedge, 0)
	for i, a := range m.order {
		sa := m.states[a]
		if sa.Status != StatusActive || sa.DollarDelta().Abs().LessThan(minHedgeExposure) {
			continue
		}
		for j, b := range m.order {
			if i == j {
				continue
			}
			sb := m.states[b]
			if sb.Status != StatusActive || sb.DollarDelta().Abs().LessThan(minHedgeExposure) {
				continue
			}
			rho, ok := m.correlations[correlationKey(a, b)]
			if !ok || rho.IsZero() {
				continue
			}
			sigmaTarget := sa.DollarDelta().Abs()
			sigmaHedge := sb.DollarDelta().Abs()
			beta, residual, err := risk.HedgeRatio(rho, sigmaTarget, sigmaHedge)
			if err != nil {
				continue
			}
			reduction := decimal.Zero
			if sigmaTarget.IsPositive() {
				one := decimal.NewFromInt(1)
				reduction = one.Sub(residual.Div(sigmaTarget)).Mul(decimal.NewFromInt(100))
			}
			out = append(out, CrossAssetHedge{
				SourceUnderlying: a,
				HedgeUnderlying:  b,
				HedgeRatio:       beta,
				Correlation:      rho,
				RiskReduction:    reduction,
				HedgeType:        HedgeDelta,
			})
		}
	}
	return out
}

// Reallocate recomputes AllocatedCapital for every active underlying
// under the current strategy, then clamps each to its configured
// [MinAllocation, MaxAllocation] (when set) and spreads any capital
// freed by clamping back across the underlyings below their cap in
// proportion to their remaining headroom (see clampAllocations).
func (m *Manager) Reallocate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make([]string, 0, len(m.order))
	for _, symbol := range m.order {
		if m.states[symbol].Status == StatusActive {
			active = append(active, symbol)
		} else {
			m.states[symbol].AllocatedCapital = decimal.Zero
		}
	}
	if len(active) == 0 {
		return
	}

	weights := m.allocationWeights(active)
	for _, symbol := range active {
		m.states[symbol].AllocatedCapital = m.capital.Mul(weights[symbol])
	}
	m.clampAllocations(active)
}

func (m *Manager) allocationWeights(active []string) map[string]decimal.Decimal {
	weights := make(map[string]decimal.Decimal, len(active))
	epsilon := decimal.NewFromFloat(1e-9)

	switch m.strategy {
	case AllocProportionalToVolatility:
		total := decimal.Zero
		raw := make(map[string]decimal.Decimal, len(active))
		for _, symbol := range active {
			v := m.states[symbol].Vega.Abs().Add(epsilon)
			raw[symbol] = v
			total = total.Add(v)
		}
		for _, symbol := range active {
			weights[symbol] = raw[symbol].Div(total)
		}
	case AllocProportionalToEdge:
		total := decimal.Zero
		raw := make(map[string]decimal.Decimal, len(active))
		for _, symbol := range active {
			s := m.states[symbol]
			edge := s.RealizedPnL.Add(s.UnrealizedPnL)
			if edge.LessThan(epsilon) {
				edge = epsilon
			}
			raw[symbol] = edge
			total = total.Add(edge)
		}
		for _, symbol := range active {
			weights[symbol] = raw[symbol].Div(total)
		}
	default: // AllocEqual
		share := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(active))))
		for _, symbol := range active {
			weights[symbol] = share
		}
	}
	return weights
}

// clampAllocations enforces each active underlying's [Min,Max]
// allocation bound in place. This is a single pass, not an iterative
// water-filling solve: capital freed from over-cap symbols is
// redistributed once, proportionally, across symbols that still have
// headroom, which can leave a clamped symbol's neighbor still shy of its
// own cap in pathological configurations.
func (m *Manager) clampAllocations(active []string) {
	freed := decimal.Zero
	headroom := make(map[string]decimal.Decimal)
	totalHeadroom := decimal.Zero

	for _, symbol := range active {
		s := m.states[symbol]
		cfg := s.Config
		if cfg.MaxAllocation.IsPositive() && s.AllocatedCapital.GreaterThan(cfg.MaxAllocation) {
			freed = freed.Add(s.AllocatedCapital.Sub(cfg.MaxAllocation))
			s.AllocatedCapital = cfg.MaxAllocation
		}
		if cfg.MinAllocation.IsPositive() && s.AllocatedCapital.LessThan(cfg.MinAllocation) {
			s.AllocatedCapital = cfg.MinAllocation
		}
	}
	if freed.IsZero() {
		return
	}
	for _, symbol := range active {
		s := m.states[symbol]
		cfg := s.Config
		if cfg.MaxAllocation.IsPositive() && s.AllocatedCapital.GreaterThanOrEqual(cfg.MaxAllocation) {
			continue
		}
		room := cfg.MaxAllocation.Sub(s.AllocatedCapital)
		if cfg.MaxAllocation.IsZero() {
			room = freed // unclamped symbols can absorb everything
		}
		headroom[symbol] = room
		totalHeadroom = totalHeadroom.Add(room)
	}
	if totalHeadroom.IsZero() || totalHeadroom.IsNegative() {
		return
	}
	for symbol, room := range headroom {
		share := freed.Mul(room).Div(totalHeadroom)
		if share.GreaterThan(room) {
			share = room
		}
		m.states[symbol].AllocatedCapital = m.states[symbol].AllocatedCapital.Add(share)
	}
}
