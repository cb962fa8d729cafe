// Package backtest replays historical ticks through a strategy,
// simulating fills, fees, and slippage and deriving an equity curve,
// drawdown, and a Sharpe approximation at the end.
package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// SimulatedFill is one fill the engine manufactured from a strategy
// quote crossing the tick's opposite side.
type SimulatedFill struct {
	Side      types.Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp time.Time
	Fee       decimal.Decimal
}

// Notional is Price * Quantity.
func (f SimulatedFill) Notional() decimal.Decimal {
	return f.Price.Mul(f.Quantity)
}

// SlippageModel perturbs a fill price given the base price and current
// volatility.
type SlippageModel interface {
	Slippage(price, volatility decimal.Decimal) decimal.Decimal
}

// NoSlippage applies no price perturbation.
type NoSlippage struct{}

func (NoSlippage) Slippage(decimal.Decimal, decimal.Decimal) decimal.Decimal { return decimal.Zero }

// FixedSlippage applies a constant absolute amount regardless of price
// or volatility.
type FixedSlippage struct{ Amount decimal.Decimal }

func (s FixedSlippage) Slippage(decimal.Decimal, decimal.Decimal) decimal.Decimal { return s.Amount }

// PctSlippage applies a fixed fraction of price.
type PctSlippage struct{ Pct decimal.Decimal }

func (s PctSlippage) Slippage(price, _ decimal.Decimal) decimal.Decimal {
	return price.Mul(s.Pct)
}

// VolScaledSlippage scales with both price and the tick's volatility.
type VolScaledSlippage struct{ Multiplier decimal.Decimal }

func (s VolScaledSlippage) Slippage(price, volatility decimal.Decimal) decimal.Decimal {
	return price.Mul(volatility).Mul(s.Multiplier)
}

// Config is the backtest engine's run parameters.
type Config struct {
	InitialCapital    decimal.Decimal
	FeeRate           decimal.Decimal
	TickSize          decimal.Decimal
	LotSize           decimal.Decimal
	Slippage          SlippageModel
	DefaultOrderSize  decimal.Decimal
	RecordEquityCurve bool
	RecordTrades      bool
}

// NewConfig returns a Config with the same neutral defaults the original
// Rust engine carries: $100,000 capital, zero fees, a one-cent tick, a
// one-thousandth lot, no slippage, unit order size, and both recordings
// on.
func NewConfig() Config {
	return Config{
		InitialCapital:    decimal.NewFromInt(100_000),
		FeeRate:           decimal.Zero,
		TickSize:          decimal.NewFromFloat(0.01),
		LotSize:           decimal.NewFromFloat(0.001),
		Slippage:          NoSlippage{},
		DefaultOrderSize:  decimal.NewFromInt(1),
		RecordEquityCurve: true,
		RecordTrades:      true,
	}
}

func (c Config) validate() error {
	if c.InitialCapital.IsNegative() {
		return errs.Newf(errs.ErrInvalidConfiguration, "backtest.Config", "initial_capital must be non-negative")
	}
	if c.DefaultOrderSize.IsZero() || c.DefaultOrderSize.IsNegative() {
		return errs.Newf(errs.ErrInvalidConfiguration, "backtest.Config", "default_order_size must be positive")
	}
	return nil
}

func (c Config) WithInitialCapital(v decimal.Decimal) Config { c.InitialCapital = v; return c }
func (c Config) WithFeeRate(v decimal.Decimal) Config        { c.FeeRate = v; return c }
func (c Config) WithTickSize(v decimal.Decimal) Config       { c.TickSize = v; return c }
func (c Config) WithLotSize(v decimal.Decimal) Config        { c.LotSize = v; return c }
func (c Config) WithSlippage(m SlippageModel) Config         { c.Slippage = m; return c }
func (c Config) WithDefaultOrderSize(v decimal.Decimal) Config {
	c.DefaultOrderSize = v
	return c
}

// Result is the performance summary Run returns.
type Result struct {
	TotalPnL      decimal.Decimal
	TotalFees     decimal.Decimal
	NetPnL        decimal.Decimal
	NumTrades     int
	NumTicks      int
	StartTime     time.Time
	EndTime       time.Time
	MaxPosition   decimal.Decimal
	FinalPosition decimal.Decimal
	EquityCurve   []EquityPoint
	Trades        []SimulatedFill
	MaxDrawdown   decimal.Decimal
	SharpeRatio   decimal.Decimal
	HasSharpe     bool
}

// EquityPoint is one (timestamp, equity) sample on the curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
}

// WinRate is a simplified pass/fail signal: 1 if net P&L is positive,
// else 0, matching the original's simplification rather than a per-trade
// win/loss count.
func (r Result) WinRate() decimal.Decimal {
	if r.NumTrades == 0 {
		return decimal.Zero
	}
	if r.NetPnL.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

func (r Result) AvgTradePnL() decimal.Decimal {
	if r.NumTrades == 0 {
		return decimal.Zero
	}
	return r.NetPnL.Div(decimal.NewFromInt(int64(r.NumTrades)))
}

func (r Result) Duration() time.Duration {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

func (r Result) ReturnOnCapital(initialCapital decimal.Decimal) decimal.Decimal {
	if initialCapital.IsPositive() {
		return r.NetPnL.Div(initialCapital)
	}
	return decimal.Zero
}

// Strategy is the polymorphic decision surface the engine drives.
type Strategy interface {
	// OnTick returns the quote to place for this tick, or nil to sit out.
	OnTick(tick types.MarketTick, position types.InventoryPosition) (*types.Quote, error)
	OnFill(fill SimulatedFill)
	Reset()
}

// TickSource is the polymorphic historical data feed the engine drains.
type TickSource interface {
	NextTick() (types.MarketTick, bool)
	Len() int
	Reset()
}

// VecTickSource is a TickSource over an in-memory slice, the Go
// equivalent of the original's VecDataSource.
type VecTickSource struct {
	ticks []types.MarketTick
	pos   int
}

func NewVecTickSource(ticks []types.MarketTick) *VecTickSource {
	return &VecTickSource{ticks: ticks}
}

func (s *VecTickSource) NextTick() (types.MarketTick, bool) {
	if s.pos >= len(s.ticks) {
		return types.MarketTick{}, false
	}
	t := s.ticks[s.pos]
	s.pos++
	return t, true
}

func (s *VecTickSource) Len() int { return len(s.ticks) }
func (s *VecTickSource) Reset()   { s.pos = 0 }
