package backtest

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/decimalx"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// Engine drives a Strategy over a TickSource, simulating fills against
// each tick's opposite side and marking position to the tick's mid.
type Engine struct {
	cfg      Config
	strategy Strategy
	source   TickSource
	log      *logrus.Entry

	position    types.InventoryPosition
	equityCurve []EquityPoint
	trades      []SimulatedFill
	totalFees   decimal.Decimal
	maxPosition decimal.Decimal
	peakEquity  decimal.Decimal
	maxDrawdown decimal.Decimal
}

// NewEngine validates cfg and wires a strategy to a tick source.
func NewEngine(cfg Config, strategy Strategy, source TickSource) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		strategy:   strategy,
		source:     source,
		log:        logrus.WithField("component", "backtest.engine"),
		peakEquity: cfg.InitialCapital,
	}, nil
}

// Run drains the tick source end to end and returns the performance
// summary.
func (e *Engine) Run() (Result, error) {
	return e.RunWithProgress(func(int, int) {})
}

// RunWithProgress is Run with a callback invoked after each processed
// tick as (ticksProcessed, totalTicks).
func (e *Engine) RunWithProgress(progress func(processed, total int)) (Result, error) {
	total := e.source.Len()
	numTicks := 0
	var start, end time.Time
	unrealized := decimal.Zero
	realizedTotal := decimal.Zero

	for {
		tick, ok := e.source.NextTick()
		if !ok {
			break
		}
		if numTicks == 0 {
			start = tick.Timestamp
		}
		end = tick.Timestamp

		quote, err := e.strategy.OnTick(tick, e.position)
		if err != nil {
			return Result{}, errs.Newf(errs.ErrInvalidMarketState, "Engine.Run", "strategy OnTick: %v", err)
		}
		if quote != nil {
			e.simulateFills(tick, *quote)
		}

		mid := tick.Mid()
		unrealized = e.position.UnrealizedPnL(mid)
		realizedTotal = e.position.RealizedPnL
		pnlTotal := realizedTotal.Add(unrealized)

		equity := e.cfg.InitialCapital.Add(pnlTotal).Sub(e.totalFees)
		if e.cfg.RecordEquityCurve {
			e.equityCurve = append(e.equityCurve, EquityPoint{Timestamp: tick.Timestamp, Equity: equity})
		}

		if equity.GreaterThan(e.peakEquity) {
			e.peakEquity = equity
		}
		drawdown := e.peakEquity.Sub(equity)
		if drawdown.GreaterThan(e.maxDrawdown) {
			e.maxDrawdown = drawdown
		}

		numTicks++
		progress(numTicks, total)
	}

	netPnL := realizedTotal.Add(unrealized).Sub(e.totalFees)
	result := Result{
		TotalPnL:      realizedTotal.Add(unrealized),
		TotalFees:     e.totalFees,
		NetPnL:        netPnL,
		NumTrades:     len(e.trades),
		NumTicks:      numTicks,
		StartTime:     start,
		EndTime:       end,
		MaxPosition:   e.maxPosition,
		FinalPosition: e.position.Quantity,
		MaxDrawdown:   e.maxDrawdown,
	}
	if e.cfg.RecordEquityCurve {
		result.EquityCurve = e.equityCurve
	}
	if e.cfg.RecordTrades {
		result.Trades = e.trades
	}
	result.SharpeRatio, result.HasSharpe = e.sharpeRatio()
	return result, nil
}

// simulateFills checks whether quote crosses either side of tick and
// manufactures the corresponding fill.
func (e *Engine) simulateFills(tick types.MarketTick, quote types.Quote) {
	if quote.HasBid() && tick.AskPrice.LessThanOrEqual(quote.BidPrice) {
		price := e.applySlippage(quote.BidPrice, types.SideBuy, decimal.Zero)
		e.processFill(e.newFill(types.SideBuy, price, tick.Timestamp))
	}
	if quote.HasAsk() && tick.BidPrice.GreaterThanOrEqual(quote.AskPrice) {
		price := e.applySlippage(quote.AskPrice, types.SideSell, decimal.Zero)
		e.processFill(e.newFill(types.SideSell, price, tick.Timestamp))
	}
}

func (e *Engine) applySlippage(price decimal.Decimal, side types.Side, volatility decimal.Decimal) decimal.Decimal {
	slip := e.cfg.Slippage.Slippage(price, volatility)
	if side == types.SideBuy {
		return price.Add(slip)
	}
	return price.Sub(slip)
}

func (e *Engine) newFill(side types.Side, price decimal.Decimal, ts time.Time) SimulatedFill {
	qty := e.cfg.DefaultOrderSize
	notional := price.Mul(qty)
	fee := notional.Mul(e.cfg.FeeRate)
	return SimulatedFill{Side: side, Price: price, Quantity: qty, Timestamp: ts, Fee: fee}
}

func (e *Engine) processFill(fill SimulatedFill) {
	signedQty := fill.Quantity
	if fill.Side == types.SideSell {
		signedQty = signedQty.Neg()
	}
	e.position.ApplyFill(signedQty, fill.Price, fill.Timestamp)

	e.totalFees = e.totalFees.Add(fill.Fee)

	absPosition := e.position.Quantity.Abs()
	if absPosition.GreaterThan(e.maxPosition) {
		e.maxPosition = absPosition
	}

	e.strategy.OnFill(fill)

	if e.cfg.RecordTrades {
		e.trades = append(e.trades, fill)
	}
}

// sharpeRatio derives mean/stddev of per-tick equity returns, using
// decimalx.Sqrt for the standard deviation the way the original uses its
// own Newton's-method sqrt rather than a float sqrt. Returns false when
// fewer than two equity points are available or variance is zero.
func (e *Engine) sharpeRatio() (decimal.Decimal, bool) {
	if len(e.equityCurve) < 2 {
		return decimal.Zero, false
	}

	returns := make([]decimal.Decimal, 0, len(e.equityCurve)-1)
	for i := 1; i < len(e.equityCurve); i++ {
		prev := e.equityCurve[i-1].Equity
		if prev.IsPositive() {
			returns = append(returns, e.equityCurve[i].Equity.Sub(prev).Div(prev))
		}
	}
	if len(returns) == 0 {
		return decimal.Zero, false
	}

	n := decimal.NewFromInt(int64(len(returns)))
	sum := decimal.Zero
	for _, r := range returns {
		sum = sum.Add(r)
	}
	mean := sum.Div(n)

	varSum := decimal.Zero
	for _, r := range returns {
		d := r.Sub(mean)
		varSum = varSum.Add(d.Mul(d))
	}
	variance := varSum.Div(n)
	if !variance.IsPositive() {
		return decimal.Zero, false
	}

	stdDev := decimalx.Sqrt(variance)
	if !stdDev.IsPositive() {
		return decimal.Zero, false
	}
	return mean.Div(stdDev), true
}

// State returns the engine's current position and accumulated fees,
// useful for inspection mid-run or in tests.
func (e *Engine) State() (types.InventoryPosition, decimal.Decimal) {
	return e.position, e.totalFees
}

// Reset restores the engine and its strategy to a fresh starting state.
func (e *Engine) Reset() {
	e.position = types.InventoryPosition{}
	e.equityCurve = nil
	e.trades = nil
	e.totalFees = decimal.Zero
	e.maxPosition = decimal.Zero
	e.peakEquity = e.cfg.InitialCapital
	e.maxDrawdown = decimal.Zero
	e.source.Reset()
	e.strategy.Reset()
}
