// Package options layers a Greeks-aware quote skew and delta-hedge sizer
// on top of an externally supplied theoretical value and Greeks snapshot.
// It never prices an option itself: theo and Greeks are delegated to a
// pluggable provider, and the package's job is turning that snapshot
// plus the book's portfolio Greeks into a two-sided quote and,
// separately, a hedge order sizing decision.
package options

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/types"
)

var (
	half          = decimal.NewFromFloat(0.5)
	skewFloor     = decimal.NewFromFloat(0.5)
	utilThreshold = decimal.NewFromFloat(0.5)
	priceFloor    = decimal.NewFromFloat(0.01)
)

// Config sizes the components of the spread and the Greek caps skew
// adjustment measures utilization against.
type Config struct {
	MinSpread          decimal.Decimal
	MaxSpread          decimal.Decimal
	GammaCoefficient   decimal.Decimal
	VegaCoefficient    decimal.Decimal
	ThetaCoefficient   decimal.Decimal
	SkewCoefficient    decimal.Decimal // put/call skew weight
	MaxPortfolioDelta  decimal.Decimal
	MaxPortfolioGamma  decimal.Decimal
	ContractMultiplier decimal.Decimal
}

func (c Config) validate() error {
	if c.MinSpread.IsNegative() {
		return errs.Newf(errs.ErrInvalidConfiguration, "options.Config", "min_spread must be non-negative")
	}
	if c.MaxSpread.LessThan(c.MinSpread) {
		return errs.Newf(errs.ErrInvalidConfiguration, "options.Config", "max_spread must be >= min_spread")
	}
	if c.ContractMultiplier.IsZero() || c.ContractMultiplier.IsNegative() {
		return errs.Newf(errs.ErrInvalidConfiguration, "options.Config", "contract_multiplier must be positive")
	}
	return nil
}

// NewConfig validates and returns a Config for the given spread bounds,
// Greek-term coefficients, and contract multiplier.
func NewConfig(minSpread, maxSpread, gammaCoef, vegaCoef, thetaCoef, skewCoef, maxPortfolioDelta, maxPortfolioGamma, contractMultiplier decimal.Decimal) (Config, error) {
	c := Config{
		MinSpread:          minSpread,
		MaxSpread:          maxSpread,
		GammaCoefficient:   gammaCoef,
		VegaCoefficient:    vegaCoef,
		ThetaCoefficient:   thetaCoef,
		SkewCoefficient:    skewCoef,
		MaxPortfolioDelta:  maxPortfolioDelta,
		MaxPortfolioGamma:  maxPortfolioGamma,
		ContractMultiplier: contractMultiplier,
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if x.GreaterThan(hi) {
		return hi
	}
	return x
}

// baseSpread sums the gamma, vega, and theta adjustment terms plus a
// put/call skew term, clamped to [MinSpread, MaxSpread].
func baseSpread(cfg Config, greeks types.OptionGreeks, right types.OptionRight) decimal.Decimal {
	gammaAdj := greeks.Gamma.Abs().Mul(cfg.GammaCoefficient)
	vegaAdj := greeks.Vega.Abs().Mul(cfg.VegaCoefficient)
	thetaAdj := greeks.Theta.Abs().Mul(cfg.ThetaCoefficient)

	skew := decimal.Zero
	if right == types.OptionPut {
		skew = cfg.SkewCoefficient
	}

	s := cfg.MinSpread.Add(gammaAdj).Add(vegaAdj).Add(thetaAdj).Add(skew)
	return clamp(s, cfg.MinSpread, cfg.MaxSpread)
}

// skewMultipliers returns the (bid, ask) multipliers the quote's
// half-spread is scaled by. Delta utilization beyond 0.5 widens the side
// that would add to the existing exposure and tightens the opposite
// side, floored at 0.5 so neither side collapses to zero width; gamma
// utilization beyond 0.5 widens both sides.
func skewMultipliers(cfg Config, portfolioDelta, portfolioGamma decimal.Decimal) (bidMult, askMult decimal.Decimal) {
	bidMult, askMult = decimal.NewFromInt(1), decimal.NewFromInt(1)

	if cfg.MaxPortfolioDelta.IsPositive() {
		deltaUtil := portfolioDelta.Abs().Div(cfg.MaxPortfolioDelta)
		if deltaUtil.GreaterThan(utilThreshold) {
			// Long delta: a further bid fill adds exposure, widen bid,
			// tighten ask to encourage selling it off.
			if portfolioDelta.IsPositive() {
				bidMult = bidMult.Add(deltaUtil)
				askMult = clamp(askMult.Sub(deltaUtil), skewFloor, askMult)
			} else {
				askMult = askMult.Add(deltaUtil)
				bidMult = clamp(bidMult.Sub(deltaUtil), skewFloor, bidMult)
			}
		}
	}

	if cfg.MaxPortfolioGamma.IsPositive() {
		gammaUtil := portfolioGamma.Abs().Div(cfg.MaxPortfolioGamma)
		if gammaUtil.GreaterThan(utilThreshold) {
			// Gamma risk is symmetric: widen both sides together.
			bidMult = bidMult.Add(gammaUtil)
			askMult = askMult.Add(gammaUtil)
		}
	}

	return bidMult, askMult
}

// Quote builds a Greeks-adjusted two-sided quote from a theo value and
// Greeks snapshot, skewed by the book's current portfolio delta and
// gamma against their caps. The result is floored at priceFloor and
// guaranteed bid < ask.
func Quote(cfg Config, theo decimal.Decimal, greeks types.OptionGreeks, right types.OptionRight, portfolioDelta, portfolioGamma decimal.Decimal, ts time.Time) (types.Quote, error) {
	if theo.IsNegative() || theo.IsZero() {
		return types.Quote{}, errs.Newf(errs.ErrInvalidMarketState, "options.Quote", "theo must be positive, got %s", theo)
	}

	spread := baseSpread(cfg, greeks, right)
	bidMult, askMult := skewMultipliers(cfg, portfolioDelta, portfolioGamma)

	halfSpread := spread.Mul(theo).Mul(half)
	bid := theo.Sub(halfSpread.Mul(bidMult))
	ask := theo.Add(halfSpread.Mul(askMult))

	if bid.LessThan(priceFloor) {
		bid = priceFloor
	}
	if !bid.LessThan(ask) {
		ask = bid.Add(priceFloor)
	}

	q := types.Quote{BidPrice: bid, AskPrice: ask, Timestamp: ts}
	if err := q.Validate(); err != nil {
		return types.Quote{}, errs.InvalidQuote("options.Quote", err)
	}
	return q, nil
}

// HedgeOrder is the single underlying-side order needed to flatten
// portfolioDelta, or the zero value with Skip=true when the required
// size rounds under one share/contract.
type HedgeOrder struct {
	Side  types.Side
	Size  decimal.Decimal
	Price decimal.Decimal
	Skip  bool
}

// DeltaHedge computes shares = -portfolioDelta/contractMultiplier and
// returns the underlying-side order that would flatten it at
// underlyingPrice. No order is emitted when the required size rounds
// under one full share.
func DeltaHedge(cfg Config, portfolioDelta, underlyingPrice decimal.Decimal) HedgeOrder {
	shares := portfolioDelta.Neg().Div(cfg.ContractMultiplier)
	if shares.Abs().LessThan(decimal.NewFromInt(1)) {
		return HedgeOrder{Skip: true}
	}
	side := types.SideBuy
	if shares.IsNegative() {
		side = types.SideSell
	}
	return HedgeOrder{Side: side, Size: shares.Abs(), Price: underlyingPrice}
}
