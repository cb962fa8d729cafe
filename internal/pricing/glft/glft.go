// Package glft implements the Avellaneda-Stoikov / Gueant-Lehalle-Fernandez-Tapia
// quoting model: a reservation price that skews away from inventory,
// widened by a terminal-time-aware optimal spread.
package glft

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/decimalx"
	"github.com/mExOms/mm-kernel/pkg/types"
)

var (
	secondsPerMillisecond = decimal.NewFromFloat(0.001)
	secondsPerYear        = decimal.NewFromInt(31_536_000)
	two                   = decimal.NewFromInt(2)
)

// PenaltyFunction shapes how the terminal inventory penalty grows as the
// session approaches its terminal time.
type PenaltyFunction int

const (
	PenaltyLinear PenaltyFunction = iota
	PenaltyExponential
	PenaltyQuadratic
)

// Config holds the tunable parameters of one symbol's GLFT quoting.
type Config struct {
	RiskAversion       decimal.Decimal // gamma
	OrderIntensity     decimal.Decimal // k
	TerminalPenalty    decimal.Decimal // phi
	TerminalTimeMs     uint64
	MinSpread          decimal.Decimal
	DynamicGamma       bool
	GammaScalingFactor decimal.Decimal // alpha
	PenaltyFunction    PenaltyFunction
}

// NewConfig validates and builds a Config with dynamic gamma disabled and
// a linear penalty function; chain With* to change either.
func NewConfig(riskAversion, orderIntensity, terminalPenalty decimal.Decimal, terminalTimeMs uint64, minSpread decimal.Decimal) (Config, error) {
	if riskAversion.LessThanOrEqual(decimal.Zero) {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "glft.NewConfig", "risk_aversion must be positive")
	}
	if orderIntensity.LessThanOrEqual(decimal.Zero) {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "glft.NewConfig", "order_intensity must be positive")
	}
	if terminalPenalty.IsNegative() {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "glft.NewConfig", "terminal_penalty must be non-negative")
	}
	if terminalTimeMs == 0 {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "glft.NewConfig", "terminal_time must be positive")
	}
	if minSpread.IsNegative() {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "glft.NewConfig", "min_spread must be non-negative")
	}
	return Config{
		RiskAversion:       riskAversion,
		OrderIntensity:     orderIntensity,
		TerminalPenalty:    terminalPenalty,
		TerminalTimeMs:     terminalTimeMs,
		MinSpread:          minSpread,
		GammaScalingFactor: decimal.NewFromInt(1),
		PenaltyFunction:    PenaltyLinear,
	}, nil
}

// WithDynamicGamma enables time-scaled risk aversion: gamma_t = gamma_0 *
// (1 + alpha * (1 - tau/T)).
func (c Config) WithDynamicGamma(alpha decimal.Decimal) Config {
	c.DynamicGamma = true
	c.GammaScalingFactor = alpha
	return c
}

// WithPenaltyFunction selects the terminal penalty shape.
func (c Config) WithPenaltyFunction(p PenaltyFunction) Config {
	c.PenaltyFunction = p
	return c
}

func msToYears(ms uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(ms)).Mul(secondsPerMillisecond).Div(secondsPerYear)
}

func timeToTerminalMs(cfg Config, currentTimeMs uint64) uint64 {
	if currentTimeMs >= cfg.TerminalTimeMs {
		return 0
	}
	return cfg.TerminalTimeMs - currentTimeMs
}

// DynamicGamma returns the effective risk aversion at the given remaining
// time, or the base risk aversion unchanged if dynamic scaling is off.
func DynamicGamma(baseGamma decimal.Decimal, timeToTerminalMs, totalSessionMs uint64, enabled bool, alpha decimal.Decimal) decimal.Decimal {
	if !enabled || totalSessionMs == 0 {
		return baseGamma
	}
	timeRatio := decimal.NewFromInt(int64(timeToTerminalMs)).Div(decimal.NewFromInt(int64(totalSessionMs)))
	timeFactor := decimal.NewFromInt(1).Sub(timeRatio)
	return baseGamma.Mul(decimal.NewFromInt(1).Add(alpha.Mul(timeFactor)))
}

func penaltyValue(timeToTerminalMs, totalSessionMs uint64, kind PenaltyFunction) decimal.Decimal {
	if totalSessionMs == 0 {
		return decimal.NewFromInt(1)
	}
	timeRatio := decimal.NewFromInt(int64(timeToTerminalMs)).Div(decimal.NewFromInt(int64(totalSessionMs)))

	switch kind {
	case PenaltyExponential:
		// exp(-x) ~= 1 - x + x^2/2 for the small ratios seen near terminal.
		negRatio := timeRatio.Neg()
		return decimal.NewFromInt(1).Add(negRatio).Add(negRatio.Mul(negRatio).Div(two))
	case PenaltyQuadratic:
		factor := decimal.NewFromInt(1).Sub(timeRatio)
		return factor.Mul(factor)
	default: // PenaltyLinear
		return decimal.NewFromInt(1).Sub(timeRatio)
	}
}

// ReservationPrice computes r = s - q*gamma_t*sigma^2*tau - q*phi*f(tau).
func ReservationPrice(mid, inventory decimal.Decimal, cfg Config, volatility decimal.Decimal, currentTimeMs uint64) (decimal.Decimal, error) {
	if mid.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errs.Newf(errs.ErrInvalidMarketState, "glft.ReservationPrice", "mid_price must be positive")
	}
	if volatility.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errs.Newf(errs.ErrInvalidMarketState, "glft.ReservationPrice", "volatility must be positive")
	}

	tauMs := timeToTerminalMs(cfg, currentTimeMs)
	gammaT := DynamicGamma(cfg.RiskAversion, tauMs, cfg.TerminalTimeMs, cfg.DynamicGamma, cfg.GammaScalingFactor)
	tauYears := msToYears(tauMs)

	volSq := decimalx.PowI(volatility, 2)
	asAdjustment := inventory.Mul(gammaT).Mul(volSq).Mul(tauYears)

	penalty := penaltyValue(tauMs, cfg.TerminalTimeMs, cfg.PenaltyFunction)
	terminalAdjustment := inventory.Mul(cfg.TerminalPenalty).Mul(penalty)

	return mid.Sub(asAdjustment).Sub(terminalAdjustment), nil
}

// OptimalSpread computes delta = max(min_spread, gamma_t*sigma^2*tau +
// (2/gamma_t)*ln(1 + gamma_t/k)).
func OptimalSpread(cfg Config, volatility decimal.Decimal, currentTimeMs uint64) (decimal.Decimal, error) {
	if volatility.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errs.Newf(errs.ErrInvalidMarketState, "glft.OptimalSpread", "volatility must be positive")
	}

	tauMs := timeToTerminalMs(cfg, currentTimeMs)
	gammaT := DynamicGamma(cfg.RiskAversion, tauMs, cfg.TerminalTimeMs, cfg.DynamicGamma, cfg.GammaScalingFactor)
	tauYears := msToYears(tauMs)

	volSq := decimalx.PowI(volatility, 2)
	inventoryRisk := gammaT.Mul(volSq).Mul(tauYears)

	adverseSelectionInner := decimal.NewFromInt(1).Add(gammaT.Div(cfg.OrderIntensity))
	adverseSelection := two.Div(gammaT).Mul(decimalx.Ln(adverseSelectionInner))

	spread := inventoryRisk.Add(adverseSelection)
	if spread.LessThan(cfg.MinSpread) {
		return cfg.MinSpread, nil
	}
	return spread, nil
}

// Quote computes the two-sided quote bid = r - delta/2, ask = r + delta/2,
// pairing the derived prices with caller-supplied sizes and timestamp.
func Quote(mid, inventory decimal.Decimal, cfg Config, volatility decimal.Decimal, currentTimeMs uint64, bidSize, askSize decimal.Decimal, ts time.Time) (types.Quote, error) {
	reservation, err := ReservationPrice(mid, inventory, cfg, volatility, currentTimeMs)
	if err != nil {
		return types.Quote{}, err
	}
	spread, err := OptimalSpread(cfg, volatility, currentTimeMs)
	if err != nil {
		return types.Quote{}, err
	}

	half := spread.Div(two)
	bid := reservation.Sub(half)
	ask := reservation.Add(half)

	if bid.GreaterThanOrEqual(ask) {
		return types.Quote{}, errs.Newf(errs.ErrInvalidQuote, "glft.Quote", "bid must be less than ask")
	}
	if !bid.IsPositive() {
		return types.Quote{}, errs.Newf(errs.ErrInvalidQuote, "glft.Quote", "bid must be positive")
	}

	return types.Quote{
		BidPrice:  bid,
		BidSize:   bidSize,
		AskPrice:  ask,
		AskSize:   askSize,
		Timestamp: ts,
	}, nil
}
