// Package depth implements a depth-based offering strategy: order sizes
// scale with inventory so that the side reducing risk is always larger,
// and price placement nudges one tick inside the book once cumulative
// depth at a level reaches a target.
package depth

import (
	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
)

// Offering holds a symbol's max exposure and target depth.
type Offering struct {
	MaxExposure decimal.Decimal
	TargetDepth decimal.Decimal
	TickSize    decimal.Decimal
}

// New validates and builds an Offering.
func New(maxExposure, targetDepth, tickSize decimal.Decimal) (Offering, error) {
	if maxExposure.LessThanOrEqual(decimal.Zero) {
		return Offering{}, errs.Newf(errs.ErrInvalidConfiguration, "depth.New", "max_exposure must be positive")
	}
	if targetDepth.LessThanOrEqual(decimal.Zero) {
		return Offering{}, errs.Newf(errs.ErrInvalidConfiguration, "depth.New", "target_depth must be positive")
	}
	if tickSize.LessThanOrEqual(decimal.Zero) {
		return Offering{}, errs.Newf(errs.ErrInvalidConfiguration, "depth.New", "tick_size must be positive")
	}
	return Offering{MaxExposure: maxExposure, TargetDepth: targetDepth, TickSize: tickSize}, nil
}

// AskSize is max_exposure + inventory: a long position gets a larger ask
// to incentivize selling down.
func (o Offering) AskSize(inventory decimal.Decimal) decimal.Decimal {
	return o.MaxExposure.Add(inventory)
}

// BidSize is max_exposure - inventory: a short position gets a larger
// bid to incentivize covering. AskSize + BidSize == 2*max_exposure for
// all inventory within [-max_exposure, max_exposure].
func (o Offering) BidSize(inventory decimal.Decimal) decimal.Decimal {
	return o.MaxExposure.Sub(inventory)
}

// PriceAdjustment returns the tick offset to apply at a level once
// cumulative depth reaches the target: -tick for an ask (place one tick
// inside, i.e. lower), +tick for a bid (place one tick inside, i.e.
// higher). Below target depth, no adjustment is made.
func (o Offering) PriceAdjustment(cumulativeDepth decimal.Decimal, isAsk bool) decimal.Decimal {
	if cumulativeDepth.LessThan(o.TargetDepth) {
		return decimal.Zero
	}
	if isAsk {
		return o.TickSize.Neg()
	}
	return o.TickSize
}
