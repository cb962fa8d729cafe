package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryPosition is a signed position with a running average cost.
// RealizedPnL accumulates as cash-flow, not as netted P&L: every fill
// adds its own cash leg regardless of whether it opens, adds to, or
// closes the position (a sell adds price*qty, a buy subtracts it).
// AverageCost is bookkeeping for the open leg's cost basis only; it does
// not net against RealizedPnL. UnrealizedPnL values the open position at
// the mark with no cost subtracted, so RealizedPnL+UnrealizedPnL always
// telescopes to the position's true mark-to-market P&L.
type InventoryPosition struct {
	Symbol      string
	Quantity    decimal.Decimal // signed: positive long, negative short
	AverageCost decimal.Decimal
	RealizedPnL decimal.Decimal
	UpdatedAt   time.Time
}

// ApplyFill folds a signed fill (positive qty = buy, negative qty = sell)
// into the position, accumulating cash-flow into RealizedPnL and rolling
// the average cost basis of whatever position remains open.
func (p *InventoryPosition) ApplyFill(signedQty, price decimal.Decimal, ts time.Time) {
	if signedQty.IsZero() {
		return
	}
	p.RealizedPnL = p.RealizedPnL.Sub(price.Mul(signedQty))

	switch {
	case p.Quantity.IsZero(), sameSign(p.Quantity, signedQty):
		// Opening or adding to an existing directional position: roll the
		// average cost forward.
		totalCost := p.AverageCost.Mul(p.Quantity).Add(price.Mul(signedQty))
		p.Quantity = p.Quantity.Add(signedQty)
		if !p.Quantity.IsZero() {
			p.AverageCost = totalCost.Div(p.Quantity).Abs()
		}
	default:
		// Reducing, flat, or flipping the position.
		closing := decimal.Min(signedQty.Abs(), p.Quantity.Abs())
		remaining := signedQty.Abs().Sub(closing)
		p.Quantity = p.Quantity.Add(signedQty)
		if !remaining.IsZero() {
			// Flipped through zero: the remainder opens a fresh position at
			// the fill price.
			p.AverageCost = price
		} else if p.Quantity.IsZero() {
			p.AverageCost = decimal.Zero
		}
	}
	p.UpdatedAt = ts
}

// UnrealizedPnL values the open position at markPrice with no cost basis
// subtracted, matching RealizedPnL's cash-flow convention: selling the
// position at markPrice right now would realize exactly this much more.
func (p InventoryPosition) UnrealizedPnL(markPrice decimal.Decimal) decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.Quantity.Mul(markPrice)
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.Sign() >= 0) == (b.Sign() >= 0)
}
