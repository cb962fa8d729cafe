// Package types holds the domain vocabulary shared by every kernel
// package: fixed-point quotes, market ticks, inventory, orders and fills.
// Nothing here performs I/O; it is pure data plus the small amount of
// validation that belongs to the type itself.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is a resting order's direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Quote is a two-sided market-maker quote. If both sides are present,
// BidPrice must be strictly less than AskPrice; sizes are never negative.
type Quote struct {
	BidPrice  decimal.Decimal
	BidSize   decimal.Decimal
	AskPrice  decimal.Decimal
	AskSize   decimal.Decimal
	Timestamp time.Time
}

// HasBid reports whether the quote carries a live bid.
func (q Quote) HasBid() bool { return q.BidSize.IsPositive() }

// HasAsk reports whether the quote carries a live ask.
func (q Quote) HasAsk() bool { return q.AskSize.IsPositive() }

// Validate checks that a quote is internally consistent: when both sides
// are live, bid must be strictly less than ask, and neither size is
// negative.
func (q Quote) Validate() error {
	if q.BidSize.IsNegative() || q.AskSize.IsNegative() {
		return newInvalidQuote("negative quote size")
	}
	if q.HasBid() && q.HasAsk() && !q.BidPrice.LessThan(q.AskPrice) {
		return newInvalidQuote("bid must be less than ask")
	}
	return nil
}

// Mid returns the midpoint of a fully two-sided quote.
func (q Quote) Mid() decimal.Decimal {
	return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2))
}

// Spread returns AskPrice - BidPrice for a two-sided quote.
func (q Quote) Spread() decimal.Decimal {
	return q.AskPrice.Sub(q.BidPrice)
}

// MarketTick is one observation of the top of book.
type MarketTick struct {
	Timestamp time.Time
	BidPrice  decimal.Decimal
	BidSize   decimal.Decimal
	AskPrice  decimal.Decimal
	AskSize   decimal.Decimal
}

// Mid returns the derived midpoint price.
func (t MarketTick) Mid() decimal.Decimal {
	return t.BidPrice.Add(t.AskPrice).Div(decimal.NewFromInt(2))
}
