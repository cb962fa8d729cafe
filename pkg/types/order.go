package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes how an order rests on the book.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// StatusKind is the tag of the OrderStatus sum type.
type StatusKind string

const (
	StatusPending         StatusKind = "PENDING"
	StatusOpen            StatusKind = "OPEN"
	StatusPartiallyFilled StatusKind = "PARTIALLY_FILLED"
	StatusFilled          StatusKind = "FILLED"
	StatusCancelled       StatusKind = "CANCELLED"
	StatusRejected        StatusKind = "REJECTED"
)

// OrderStatus renders a sum type as Go knows how to: a Kind tag plus the
// fields relevant to that kind, carried alongside rather than nested in
// a tagged union Go doesn't have.
type OrderStatus struct {
	Kind      StatusKind
	Filled    decimal.Decimal // Open, PartiallyFilled, Cancelled
	Remaining decimal.Decimal // PartiallyFilled
	AvgPrice  decimal.Decimal // Filled
	Reason    string          // Rejected
}

// IsOpen reports whether the order can still receive fills or be cancelled.
func (s OrderStatus) IsOpen() bool {
	return s.Kind == StatusOpen || s.Kind == StatusPartiallyFilled
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	switch s.Kind {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Fill is a single execution against a resting order.
type Fill struct {
	ExchangeOrderID string
	TradeID         string
	Price           decimal.Decimal
	Quantity        decimal.Decimal
	Side            Side
	Timestamp       time.Time
	Fee             decimal.Decimal
	FeeCurrency     string
}

// ManagedOrder is a working order as tracked by the order manager.
// Invariant: OriginalQty == FilledQty + RemainingQty at all times.
type ManagedOrder struct {
	ExchangeOrderID string
	ClientOrderID   string
	Symbol          string
	Side            Side
	Type            OrderType
	OriginalPrice   decimal.Decimal
	OriginalQty     decimal.Decimal
	FilledQty       decimal.Decimal
	RemainingQty    decimal.Decimal
	VWAP            decimal.Decimal
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Fills           []Fill
}

// ApplyFill recomputes VWAP exactly as
// (oldVWAP*oldFilled + fillPrice*fillQty) / newFilled and updates the
// remaining quantity and status. It is the caller's responsibility
// (internal/execution.Manager) to ensure the order is known and open.
func (o *ManagedOrder) ApplyFill(f Fill, now time.Time) {
	oldFilled := o.FilledQty
	newFilled := oldFilled.Add(f.Quantity)

	if newFilled.IsPositive() {
		o.VWAP = o.VWAP.Mul(oldFilled).Add(f.Price.Mul(f.Quantity)).Div(newFilled)
	}

	o.FilledQty = newFilled
	o.RemainingQty = o.OriginalQty.Sub(o.FilledQty)
	o.Fills = append(o.Fills, f)
	o.UpdatedAt = now

	if !o.RemainingQty.IsPositive() {
		o.RemainingQty = decimal.Zero
		o.Status = OrderStatus{Kind: StatusFilled, Filled: o.FilledQty, AvgPrice: o.VWAP}
	} else {
		o.Status = OrderStatus{Kind: StatusPartiallyFilled, Filled: o.FilledQty, Remaining: o.RemainingQty}
	}
}
