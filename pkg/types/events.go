package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind tags the variant carried by a MarketMakerEvent.
type EventKind string

const (
	EventQuoteUpdated        EventKind = "QUOTE_UPDATED"
	EventOrderFilled         EventKind = "ORDER_FILLED"
	EventOrderCancelled      EventKind = "ORDER_CANCELLED"
	EventGreeksUpdated       EventKind = "GREEKS_UPDATED"
	EventPositionChanged     EventKind = "POSITION_CHANGED"
	EventPnLUpdated          EventKind = "PNL_UPDATED"
	EventAlertTriggered      EventKind = "ALERT_TRIGGERED"
	EventCircuitBreakerState EventKind = "CIRCUIT_BREAKER_CHANGED"
	EventHeartbeat           EventKind = "HEARTBEAT"
)

// MarketMakerEvent is one broadcaster message. Sequence is assigned by the
// broadcaster at publish time and is monotonically increasing per stream;
// only the fields relevant to Kind are populated.
type MarketMakerEvent struct {
	Sequence  uint64
	Kind      EventKind
	Symbol    string
	Timestamp time.Time

	Quote  Quote
	Order  ManagedOrder
	Fill   Fill
	Greeks OptionGreeks

	Position InventoryPosition

	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal

	AlertSeverity string
	AlertMessage  string

	CircuitBreakerOpen bool
	Reason             string
}
