package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionRight is a contract's exercise direction.
type OptionRight string

const (
	OptionCall OptionRight = "CALL"
	OptionPut  OptionRight = "PUT"
)

// OptionContract identifies a single listed option.
type OptionContract struct {
	Underlying string
	Strike     decimal.Decimal
	Expiry     time.Time
	Right      OptionRight
}

// OptionGreeks is the risk sensitivity snapshot a pluggable theo provider
// returns for one contract at one point in time. Values are dimensionless
// per-unit sensitivities; the quoting layer scales them by position size.
type OptionGreeks struct {
	Delta decimal.Decimal
	Gamma decimal.Decimal
	Vega  decimal.Decimal
	Theta decimal.Decimal
	Rho   decimal.Decimal
	IV    decimal.Decimal
}

// VpinSnapshot is a volume-synchronized probability of informed trading
// reading, an early toxic-flow signal distinct from the
// realized-volatility inputs the pricers use. No package of this module
// reads it.
type VpinSnapshot struct {
	Symbol    string
	Value     decimal.Decimal
	Timestamp time.Time
	BucketVol decimal.Decimal
}
