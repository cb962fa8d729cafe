package options

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExOms/mm-kernel/pkg/types"
)

func baseConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(
		decimal.NewFromFloat(0.02),
		decimal.NewFromFloat(0.5),
		decimal.NewFromFloat(10),
		decimal.NewFromFloat(1),
		decimal.NewFromFloat(0.5),
		decimal.NewFromFloat(0.01),
		decimal.NewFromInt(1000),
		decimal.NewFromInt(100),
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	return cfg
}

func TestNewConfigRejectsInvalidSpreadBounds(t *testing.T) {
	_, err := NewConfig(decimal.NewFromFloat(-0.1), decimal.NewFromFloat(0.5),
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(100))
	assert.Error(t, err)

	_, err = NewConfig(decimal.NewFromFloat(0.5), decimal.NewFromFloat(0.1),
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(100))
	assert.Error(t, err)
}

func TestNewConfigRejectsNonPositiveMultiplier(t *testing.T) {
	_, err := NewConfig(decimal.Zero, decimal.NewFromFloat(0.5),
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	assert.Error(t, err)
}

func TestQuoteRejectsNonPositiveTheo(t *testing.T) {
	cfg := baseConfig(t)
	_, err := Quote(cfg, decimal.Zero, types.OptionGreeks{}, types.OptionCall, decimal.Zero, decimal.Zero, time.Unix(0, 0))
	assert.Error(t, err)
}

func TestQuoteProducesSaneTwoSidedMarket(t *testing.T) {
	cfg := baseConfig(t)
	greeks := types.OptionGreeks{Delta: decimal.NewFromFloat(0.5), Gamma: decimal.NewFromFloat(0.01), Vega: decimal.NewFromFloat(0.1), Theta: decimal.NewFromFloat(0.05)}

	q, err := Quote(cfg, decimal.NewFromInt(10), greeks, types.OptionCall, decimal.Zero, decimal.Zero, time.Unix(0, 0))
	require.NoError(t, err)
	assert.True(t, q.BidPrice.LessThan(q.AskPrice))
	assert.True(t, q.BidPrice.IsPositive())
}

func TestQuotePutCarriesSkewWiderThanCall(t *testing.T) {
	cfg := baseConfig(t)
	greeks := types.OptionGreeks{}

	callQ, err := Quote(cfg, decimal.NewFromInt(10), greeks, types.OptionCall, decimal.Zero, decimal.Zero, time.Unix(0, 0))
	require.NoError(t, err)
	putQ, err := Quote(cfg, decimal.NewFromInt(10), greeks, types.OptionPut, decimal.Zero, decimal.Zero, time.Unix(0, 0))
	require.NoError(t, err)

	callSpread := callQ.AskPrice.Sub(callQ.BidPrice)
	putSpread := putQ.AskPrice.Sub(putQ.BidPrice)
	assert.True(t, putSpread.GreaterThan(callSpread), "put spread %s should exceed call spread %s", putSpread, callSpread)
}

func TestQuoteWidensBidWhenLongDeltaUtilizationHigh(t *testing.T) {
	cfg := baseConfig(t)
	greeks := types.OptionGreeks{}

	flat, err := Quote(cfg, decimal.NewFromInt(10), greeks, types.OptionCall, decimal.Zero, decimal.Zero, time.Unix(0, 0))
	require.NoError(t, err)
	longDelta, err := Quote(cfg, decimal.NewFromInt(10), greeks, types.OptionCall, decimal.NewFromInt(800), decimal.Zero, time.Unix(0, 0))
	require.NoError(t, err)

	flatHalfSpread := flat.AskPrice.Sub(flat.BidPrice)
	longHalfSpread := longDelta.AskPrice.Sub(longDelta.BidPrice)
	assert.True(t, longHalfSpread.GreaterThan(flatHalfSpread))
}

func TestDeltaHedgeSkipsUnderOneShare(t *testing.T) {
	cfg := baseConfig(t)
	h := DeltaHedge(cfg, decimal.NewFromInt(50), decimal.NewFromInt(100))
	assert.True(t, h.Skip)
}

func TestDeltaHedgeSizesAndSidesCorrectly(t *testing.T) {
	cfg := baseConfig(t)

	sell := DeltaHedge(cfg, decimal.NewFromInt(500), decimal.NewFromInt(100))
	assert.False(t, sell.Skip)
	assert.Equal(t, types.SideSell, sell.Side)
	assert.True(t, sell.Size.Equal(decimal.NewFromInt(5)))

	buy := DeltaHedge(cfg, decimal.NewFromInt(-500), decimal.NewFromInt(100))
	assert.False(t, buy.Skip)
	assert.Equal(t, types.SideBuy, buy.Side)
}
