package glft

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yearMs = 31_536_000_000

func baseConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(
		decimal.NewFromFloat(0.1),
		decimal.NewFromFloat(1.5),
		decimal.Zero,
		yearMs,
		decimal.Zero,
	)
	require.NoError(t, err)
	return cfg
}

func TestReservationPriceZeroInventoryEqualsMid(t *testing.T) {
	cfg := baseConfig(t)
	mid := decimal.NewFromInt(100)
	r, err := ReservationPrice(mid, decimal.Zero, cfg, decimal.NewFromFloat(0.2), 0)
	require.NoError(t, err)
	assert.True(t, r.Sub(mid).Abs().LessThan(decimal.NewFromFloat(0.0000001)))
}

func TestReservationPriceSkewsWithInventory(t *testing.T) {
	cfg := baseConfig(t)
	mid := decimal.NewFromInt(100)
	vol := decimal.NewFromFloat(0.2)

	rLong, err := ReservationPrice(mid, decimal.NewFromInt(10), cfg, vol, 0)
	require.NoError(t, err)
	assert.True(t, rLong.LessThan(mid), "positive inventory should skew reservation below mid")

	rShort, err := ReservationPrice(mid, decimal.NewFromInt(-10), cfg, vol, 0)
	require.NoError(t, err)
	assert.True(t, rShort.GreaterThan(mid), "negative inventory should skew reservation above mid")
}

func TestOptimalSpreadWorkedExample(t *testing.T) {
	cfg := baseConfig(t)
	spread, err := OptimalSpread(cfg, decimal.NewFromFloat(0.2), 0)
	require.NoError(t, err)

	want := decimal.NewFromFloat(1.2947704227514234)
	assert.True(t, spread.Sub(want).Abs().LessThan(decimal.NewFromFloat(0.0001)),
		"got %s want ~%s", spread, want)
}

func TestQuoteWorkedExample(t *testing.T) {
	cfg := baseConfig(t)
	q, err := Quote(decimal.NewFromInt(100), decimal.Zero, cfg, decimal.NewFromFloat(0.2), 0,
		decimal.NewFromInt(1), decimal.NewFromInt(1), time.Unix(0, 0))
	require.NoError(t, err)

	wantBid := decimal.NewFromFloat(99.3526147886243)
	wantAsk := decimal.NewFromFloat(100.6473852113757)
	assert.True(t, q.BidPrice.Sub(wantBid).Abs().LessThan(decimal.NewFromFloat(0.0001)), "bid %s", q.BidPrice)
	assert.True(t, q.AskPrice.Sub(wantAsk).Abs().LessThan(decimal.NewFromFloat(0.0001)), "ask %s", q.AskPrice)
	assert.True(t, q.BidPrice.LessThan(q.AskPrice))
}

func TestTerminalPenaltyLowersReservationForLongInventory(t *testing.T) {
	withPenalty, err := NewConfig(decimal.NewFromFloat(0.1), decimal.NewFromFloat(1.5),
		decimal.NewFromFloat(0.1), 3_600_000, decimal.Zero)
	require.NoError(t, err)
	noPenalty, err := NewConfig(decimal.NewFromFloat(0.1), decimal.NewFromFloat(1.5),
		decimal.Zero, 3_600_000, decimal.Zero)
	require.NoError(t, err)

	mid := decimal.NewFromInt(100)
	inventory := decimal.NewFromInt(10)
	vol := decimal.NewFromFloat(0.2)
	currentTimeMs := uint64(1_800_000)

	rWith, err := ReservationPrice(mid, inventory, withPenalty, vol, currentTimeMs)
	require.NoError(t, err)
	rWithout, err := ReservationPrice(mid, inventory, noPenalty, vol, currentTimeMs)
	require.NoError(t, err)

	assert.True(t, rWith.LessThan(rWithout), "terminal penalty should push reservation further below mid for long inventory")
}

func TestNewConfigRejectsInvalidInputs(t *testing.T) {
	_, err := NewConfig(decimal.Zero, decimal.NewFromFloat(1.5), decimal.Zero, yearMs, decimal.Zero)
	assert.Error(t, err)

	_, err = NewConfig(decimal.NewFromFloat(0.1), decimal.Zero, decimal.Zero, yearMs, decimal.Zero)
	assert.Error(t, err)

	_, err = NewConfig(decimal.NewFromFloat(0.1), decimal.NewFromFloat(1.5), decimal.NewFromFloat(-1), yearMs, decimal.Zero)
	assert.Error(t, err)

	_, err = NewConfig(decimal.NewFromFloat(0.1), decimal.NewFromFloat(1.5), decimal.Zero, 0, decimal.Zero)
	assert.Error(t, err)
}

func TestQuoteRejectsNonPositiveInputs(t *testing.T) {
	cfg := baseConfig(t)
	_, err := ReservationPrice(decimal.Zero, decimal.Zero, cfg, decimal.NewFromFloat(0.2), 0)
	assert.Error(t, err)

	_, err = ReservationPrice(decimal.NewFromInt(100), decimal.Zero, cfg, decimal.Zero, 0)
	assert.Error(t, err)
}

func TestDynamicGammaIncreasesNearTerminal(t *testing.T) {
	base := decimal.NewFromFloat(0.1)
	far := DynamicGamma(base, 3_600_000, 3_600_000, true, decimal.NewFromFloat(0.5))
	near := DynamicGamma(base, 100, 3_600_000, true, decimal.NewFromFloat(0.5))
	assert.True(t, near.GreaterThan(far), "gamma should grow as the session approaches its terminal time")
	assert.True(t, far.GreaterThanOrEqual(base))
}
