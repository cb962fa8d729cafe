package depth

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkedExample(t *testing.T) {
	o, err := New(decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromFloat(0.01))
	require.NoError(t, err)

	inventory := decimal.NewFromInt(30)
	assert.True(t, o.AskSize(inventory).Equal(decimal.NewFromInt(130)))
	assert.True(t, o.BidSize(inventory).Equal(decimal.NewFromInt(70)))

	adj := o.PriceAdjustment(decimal.NewFromInt(50), true)
	assert.True(t, adj.Equal(decimal.NewFromFloat(-0.01)))
}

func TestPriceAdjustmentBelowTarget(t *testing.T) {
	o, err := New(decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromFloat(0.01))
	require.NoError(t, err)

	assert.True(t, o.PriceAdjustment(decimal.NewFromInt(49), true).IsZero())
	assert.True(t, o.PriceAdjustment(decimal.NewFromInt(49), false).IsZero())
}

func TestPriceAdjustmentAtTargetBidMovesUp(t *testing.T) {
	o, err := New(decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromFloat(0.01))
	require.NoError(t, err)

	adj := o.PriceAdjustment(decimal.NewFromInt(60), false)
	assert.True(t, adj.Equal(decimal.NewFromFloat(0.01)))
}

func TestSizesSumToTwiceExposure(t *testing.T) {
	o, err := New(decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromFloat(0.01))
	require.NoError(t, err)

	for _, q := range []int64{-100, -50, 0, 30, 100} {
		inv := decimal.NewFromInt(q)
		sum := o.AskSize(inv).Add(o.BidSize(inv))
		assert.True(t, sum.Equal(decimal.NewFromInt(200)), "q=%d: ask+bid=%s", q, sum)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(decimal.Zero, decimal.NewFromInt(50), decimal.NewFromFloat(0.01))
	assert.Error(t, err)

	_, err = New(decimal.NewFromInt(100), decimal.Zero, decimal.NewFromFloat(0.01))
	assert.Error(t, err)

	_, err = New(decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.Zero)
	assert.Error(t, err)
}
