package allocator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExOms/mm-kernel/internal/risk"
	"github.com/mExOms/mm-kernel/pkg/types"
)

func echoPricer(q types.Quote) PricerFunc {
	return func(types.MarketTick, types.InventoryPosition, risk.Limits) (types.Quote, error) {
		return q, nil
	}
}

func TestAddUnderlyingRejectsDuplicatesAndOverCap(t *testing.T) {
	m := NewManager(decimal.NewFromInt(100_000)).WithMaxUnderlyings(1)
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("BTCUSDT", decimal.NewFromFloat(0.5)), nil))

	assert.Error(t, m.AddUnderlying(NewUnderlyingConfig("BTCUSDT", decimal.NewFromFloat(0.5)), nil))
	assert.Error(t, m.AddUnderlying(NewUnderlyingConfig("ETHUSDT", decimal.NewFromFloat(0.5)), nil))
	assert.Equal(t, 1, m.UnderlyingCount())
}

func TestTickRejectsHaltedOrUnknown(t *testing.T) {
	m := NewManager(decimal.NewFromInt(100_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("BTCUSDT", decimal.NewFromFloat(1)), echoPricer(types.Quote{})))

	_, err := m.Tick("ETHUSDT", types.MarketTick{})
	assert.Error(t, err)

	require.NoError(t, m.SetStatus("BTCUSDT", StatusHalted))
	_, err = m.Tick("BTCUSDT", types.MarketTick{})
	assert.Error(t, err)
}

func TestTickCapsNotionalToAllocatedCapital(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	var seenLimits risk.Limits
	pricer := func(_ types.MarketTick, _ types.InventoryPosition, limits risk.Limits) (types.Quote, error) {
		seenLimits = limits
		return types.Quote{}, nil
	}
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("BTCUSDT", decimal.NewFromInt(1)), pricer))
	require.NoError(t, m.SetLimits("BTCUSDT", risk.Limits{MaxNotional: decimal.NewFromInt(10_000)}))
	m.Reallocate()

	_, err := m.Tick("BTCUSDT", types.MarketTick{BidPrice: decimal.NewFromInt(99), AskPrice: decimal.NewFromInt(101)})
	require.NoError(t, err)
	assert.True(t, seenLimits.MaxNotional.Equal(decimal.NewFromInt(1_000)), "got %s", seenLimits.MaxNotional)
}

func TestReallocateEqualSplitsCapitalEvenly(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero), nil))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("B", decimal.Zero), nil))

	m.Reallocate()

	a, _ := m.GetState("A")
	b, _ := m.GetState("B")
	assert.True(t, a.AllocatedCapital.Equal(decimal.NewFromInt(500)))
	assert.True(t, b.AllocatedCapital.Equal(decimal.NewFromInt(500)))
}

func TestReallocateProportionalToVolatilityWeightsByVega(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000)).WithAllocationStrategy(AllocProportionalToVolatility)
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero), nil))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("B", decimal.Zero), nil))
	require.NoError(t, m.UpdateGreeks("A", decimal.Zero, decimal.Zero, decimal.NewFromInt(3)))
	require.NoError(t, m.UpdateGreeks("B", decimal.Zero, decimal.Zero, decimal.NewFromInt(1)))

	m.Reallocate()

	a, _ := m.GetState("A")
	b, _ := m.GetState("B")
	assert.True(t, a.AllocatedCapital.GreaterThan(b.AllocatedCapital))
}

func TestReallocateClampsToMaxAllocationAndRedistributes(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero).WithAllocationClamp(decimal.Zero, decimal.NewFromInt(300)), nil))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("B", decimal.Zero), nil))

	m.Reallocate()

	a, _ := m.GetState("A")
	b, _ := m.GetState("B")
	assert.True(t, a.AllocatedCapital.Equal(decimal.NewFromInt(300)))
	assert.True(t, b.AllocatedCapital.Equal(decimal.NewFromInt(700)), "got %s", b.AllocatedCapital)
}

func TestHaltedUnderlyingGetsZeroAllocation(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero), nil))
	require.NoError(t, m.SetStatus("A", StatusHalted))

	m.Reallocate()

	a, _ := m.GetState("A")
	assert.True(t, a.AllocatedCapital.IsZero())
}

func TestGetUnifiedRiskAggregatesAcrossUnderlyings(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero), nil))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("B", decimal.Zero), nil))
	require.NoError(t, m.UpdatePnL("A", decimal.NewFromInt(10), decimal.NewFromInt(5)))
	require.NoError(t, m.UpdatePnL("B", decimal.NewFromInt(-2), decimal.NewFromInt(1)))

	got := m.GetUnifiedRisk()
	assert.True(t, got.TotalUnrealizedPnL.Equal(decimal.NewFromInt(8)))
	assert.True(t, got.TotalRealizedPnL.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 2, got.ActiveUnderlyings)
	assert.Equal(t, 0, got.HaltedUnderlyings)
}

func TestGetCrossAssetHedgesRequiresCorrelationAndExposure(t *testing.T) {
	m := NewManager(decimal.NewFromInt(1_000))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("A", decimal.Zero), nil))
	require.NoError(t, m.AddUnderlying(NewUnderlyingConfig("B", decimal.Zero), nil))
	require.NoError(t, m.UpdatePrice("A", decimal.NewFromInt(100)))
	require.NoError(t, m.UpdatePrice("B", decimal.NewFromInt(100)))
	require.NoError(t, m.UpdateGreeks("A", decimal.NewFromInt(10), decimal.Zero, decimal.Zero))
	require.NoError(t, m.UpdateGreeks("B", decimal.NewFromInt(5), decimal.Zero, decimal.Zero))

	assert.Empty(t, m.GetCrossAssetHedges(), "no correlation set yet")

	m.SetCorrelation("A", "B", decimal.NewFromFloat(0.8))
	hedges := m.GetCrossAssetHedges()
	require.NotEmpty(t, hedges)
	assert.Equal(t, "A", hedges[0].SourceUnderlying)
	assert.Equal(t, "B", hedges[0].HedgeUnderlying)
}

func TestGetSetCorrelationIsOrderIndependent(t *testing.T) {
	m := NewManager(decimal.Zero)
	m.SetCorrelation("A", "B", decimal.NewFromFloat(0.5))

	rho, ok := m.GetCorrelation("B", "A")
	require.True(t, ok)
	assert.True(t, rho.Equal(decimal.NewFromFloat(0.5)))
}
