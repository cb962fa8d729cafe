package grid

import (
	"testing"

	"github.com/mExOms/mm-kernel/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(2, decimal.NewFromFloat(0.01), decimal.NewFromInt(1), decimal.NewFromInt(10))
	require.NoError(t, err)
	return cfg
}

func TestGenerateWorkedExample(t *testing.T) {
	s := New(baseConfig(t))
	orders := s.Generate(decimal.NewFromInt(100))

	require.Len(t, orders, 4)
	want := []string{"98", "99", "101", "102"}
	for i, o := range orders {
		assert.True(t, o.Price.Equal(decimal.RequireFromString(want[i])), "level %d: got %s want %s", i, o.Price, want[i])
	}

	for _, o := range orders {
		if o.Side == types.SideBuy {
			assert.True(t, o.Price.LessThan(decimal.NewFromInt(100)))
		} else {
			assert.True(t, o.Price.GreaterThan(decimal.NewFromInt(100)))
		}
	}
}

func TestGenerateSortedAscending(t *testing.T) {
	s := New(baseConfig(t))
	orders := s.Generate(decimal.NewFromInt(100))
	for i := 1; i < len(orders); i++ {
		assert.True(t, orders[i].Price.GreaterThanOrEqual(orders[i-1].Price))
	}
}

func TestGenerateWithInventoryHalvesRiskIncreasingSide(t *testing.T) {
	s := New(baseConfig(t))
	orders := s.GenerateWithInventory(decimal.NewFromInt(100), decimal.NewFromInt(5))

	require.Len(t, orders, 4)
	for _, o := range orders {
		if o.Side == types.SideBuy {
			assert.True(t, o.Size.Equal(decimal.NewFromFloat(0.5)), "buy size should be halved, got %s", o.Size)
		} else {
			assert.True(t, o.Size.Equal(decimal.NewFromInt(1)), "sell size should be unchanged, got %s", o.Size)
		}
	}
}

func TestGenerateWithInventoryDropsRiskIncreasingSideAtMax(t *testing.T) {
	s := New(baseConfig(t))
	orders := s.GenerateWithInventory(decimal.NewFromInt(100), decimal.NewFromInt(10))

	for _, o := range orders {
		assert.NotEqual(t, types.SideBuy, o.Side, "no buy orders should remain once inventory reaches max_position")
	}
}

func TestTotalOrdersAndPriceRange(t *testing.T) {
	s := New(baseConfig(t))
	assert.Equal(t, 4, s.TotalOrders())

	low, high := s.PriceRange(decimal.NewFromInt(100))
	assert.True(t, low.Equal(decimal.NewFromInt(98)))
	assert.True(t, high.Equal(decimal.NewFromInt(102)))
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(0, decimal.NewFromFloat(0.01), decimal.NewFromInt(1), decimal.NewFromInt(10))
	assert.Error(t, err)

	_, err = NewConfig(2, decimal.Zero, decimal.NewFromInt(1), decimal.NewFromInt(10))
	assert.Error(t, err)

	_, err = NewConfig(2, decimal.NewFromFloat(0.01), decimal.Zero, decimal.NewFromInt(10))
	assert.Error(t, err)

	_, err = NewConfig(2, decimal.NewFromFloat(0.01), decimal.NewFromInt(1), decimal.Zero)
	assert.Error(t, err)
}

func TestSizeProgressionScalesOuterLevelsUp(t *testing.T) {
	cfg := baseConfig(t).WithSizeProgression(decimal.NewFromFloat(0.5))
	s := New(cfg)

	assert.True(t, s.LevelSize(1).Equal(decimal.NewFromInt(1)))
	assert.True(t, s.LevelSize(2).Equal(decimal.NewFromFloat(1.5)))
}
