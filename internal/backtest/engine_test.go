package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExOms/mm-kernel/pkg/types"
)

// fixedSpreadStrategy always quotes bid/ask a constant offset off the
// tick's mid, so deterministic ticks produce deterministic fills.
type fixedSpreadStrategy struct {
	offset decimal.Decimal
	fills  int
}

func (s *fixedSpreadStrategy) OnTick(tick types.MarketTick, _ types.InventoryPosition) (*types.Quote, error) {
	mid := tick.Mid()
	return &types.Quote{
		BidPrice: mid.Sub(s.offset),
		BidSize:  decimal.NewFromInt(1),
		AskPrice: mid.Add(s.offset),
		AskSize:  decimal.NewFromInt(1),
	}, nil
}

func (s *fixedSpreadStrategy) OnFill(SimulatedFill) { s.fills++ }
func (s *fixedSpreadStrategy) Reset()               { s.fills = 0 }

func TestEngineRunNoCrossNoFills(t *testing.T) {
	cfg := NewConfig()
	strat := &fixedSpreadStrategy{offset: decimal.NewFromInt(10)}
	ticks := []types.MarketTick{
		{Timestamp: time.Unix(0, 0), BidPrice: decimal.NewFromInt(99), AskPrice: decimal.NewFromInt(101)},
		{Timestamp: time.Unix(1, 0), BidPrice: decimal.NewFromInt(99), AskPrice: decimal.NewFromInt(101)},
	}
	e, err := NewEngine(cfg, strat, NewVecTickSource(ticks))
	require.NoError(t, err)

	result, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, result.NumTrades)
	assert.True(t, result.FinalPosition.IsZero())
}

func TestEngineRunCrossingQuoteFills(t *testing.T) {
	cfg := NewConfig()
	strat := &fixedSpreadStrategy{offset: decimal.NewFromInt(0)}
	ticks := []types.MarketTick{
		{Timestamp: time.Unix(0, 0), BidPrice: decimal.NewFromInt(100), AskPrice: decimal.NewFromInt(100)},
	}
	e, err := NewEngine(cfg, strat, NewVecTickSource(ticks))
	require.NoError(t, err)

	result, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumTrades, "a zero-offset quote should cross both sides")
	assert.True(t, result.FinalPosition.IsZero())
}

func TestEngineNewRejectsInvalidConfig(t *testing.T) {
	cfg := NewConfig().WithInitialCapital(decimal.NewFromInt(-1))
	_, err := NewEngine(cfg, &fixedSpreadStrategy{}, NewVecTickSource(nil))
	assert.Error(t, err)
}

func TestEngineResetClearsState(t *testing.T) {
	cfg := NewConfig()
	strat := &fixedSpreadStrategy{offset: decimal.Zero}
	ticks := []types.MarketTick{
		{Timestamp: time.Unix(0, 0), BidPrice: decimal.NewFromInt(100), AskPrice: decimal.NewFromInt(100)},
	}
	e, err := NewEngine(cfg, strat, NewVecTickSource(ticks))
	require.NoError(t, err)

	_, err = e.Run()
	require.NoError(t, err)

	e.Reset()
	pos, fees := e.State()
	assert.True(t, pos.Quantity.IsZero())
	assert.True(t, fees.IsZero())
}
