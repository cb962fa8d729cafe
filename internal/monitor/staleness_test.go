package monitor

import (
	"testing"
	"time"

	"github.com/mExOms/mm-kernel/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTickWatchdogTracksLiveSymbols(t *testing.T) {
	w := NewTickWatchdog(time.Minute)
	assert.True(t, w.IsStale("BTCUSDT"))

	w.Observe("BTCUSDT", types.MarketTick{BidPrice: decimal.NewFromInt(100), AskPrice: decimal.NewFromInt(101)})

	assert.False(t, w.IsStale("BTCUSDT"))
	tick, ok := w.Last("BTCUSDT")
	assert.True(t, ok)
	assert.True(t, tick.BidPrice.Equal(decimal.NewFromInt(100)))
	assert.Contains(t, w.Live(), "BTCUSDT")
}

func TestTickWatchdogUnknownSymbolIsStale(t *testing.T) {
	w := NewTickWatchdog(time.Minute)
	_, ok := w.Last("ETHUSDT")
	assert.False(t, ok)
	assert.True(t, w.IsStale("ETHUSDT"))
}
