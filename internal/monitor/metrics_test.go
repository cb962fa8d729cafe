package monitor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotDerivesRates(t *testing.T) {
	start := time.Unix(0, 0)
	m := New(start)

	m.IncQuotes()
	m.IncQuotes()
	m.IncQuotes()
	m.IncQuotes()
	m.IncFills()
	m.IncSubmissions()
	m.IncSubmissions()
	m.IncCancels()
	m.SetOpenOrders(3)
	m.SetPosition(decimal.NewFromInt(5))
	m.SetRealizedPnL(decimal.NewFromInt(10))
	m.SetUnrealizedPnL(decimal.NewFromInt(-2))

	snap := m.Snapshot(start.Add(2 * time.Second))

	assert.Equal(t, uint64(4), snap.Quotes)
	assert.Equal(t, uint64(1), snap.Fills)
	assert.True(t, snap.FillRate.Equal(decimal.NewFromFloat(0.25)), "got %s", snap.FillRate)
	assert.True(t, snap.CancelRate.Equal(decimal.NewFromFloat(0.5)), "got %s", snap.CancelRate)
	assert.True(t, snap.QuotesPerSec.Equal(decimal.NewFromInt(2)), "got %s", snap.QuotesPerSec)
	assert.Equal(t, int64(3), snap.OpenOrders)
	assert.True(t, snap.Position.Equal(decimal.NewFromInt(5)))
	assert.True(t, snap.RealizedPnL.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.UnrealizedPnL.Equal(decimal.NewFromInt(-2)))
}

func TestSnapshotZeroRatesWhenNoActivity(t *testing.T) {
	m := New(time.Unix(0, 0))
	snap := m.Snapshot(time.Unix(0, 0))

	assert.True(t, snap.FillRate.IsZero())
	assert.True(t, snap.CancelRate.IsZero())
	assert.True(t, snap.QuotesPerSec.IsZero())
}
