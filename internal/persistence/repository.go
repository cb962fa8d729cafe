// Package persistence defines the kernel's asynchronous storage contract
// for fills, position snapshots, daily P&L, config entries, and event
// logs, plus an in-memory reference implementation and a cron-driven
// snapshot/cleanup scheduler. The core never assumes a concrete backend;
// every Repository method takes a context.Context so the host can cancel
// a call in flight, treating persistence as a legitimate suspension
// point rather than a fire-and-forget call.
package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/risk"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// Fill is the persisted record of one trade execution, identified the
// way every record in this repository is identified: an
// "{ms_since_epoch}-{local_counter}" string.
type Fill struct {
	ID            string
	Symbol        string
	ClientOrderID string
	Fill          types.Fill
	TimestampMs   int64
}

// PositionSnapshot is a point-in-time signed position for one symbol.
type PositionSnapshot struct {
	ID          string
	Symbol      string
	Position    decimal.Decimal
	TimestampMs int64
}

// DailyPnL is one symbol's realized and unrealized P&L for one calendar
// date, expressed as a YYYY-MM-DD string.
type DailyPnL struct {
	ID            string
	Date          string
	Symbol        string
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	TimestampMs   int64
}

// ConfigEntry is one key/value row in the persisted configuration store.
type ConfigEntry struct {
	Key         string
	Value       string
	UpdatedAtMs int64
}

// EventLog is the persisted record of one domain event, carrying the
// severity an alert-originated event raised it at (the zero value,
// SeverityInfo, for events with no associated severity) alongside the
// event payload itself.
type EventLog struct {
	ID          string
	Kind        types.EventKind
	Symbol      string
	Severity    risk.Severity
	Event       types.MarketMakerEvent
	TimestampMs int64
}

// Repository is the kernel's full asynchronous persistence surface.
// Every method returns an error from internal/errs's ErrPersistence class
// on failure; "not found" is reported the same way, wrapping a sentinel
// the caller can check with errors.Is.
type Repository interface {
	SaveFill(ctx context.Context, fill Fill) error
	GetFill(ctx context.Context, id string) (Fill, error)
	GetFills(ctx context.Context, startMs, endMs int64) ([]Fill, error)
	GetFillsBySymbol(ctx context.Context, symbol string) ([]Fill, error)
	DeleteFill(ctx context.Context, id string) error

	SavePositionSnapshot(ctx context.Context, snap PositionSnapshot) error
	GetLatestPosition(ctx context.Context, symbol string) (PositionSnapshot, error)
	GetPositionHistory(ctx context.Context, symbol string, startMs, endMs int64) ([]PositionSnapshot, error)

	SaveDailyPnL(ctx context.Context, pnl DailyPnL) error
	GetDailyPnL(ctx context.Context, date, symbol string) (DailyPnL, error)
	GetPnLHistory(ctx context.Context, symbol, startDate, endDate string) ([]DailyPnL, error)

	SaveConfig(ctx context.Context, entry ConfigEntry) error
	GetConfig(ctx context.Context, key string) (ConfigEntry, error)
	GetAllConfig(ctx context.Context) ([]ConfigEntry, error)
	DeleteConfig(ctx context.Context, key string) error

	SaveEvent(ctx context.Context, event EventLog) error
	GetEvents(ctx context.Context, startMs, endMs int64) ([]EventLog, error)
	GetEventsByType(ctx context.Context, kind types.EventKind) ([]EventLog, error)
	GetEventsBySeverity(ctx context.Context, min risk.Severity) ([]EventLog, error)

	ClearAll(ctx context.Context) error
	FillCount(ctx context.Context) (int, error)
	EventCount(ctx context.Context) (int, error)
}

// ErrNotFound is wrapped by errs.ErrPersistence when a lookup misses.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "record not found" }
