package persistence

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsSnapshotAndCleanupJobs(t *testing.T) {
	var snapshots, cleanups atomic.Int32

	s, err := NewScheduler("@every 20ms", "@every 20ms",
		func(context.Context) error { snapshots.Add(1); return nil },
		func(context.Context) error { cleanups.Add(1); return nil },
	)
	require.NoError(t, err)

	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	assert.Greater(t, snapshots.Load(), int32(0))
	assert.Greater(t, cleanups.Load(), int32(0))
}

func TestNewSchedulerSkipsEmptyExpressions(t *testing.T) {
	s, err := NewScheduler("", "", nil, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestNewSchedulerRejectsInvalidExpression(t *testing.T) {
	_, err := NewScheduler("not a cron expression", "", func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
}
