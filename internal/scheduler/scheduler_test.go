package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsJob(t *testing.T) {
	var runs atomic.Int32
	s := New("@every 1s", "count", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	before := runs.Load()
	s.Stop(context.Background())
	assert.Equal(t, before+1, runs.Load(), "stop runs the job once more")
}

func TestScheduler_JobErrorIsLogged(t *testing.T) {
	var runs atomic.Int32
	s := New("@every 1h", "failing", func(context.Context) error {
		runs.Add(1)
		return errors.New("disk full")
	})
	require.NoError(t, s.Start(context.Background()))
	s.Stop(context.Background())
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_BadSpec(t *testing.T) {
	s := New("every now and then", "bad", func(context.Context) error { return nil })
	assert.Error(t, s.Start(context.Background()))
}
