package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSweepRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs int64

	s := New()
	s.Register("counter", 20*time.Millisecond, func(ctx context.Context) (int, error) {
		atomic.AddInt64(&runs, 1)
		return 1, nil
	})

	s.Start()
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	// One immediate run plus at least two ticks.
	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(3))
}

func TestSlowSweepDropsOverlappingTicks(t *testing.T) {
	var started int64
	release := make(chan struct{})
	var once sync.Once

	s := New()
	s.Register("slow", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		atomic.AddInt64(&started, 1)
		<-release
		return 0, nil
	})

	s.Start()
	time.Sleep(80 * time.Millisecond)
	once.Do(func() { close(release) })
	s.Stop()

	// The first pass held the lock the whole time; every tick in between
	// was dropped, not queued.
	assert.Equal(t, int64(1), atomic.LoadInt64(&started))
}

func TestFailingSweepKeepsRunning(t *testing.T) {
	var runs int64

	s := New()
	s.Register("flaky", 15*time.Millisecond, func(ctx context.Context) (int, error) {
		atomic.AddInt64(&runs, 1)
		return 0, errors.New("backend unavailable")
	})

	s.Start()
	time.Sleep(70 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	var finished int64
	entered := make(chan struct{})

	s := New()
	s.Register("graceful", time.Hour, func(ctx context.Context) (int, error) {
		close(entered)
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt64(&finished, 1)
		return 0, nil
	})

	s.Start()
	<-entered
	s.Stop()

	assert.Equal(t, int64(1), atomic.LoadInt64(&finished))
}
