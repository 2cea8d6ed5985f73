package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"commonspace/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodic_RunsImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := NewPeriodic("test", 10*time.Millisecond, func(ctx context.Context, now time.Time) error {
		calls.Add(1)
		return nil
	}, logger.Discard())

	p.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no ticks after Stop")
}

func TestPeriodic_StopWaitsForInFlightTicks(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{}, 1)

	p := NewPeriodic("slow", time.Hour, func(ctx context.Context, now time.Time) error {
		started <- struct{}{}
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}, logger.Discard())

	p.Start(context.Background())
	<-started
	p.Stop()

	assert.True(t, finished.Load())
}

func TestPeriodic_OverlappingTicks(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})

	p := NewPeriodic("overlap", 5*time.Millisecond, func(ctx context.Context, now time.Time) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, logger.Discard())

	p.Start(context.Background())
	require.Eventually(t, func() bool { return peak.Load() >= 2 }, time.Second, 5*time.Millisecond)
	close(release)
	p.Stop()
}

func TestPeriodic_ErrorsAndPanicsDoNotStopWorker(t *testing.T) {
	var calls atomic.Int32
	p := NewPeriodic("flaky", 5*time.Millisecond, func(ctx context.Context, now time.Time) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("boom")
		case 2:
			panic("kaboom")
		}
		return nil
	}, logger.Discard())

	p.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
	p.Stop()
}

func TestPeriodic_StopWithoutStart(t *testing.T) {
	p := NewPeriodic("idle", time.Second, func(ctx context.Context, now time.Time) error { return nil }, logger.Discard())
	p.Stop()
}
