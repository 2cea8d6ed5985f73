package worker

import (
	"context"
	"sync"
	"time"

	"commonspace/pkg/logger"
	"commonspace/pkg/metrics"
)

// TickFunc is one unit of periodic work. now is the tick's wall clock time.
type TickFunc func(ctx context.Context, now time.Time) error

// Periodic runs a TickFunc immediately on Start and then on every interval.
// A slow tick does not delay the next one; ticks may overlap, so TickFunc must
// tolerate concurrent runs. Stop cancels in-flight ticks and waits for them.
type Periodic struct {
	name     string
	interval time.Duration
	fn       TickFunc
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	ticks   sync.WaitGroup
	stopped chan struct{}
}

func NewPeriodic(name string, interval time.Duration, fn TickFunc, log *logger.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      log,
		now:      time.Now,
	}
}

func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.stopped = make(chan struct{})

	p.log.Info("Starting periodic worker", "worker", p.name, "interval", p.interval)

	p.spawn(ctx)

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.spawn(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the worker and blocks until every started tick has returned.
func (p *Periodic) Stop() {
	p.mu.Lock()
	cancel, stopped := p.cancel, p.stopped
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	p.ticks.Wait()

	p.log.Info("Periodic worker stopped", "worker", p.name)
}

func (p *Periodic) spawn(ctx context.Context) {
	p.ticks.Add(1)
	go func() {
		defer p.ticks.Done()
		p.run(ctx)
	}()
}

func (p *Periodic) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerTicksTotal.WithLabelValues(p.name, metrics.ResultError).Inc()
			p.log.Error("Periodic worker tick panicked", "worker", p.name, "panic", r)
		}
	}()

	err := p.fn(ctx, p.now())
	metrics.SchedulerTickDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SchedulerTicksTotal.WithLabelValues(p.name, metrics.ResultError).Inc()
		p.log.Error("Periodic worker tick failed", "worker", p.name, "error", err)
		return
	}
	metrics.SchedulerTicksTotal.WithLabelValues(p.name, metrics.ResultOK).Inc()
}
