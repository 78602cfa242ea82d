// Package scheduler drives the periodic privacy sweeps: export artifact
// expiry, deletion token expiry and execution, consent re-consent
// reminders and due retention jobs. Every sweep is single-flight: a
// tick that arrives while the previous invocation still runs is
// dropped, never queued.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fittrack/privacy-rights-api/internal/system/log"
)

// SweepFunc runs one pass of a periodic task and reports how many
// entities it touched.
type SweepFunc func(ctx context.Context) (int, error)

type sweep struct {
	name     string
	interval time.Duration
	run      SweepFunc
	mu       sync.Mutex
}

// Scheduler owns the background sweep goroutines.
type Scheduler struct {
	sweeps []*sweep
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Scheduler")),
	}
}

// Register adds a named sweep with its own interval.
func (s *Scheduler) Register(name string, interval time.Duration, run SweepFunc) {
	s.sweeps = append(s.sweeps, &sweep{
		name:     name,
		interval: interval,
		run:      run,
	})
}

// Start launches one goroutine per registered sweep. Each sweep also
// runs once immediately so a restart never delays overdue work by a
// full interval.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, sw := range s.sweeps {
		s.wg.Add(1)
		go s.loop(ctx, sw)
	}
}

// Stop cancels every sweep loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, sw *sweep) {
	defer s.wg.Done()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	s.runOnce(ctx, sw)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, sw)
		}
	}
}

// runOnce executes one sweep pass unless the previous one is still
// running. Failures are logged; the loop never aborts.
func (s *Scheduler) runOnce(ctx context.Context, sw *sweep) {
	if !sw.mu.TryLock() {
		s.logger.Debug("Sweep still running, tick dropped", log.String("sweep", sw.name))
		return
	}
	defer sw.mu.Unlock()

	touched, err := sw.run(ctx)
	if err != nil {
		s.logger.Error("Sweep failed", log.Error(err), log.String("sweep", sw.name))
		return
	}
	if touched > 0 {
		s.logger.Info("Sweep finished", log.String("sweep", sw.name), log.Int("touched", touched))
	}
}
