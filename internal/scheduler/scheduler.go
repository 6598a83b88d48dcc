package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

// Job is one periodic task. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

var ErrStarted = errors.New("scheduler already started")

// Scheduler runs fixed-period jobs (fetch, reload, call list) on gocron.
// Stop cancels running jobs and waits for them to return.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *logger.Logger
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards started and stopped, and orders wg.Add against Stop's Wait.
	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a new Scheduler. timeout bounds a single job run.
func New(loc *time.Location, timeout time.Duration, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		log:       log.Named("scheduler"),
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Every registers job to run once per period. The first run happens one period
// after Start; callers run the initial pass themselves.
func (s *Scheduler) Every(name string, period time.Duration, job Job) error {
	if period <= 0 {
		return fmt.Errorf("job %s: period must be positive, got %s", name, period)
	}

	_, err := s.scheduler.Every(period).Tag(name).WaitForSchedule().SingletonMode().Do(func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Infow("job scheduled", "job", name, "period", period.String())
	return nil
}

// RunNow executes job synchronously under the scheduler's lifetime context.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return context.Canceled
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.log.Debugw("running job", "job", name)
	if err := job(ctx); err != nil {
		s.log.Warnw("job failed", "job", name, "error", err)
		return err
	}
	return nil
}

// Start starts the underlying scheduler in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.started = true
	s.scheduler.StartAsync()
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// Stop cancels running jobs, stops future runs and joins the jobs in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.wg.Wait()
	s.log.Infow("scheduler stopped")
}
