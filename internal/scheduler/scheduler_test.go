package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

func TestEveryRejectsZeroPeriod(t *testing.T) {
	s := New(time.UTC, time.Second, logger.Nop())
	defer s.Stop()

	if err := s.Every("bad", 0, func(ctx context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for zero period")
	}
}

func TestScheduledJobRunsAndStopJoins(t *testing.T) {
	s := New(time.UTC, time.Second, logger.Nop())

	var runs atomic.Int32
	err := s.Every("tick", 50*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.Jobs() != 1 {
		t.Fatalf("expected one job, got %d", s.Jobs())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrStarted) {
		t.Fatalf("expected ErrStarted on second start, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if runs.Load() == 0 {
		t.Fatalf("job never ran")
	}
	after := runs.Load()
	time.Sleep(150 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
}

func TestRunNowAfterStop(t *testing.T) {
	s := New(time.UTC, time.Second, logger.Nop())
	s.Stop()

	called := false
	err := s.RunNow("late", func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected job to be refused after stop, err=%v called=%v", err, called)
	}
}

func TestRunNowPassesErrors(t *testing.T) {
	s := New(time.UTC, time.Second, logger.Nop())
	defer s.Stop()

	boom := errors.New("boom")
	if err := s.RunNow("fail", func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestStopWhileRunNowInFlight(t *testing.T) {
	s := New(time.UTC, time.Second, logger.Nop())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		after bool
		late  int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunNow("burst", func(ctx context.Context) error {
				mu.Lock()
				if after {
					late++
				}
				mu.Unlock()
				return nil
			})
		}()
	}
	s.Stop()
	mu.Lock()
	after = true
	mu.Unlock()
	wg.Wait()

	if late != 0 {
		t.Fatalf("%d jobs started after Stop returned", late)
	}
}
