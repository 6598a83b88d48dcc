package weather

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

// UpdateKind tells the display loop what happened on the data path.
type UpdateKind int

const (
	// Fetched: the provider answered and the file was rewritten.
	Fetched UpdateKind = iota
	// FetchFailed: the provider or the write failed; the file is untouched.
	FetchFailed
	// Reloaded: the file was read; Snapshot is set.
	Reloaded
	// ReloadFailed: the file could not be read or decoded.
	ReloadFailed
)

func (k UpdateKind) String() string {
	switch k {
	case Fetched:
		return "fetched"
	case FetchFailed:
		return "fetch_failed"
	case Reloaded:
		return "reloaded"
	case ReloadFailed:
		return "reload_failed"
	default:
		return "unknown"
	}
}

// Update is a message from the timer jobs to the display loop.
type Update struct {
	Kind     UpdateKind
	Snapshot *Snapshot
	Err      error
	At       time.Time
}

const updateBuffer = 8

// Service runs the two halves of the data path: fetch (provider to file) and
// reload (file to memory). Each half is driven by its own timer job.
type Service struct {
	provider Provider
	store    Store
	log      *logger.Logger
	now      common.Clock

	updates chan Update
	latest  atomic.Pointer[Snapshot]
}

// NewService creates a new Service. A nil clock means the wall clock.
func NewService(provider Provider, store Store, log *logger.Logger, now common.Clock) *Service {
	if now == nil {
		now = common.SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		provider: provider,
		store:    store,
		log:      log.Named("weather"),
		now:      now,
		updates:  make(chan Update, updateBuffer),
	}
}

// Updates is consumed by the display loop only.
func (s *Service) Updates() <-chan Update {
	return s.updates
}

// Latest returns the last snapshot a reload produced.
func (s *Service) Latest() (Snapshot, bool) {
	snap := s.latest.Load()
	if snap == nil {
		return Snapshot{}, false
	}
	return *snap, true
}

// Fetch asks the provider for a snapshot and rewrites the store with it.
// On any failure the stored snapshot stays as it was.
func (s *Service) Fetch(ctx context.Context) error {
	now := s.now()
	s.log.Infow("fetching forecast", "provider", s.provider.Name())

	snap, err := s.provider.Fetch(ctx, now)
	if err == nil {
		err = snap.Validate()
	}
	if err != nil {
		s.log.Warnw("fetch failed, keeping stored snapshot", "provider", s.provider.Name(), "error", err)
		s.publish(ctx, Update{Kind: FetchFailed, Err: err, At: now})
		return fmt.Errorf("fetch from %s: %w", s.provider.Name(), err)
	}

	if err := s.store.Save(snap); err != nil {
		s.log.Warnw("saving snapshot failed", "error", err)
		s.publish(ctx, Update{Kind: FetchFailed, Err: err, At: now})
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.log.Infow("snapshot saved", "daily", len(snap.Daily), "hourly", len(snap.Hourly))
	s.publish(ctx, Update{Kind: Fetched, At: now})
	return nil
}

// Reload reads the stored snapshot and hands it to the display loop.
func (s *Service) Reload(ctx context.Context) error {
	now := s.now()

	snap, err := s.store.Load()
	if err != nil {
		s.log.Warnw("reading snapshot failed", "error", err)
		s.publish(ctx, Update{Kind: ReloadFailed, Err: err, At: now})
		return fmt.Errorf("reload snapshot: %w", err)
	}

	s.latest.Store(&snap)
	s.log.Debugw("snapshot reloaded", "fetched_at", snap.FetchedAt)
	s.publish(ctx, Update{Kind: Reloaded, Snapshot: &snap, At: now})
	return nil
}

func (s *Service) publish(ctx context.Context, u Update) {
	select {
	case s.updates <- u:
	case <-ctx.Done():
		s.log.Debugw("update dropped on shutdown", "kind", u.Kind.String())
	}
}
