package weather

import (
	"context"
	"time"
)

// Provider abstracts the forecast source. now fixes the date window and the
// hourly alignment of the returned snapshot.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, now time.Time) (Snapshot, error)
}

// Store persists the latest snapshot. Save replaces the previous one entirely.
type Store interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
}
