package display

import (
	"sync/atomic"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/render"
)

// Status is what the loop last knew about the data path.
type Status struct {
	Flags       render.Flags `json:"flags"`
	FetchedAt   time.Time    `json:"fetched_at"`
	LastFetch   time.Time    `json:"last_fetch"`
	LastReload  time.Time    `json:"last_reload"`
	LastRefresh time.Time    `json:"last_refresh"`
	Calls       int          `json:"calls"`
}

// StatusBoard publishes the loop's Status to other goroutines.
// Only the display loop writes it.
type StatusBoard struct {
	v atomic.Pointer[Status]
}

func (b *StatusBoard) Status() Status {
	s := b.v.Load()
	if s == nil {
		return Status{}
	}
	return *s
}

func (b *StatusBoard) publish(s Status) {
	b.v.Store(&s)
}
