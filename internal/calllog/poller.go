package calllog

import (
	"context"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Result is one poll outcome. Records replaces whatever the previous poll returned.
type Result struct {
	Records []Record
	Err     error
	At      time.Time
}

// Poller runs one fetch per scheduled tick and hands the result to the display loop.
type Poller struct {
	fetcher Fetcher
	log     *logger.Logger
	now     common.Clock
	updates chan Result
}

func NewPoller(fetcher Fetcher, log *logger.Logger, now common.Clock) *Poller {
	if now == nil {
		now = common.SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		fetcher: fetcher,
		log:     log.Named("calllog"),
		now:     now,
		updates: make(chan Result, 4),
	}
}

// Updates is consumed by the display loop only.
func (p *Poller) Updates() <-chan Result {
	return p.updates
}

// Poll fetches the call list once.
func (p *Poller) Poll(ctx context.Context) error {
	if p.fetcher == nil {
		return ErrDisabled
	}

	records, err := p.fetcher.Fetch(ctx)
	res := Result{Records: records, Err: err, At: p.now()}
	if err != nil {
		p.log.Warnw("call list fetch failed", "error", err)
	} else {
		p.log.Infow("call list fetched", "calls", len(records))
	}

	select {
	case p.updates <- res:
	case <-ctx.Done():
	}
	return err
}
