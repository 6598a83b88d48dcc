// Package display owns the frame loop: it consumes data-path updates, composes
// the layers and hands finished frames to a presenter.
package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/i474232898/weatherpi-dashboard/internal/calllog"
	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/logger"
	"github.com/i474232898/weatherpi-dashboard/internal/render"
	"github.com/i474232898/weatherpi-dashboard/internal/store"
	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

// Exporter receives every frame in server mode. *frame.Store satisfies it.
type Exporter interface {
	Export(img image.Image) error
}

type Config struct {
	Tick           time.Duration
	AA             bool
	ServerMode     bool
	ServerSleep    time.Duration
	ScreenshotPath string
}

// Loop is the single consumer of weather and call-log updates and the only
// writer of the state it renders from.
type Loop struct {
	cfg       Config
	renderer  *render.Renderer
	presenter Presenter
	exporter  Exporter
	status    *StatusBoard
	log       *logger.Logger
	now       common.Clock

	weatherUpdates <-chan weather.Update
	callUpdates    <-chan calllog.Result
	screenshots    chan struct{}

	// loop-owned state
	snapshot     *weather.Snapshot
	weatherLayer *image.RGBA
	flags        render.Flags
	calls        []calllog.Record
	state        Status
	last         *image.RGBA
	resumeAt     time.Time
}

// Sources are the update channels the loop drains. A nil channel is never ready.
type Sources struct {
	Weather <-chan weather.Update
	Calls   <-chan calllog.Result
}

func NewLoop(cfg Config, r *render.Renderer, p Presenter, exporter Exporter, src Sources, log *logger.Logger, now common.Clock) *Loop {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if now == nil {
		now = common.SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{
		cfg:            cfg,
		renderer:       r,
		presenter:      p,
		exporter:       exporter,
		status:         &StatusBoard{},
		log:            log.Named("display"),
		now:            now,
		weatherUpdates: src.Weather,
		callUpdates:    src.Calls,
		screenshots:    make(chan struct{}, 1),
	}
}

// Status exposes the board the loop publishes to.
func (l *Loop) Status() *StatusBoard {
	return l.status
}

// RequestScreenshot asks the loop to save the next available frame. Extra
// requests while one is pending are dropped.
func (l *Loop) RequestScreenshot() {
	select {
	case l.screenshots <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()

	l.log.Infow("display loop started", "tick", l.cfg.Tick, "server_mode", l.cfg.ServerMode)
	for {
		select {
		case <-ctx.Done():
			l.log.Infow("display loop stopped")
			return nil
		case u := <-l.weatherUpdates:
			l.applyWeather(u)
		case res := <-l.callUpdates:
			l.applyCalls(res)
		case <-l.screenshots:
			if err := l.saveScreenshot(); err != nil {
				l.log.Warnw("screenshot failed", "error", err)
			}
		case <-ticker.C:
			now := l.now()
			if !l.shouldRefresh(now) {
				continue
			}
			if err := l.Refresh(now); err != nil {
				l.log.Warnw("refresh failed", "error", err)
			}
		}
	}
}

// ShouldRefresh is the refresh gate. Unattended server mode refreshes only in
// the first half minute of every even minute; otherwise every tick refreshes.
func ShouldRefresh(serverMode bool, now time.Time) bool {
	if !serverMode {
		return true
	}
	return now.Minute()%2 == 0 && now.Second() < 30
}

func (l *Loop) shouldRefresh(now time.Time) bool {
	if now.Before(l.resumeAt) {
		return false
	}
	return ShouldRefresh(l.cfg.ServerMode, now)
}

func (l *Loop) applyWeather(u weather.Update) {
	switch u.Kind {
	case weather.Fetched:
		l.flags.Connection = false
		l.state.LastFetch = u.At
	case weather.FetchFailed:
		l.flags.Connection = true
	case weather.Reloaded:
		l.flags.Refresh = false
		l.state.LastReload = u.At
		if u.Snapshot != nil {
			l.snapshot = u.Snapshot
			l.state.FetchedAt = u.Snapshot.FetchedAt
			l.renderWeather(l.now())
		}
	case weather.ReloadFailed:
		l.flags.Refresh = true
	}
	l.publish()
}

func (l *Loop) applyCalls(res calllog.Result) {
	if res.Err != nil {
		l.flags.CallLog = true
	} else {
		l.flags.CallLog = false
		l.calls = res.Records
	}
	l.publish()
}

func (l *Loop) renderWeather(now time.Time) {
	layer, report := l.renderer.Weather(*l.snapshot, now)
	l.weatherLayer = layer
	l.flags.Path = report.PathError()
	for _, err := range report.Icons.Failures() {
		l.log.Warnw("icon degraded to placeholder", "error", err)
	}
}

func (l *Loop) publish() {
	l.state.Flags = l.flags
	l.state.Calls = len(l.calls)
	l.status.publish(l.state)
}

// Refresh composes background, weather, dynamic and time layers, scales the
// result to the presenter and presents it. In server mode the frame is also
// exported and refreshing pauses for ServerSleep.
func (l *Loop) Refresh(now time.Time) error {
	frame := l.Compose(now)
	l.last = frame

	out := scaleTo(frame, l.presenter.Bounds(), l.cfg.AA)
	err := l.presenter.Present(out)
	if err != nil {
		err = fmt.Errorf("present: %w", err)
	}

	if l.cfg.ServerMode {
		if l.exporter != nil {
			if xerr := l.exporter.Export(out); xerr != nil {
				l.log.Warnw("frame export failed", "error", xerr)
			}
		}
		l.resumeAt = now.Add(l.cfg.ServerSleep)
	}

	l.state.LastRefresh = now
	l.publish()
	return err
}

// Compose draws one full frame at display resolution.
func (l *Loop) Compose(now time.Time) *image.RGBA {
	geo := l.renderer.Geometry()
	frame := image.NewRGBA(geo.Display())
	draw.Draw(frame, frame.Bounds(), image.NewUniform(l.renderer.Background()), image.Point{}, draw.Src)

	surface := geo.Surface().Add(geo.Offset)
	if l.weatherLayer != nil {
		draw.Draw(frame, surface, l.weatherLayer, image.Point{}, draw.Src)
	}

	overlay := image.NewRGBA(geo.Surface())
	l.renderer.Dynamic(overlay, l.flags, l.calls)
	l.renderer.Time(overlay, now)
	draw.Draw(frame, surface, overlay, image.Point{}, draw.Over)
	return frame
}

// scaleTo resizes src to bounds, nearest neighbour unless aa is set.
func scaleTo(src *image.RGBA, bounds image.Rectangle, aa bool) image.Image {
	if bounds.Empty() || src.Bounds().Size() == bounds.Size() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	var scaler xdraw.Scaler = xdraw.NearestNeighbor
	if aa {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func (l *Loop) saveScreenshot() error {
	if l.last == nil {
		l.last = l.Compose(l.now())
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, l.last); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	if err := store.WriteFileAtomic(l.cfg.ScreenshotPath, buf.Bytes(), 0o644); err != nil {
		return err
	}
	l.log.Infow("screenshot saved", "path", l.cfg.ScreenshotPath)
	return nil
}
