package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	httpapi "github.com/i474232898/weatherpi-dashboard/internal/api/http"
	"github.com/i474232898/weatherpi-dashboard/internal/calllog"
	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/config"
	"github.com/i474232898/weatherpi-dashboard/internal/display"
	"github.com/i474232898/weatherpi-dashboard/internal/frame"
	"github.com/i474232898/weatherpi-dashboard/internal/logger"
	"github.com/i474232898/weatherpi-dashboard/internal/render"
	"github.com/i474232898/weatherpi-dashboard/internal/scheduler"
	"github.com/i474232898/weatherpi-dashboard/internal/store"
	"github.com/i474232898/weatherpi-dashboard/internal/weather"
	"github.com/i474232898/weatherpi-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel)
	defer appLog.Sync()

	loc, err := cfg.Location()
	if err != nil {
		appLog.Fatalw("invalid timezone", "error", err)
	}

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.Weather.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
		BaseURL:   cfg.Weather.URL,
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Timezone:  cfg.Weather.Timezone,
		Window:    providers.Window(cfg.Weather.Variant),
		Metric:    cfg.Locale.Metric,
		Location:  loc,
	})

	// Snapshot wall times are in the configured zone; every clock reads that zone too.
	clock := common.ZoneClock(loc)

	snapshots := store.NewFileStore(cfg.Snapshot.Path)
	service := weather.NewService(provider, snapshots, appLog, clock)

	var poller *calllog.Poller
	if cfg.CallLog.Enabled {
		client := calllog.NewClient(calllog.Config{
			Address:  cfg.CallLog.Address,
			Username: cfg.CallLog.Username,
			Password: cfg.CallLog.Password,
			Backlog:  cfg.CallLog.Backlog,
			Timeout:  cfg.Weather.HTTPTimeout,
		}, nil)
		poller = calllog.NewPoller(client, appLog, clock)
	}

	renderer, err := newRenderer(cfg, loc, appLog)
	if err != nil {
		appLog.Fatalw("failed to set up renderer", "error", err)
	}

	// A display that cannot be opened is the only fatal runtime error.
	presenter, err := display.NewPresenter(cfg.Display, appLog)
	if err != nil {
		appLog.Fatalw("failed to open display", "presenter", cfg.Display.Presenter, "error", err)
	}
	defer func() {
		if err := presenter.Close(); err != nil {
			appLog.Warnw("closing display failed", "error", err)
		}
	}()

	frames := frame.NewStore(cfg.Server.FramePath)
	appLog.Infow("starting dashboard",
		"env", cfg.Env,
		"snapshot", snapshots.Path(),
		"presenter", cfg.Display.Presenter,
		"server_mode", cfg.ServerMode(),
		"frame", frames.Path(),
	)

	src := display.Sources{Weather: service.Updates()}
	if poller != nil {
		src.Calls = poller.Updates()
	}
	loop := display.NewLoop(display.Config{
		Tick:           cfg.Display.RefreshInterval,
		AA:             cfg.Display.AA,
		ServerMode:     cfg.ServerMode(),
		ServerSleep:    cfg.Server.Sleep,
		ScreenshotPath: cfg.Screenshot.Path,
	}, renderer, presenter, frames, src, appLog, clock)

	// Scheduler that periodically fetches, reloads and polls the router.
	sched := scheduler.New(loc, cfg.Weather.HTTPTimeout*2, appLog)
	if err := sched.Every("fetch", cfg.Timer.Update, service.Fetch); err != nil {
		appLog.Fatalw("failed to schedule fetch", "error", err)
	}
	if err := sched.Every("reload", cfg.Timer.Reload, service.Reload); err != nil {
		appLog.Fatalw("failed to schedule reload", "error", err)
	}
	if poller != nil {
		if err := sched.Every("calllog", cfg.CallLog.Interval, poller.Poll); err != nil {
			appLog.Fatalw("failed to schedule call list", "error", err)
		}
	}

	// Initial pass so the first frame has data.
	_ = sched.RunNow("fetch", service.Fetch)
	_ = sched.RunNow("reload", service.Reload)
	if poller != nil {
		_ = sched.RunNow("calllog", poller.Poll)
	}

	if err := sched.Start(); err != nil {
		appLog.Fatalw("failed to start scheduler", "error", err)
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	screenshots := make(chan os.Signal, 1)
	signal.Notify(screenshots, syscall.SIGUSR1)
	defer signal.Stop(screenshots)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-screenshots:
				loop.RequestScreenshot()
			}
		}
	}()

	var app *fiber.App
	if cfg.ServerMode() {
		app = startServer(cfg.Server.Port, frames, loop.Status(), service, appLog)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil {
			appLog.Errorw("display loop failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Infow("shutting down")

	wg.Wait()
	sched.Stop()

	if app != nil {
		// In-flight requests may finish; no new frames are accepted.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLog.Warnw("error during shutdown", "error", err)
		}
	}
}

func newRenderer(cfg *config.AppConfig, loc *time.Location, appLog *logger.Logger) (*render.Renderer, error) {
	icons, err := render.LoadRegistry(cfg.Assets.Icons)
	if err != nil {
		appLog.Warnw("icon directory unavailable, every icon will be a placeholder", "dir", cfg.Assets.Icons, "error", err)
		icons = render.NewRegistry(nil)
	}
	for _, name := range icons.Skipped() {
		appLog.Warnw("icon skipped", "file", name)
	}
	if !icons.Has(render.UnknownIcon) {
		appLog.Warnw("placeholder icon missing", "id", render.UnknownIcon)
	}
	var missing []string
	for _, id := range render.IconIDs() {
		if !icons.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		appLog.Warnw("weather icons missing", "count", len(missing), "ids", missing)
	}
	appLog.Infow("icons loaded", "dir", cfg.Assets.Icons, "count", len(icons.IDs()))

	fonts, err := render.LoadFonts(cfg.Assets.Fonts, cfg.Assets.FontRegular, cfg.Assets.FontBold)
	if err != nil {
		return nil, err
	}
	if !fonts.Scalable() {
		appLog.Warnw("no TrueType fonts found, using the built-in bitmap font", "dir", cfg.Assets.Fonts)
	}

	tag, err := render.ParseLocaleTag(cfg.Locale.ISO)
	if err != nil {
		return nil, err
	}

	return render.New(render.Options{
		Geometry: render.NewGeometry(cfg.Display.Width, cfg.Display.Height),
		Theme:    render.DefaultTheme(),
		Fonts:    fonts,
		Icons:    icons,
		Locale: render.Locale{
			Tag:               tag,
			Metric:            cfg.Locale.Metric,
			FeelsLike:         cfg.Locale.FeelsLike,
			MoonLabel:         cfg.Locale.Moon,
			DateFormat:        cfg.Locale.DateFormat,
			TimeFormat:        cfg.Locale.TimeFormat,
			ForecastDayFormat: cfg.Locale.ForecastDayFormat,
			SunFormat:         cfg.Locale.SunFormat,
		},
		AA:       cfg.Display.AA,
		Location: loc,
	}), nil
}

// startServer serves the exported frame and the status endpoint in the background.
func startServer(port int, frames *frame.Store, status *display.StatusBoard, snapshots *weather.Service, appLog *logger.Logger) *fiber.App {
	app := httpapi.NewApp()
	httpapi.RegisterRoutes(app, frames, status, snapshots)

	addr := ":" + strconv.Itoa(port)
	go func() {
		if err := app.Listen(addr); err != nil {
			appLog.Warnw("fiber server stopped", "error", err)
		}
	}()
	appLog.Infow("frame server listening", "addr", addr)
	return app
}
