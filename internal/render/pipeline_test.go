package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/store"
	"github.com/i474232898/weatherpi-dashboard/internal/weather/providers"
	"github.com/i474232898/weatherpi-dashboard/internal/weather/weathertest"
)

// TestCannedResponseToWeatherLayer runs a recorded response through the
// provider, the snapshot file and the renderer.
func TestCannedResponseToWeatherLayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(weathertest.OpenMeteoExtended)
	}))
	defer srv.Close()

	cet := time.FixedZone("CET", 3600)
	now := time.Date(2025, 3, 15, 10, 5, 0, 0, cet)

	p := providers.NewOpenMeteoProvider(srv.Client(), providers.OpenMeteoConfig{
		BaseURL:  srv.URL,
		Timezone: "Europe/Berlin",
		Window:   providers.WindowExtended,
		Metric:   true,
		Location: cet,
	})
	fetched, err := p.Fetch(context.Background(), now)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	files := store.NewFileStore(filepath.Join(t.TempDir(), "weather.json"))
	if err := files.Save(fetched); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, err := files.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	r := New(Options{
		Geometry: NewGeometry(800, 480),
		Theme:    DefaultTheme(),
		Icons:    fullRegistry(),
		Locale:   DefaultLocale(),
		Location: cet,
	})
	_, report := r.Weather(snap, now)

	if report.Icons.Current.ID != "c04d" {
		t.Fatalf("current icon %q, want c04d", report.Icons.Current.ID)
	}
	for i, d := range report.Icons.Days {
		if d.ID == UnknownIcon || d.Err != nil {
			t.Fatalf("forecast day %d degraded: %+v", i, d)
		}
	}
	if len(report.TemperatureBars) != 24 || len(report.PrecipitationBars) != 24 {
		t.Fatalf("bar counts %d/%d, want 24", len(report.TemperatureBars), len(report.PrecipitationBars))
	}
	if report.PathError() {
		t.Fatalf("no path error expected")
	}
}
