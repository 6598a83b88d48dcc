package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/calllog"
	"github.com/i474232898/weatherpi-dashboard/internal/weather/weathertest"
)

func newTestRenderer(reg *Registry) *Renderer {
	return New(Options{
		Geometry: NewGeometry(800, 480),
		Theme:    DefaultTheme(),
		Icons:    reg,
		Locale:   DefaultLocale(),
		AA:       false,
	})
}

func TestWeatherEndToEnd(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 10, 0, 0, time.UTC)
	snap := weathertest.Snapshot(now, 24)
	if err := snap.Validate(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}

	r := newTestRenderer(fullRegistry())
	layer, report := r.Weather(snap, now)

	if layer.Bounds() != r.Geometry().Surface() {
		t.Fatalf("layer bounds %v, want %v", layer.Bounds(), r.Geometry().Surface())
	}
	if report.Icons.Current.ID == UnknownIcon || report.Icons.Current.ID != "c04d" {
		t.Fatalf("unexpected current icon %+v", report.Icons.Current)
	}
	for i, d := range report.Icons.Days {
		if d.ID == UnknownIcon || d.Err != nil {
			t.Fatalf("forecast day %d degraded: %+v", i, d)
		}
	}
	if report.PathError() {
		t.Fatalf("no path error expected")
	}
	if len(report.TemperatureBars) != len(snap.Hourly) || len(report.PrecipitationBars) != len(snap.Hourly) {
		t.Fatalf("bar counts %d/%d, want %d", len(report.TemperatureBars), len(report.PrecipitationBars), len(snap.Hourly))
	}
	if report.MoonAge != MoonAge(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("moon age should come from the first forecast date, got %d", report.MoonAge)
	}
	if _, _, _, a := layer.At(0, 0).RGBA(); a != 0xffff {
		t.Fatalf("weather layer must be opaque")
	}
}

func TestWeatherUsesConfiguredZone(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	// sunrise 06:30 local; the instant is 07:00 local, 06:00 UTC
	snap := weathertest.Snapshot(time.Date(2025, 3, 15, 0, 0, 0, 0, cet), 24)
	instant := time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC)

	zoned := New(Options{
		Geometry: NewGeometry(800, 480),
		Theme:    DefaultTheme(),
		Icons:    fullRegistry(),
		Locale:   DefaultLocale(),
		Location: cet,
	})
	if _, report := zoned.Weather(snap, instant); report.Icons.Current.ID != "c04d" {
		t.Fatalf("current icon %q, want the day variant in the configured zone", report.Icons.Current.ID)
	}

	// without a zone the host's reading of the instant is used as is
	if _, report := newTestRenderer(fullRegistry()).Weather(snap, instant); report.Icons.Current.ID != "c04n" {
		t.Fatalf("current icon %q, want c04n for a UTC reading", report.Icons.Current.ID)
	}
}

func TestWeatherSurvivesEmptyRegistry(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 10, 0, 0, time.UTC)
	r := newTestRenderer(NewRegistry(nil))

	_, report := r.Weather(weathertest.Snapshot(now, 23), now)
	if !report.PathError() {
		t.Fatalf("expected path error with no icons loaded")
	}
	if len(report.TemperatureBars) != 23 {
		t.Fatalf("charts must still be drawn, got %d bars", len(report.TemperatureBars))
	}
}

func TestTimeAndDynamicLayersAreTransparent(t *testing.T) {
	r := newTestRenderer(fullRegistry())
	layer := image.NewRGBA(r.Geometry().Surface())

	r.Time(layer, time.Date(2025, 3, 15, 12, 11, 0, 0, time.UTC))
	r.Dynamic(layer, Flags{Connection: true}, []calllog.Record{{Type: calllog.Missed, Number: "0301234"}})

	if _, _, _, a := layer.At(layer.Bounds().Dx()/2, layer.Bounds().Dy()-1).RGBA(); a != 0 {
		t.Fatalf("untouched pixels of overlay layers must stay transparent")
	}
	painted := false
	for y := 0; y < 120 && !painted; y++ {
		for x := 0; x < layer.Bounds().Dx(); x++ {
			if _, _, _, a := layer.At(x, y).RGBA(); a != 0 {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Fatalf("time layer drew nothing")
	}
}

func TestGeometry(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		zoom       float64
		surfW      int
		surfH      int
		offX, offY int
	}{
		{name: "reference", w: 800, h: 480, zoom: 1, surfW: 800, surfH: 480},
		{name: "landscape larger", w: 1024, h: 600, zoom: 1.25, surfW: 1000, surfH: 600, offX: 12},
		{name: "square", w: 640, h: 640, zoom: 0.6, surfW: 480, surfH: 288, offX: 80, offY: 176},
		{name: "small portrait", w: 480, h: 800, zoom: 0.6, surfW: 480, surfH: 288, offY: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeometry(tt.w, tt.h)
			if g.Zoom != tt.zoom || g.SurfaceWidth != tt.surfW || g.SurfaceHeight != tt.surfH {
				t.Fatalf("got zoom %v surface %dx%d", g.Zoom, g.SurfaceWidth, g.SurfaceHeight)
			}
			if g.Offset != image.Pt(tt.offX, tt.offY) {
				t.Fatalf("got offset %v", g.Offset)
			}
		})
	}
}

func TestPlacement(t *testing.T) {
	g := NewGeometry(800, 480)
	if x := g.LeftX(50); x != 60 {
		t.Fatalf("LeftX = %d", x)
	}
	if x := g.RightX(100, 30); x != 660 {
		t.Fatalf("RightX = %d", x)
	}
	if x := g.CenterX(100, 1, 0, 0); x != 350 {
		t.Fatalf("CenterX = %d", x)
	}
	if x := g.CenterX(100, 4, 2, 10); x != 460 {
		t.Fatalf("CenterX(4,2) = %d", x)
	}
}

func TestFitKeepsAspect(t *testing.T) {
	c := Canvas{Dst: image.NewRGBA(image.Rect(0, 0, 10, 10)), Geo: NewGeometry(800, 480)}

	wide := c.Fit(image.NewRGBA(image.Rect(0, 0, 200, 100)), 40)
	if wide.Bounds().Dx() != 40 || wide.Bounds().Dy() != 20 {
		t.Fatalf("wide image scaled to %v", wide.Bounds())
	}
	tall := c.Fit(image.NewRGBA(image.Rect(0, 0, 50, 100)), 40)
	if tall.Bounds().Dx() != 20 || tall.Bounds().Dy() != 40 {
		t.Fatalf("tall image scaled to %v", tall.Bounds())
	}
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32" width="32" height="32">
<circle cx="16" cy="16" r="12" fill="#000000"/></svg>`

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		"c01d.png":    buf.Bytes(),
		"sunrise.svg": []byte(testSVG),
		"broken.png":  []byte("not a png"),
		".hidden.png": buf.Bytes(),
		"notes.txt":   []byte("x"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reg.Has("c01d") || !reg.Has("sunrise") {
		t.Fatalf("expected c01d and sunrise, got %v", reg.IDs())
	}
	if reg.Has("broken") || reg.Has("") {
		t.Fatalf("broken and hidden files must not be registered: %v", reg.IDs())
	}
	if len(reg.Skipped()) != 2 {
		t.Fatalf("expected broken.png and notes.txt to be skipped, got %v", reg.Skipped())
	}

	svg, _ := reg.Icon("sunrise")
	if svg.Bounds().Dx() != 256 {
		t.Fatalf("small svg should be rasterized at 256px, got %v", svg.Bounds())
	}
	if _, err := reg.Icon("nope"); err == nil {
		t.Fatalf("expected missing asset error")
	}

	if _, err := LoadRegistry(filepath.Join(dir, "absent")); err == nil {
		t.Fatalf("expected error for a missing directory")
	}
}
