package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weatherpi-dashboard/internal/calllog"
	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

// forecastColumns is the number of day columns; the seventh column shows the moon.
const forecastColumns = 6

const kmPerMile = 1.609

// Locale carries unit system, labels and Go time layouts.
type Locale struct {
	Tag               language.Tag
	Metric            bool
	FeelsLike         string
	MoonLabel         string
	DateFormat        string
	TimeFormat        string
	ForecastDayFormat string
	SunFormat         string
}

// DefaultLocale is metric English.
func DefaultLocale() Locale {
	return Locale{
		Tag:               language.AmericanEnglish,
		Metric:            true,
		FeelsLike:         "feels like",
		MoonLabel:         "Moon",
		DateFormat:        "Monday, 2 January",
		TimeFormat:        "15:04",
		ForecastDayFormat: "Mon",
		SunFormat:         "15:04",
	}
}

// ParseLocaleTag accepts "de-DE" as well as POSIX style "de_DE".
func ParseLocaleTag(iso string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(iso, "_", "-"))
}

// Flags are the advisory error states shown on the dynamic layer.
type Flags struct {
	Connection bool `json:"connection_error"`
	Refresh    bool `json:"refresh_error"`
	Path       bool `json:"path_error"`
	CallLog    bool `json:"calllog_error"`
}

// Options configures a Renderer.
type Options struct {
	Geometry Geometry
	Theme    Theme
	Fonts    *Fonts
	Icons    *Registry
	Locale   Locale
	AA       bool
	// Location is the zone the snapshot's wall times are in. Nil keeps the
	// zone of the time passed to Weather and Time.
	Location *time.Location
}

// Report summarises what a weather render produced.
type Report struct {
	Icons             IconSet
	TemperatureBars   []Bar
	PrecipitationBars []Bar
	MoonAge           int
}

// PathError reports whether an icon fell back to UnknownIcon.
func (r Report) PathError() bool {
	return r.Icons.PathError()
}

// Renderer draws the weather, dynamic and time layers.
type Renderer struct {
	geo    Geometry
	theme  Theme
	fonts  *Fonts
	icons  *Registry
	locale Locale
	aa     bool
	loc    *time.Location
	title  cases.Caser
}

func New(opts Options) *Renderer {
	if opts.Fonts == nil {
		opts.Fonts = FallbackFonts()
	}
	if opts.Icons == nil {
		opts.Icons = NewRegistry(nil)
	}
	if opts.Geometry.SurfaceWidth == 0 {
		opts.Geometry = NewGeometry(RefWidth, RefHeight)
	}
	return &Renderer{
		geo:    opts.Geometry,
		theme:  opts.Theme,
		fonts:  opts.Fonts,
		icons:  opts.Icons,
		locale: opts.Locale,
		aa:     opts.AA,
		loc:    opts.Location,
		title:  cases.Title(opts.Locale.Tag),
	}
}

// Geometry returns the layout geometry.
func (r *Renderer) Geometry() Geometry {
	return r.geo
}

// Background is the colour frames are cleared to.
func (r *Renderer) Background() color.Color {
	return r.theme.Background
}

// local moves now into the configured zone.
func (r *Renderer) local(now time.Time) time.Time {
	if r.loc == nil {
		return now
	}
	return now.In(r.loc)
}

func (r *Renderer) canvas(dst draw.Image) Canvas {
	return Canvas{Dst: dst, Geo: r.geo, AA: r.aa}
}

func (r *Renderer) face(style Style, size float64) font.Face {
	return r.fonts.Face(style, size*r.geo.Zoom)
}

func (r *Renderer) tempUnit() string {
	if r.locale.Metric {
		return "°C"
	}
	return "°F"
}

// Weather renders a complete, opaque weather layer for snap.
func (r *Renderer) Weather(snap weather.Snapshot, now time.Time) (*image.RGBA, Report) {
	now = r.local(now)
	loc := now.Location()
	layer := image.NewRGBA(r.geo.Surface())
	draw.Draw(layer, layer.Bounds(), image.NewUniform(r.theme.Background), image.Point{}, draw.Src)
	c := r.canvas(layer)
	sz := r.theme.Sizes

	report := Report{Icons: ResolveIcons(snap, now, r.icons)}

	// current condition
	r.drawIcon(c, report.Icons.Current.ID, 120, 30, 80)

	unit := r.tempUnit()
	c.Text(strconv.Itoa(int(math.Round(snap.Current.Temperature))), r.face(Regular, sz.Huge), r.theme.Black, 90).Right(560)
	c.Text(unit, r.face(Regular, sz.Big), r.theme.Black, 101).Right(530)
	feels := fmt.Sprintf("%s %.1f%s", r.locale.FeelsLike, snap.Current.ApparentTemperature, unit)
	c.Text(strings.TrimSpace(feels), r.face(Regular, sz.Medium), r.theme.Black, 155).Right(530)

	// forecast columns
	smallBold := r.face(Bold, sz.Small)
	for i := 0; i < forecastColumns && i < len(snap.Daily); i++ {
		day := snap.Daily[i]
		label := day.Date
		if t, err := day.ParseDate(loc); err == nil {
			label = r.title.String(t.Format(r.locale.ForecastDayFormat))
		}
		c.Text(label, smallBold, r.theme.MainFont, 360).Left(110*float64(i) + 50)

		temps := fmt.Sprintf("%d° / %d°", int(day.TemperatureMax), int(day.TemperatureMin))
		c.Text(temps, smallBold, r.theme.MainFont, 447).Center(1, 0, 110*float64(i)-330)

		r.drawIcon(c, report.Icons.Days[i].ID, 70, 110*float64(i)+35, 375)
	}

	// moon
	c.Text(r.locale.MoonLabel, smallBold, r.theme.MainFont, 360).Left(110*forecastColumns + 50)
	if len(snap.Daily) > 0 {
		if first, err := snap.Daily[0].ParseDate(loc); err == nil {
			report.MoonAge = MoonAge(first)
			moon := Moon(report.MoonAge, r.geo.Scale(60), r.aa, r.theme.MoonLight, r.theme.MoonDark)
			c.blit(moon, r.geo.Scale(708), r.geo.Scale(385))
		}
	}

	r.drawGrid(c, snap, loc)

	// hourly strips
	tempSpec := ChartSpec{
		X: chartX(710), Y: 230, Width: 710, Height: 45, CapWidth: 2, LowerOffset: 10, LabelEvery: 4,
		Fill: r.theme.Yellow, Cap: r.theme.DarkYellow,
	}
	report.TemperatureBars = Bars(snap.Temperatures(), tempSpec)
	c.DrawChart(report.TemperatureBars, tempSpec)
	r.labelTemperatures(c, snap, now, report.TemperatureBars, tempSpec)

	precipSpec := ChartSpec{
		X: chartX(710), Y: 325, Width: 710, Height: 15, CapWidth: 2, LabelEvery: 3,
		Range: &[2]float64{0, 100},
		Fill:  r.theme.Blue, Cap: r.theme.DarkBlue,
	}
	report.PrecipitationBars = Bars(snap.PrecipitationProbabilities(), precipSpec)
	c.DrawChart(report.PrecipitationBars, precipSpec)
	for _, b := range report.PrecipitationBars {
		if !b.Label {
			continue
		}
		c.Text(fmt.Sprintf("%d%%", int(math.Round(b.Value))), smallBold, r.theme.Black,
			precipSpec.Y+b.Top+precipSpec.CapWidth-22).Left(b.X0 + 30)
	}

	return layer, report
}

func (r *Renderer) drawIcon(c Canvas, id string, size, x, y float64) {
	img, err := r.icons.Icon(id)
	if err != nil {
		if img, err = r.icons.Icon(UnknownIcon); err != nil {
			return
		}
	}
	c.ImageAt(img, size, x, y)
}

func (r *Renderer) drawGrid(c Canvas, snap weather.Snapshot, loc *time.Location) {
	cur := snap.Current
	sunrise, sunset := cur.Sunrise, cur.Sunset
	if rise, set, err := cur.SunTimes(loc); err == nil {
		sunrise, sunset = rise.Format(r.locale.SunFormat), set.Format(r.locale.SunFormat)
	}

	wind, windUnit := cur.WindSpeed, "km/h"
	if !r.locale.Metric {
		wind, windUnit = wind/kmPerMile, "mph"
	}

	grid := [6]struct {
		icon string
		text string
	}{
		{"sunset", sunset},
		{"sunrise", sunrise},
		{"humidity", formatNumber(cur.Humidity) + "%"},
		{"wind", fmt.Sprintf("%.1f %s", wind, windUnit)},
		{"uvi", formatNumber(cur.UVIndex)},
		{"pressure", formatNumber(cur.Pressure) + " mbar"},
	}

	face := r.face(Bold, r.theme.Sizes.Medium)
	for x := 0; x < 2; x++ {
		for y := 0; y < 3; y++ {
			cell := grid[y*2+x]
			c.Text(cell.text, face, r.theme.MainFont, 105+44*float64(y)).Center(1, 0, -225*float64(x)+315)
			if img, err := r.icons.Icon(cell.icon); err == nil {
				c.Image(img, 40, 95+44*float64(y)).Right(225*float64(x) + 150)
			}
		}
	}
}

// labelTemperatures writes the value above every labelled bar and the hour under it.
func (r *Renderer) labelTemperatures(c Canvas, snap weather.Snapshot, now time.Time, bars []Bar, spec ChartSpec) {
	valueFace := r.face(Bold, r.theme.Sizes.Small)
	hourFace := r.face(Regular, r.theme.Sizes.Smallest)
	for i, b := range bars {
		if !b.Label {
			continue
		}
		value := fmt.Sprintf("%d%s", int(math.Round(b.Value)), r.tempUnit())
		c.Text(value, valueFace, r.theme.Black, spec.Y+b.Top+spec.CapWidth-22).Left(b.X0 + 30)

		hour := now.Add(time.Duration(i+1) * time.Hour)
		if i < len(snap.Hourly) {
			if t, err := time.ParseInLocation(weather.TimeLayout, snap.Hourly[i].Time, now.Location()); err == nil {
				hour = t
			}
		}
		c.Text(fmt.Sprintf("%02d:00", hour.Hour()), hourFace, r.theme.Black, spec.Y+spec.Height+14).Left(b.X0 + 27)
	}
}

// Time draws the date and the clock, rounded up to the next five minutes,
// onto a transparent layer.
func (r *Renderer) Time(dst draw.Image, now time.Time) {
	c := r.canvas(dst)
	t := common.RoundUp(r.local(now), 5)
	date := r.title.String(t.Format(r.locale.DateFormat))
	c.Text(date, r.face(Bold, r.theme.Sizes.Date), r.theme.MainFont, 68).Center(1, 0, 0)
	c.Text(t.Format(r.locale.TimeFormat), r.face(Bold, r.theme.Sizes.Clock), r.theme.MainFont, 0).Center(1, 0, 0)
}

// Dynamic draws the status markers and the most recent call onto a transparent layer.
func (r *Renderer) Dynamic(dst draw.Image, flags Flags, calls []calllog.Record) {
	c := r.canvas(dst)
	face := r.face(Bold, r.theme.Sizes.Smallest)

	var marks []string
	if flags.Connection {
		marks = append(marks, "NET")
	}
	if flags.Refresh {
		marks = append(marks, "DATA")
	}
	if flags.Path {
		marks = append(marks, "ICON")
	}
	if flags.CallLog {
		marks = append(marks, "CALL")
	}
	if len(marks) > 0 {
		c.Text(strings.Join(marks, " "), face, r.theme.Alert, 2).Left(0)
	}

	if len(calls) > 0 {
		last := calls[0]
		col := r.theme.MainFont
		if last.Type == calllog.Missed {
			col = r.theme.Alert
		}
		text := fmt.Sprintf("%s %s %02d.%02d. %02d:%02d", last.Type, last.Number,
			last.Time.Day, last.Time.Month, last.Time.Hour, last.Time.Minute)
		c.Text(text, face, col, 2).Right(0)
	}
}

// formatNumber prints v without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
