package weather

import (
	"errors"
	"fmt"
	"time"
)

// Layouts of the local timestamps Open-Meteo returns. They carry no zone; the
// configured timezone applies.
const (
	TimeLayout = "2006-01-02T15:04"
	DateLayout = "2006-01-02"
)

// Series lengths a complete snapshot must have.
const (
	DailyCount   = 7
	MinHourCount = 23
	MaxHourCount = 24
)

var (
	// ErrNetwork covers transport failures, non-2xx responses and undecodable bodies.
	ErrNetwork = errors.New("weather: network error")
	// ErrShortSeries is returned when the daily or hourly series is shorter than the layout needs.
	ErrShortSeries = errors.New("weather: series too short")
)

// Snapshot is the flat record written by the fetch job and read by the reload job.
// It is replaced as a whole, never patched.
type Snapshot struct {
	FetchedAt time.Time `json:"fetched_at"` // UTC
	Current   Current   `json:"current"`
	Daily     []Day     `json:"daily"`
	Hourly    []Hour    `json:"hourly"`
}

// Current holds the "now" values. Sunrise and sunset are today's, in TimeLayout.
type Current struct {
	Temperature         float64  `json:"temperature"`
	ApparentTemperature float64  `json:"apparent_temperature"`
	Humidity            float64  `json:"humidity"`
	RelativeHumidity    float64  `json:"relative_humidity"`
	Pressure            float64  `json:"pressure"`
	WindSpeed           float64  `json:"wind_speed"`
	WindDirection       *float64 `json:"wind_direction,omitempty"`
	UVIndex             float64  `json:"uv_index"`
	WeatherCode         int      `json:"weather_code"`
	Sunrise             string   `json:"sunrise"`
	Sunset              string   `json:"sunset"`
}

// Day is one forecast day. Date is in DateLayout.
type Day struct {
	Date             string   `json:"date"`
	TemperatureMin   float64  `json:"temperature_min"`
	TemperatureMax   float64  `json:"temperature_max"`
	WeatherCode      int      `json:"weather_code"`
	PrecipitationSum *float64 `json:"precipitation_sum,omitempty"`
	SnowfallSum      *float64 `json:"snowfall_sum,omitempty"`
}

// Hour is one entry of the hourly strip. Time is in TimeLayout.
type Hour struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
}

// Validate checks the series lengths the render pipeline depends on.
func (s Snapshot) Validate() error {
	if len(s.Daily) != DailyCount {
		return fmt.Errorf("%w: %d daily entries, want %d", ErrShortSeries, len(s.Daily), DailyCount)
	}
	if len(s.Hourly) < MinHourCount || len(s.Hourly) > MaxHourCount {
		return fmt.Errorf("%w: %d hourly entries, want %d..%d", ErrShortSeries, len(s.Hourly), MinHourCount, MaxHourCount)
	}
	return nil
}

// Temperatures returns the hourly temperature series.
func (s Snapshot) Temperatures() []float64 {
	out := make([]float64, len(s.Hourly))
	for i, h := range s.Hourly {
		out[i] = h.Temperature
	}
	return out
}

// PrecipitationProbabilities returns the hourly precipitation probability series.
func (s Snapshot) PrecipitationProbabilities() []float64 {
	out := make([]float64, len(s.Hourly))
	for i, h := range s.Hourly {
		out[i] = h.PrecipitationProbability
	}
	return out
}

// SunTimes parses sunrise and sunset in loc.
func (c Current) SunTimes(loc *time.Location) (sunrise, sunset time.Time, err error) {
	sunrise, err = time.ParseInLocation(TimeLayout, c.Sunrise, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse sunrise %q: %w", c.Sunrise, err)
	}
	sunset, err = time.ParseInLocation(TimeLayout, c.Sunset, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse sunset %q: %w", c.Sunset, err)
	}
	return sunrise, sunset, nil
}

// ParseDate parses the day's date in loc.
func (d Day) ParseDate(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, d.Date, loc)
}
