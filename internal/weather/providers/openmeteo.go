package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/common"
	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Window selects how the date range and the hourly strip are aligned.
type Window string

const (
	// WindowForecast requests today..today+7, drops today from the daily series
	// and starts the hourly strip one hour after now (23 entries).
	WindowForecast Window = "forecast"
	// WindowExtended requests today..today+6, keeps today, starts the hourly strip
	// at the current hour (24 entries) and adds precipitation, snowfall and wind direction.
	WindowExtended Window = "extended"
)

// OpenMeteoConfig describes the single location the dashboard shows.
type OpenMeteoConfig struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timezone  string
	Window    Window
	Metric    bool
	// Location interprets "now" for the date window and the hourly offset.
	Location *time.Location
}

// OpenMeteoProvider implements weather.Provider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	cfg     OpenMeteoConfig
	httpCfg common.HTTPClientConfig
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig) *OpenMeteoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenMeteoURL
	}
	if cfg.Window == "" {
		cfg.Window = WindowForecast
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "auto"
	}

	return &OpenMeteoProvider{
		name: "openmeteo",
		cfg:  cfg,
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Breaker: common.NewBreaker("openmeteo"),
		},
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Current struct {
		RelativeHumidity    float64  `json:"relative_humidity_2m"`
		PressureMSL         float64  `json:"pressure_msl"`
		ApparentTemperature float64  `json:"apparent_temperature"`
		WindDirection       *float64 `json:"winddirection_10m"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		RelativeHumidity         []float64 `json:"relativehumidity_2m"`
		WindSpeed                []float64 `json:"windspeed_10m"`
		WeatherCode              []int     `json:"weathercode"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weathercode"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		Sunrise          []string  `json:"sunrise"`
		Sunset           []string  `json:"sunset"`
		UVIndexMax       []float64 `json:"uv_index_max"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		SnowfallSum      []float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

// bounds returns the requested end date offset, the daily slice start and the
// hourly slice bounds relative to the current hour.
func (w Window) bounds(hour int) (days, dailyFrom, hourFrom, hourTo int) {
	if w == WindowExtended {
		return 6, 0, hour, hour + 24
	}
	return 7, 1, hour + 1, hour + 24
}

func (p *OpenMeteoProvider) requestURL(now time.Time) (string, error) {
	days, _, _, _ := p.cfg.Window.bounds(now.Hour())
	today := now.Format(weather.DateLayout)
	last := now.AddDate(0, 0, days).Format(weather.DateLayout)

	hourly := []string{"temperature_2m", "relativehumidity_2m", "windspeed_10m", "weathercode", "precipitation_probability"}
	daily := []string{"weathercode", "temperature_2m_max", "temperature_2m_min", "sunrise", "sunset", "uv_index_max"}
	current := []string{"relative_humidity_2m", "pressure_msl", "apparent_temperature"}
	if p.cfg.Window == WindowExtended {
		daily = append(daily, "precipitation_sum", "snowfall_sum")
		current = append(current, "winddirection_10m")
	}

	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	values := u.Query()
	values.Set("latitude", strconv.FormatFloat(p.cfg.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(p.cfg.Longitude, 'f', -1, 64))
	values.Set("timezone", p.cfg.Timezone)
	values.Set("start_date", today)
	values.Set("end_date", last)
	values.Set("hourly", strings.Join(hourly, ","))
	values.Set("daily", strings.Join(daily, ","))
	values.Set("current", strings.Join(current, ","))
	if !p.cfg.Metric {
		values.Set("temperature_unit", "fahrenheit")
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Fetch performs one GET and flattens the response into a snapshot.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, now time.Time) (weather.Snapshot, error) {
	now = now.In(p.cfg.Location)

	u, err := p.requestURL(now)
	if err != nil {
		return weather.Snapshot{}, err
	}

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequest(ctx, p.httpCfg, buildRequest)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: decode response: %v", weather.ErrNetwork, err)
	}

	return p.flatten(payload, now)
}

func (p *OpenMeteoProvider) flatten(payload openMeteoPayload, now time.Time) (weather.Snapshot, error) {
	hour := now.Hour()
	_, dailyFrom, hourFrom, hourTo := p.cfg.Window.bounds(hour)
	dailyTo := dailyFrom + weather.DailyCount
	extended := p.cfg.Window == WindowExtended

	h := payload.Hourly
	if n := minLen(len(h.Time), len(h.Temperature), len(h.RelativeHumidity), len(h.WindSpeed),
		len(h.WeatherCode), len(h.PrecipitationProbability)); n < hourTo {
		return weather.Snapshot{}, fmt.Errorf("%w: %d hourly values, need %d", weather.ErrShortSeries, n, hourTo)
	}

	d := payload.Daily
	lens := []int{len(d.Time), len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin),
		len(d.Sunrise), len(d.Sunset), len(d.UVIndexMax)}
	if extended {
		lens = append(lens, len(d.PrecipitationSum), len(d.SnowfallSum))
	}
	if n := minLen(lens...); n < dailyTo {
		return weather.Snapshot{}, fmt.Errorf("%w: %d daily values, need %d", weather.ErrShortSeries, n, dailyTo)
	}

	snap := weather.Snapshot{
		FetchedAt: now.UTC(),
		Current: weather.Current{
			Temperature:         h.Temperature[hour],
			ApparentTemperature: payload.Current.ApparentTemperature,
			Humidity:            h.RelativeHumidity[hour],
			RelativeHumidity:    payload.Current.RelativeHumidity,
			Pressure:            payload.Current.PressureMSL,
			WindSpeed:           h.WindSpeed[hour],
			UVIndex:             d.UVIndexMax[0],
			WeatherCode:         h.WeatherCode[hour],
			Sunrise:             d.Sunrise[0],
			Sunset:              d.Sunset[0],
		},
		Daily:  make([]weather.Day, 0, weather.DailyCount),
		Hourly: make([]weather.Hour, 0, hourTo-hourFrom),
	}
	if extended {
		snap.Current.WindDirection = payload.Current.WindDirection
	}

	for i := dailyFrom; i < dailyTo; i++ {
		day := weather.Day{
			Date:           d.Time[i],
			TemperatureMin: d.TemperatureMin[i],
			TemperatureMax: d.TemperatureMax[i],
			WeatherCode:    d.WeatherCode[i],
		}
		if extended {
			precip, snow := d.PrecipitationSum[i], d.SnowfallSum[i]
			day.PrecipitationSum = &precip
			day.SnowfallSum = &snow
		}
		snap.Daily = append(snap.Daily, day)
	}

	for i := hourFrom; i < hourTo; i++ {
		snap.Hourly = append(snap.Hourly, weather.Hour{
			Time:                     h.Time[i],
			Temperature:              h.Temperature[i],
			PrecipitationProbability: h.PrecipitationProbability[i],
		})
	}

	return snap, snap.Validate()
}

func minLen(lens ...int) int {
	if len(lens) == 0 {
		return 0
	}
	m := lens[0]
	for _, l := range lens[1:] {
		if l < m {
			m = l
		}
	}
	return m
}
