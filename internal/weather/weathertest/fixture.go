// Package weathertest provides snapshot fixtures for tests of packages that consume weather data.
package weathertest

import (
	"fmt"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

// Snapshot returns a complete snapshot with 7 daily and hours hourly entries,
// starting the day after day. Sunrise is 06:30 and sunset 19:45 on day.
func Snapshot(day time.Time, hours int) weather.Snapshot {
	codes := []int{0, 2, 61, 71, 95, 45, 80}

	daily := make([]weather.Day, weather.DailyCount)
	for i := range daily {
		d := day.AddDate(0, 0, i+1)
		daily[i] = weather.Day{
			Date:           d.Format(weather.DateLayout),
			TemperatureMin: float64(2 + i),
			TemperatureMax: float64(10 + i),
			WeatherCode:    codes[i],
		}
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, day.Location())
	hourly := make([]weather.Hour, hours)
	for i := range hourly {
		hourly[i] = weather.Hour{
			Time:                     start.Add(time.Duration(i+1) * time.Hour).Format(weather.TimeLayout),
			Temperature:              8 + float64(i%6),
			PrecipitationProbability: float64((i * 7) % 100),
		}
	}

	date := day.Format(weather.DateLayout)
	return weather.Snapshot{
		FetchedAt: time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC),
		Current: weather.Current{
			Temperature:         9.4,
			ApparentTemperature: 7.1,
			Humidity:            81,
			RelativeHumidity:    80,
			Pressure:            1016.2,
			WindSpeed:           14.3,
			UVIndex:             3.2,
			WeatherCode:         3,
			Sunrise:             fmt.Sprintf("%sT06:30", date),
			Sunset:              fmt.Sprintf("%sT19:45", date),
		},
		Daily:  daily,
		Hourly: hourly,
	}
}
