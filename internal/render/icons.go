package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

// UnknownIcon is drawn wherever an icon cannot be resolved.
const UnknownIcon = "unknown"

var ErrUnknownWeatherCode = errors.New("unknown weather code")

// wmoIcons maps WMO weather codes to base icon ids.
var wmoIcons = map[int]string{
	0:  "c01", // clear sky
	1:  "c02", // mainly clear
	2:  "c03", // partly cloudy
	3:  "c04", // overcast
	45: "a05", // fog
	48: "a05", // depositing rime fog
	51: "d01", // drizzle
	53: "d02",
	55: "d03",
	56: "f01", // freezing drizzle
	57: "f01",
	61: "r01", // rain
	63: "r02",
	65: "r03",
	66: "f01", // freezing rain
	67: "f01",
	71: "s01", // snow fall
	73: "s02",
	75: "s03",
	77: "s01", // snow grains
	80: "r04", // rain showers
	81: "r05",
	82: "r06",
	85: "s01", // snow showers
	86: "s02",
	95: "t02", // thunderstorm
	96: "t05", // thunderstorm with hail
	99: "t05",
}

// IconBase returns the base icon id for a WMO code.
func IconBase(code int) (string, error) {
	base, ok := wmoIcons[code]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownWeatherCode, code)
	}
	return base, nil
}

// IconChecker is satisfied by *Registry.
type IconChecker interface {
	Has(id string) bool
}

// IconResult is a resolved icon id. On failure ID is UnknownIcon and Err says why.
type IconResult struct {
	ID  string
	Err error
}

// IconSet holds the current condition icon and one icon per forecast day.
type IconSet struct {
	Current IconResult
	Days    [weather.DailyCount]IconResult
}

// PathError reports whether any entry fell back to UnknownIcon.
func (s IconSet) PathError() bool {
	if s.Current.Err != nil {
		return true
	}
	for _, d := range s.Days {
		if d.Err != nil {
			return true
		}
	}
	return false
}

// Failures returns every entry that fell back.
func (s IconSet) Failures() []error {
	var errs []error
	if s.Current.Err != nil {
		errs = append(errs, s.Current.Err)
	}
	for _, d := range s.Days {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}

// IsNight compares now with today's sunrise and sunset. Only the time of day of
// sunrise and sunset is used, on now's date. Exactly at sunrise or sunset is day.
func IsNight(now, sunrise, sunset time.Time) bool {
	loc := now.Location()
	y, m, d := now.Date()
	rise := time.Date(y, m, d, sunrise.Hour(), sunrise.Minute(), 0, 0, loc)
	set := time.Date(y, m, d, sunset.Hour(), sunset.Minute(), 0, 0, loc)
	return now.After(set) || now.Before(rise)
}

// ResolveIcons picks the icon ids for a snapshot. The current condition gets a
// "d" or "n" suffix from the sun times; forecast days always use "d". Every miss
// degrades only its own entry.
func ResolveIcons(snap weather.Snapshot, now time.Time, icons IconChecker) IconSet {
	var set IconSet

	suffix := "d"
	if rise, sunset, err := snap.Current.SunTimes(now.Location()); err == nil && IsNight(now, rise, sunset) {
		suffix = "n"
	}
	set.Current = resolve(snap.Current.WeatherCode, suffix, icons)

	for i := range set.Days {
		if i >= len(snap.Daily) {
			set.Days[i] = IconResult{ID: UnknownIcon, Err: fmt.Errorf("day %d: %w", i, weather.ErrShortSeries)}
			continue
		}
		set.Days[i] = resolve(snap.Daily[i].WeatherCode, "d", icons)
	}
	return set
}

func resolve(code int, suffix string, icons IconChecker) IconResult {
	base, err := IconBase(code)
	if err != nil {
		return IconResult{ID: UnknownIcon, Err: err}
	}
	id := base + suffix
	if !icons.Has(id) {
		return IconResult{ID: UnknownIcon, Err: &MissingAssetError{ID: id}}
	}
	return IconResult{ID: id}
}

// IconIDs lists every weather icon id the table can produce, both variants.
func IconIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, base := range wmoIcons {
		for _, s := range []string{"d", "n"} {
			if id := base + s; !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
