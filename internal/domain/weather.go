package domain

import (
	"fmt"
	"strings"
)

// UnitSystem selects the measurement units a provider reports in.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// ParseUnitSystem accepts "metric" or "imperial" (case-insensitive). An empty
// string yields Metric, matching the service default.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Metric):
		return Metric, nil
	case string(Imperial):
		return Imperial, nil
	default:
		return "", fmt.Errorf("%w: unknown unit system %q", ErrInvalidQuery, s)
	}
}

// Valid reports whether u is one of the known unit systems.
func (u UnitSystem) Valid() bool {
	return u == Metric || u == Imperial
}

// Toggle returns the other unit system.
func (u UnitSystem) Toggle() UnitSystem {
	if u == Imperial {
		return Metric
	}
	return Imperial
}

// TemperatureSymbol is "C" for metric and "F" for imperial.
func (u UnitSystem) TemperatureSymbol() string {
	if u == Imperial {
		return "F"
	}
	return "C"
}

// WeatherSnapshot is one current-conditions reading. Snapshots are replaced
// wholesale on every successful fetch, never merged.
type WeatherSnapshot struct {
	Name     string       `json:"name"`
	Main     MainReadings `json:"main"`
	Weather  []Condition  `json:"weather"`
	Wind     Wind         `json:"wind"`
	Clouds   Clouds       `json:"clouds"`
	Sys      SysInfo      `json:"sys"`
	Timezone int          `json:"timezone,omitempty"` // UTC offset in seconds
}

// MainReadings holds temperatures (in the requested units), pressure in hPa
// and relative humidity in percent.
type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

// Condition is a short condition code ("Clouds") with its description.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Wind speed is m/s for metric and mph for imperial; Deg is meteorological
// degrees.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

// Clouds carries cloud cover in percent.
type Clouds struct {
	All float64 `json:"all"`
}

// SysInfo carries the ISO country code and sunrise/sunset as epoch seconds.
type SysInfo struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// Current returns the primary weather condition.
func (w WeatherSnapshot) Current() (Condition, bool) {
	if len(w.Weather) == 0 {
		return Condition{}, false
	}
	return w.Weather[0], true
}

// Validate checks the invariants every snapshot must satisfy before it is
// handed to callers.
// Coordinate lookups over open water may legitimately carry an empty name,
// so only the condition list is checked.
func (w WeatherSnapshot) Validate() error {
	if len(w.Weather) == 0 {
		return fmt.Errorf("snapshot for %q has no weather conditions", w.Name)
	}
	return nil
}
