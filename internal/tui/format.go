package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// metersPerSecondToKmh converts the metric wind speed the provider reports.
const metersPerSecondToKmh = 3.6

func formatTemp(v float64, units domain.UnitSystem) string {
	return fmt.Sprintf("%.0f°%s", math.Round(v), units.TemperatureSymbol())
}

// formatWind renders wind speed in km/h for metric and mph for imperial.
// Metric readings arrive in m/s, imperial ones already in mph.
func formatWind(speed float64, units domain.UnitSystem) string {
	if units == domain.Imperial {
		return fmt.Sprintf("%.1f mph", speed)
	}
	return fmt.Sprintf("%.1f km/h", speed*metersPerSecondToKmh)
}

// formatClock renders an epoch time as wall-clock time at the location,
// given its offset from UTC in seconds.
func formatClock(epoch int64, offsetSeconds int) string {
	if epoch <= 0 {
		return "--:--"
	}
	zone := time.FixedZone("", offsetSeconds)
	return time.Unix(epoch, 0).In(zone).Format("15:04")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// RenderCard renders the current conditions card. Outside a terminal the
// styles degrade to plain text.
func RenderCard(label string, snap domain.WeatherSnapshot, units domain.UnitSystem) string {
	title := label
	if snap.Sys.Country != "" {
		title += ", " + snap.Sys.Country
	}

	condition := ""
	if c, ok := snap.Current(); ok {
		condition = capitalize(c.Description)
	}

	lines := []string{
		cardTitleStyle.Render(title),
		tempStyle.Render(formatTemp(snap.Main.Temp, units)) + "  " + condition,
		"",
		fmt.Sprintf("Feels like %s   High %s   Low %s",
			formatTemp(snap.Main.FeelsLike, units),
			formatTemp(snap.Main.TempMax, units),
			formatTemp(snap.Main.TempMin, units)),
		fmt.Sprintf("Wind %s   Humidity %.0f%%   Pressure %.0f hPa   Clouds %.0f%%",
			formatWind(snap.Wind.Speed, units),
			snap.Main.Humidity,
			snap.Main.Pressure,
			snap.Clouds.All),
		fmt.Sprintf("Sunrise %s   Sunset %s",
			formatClock(snap.Sys.Sunrise, snap.Timezone),
			formatClock(snap.Sys.Sunset, snap.Timezone)),
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
