package domain

import "context"

// Searcher finds candidate places for free-text input.
type Searcher interface {
	// Search returns the allowed suggestions for query, in provider order.
	Search(ctx context.Context, query string) ([]LocationSuggestion, error)
}

// WeatherProvider fetches current conditions. Implementations return exactly
// one of a snapshot or an error.
type WeatherProvider interface {
	ByCity(ctx context.Context, name string, units UnitSystem) (WeatherSnapshot, error)
	ByCoordinates(ctx context.Context, lat, lon float64, units UnitSystem) (WeatherSnapshot, error)
}

// Locator reports the device's approximate position.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}
