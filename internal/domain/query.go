package domain

import (
	"fmt"
	"strings"
)

// SearchQuery is a tagged variant: the concrete type is either CityQuery or
// CoordinatesQuery. The unexported marker keeps other types out.
type SearchQuery interface {
	// Label is the human-readable name of what was searched for.
	Label() string
	searchQuery()
}

// CityQuery searches by free-text place name.
type CityQuery struct {
	Name string
}

// CoordinatesQuery searches by position. DisplayName labels the result in
// the UI when the query came from a committed suggestion.
type CoordinatesQuery struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

func (CityQuery) searchQuery()        {}
func (CoordinatesQuery) searchQuery() {}

func (q CityQuery) Label() string { return q.Name }

func (q CoordinatesQuery) Label() string {
	if q.DisplayName != "" {
		return q.DisplayName
	}
	return fmt.Sprintf("%.4f, %.4f", q.Lat, q.Lon)
}

// QueryFromText builds a city query from raw input. Blank input yields
// ok=false and must not trigger a search.
func QueryFromText(raw string) (q CityQuery, ok bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return CityQuery{}, false
	}
	return CityQuery{Name: name}, true
}

// QueryFromSuggestion resolves a committed suggestion. Suggestions with
// usable coordinates take the coordinate path labeled with the derived
// location name; everything else falls back to a city search by that name.
func QueryFromSuggestion(s LocationSuggestion) SearchQuery {
	name := s.Name()
	if lat, lon, ok := s.Coordinates(); ok {
		return CoordinatesQuery{Lat: lat, Lon: lon, DisplayName: name}
	}
	return CityQuery{Name: name}
}
