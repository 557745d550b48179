package domain

import (
	"strconv"
	"strings"
)

// LocationSuggestion is one candidate place returned by a geocoder search.
// PlaceID is unique within a result set only. Lat and Lon are decimal
// degrees kept as text, the way the geocoder reports them.
type LocationSuggestion struct {
	PlaceID     string `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	AddressType string `json:"addresstype"`
}

// allowedPlaceKinds covers settlement address types plus the coarse
// place/administrative tags.
var allowedPlaceKinds = map[string]struct{}{
	"city":           {},
	"town":           {},
	"village":        {},
	"municipality":   {},
	"county":         {},
	"state":          {},
	"country":        {},
	"place":          {},
	"administrative": {},
}

// AllowedPlace reports whether a result with the given class and address
// type is worth suggesting.
func AllowedPlace(class, addressType string) bool {
	if _, ok := allowedPlaceKinds[strings.ToLower(class)]; ok {
		return true
	}
	_, ok := allowedPlaceKinds[strings.ToLower(addressType)]
	return ok
}

// Allowed reports whether s passes the place filter.
func (s LocationSuggestion) Allowed() bool {
	return AllowedPlace(s.Class, s.AddressType)
}

// FilterSuggestions keeps only allowed suggestions, preserving order.
func FilterSuggestions(in []LocationSuggestion) []LocationSuggestion {
	out := make([]LocationSuggestion, 0, len(in))
	for _, s := range in {
		if s.Allowed() {
			out = append(out, s)
		}
	}
	return out
}

// Name returns the display name up to its first comma, trimmed.
func (s LocationSuggestion) Name() string {
	return LocationName(s.DisplayName)
}

// Coordinates parses Lat and Lon. ok is false unless both parse and fall
// within range.
func (s LocationSuggestion) Coordinates() (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(s.Lat), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(s.Lon), 64)
	if err != nil {
		return 0, 0, false
	}
	if !ValidCoordinates(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// LocationName derives a short label from a composite display name:
// "Springfield, Illinois, United States" -> "Springfield".
func LocationName(displayName string) string {
	name, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(name)
}

// ValidCoordinates reports whether lat/lon are finite WGS-84 degrees.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
