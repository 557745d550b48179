package domain

import (
	"time"

	"github.com/google/uuid"
)

// LookupKind distinguishes city lookups from coordinate lookups.
type LookupKind string

const (
	LookupCity        LookupKind = "city"
	LookupCoordinates LookupKind = "coordinates"
)

// Lookup outcomes, also used as metric label values.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// LookupEvent records one weather lookup served by the API. Events are
// published to the lookup topic for downstream analytics.
type LookupEvent struct {
	ID         string     `json:"id"`
	Kind       LookupKind `json:"kind"`
	Query      string     `json:"query"`
	Units      UnitSystem `json:"units"`
	Outcome    string     `json:"outcome"`
	CacheHit   bool       `json:"cache_hit"`
	Location   string     `json:"location,omitempty"`
	Country    string     `json:"country,omitempty"`
	Temp       *float64   `json:"temp,omitempty"`
	LookedUpAt time.Time  `json:"looked_up_at"`
}

// NewLookupEvent stamps an event for a lookup. snap may be nil when the
// lookup failed.
func NewLookupEvent(kind LookupKind, query string, units UnitSystem, outcome string, snap *WeatherSnapshot) LookupEvent {
	ev := LookupEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Query:      query,
		Units:      units,
		Outcome:    outcome,
		LookedUpAt: Now(),
	}
	if snap != nil {
		temp := snap.Main.Temp
		ev.Location = snap.Name
		ev.Country = snap.Sys.Country
		ev.Temp = &temp
	}
	return ev
}
