// Package domain models current-conditions weather lookups and the place
// suggestions that feed them.
//
// # Providers
//
// Weather data comes from the OpenWeather "current weather" endpoint,
// reached through the weather-api service. Snapshots keep the upstream JSON
// shape so the service can pass them through untouched:
//
//	{"name": "London",
//	 "main": {"temp": 11.2, "feels_like": 10.4, "temp_min": 9.8, "temp_max": 12.6,
//	          "pressure": 1012, "humidity": 81},
//	 "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
//	 "wind": {"speed": 4.6, "deg": 240},
//	 "clouds": {"all": 75},
//	 "sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700030000}}
//
// Place suggestions come from an OpenStreetMap Nominatim search. Nominatim
// reports coordinates as decimal strings and tags every result with a coarse
// class ("place", "boundary", "highway", ...) and a fine address type
// ("city", "village", "road", ...). Only settlement-like and administrative
// results are kept; see [AllowedPlace].
//
// # Units
//
// [Metric] reports temperatures in Celsius and wind in metres per second;
// [Imperial] uses Fahrenheit and miles per hour. The unit system is chosen per
// request and never converted locally: switching units means asking again.
//
// # Queries
//
// A [SearchQuery] is either a [CityQuery] (free text) or a
// [CoordinatesQuery] (latitude/longitude plus a display label). Exactly one
// mode is active per query; callers switch on the concrete type.
//
// Committing a suggestion derives the display label from the text before
// the first comma of its display name, so
//
//	"Springfield, Illinois, United States"  →  "Springfield"
//
// and prefers the coordinate path whenever both coordinates parse.
package domain
