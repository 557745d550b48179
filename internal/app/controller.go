// Package app holds the application state of the weather client: the last
// search, the unit system, the loading gate and the outcome of the most
// recent fetch.
//
// Controller methods that mutate state are meant to be called from a single
// event loop. A fetch is split in three steps so the loop never blocks:
// Begin-style methods (Start, Search, UseCurrentLocation, SetUnits) update
// state and return a Request, Run performs the network calls for it on any
// goroutine, and Complete applies the Result back on the loop.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// User-facing error messages.
const (
	MsgCityNotFound           = "City not found"
	MsgLocationNotFound       = "Location not found"
	MsgFetchFailed            = "Failed to fetch weather data"
	MsgGeolocationUnsupported = "Geolocation is not supported"
	MsgLocationUnavailable    = "Unable to retrieve your location"
)

// Options configures a Controller.
type Options struct {
	DefaultCity string
	Units       domain.UnitSystem
	Logger      *slog.Logger
}

// Request is a fetch started by the controller. A request with a nil query
// resolves the device position first.
type Request struct {
	seq   uint64
	query domain.SearchQuery
	units domain.UnitSystem
}

// Query returns the search the request runs, or nil for a location request.
func (r Request) Query() domain.SearchQuery { return r.query }

// Units returns the unit system the request runs under.
func (r Request) Units() domain.UnitSystem { return r.units }

// Result is the outcome of running a Request. Exactly one of Snapshot and
// Err is meaningful.
type Result struct {
	seq      uint64
	query    domain.SearchQuery
	Snapshot domain.WeatherSnapshot
	Err      error
}

// Controller is the application state machine.
type Controller struct {
	weather     domain.WeatherProvider
	locator     domain.Locator
	defaultCity string
	logger      *slog.Logger

	units     domain.UnitSystem
	lastQuery domain.SearchQuery
	loading   bool
	seq       uint64
	errMsg    string
	snapshot  *domain.WeatherSnapshot
}

// NewController creates a controller. locator may be nil when the platform
// has no location capability.
func NewController(weather domain.WeatherProvider, locator domain.Locator, opts Options) *Controller {
	if !opts.Units.Valid() {
		opts.Units = domain.Metric
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		weather:     weather,
		locator:     locator,
		defaultCity: opts.DefaultCity,
		logger:      opts.Logger,
		units:       opts.Units,
	}
}

// Units returns the current unit system.
func (c *Controller) Units() domain.UnitSystem { return c.units }

// Loading reports whether a primary fetch is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Error returns the message of the last failed attempt, or "".
func (c *Controller) Error() string { return c.errMsg }

// LastQuery returns the search a unit change would replay.
func (c *Controller) LastQuery() domain.SearchQuery { return c.lastQuery }

// Snapshot returns the current weather, if any.
func (c *Controller) Snapshot() (domain.WeatherSnapshot, bool) {
	if c.snapshot == nil {
		return domain.WeatherSnapshot{}, false
	}
	return *c.snapshot, true
}

// LocationLabel names the displayed weather. A committed suggestion's name
// takes precedence over the provider's station name.
func (c *Controller) LocationLabel() string {
	if q, ok := c.lastQuery.(domain.CoordinatesQuery); ok && q.DisplayName != "" {
		return q.DisplayName
	}
	if c.snapshot != nil {
		return c.snapshot.Name
	}
	return ""
}

// Start fetches the default city. It is a no-op when no default is set.
func (c *Controller) Start() (Request, bool) {
	q, ok := domain.QueryFromText(c.defaultCity)
	if !ok {
		return Request{}, false
	}
	return c.Search(q)
}

// Search begins a fetch for q and records it as the last query. It is
// refused while another fetch is loading.
func (c *Controller) Search(q domain.SearchQuery) (Request, bool) {
	if c.loading || q == nil {
		return Request{}, false
	}
	c.lastQuery = q
	return c.begin(q), true
}

// UseCurrentLocation begins a fetch for the device position. Without a
// location capability the error is set immediately and nothing is fetched.
func (c *Controller) UseCurrentLocation() (Request, bool) {
	if c.loading {
		return Request{}, false
	}
	if c.locator == nil {
		c.errMsg = MsgGeolocationUnsupported
		return Request{}, false
	}
	return c.begin(nil), true
}

// SetUnits switches the unit system and replays the last query under it.
// Changes while loading are ignored, as is selecting the current unit.
func (c *Controller) SetUnits(u domain.UnitSystem) (Request, bool) {
	if c.loading || !u.Valid() || u == c.units {
		return Request{}, false
	}
	c.units = u
	if c.lastQuery == nil {
		return Request{}, false
	}
	return c.begin(c.lastQuery), true
}

// ToggleUnits flips between metric and imperial.
func (c *Controller) ToggleUnits() (Request, bool) {
	return c.SetUnits(c.units.Toggle())
}

func (c *Controller) begin(q domain.SearchQuery) Request {
	c.seq++
	c.loading = true
	c.errMsg = ""
	return Request{seq: c.seq, query: q, units: c.units}
}

// Run performs the network calls for req. It only reads immutable
// controller fields and is safe to call off the event loop.
func (c *Controller) Run(ctx context.Context, req Request) Result {
	res := Result{seq: req.seq, query: req.query}

	if res.query == nil {
		lat, lon, err := c.locator.Locate(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrGeolocationUnsupported) {
				err = errors.Join(domain.ErrLocationUnavailable, err)
			}
			res.Err = err
			return res
		}
		res.query = domain.CoordinatesQuery{Lat: lat, Lon: lon}
	}

	switch q := res.query.(type) {
	case domain.CityQuery:
		res.Snapshot, res.Err = c.weather.ByCity(ctx, q.Name, req.units)
	case domain.CoordinatesQuery:
		res.Snapshot, res.Err = c.weather.ByCoordinates(ctx, q.Lat, q.Lon, req.units)
	}
	return res
}

// Complete applies a finished fetch. Results of superseded requests are
// ignored. Loading is cleared on every outcome.
func (c *Controller) Complete(res Result) {
	if res.seq != c.seq || !c.loading {
		return
	}
	c.loading = false

	if res.Err != nil {
		c.errMsg = c.message(res.query, res.Err)
		// A refused location never reached the weather service, so the
		// displayed weather stays.
		if !errors.Is(res.Err, domain.ErrLocationUnavailable) {
			c.snapshot = nil
		}
		c.logger.Info("weather fetch failed", "query", label(res.query), "units", c.units, "error", res.Err)
		return
	}

	// A located position becomes the last query so unit changes replay it.
	c.lastQuery = res.query
	snap := res.Snapshot
	c.snapshot = &snap
	c.errMsg = ""
	c.logger.Debug("weather fetched", "query", label(res.query), "units", c.units, "location", snap.Name)
}

func (c *Controller) message(q domain.SearchQuery, err error) string {
	switch {
	case errors.Is(err, domain.ErrGeolocationUnsupported):
		return MsgGeolocationUnsupported
	case errors.Is(err, domain.ErrLocationUnavailable):
		return MsgLocationUnavailable
	case errors.Is(err, domain.ErrNotFound):
		if _, ok := q.(domain.CoordinatesQuery); ok {
			return MsgLocationNotFound
		}
		return MsgCityNotFound
	default:
		return MsgFetchFailed
	}
}

func label(q domain.SearchQuery) string {
	if q == nil {
		return ""
	}
	return q.Label()
}
