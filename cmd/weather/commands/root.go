// Package commands implements the weather command line: the interactive
// terminal UI and the one-shot lookup and suggest commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-lookup/internal/adapter/ipapi"
	"github.com/couchcryptid/weather-lookup/internal/adapter/nominatim"
	"github.com/couchcryptid/weather-lookup/internal/adapter/weatherapi"
	"github.com/couchcryptid/weather-lookup/internal/app"
	"github.com/couchcryptid/weather-lookup/internal/config"
	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/observability"
	"github.com/couchcryptid/weather-lookup/internal/tui"
)

const geocoderCacheTTL = 10 * time.Minute

// options carries flag values and the resolved configuration shared by all
// commands.
type options struct {
	apiURL      string
	geocoderURL string
	units       string
	city        string
	lat, lon    float64

	cfg        *config.ClientConfig
	unitSystem domain.UnitSystem
	fixed      bool // --lat/--lon given
	logger     *slog.Logger
	logFile    *os.File
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "weather",
		Short:        "Current weather conditions for any city",
		Long:         "Search for a city with live suggestions and show its current weather.\nRun without a command to start the interactive view.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			opts.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(cmd.Context(), tui.Options{
				Controller: opts.controller(),
				Searcher:   opts.searcher(),
				Logger:     opts.logger,
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api", "", "weather API base URL (default $WEATHER_API_URL)")
	pf.StringVar(&opts.geocoderURL, "geocoder", "", "place search base URL (default $GEOCODER_URL)")
	pf.StringVar(&opts.units, "units", "", "unit system: metric or imperial (default $UNITS)")
	pf.StringVar(&opts.city, "city", "", "city shown at startup (default $DEFAULT_CITY)")
	pf.Float64Var(&opts.lat, "lat", 0, "fixed latitude used as the current location")
	pf.Float64Var(&opts.lon, "lon", 0, "fixed longitude used as the current location")

	root.AddCommand(newLookupCmd(opts), newSuggestCmd(opts))
	return root
}

// load reads the environment and applies flags on top of it.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.WeatherAPIURL = o.apiURL
	}
	if flags.Changed("geocoder") {
		cfg.GeocoderURL = o.geocoderURL
	}
	if flags.Changed("units") {
		cfg.Units = o.units
	}
	if flags.Changed("city") {
		cfg.DefaultCity = o.city
	}
	if flags.Changed("lat") != flags.Changed("lon") {
		return errors.New("--lat and --lon must be given together")
	}
	o.fixed = flags.Changed("lat")
	if o.fixed && !domain.ValidCoordinates(o.lat, o.lon) {
		return errors.New("--lat must be within [-90, 90] and --lon within [-180, 180]")
	}

	units, err := domain.ParseUnitSystem(cfg.Units)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.unitSystem = units

	return o.openLog(cmd)
}

// openLog sends logs to LOG_FILE when set. Otherwise the interactive view
// discards them and one-shot commands write them to stderr.
func (o *options) openLog(cmd *cobra.Command) error {
	var w io.Writer = cmd.ErrOrStderr()
	switch {
	case o.cfg.LogFile != "":
		f, err := os.OpenFile(o.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logFile = f
		w = f
	case !cmd.HasParent():
		o.logger = observability.NewDiscardLogger()
		return nil
	}
	o.logger = observability.NewWriterLogger(w, o.cfg.Log)
	return nil
}

func (o *options) close() {
	if o.logFile != nil {
		_ = o.logFile.Close()
		o.logFile = nil
	}
}

func (o *options) controller() *app.Controller {
	weather := weatherapi.NewClient(o.cfg.WeatherAPIURL, o.cfg.HTTPTimeout, o.logger)
	return app.NewController(weather, o.locator(), app.Options{
		DefaultCity: o.cfg.DefaultCity,
		Units:       o.unitSystem,
		Logger:      o.logger,
	})
}

// locator returns the location capability, or nil when there is none.
func (o *options) locator() domain.Locator {
	if o.fixed {
		return ipapi.StaticLocator{Lat: o.lat, Lon: o.lon}
	}
	if !o.cfg.GeolocationEnabled {
		return nil
	}
	return ipapi.NewLocator(o.cfg.GeolocationURL, o.cfg.HTTPTimeout, o.logger)
}

func (o *options) searcher() domain.Searcher {
	client := nominatim.NewClient(o.cfg.GeocoderURL, o.cfg.GeocoderUserAgent, o.cfg.HTTPTimeout, o.cfg.GeocoderRate, o.logger)
	return nominatim.NewCachedSearcher(client, o.cfg.GeocoderCacheSize, geocoderCacheTTL)
}
