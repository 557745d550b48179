package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-lookup/internal/app"
	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/tui"
)

func newLookupCmd(opts *options) *cobra.Command {
	var here bool

	cmd := &cobra.Command{
		Use:   "lookup [city]",
		Short: "Print current conditions for a city or position",
		Example: `  weather lookup Paris
  weather lookup --units imperial New York
  weather lookup --lat 48.8566 --lon 2.3522
  weather lookup --here`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := opts.controller()

			var (
				req app.Request
				ok  bool
			)
			switch {
			case here && len(args) > 0:
				return errors.New("--here cannot be combined with a city")
			case here:
				req, ok = ctrl.UseCurrentLocation()
			case len(args) > 0:
				q, valid := domain.QueryFromText(strings.Join(args, " "))
				if !valid {
					return errors.New("city must not be blank")
				}
				req, ok = ctrl.Search(q)
			case opts.fixed:
				req, ok = ctrl.Search(domain.CoordinatesQuery{Lat: opts.lat, Lon: opts.lon})
			default:
				req, ok = ctrl.Start()
			}
			if ok {
				ctrl.Complete(ctrl.Run(cmd.Context(), req))
			}

			if msg := ctrl.Error(); msg != "" {
				return errors.New(msg)
			}
			snap, found := ctrl.Snapshot()
			if !found {
				return errors.New(app.MsgFetchFailed)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderCard(ctrl.LocationLabel(), snap, ctrl.Units()))
			return err
		},
	}

	cmd.Flags().BoolVar(&here, "here", false, "look up the current location")
	return cmd
}
