package ipapi

import (
	"context"
	"fmt"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// StaticLocator always reports the same position, e.g. one given on the
// command line.
type StaticLocator struct {
	Lat, Lon float64
}

func (s StaticLocator) Locate(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	if !domain.ValidCoordinates(s.Lat, s.Lon) {
		return 0, 0, fmt.Errorf("%w: coordinates out of range", domain.ErrLocationUnavailable)
	}
	return s.Lat, s.Lon, nil
}
