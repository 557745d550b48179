// Package ipapi provides the device location capability for the terminal
// client, backed by IP geolocation.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// Locator implements domain.Locator using the ip-api.com JSON endpoint.
type Locator struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLocator creates an IP geolocation locator.
func NewLocator(baseURL string, timeout time.Duration, logger *slog.Logger) *Locator {
	return &Locator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Locate returns the approximate position of the caller's public IP. Every
// failure maps to domain.ErrLocationUnavailable.
func (l *Locator) Locate(ctx context.Context) (lat, lon float64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json/?fields=status,message,lat,lon,city", nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: create request: %w", domain.ErrLocationUnavailable, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: ip-api status %d", domain.ErrLocationUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("%w: decode response: %w", domain.ErrLocationUnavailable, err)
	}
	if body.Status != "success" {
		return 0, 0, fmt.Errorf("%w: %s", domain.ErrLocationUnavailable, body.Message)
	}
	if !domain.ValidCoordinates(body.Lat, body.Lon) {
		return 0, 0, fmt.Errorf("%w: coordinates out of range", domain.ErrLocationUnavailable)
	}

	l.logger.Debug("located by ip", "city", body.City)
	return body.Lat, body.Lon, nil
}

type response struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}
