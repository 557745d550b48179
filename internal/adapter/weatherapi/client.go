// Package weatherapi is the terminal client's view of the weather service.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// Client implements domain.WeatherProvider over the /api/weather routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a weather service client. baseURL is the service root,
// e.g. http://localhost:8080.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ByCity requests current conditions for a place name.
func (c *Client) ByCity(ctx context.Context, name string, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	u := c.baseURL + "/api/weather/city/" + url.PathEscape(name) + "?" + url.Values{"units": {string(units)}}.Encode()
	return c.get(ctx, u)
}

// ByCoordinates requests current conditions for a position.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"units": {string(units)},
	}
	return c.get(ctx, c.baseURL+"/api/weather/coordinates?"+params.Encode())
}

// get performs one request. Any non-2xx status is reported as
// domain.ErrNotFound whatever the code.
func (c *Client) get(ctx context.Context, fullURL string) (domain.WeatherSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("weather lookup rejected", "status", resp.StatusCode, "url", fullURL)
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: status %d", domain.ErrNotFound, resp.StatusCode)
	}

	var snap domain.WeatherSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode weather response: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return domain.WeatherSnapshot{}, err
	}
	return snap, nil
}
