// Package openweather fetches current conditions from the OpenWeather API.
// Every call goes through a circuit breaker so that an upstream outage fails
// fast instead of tying up request goroutines.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

const (
	breakerName          = "openweather"
	breakerTripThreshold = 5
	breakerOpenTimeout   = 30 * time.Second
)

// Client implements domain.WeatherProvider against the OpenWeather
// current-weather endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[domain.WeatherSnapshot]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client. baseURL is the API root, e.g.
// https://api.openweathermap.org/data/2.5.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = newBreaker(c.onStateChange)
	return c
}

func newBreaker(onChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker[domain.WeatherSnapshot] {
	return gobreaker.NewCircuitBreaker[domain.WeatherSnapshot](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},
		// A missing city is a healthy answer from the upstream, and a caller
		// hanging up says nothing about it.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: onChange,
	})
}

// ByCity fetches current conditions for a place name.
func (c *Client) ByCity(ctx context.Context, name string, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	params := url.Values{"q": {name}}
	return c.fetch(ctx, domain.LookupCity, params, units)
}

// ByCoordinates fetches current conditions for a position.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	return c.fetch(ctx, domain.LookupCoordinates, params, units)
}

// CheckReadiness reports an error while the circuit breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return errors.New("openweather circuit breaker is open")
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, kind domain.LookupKind, params url.Values, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	params.Set("appid", c.apiKey)
	params.Set("units", string(units))

	snap, err := c.breaker.Execute(func() (domain.WeatherSnapshot, error) {
		start := time.Now()
		defer func() {
			c.metrics.UpstreamDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		}()
		return c.doRequest(ctx, c.baseURL+"/weather?"+params.Encode())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return snap, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: weather request: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: openweather status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: openweather status %d: %s", domain.ErrNotFound, resp.StatusCode, body)
	}

	var snap domain.WeatherSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: decode response: %w", domain.ErrUpstreamUnavailable, err)
	}
	if err := snap.Validate(); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return snap, nil
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	c.metrics.BreakerState.Set(breakerStateValue(to))
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
