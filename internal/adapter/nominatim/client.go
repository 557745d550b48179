package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// ResultLimit is the number of candidates requested per search.
const ResultLimit = 5

// Client implements domain.Searcher using the Nominatim place search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. requestsPerSecond throttles outgoing
// searches; the public instance allows at most one per second.
func NewClient(baseURL, userAgent string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// Search returns up to ResultLimit allowed places matching query. A blank
// query returns no suggestions without a request.
func (c *Client) Search(ctx context.Context, query string) ([]domain.LocationSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for geocoder slot: %w", err)
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {fmt.Sprint(ResultLimit)},
		"addressdetails": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: nominatim status %d: %s", domain.ErrNotFound, resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]domain.LocationSuggestion, 0, len(places))
	for _, p := range places {
		out = append(out, p.toSuggestion())
	}
	filtered := domain.FilterSuggestions(out)
	c.logger.Debug("geocode search", "query", query, "results", len(places), "allowed", len(filtered))
	return filtered, nil
}

// Nominatim API response types.

type place struct {
	PlaceID     json.Number `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	Class       string      `json:"class"`
	Type        string      `json:"type"`
	AddressType string      `json:"addresstype"`
}

func (p place) toSuggestion() domain.LocationSuggestion {
	return domain.LocationSuggestion{
		PlaceID:     p.PlaceID.String(),
		DisplayName: p.DisplayName,
		Lat:         p.Lat,
		Lon:         p.Lon,
		Class:       p.Class,
		AddressType: p.AddressType,
	}
}
