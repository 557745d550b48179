package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

const (
	testUserAgent     = "weather-lookup-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const springfieldResults = `[
  {"place_id": 300123, "display_name": "Springfield, Sangamon County, Illinois, United States", "lat": "39.7990175", "lon": "-89.6439575", "class": "boundary", "type": "administrative", "addresstype": "city"},
  {"place_id": 300456, "display_name": "Springfield Road, Leeds, England", "lat": "53.79", "lon": "-1.55", "class": "highway", "type": "residential", "addresstype": "road"},
  {"place_id": 300789, "display_name": "Springfield, Hampden County, Massachusetts, United States", "lat": "42.1018764", "lon": "-72.5886727", "class": "place", "type": "city", "addresstype": "city"}
]`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Springfield", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(springfieldResults))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	results, err := c.Search(context.Background(), "  Springfield ")
	require.NoError(t, err)

	require.Len(t, results, 2, "the road result should be filtered out")
	assert.Equal(t, "300123", results[0].PlaceID)
	assert.Equal(t, "Springfield, Sangamon County, Illinois, United States", results[0].DisplayName)
	assert.Equal(t, "39.7990175", results[0].Lat)
	assert.Equal(t, "-89.6439575", results[0].Lon)
	assert.Equal(t, "boundary", results[0].Class)
	assert.Equal(t, "city", results[0].AddressType)
	assert.Equal(t, "300789", results[1].PlaceID)
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Search(context.Background(), "Xyzzyqq")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_Search_BlankQuerySkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, called)
}

func TestClient_Search_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`missing user agent`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Search_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_Search_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Search(context.Background(), "Paris")
	require.Error(t, err)
}

func TestClient_Search_CancelledWhileWaitingForLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err, "first search uses the burst token")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Search(ctx, "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
