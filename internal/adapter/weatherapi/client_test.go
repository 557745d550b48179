package weatherapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

const parisJSON = `{"name":"Paris","main":{"temp":20,"feels_like":19.5,"temp_min":18,"temp_max":22,"pressure":1016,"humidity":52},"weather":[{"id":800,"main":"Clear","description":"clear sky","icon":"01d"}],"wind":{"speed":3.1,"deg":200},"clouds":{"all":0},"sys":{"country":"FR","sunrise":1717905000,"sunset":1717963000}}`

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ByCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/weather/city/New York", r.URL.Path)
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(parisJSON))
	}))
	defer srv.Close()

	snap, err := testClient(srv.URL+"/").ByCity(context.Background(), "New York", domain.Imperial)
	require.NoError(t, err)
	assert.Equal(t, "Paris", snap.Name)
	assert.InDelta(t, 20, snap.Main.Temp, 1e-9)
}

func TestClient_ByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/weather/coordinates", r.URL.Path)
		assert.Equal(t, "39.799", r.URL.Query().Get("lat"))
		assert.Equal(t, "-89.644", r.URL.Query().Get("lon"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(parisJSON))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ByCoordinates(context.Background(), 39.799, -89.644, domain.Metric)
	require.NoError(t, err)
}

func TestClient_AnyNonSuccessIsNotFound(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			snap, err := testClient(srv.URL).ByCity(context.Background(), "Nonexistentville", domain.Metric)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.Empty(t, snap.Name, "no snapshot alongside an error")
		})
	}
}

func TestClient_TransportFailureIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).ByCity(context.Background(), "Paris", domain.Metric)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ByCity(context.Background(), "Paris", domain.Metric)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
