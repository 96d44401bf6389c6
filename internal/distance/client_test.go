package distance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldfleet-backend/config"
)

func osrmServer(t *testing.T, distance float64, requests *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			*requests++
		}
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "false", r.URL.Query().Get("overview"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":"Ok","routes":[{"distance":%g}]}`, distance)
	}))
	t.Cleanup(server.Close)
	return server
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(primary, fallback string) *Client {
	return NewClient(&config.DistanceConfig{
		PrimaryURL:  primary,
		FallbackURL: fallback,
		Timeout:     2 * time.Second,
	})
}

func TestEstimate(t *testing.T) {
	origin := Point{Lat: -6.2, Lng: 106.8}
	destination := Point{Lat: -6.9, Lng: 107.6}
	ctx := context.Background()

	t.Run("primary provider answers", func(t *testing.T) {
		var fallbackHits int
		primary := osrmServer(t, 150000.5, nil)
		fallback := osrmServer(t, 999, &fallbackHits)

		meters, err := newClient(primary.URL, fallback.URL).Estimate(ctx, origin, destination)
		require.NoError(t, err)
		assert.Equal(t, 150000.5, meters)
		assert.Zero(t, fallbackHits, "fallback must not be consulted when the primary answers")
	})

	t.Run("fallback covers a failing primary", func(t *testing.T) {
		primary := failingServer(t)
		fallback := osrmServer(t, 148000, nil)

		meters, err := newClient(primary.URL, fallback.URL).Estimate(ctx, origin, destination)
		require.NoError(t, err)
		assert.Equal(t, float64(148000), meters)
	})

	t.Run("both providers failing yields a lookup error", func(t *testing.T) {
		primary := failingServer(t)
		fallback := failingServer(t)

		_, err := newClient(primary.URL, fallback.URL).Estimate(ctx, origin, destination)
		var lookup *LookupError
		require.ErrorAs(t, err, &lookup)
		assert.Error(t, lookup.Primary)
		assert.Error(t, lookup.Fallback)
	})

	t.Run("no fallback configured", func(t *testing.T) {
		primary := failingServer(t)

		_, err := newClient(primary.URL, "").Estimate(ctx, origin, destination)
		var lookup *LookupError
		require.ErrorAs(t, err, &lookup)
		assert.Error(t, lookup.Primary)
		assert.Nil(t, lookup.Fallback)
		assert.Contains(t, err.Error(), "no fallback provider configured")
	})

	t.Run("a no-route answer is a provider failure", func(t *testing.T) {
		primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
		}))
		t.Cleanup(primary.Close)
		fallback := osrmServer(t, 42, nil)

		meters, err := newClient(primary.URL, fallback.URL).Estimate(ctx, origin, destination)
		require.NoError(t, err)
		assert.Equal(t, float64(42), meters)
	})
}
