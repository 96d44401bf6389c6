package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"coldfleet-backend/config"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Estimator resolves a driving distance in meters for an origin/destination
// pair. Implementations call external routing providers and may fail.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination Point) (float64, error)
}

// LookupError reports that every configured provider failed. No distance is
// available and the caller must not persist a placeholder.
type LookupError struct {
	Primary  error
	Fallback error
}

func (e *LookupError) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("distance lookup failed: %v (no fallback provider configured)", e.Primary)
	}
	return fmt.Sprintf("distance lookup failed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *LookupError) Unwrap() error {
	return e.Primary
}

// Client queries an OSRM-compatible routing service, falling back to a
// secondary provider when the primary call fails.
type Client struct {
	primaryURL  string
	fallbackURL string
	client      *http.Client
}

// NewClient creates a distance client from configuration.
func NewClient(cfg *config.DistanceConfig) *Client {
	return &Client{
		primaryURL:  cfg.PrimaryURL,
		fallbackURL: cfg.FallbackURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Estimate tries the primary provider, then the fallback. Both failing
// yields a *LookupError.
func (c *Client) Estimate(ctx context.Context, origin, destination Point) (float64, error) {
	meters, primaryErr := c.query(ctx, c.primaryURL, origin, destination)
	if primaryErr == nil {
		return meters, nil
	}

	if c.fallbackURL == "" {
		return 0, &LookupError{Primary: primaryErr}
	}

	meters, fallbackErr := c.query(ctx, c.fallbackURL, origin, destination)
	if fallbackErr == nil {
		return meters, nil
	}
	return 0, &LookupError{Primary: primaryErr, Fallback: fallbackErr}
}

// routeResponse is the OSRM route API shape; only the fields we read.
type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (c *Client) query(ctx context.Context, baseURL string, origin, destination Point) (float64, error) {
	if baseURL == "" {
		return 0, fmt.Errorf("provider URL is not configured")
	}

	// OSRM expects lng,lat ordering.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		baseURL, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var routeResp routeResponse
	if err := json.Unmarshal(body, &routeResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal route response: %w", err)
	}

	if routeResp.Code != "Ok" || len(routeResp.Routes) == 0 {
		return 0, fmt.Errorf("provider returned no route (code %q)", routeResp.Code)
	}

	return routeResp.Routes[0].Distance, nil
}
