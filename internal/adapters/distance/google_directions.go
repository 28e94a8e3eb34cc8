package distance

import (
	"context"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/platform/obs"
	"distance-oracle/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com"

type googleValue struct {
	Value float64 `json:"value"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance *googleValue `json:"distance"`
			Duration *googleValue `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// GoogleDirectionsProvider implements RouteProvider with the Google Directions API.
// Every query requests driving mode, avoids ferries and uses metric units.
//
// The provider is safe for concurrent use.
type GoogleDirectionsProvider struct {
	apiClient
	apiKey string
	logger *zap.Logger
}

func NewGoogleDirectionsProvider(
	apiKey string,
	baseURL string,
	timeout time.Duration,
	logger *zap.Logger,
) (*GoogleDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google directions api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GoogleDirectionsProvider{
		apiClient: apiClient{
			session: &http.Client{Timeout: timeout},
			baseURL: baseURL,
		},
		apiKey: apiKey,
		logger: logger,
	}, nil
}

// Query returns the duration of the first leg of the first route.
func (g *GoogleDirectionsProvider) Query(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, g.logger, "google.directions")(&err)

	endpoint := g.baseURL + "/maps/api/directions/json"

	req, err := g.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("google directions request: %w", err)
	}

	q := req.URL.Query()
	q.Set("origin", from.LatLng())
	q.Set("destination", to.LatLng())
	q.Set("mode", "driving")
	q.Set("avoid", "ferries")
	q.Set("units", "metric")
	q.Set("key", g.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := g.do(req)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("google directions %s -> %s: %w", from, to, classify(ctx, err))
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, fmt.Errorf(
			"google directions %s -> %s: decode response: %w: %w",
			from, to, ports.ErrProviderUnavailable, err,
		)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return ports.RouteResult{}, fmt.Errorf("google directions %s -> %s: status %s: %w", from, to, decoded.Status, ports.ErrNoRouteFound)
	default:
		return ports.RouteResult{}, fmt.Errorf(
			"google directions %s -> %s: status %s %s: %w",
			from, to, decoded.Status, decoded.ErrorMessage, ports.ErrProviderUnavailable,
		)
	}

	if len(decoded.Routes) == 0 {
		return ports.RouteResult{}, fmt.Errorf("google directions %s -> %s: no routes: %w", from, to, ports.ErrNoRouteFound)
	}

	legs := decoded.Routes[0].Legs
	if len(legs) == 0 || legs[0].Duration == nil {
		return ports.RouteResult{}, fmt.Errorf("google directions %s -> %s: route has no legs: %w", from, to, ports.ErrNoRouteFound)
	}

	seconds := legs[0].Duration.Value
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ports.RouteResult{}, fmt.Errorf("google directions %s -> %s: invalid duration %v: %w", from, to, seconds, ports.ErrNoRouteFound)
	}

	result := ports.RouteResult{DurationSeconds: seconds}
	if legs[0].Distance != nil {
		result.DistanceMeters = legs[0].Distance.Value
	}

	return result, nil
}
