package distance

import (
	"bytes"
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

const defaultORSBaseURL = "https://api.openrouteservice.org"

type directionsOptions struct {
	AvoidFeatures []string `json:"avoid_features"`
}

type orsDirectionsRequest struct {
	Coordinates [][]float64       `json:"coordinates"`
	Units       string            `json:"units"`
	Options     directionsOptions `json:"options"`
}

type orsLeg struct {
	Distance *float64 `json:"distance"`
	Duration *float64 `json:"duration"`
}

type orsDirectionsResponse struct {
	Routes []struct {
		Segments []orsLeg `json:"segments"`
	} `json:"routes"`
}

// ORSDirectionsProvider implements RouteProvider using OpenRouteService directions.
// Ferries are avoided and distances are requested in meters.
//
// The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	apiClient
	profile string
	logger  *zap.Logger
}

func NewORSDirectionsProvider(
	apiKey string,
	baseURL string,
	profile string,
	timeout time.Duration,
	logger *zap.Logger,
) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	if profile == "" {
		profile = "driving-car"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ORSDirectionsProvider{
		apiClient: apiClient{
			session: &http.Client{Timeout: timeout},
			baseURL: baseURL,
			auth: func(req *http.Request) {
				req.Header.Set("Authorization", apiKey)
			},
		},
		profile: profile,
		logger:  logger,
	}, nil
}

// Query returns the duration of the first segment of the first route.
func (o *ORSDirectionsProvider) Query(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, o.logger, "ors.directions")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)

	payload, err := json.Marshal(orsDirectionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
		Units:       "m",
		Options:     directionsOptions{AvoidFeatures: []string{"ferries"}},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	req, err := o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ORS directions request: %w", err)
	}

	resp, err := o.do(req)
	if err != nil {
		// ORS answers 404 when either point is unroutable or no route exists.
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return ports.RouteResult{}, fmt.Errorf("ORS directions %s -> %s: %w: %w", from, to, ports.ErrNoRouteFound, err)
		}
		return ports.RouteResult{}, fmt.Errorf("ORS directions %s -> %s: %w", from, to, classify(ctx, err))
	}
	defer resp.Body.Close()

	var dr orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.RouteResult{}, fmt.Errorf(
			"ORS directions %s -> %s: decode response: %w: %w",
			from, to, ports.ErrProviderUnavailable, err,
		)
	}

	if len(dr.Routes) == 0 {
		return ports.RouteResult{}, fmt.Errorf("ORS directions %s -> %s: no routes: %w", from, to, ports.ErrNoRouteFound)
	}

	segments := dr.Routes[0].Segments
	if len(segments) == 0 || segments[0].Duration == nil {
		return ports.RouteResult{}, fmt.Errorf("ORS directions %s -> %s: route has no segments: %w", from, to, ports.ErrNoRouteFound)
	}

	seconds := *segments[0].Duration
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ports.RouteResult{}, fmt.Errorf("ORS directions %s -> %s: invalid duration %v: %w", from, to, seconds, ports.ErrNoRouteFound)
	}

	result := ports.RouteResult{DurationSeconds: seconds}
	if segments[0].Distance != nil {
		result.DistanceMeters = *segments[0].Distance
	}

	return result, nil
}
