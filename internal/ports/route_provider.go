package ports

import (
	"context"
	"distance-oracle/internal/domain"
	"errors"
)

var (
	// ErrProviderUnavailable covers transport failures, non-success statuses and quota rejections.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrProviderTimeout is returned when the provider did not answer in time.
	ErrProviderTimeout = errors.New("routing provider timeout")
	// ErrNoRouteFound is returned when the provider answered without a usable route.
	ErrNoRouteFound = errors.New("no route found")
)

// Travel duration (and distance, when the provider reports it) between two points.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for a single point-to-point driving query against an external routing service.
// Implementations issue exactly one request per call and never retry.
type RouteProvider interface {
	Query(ctx context.Context, from, to domain.Coordinates) (RouteResult, error)
}
