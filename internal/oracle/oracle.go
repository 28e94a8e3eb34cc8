// Package oracle exposes the cost functions a route optimizer consumes:
// transport cost, transport time and raw distance between two locations.
package oracle

import (
	"context"
	"distance-oracle/internal/domain"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultAverageSpeed = 1.0

// Contract the oracle needs from the distance resolver.
type DistanceResolver interface {
	Resolve(ctx context.Context, from, to domain.Coordinates) (float64, error)
	Misses() int64
}

// CostOracle answers cost queries on demand instead of from a precomputed matrix.
// It holds no routing state of its own; all three cost functions are pure
// functions of their inputs and the shared cache behind the resolver.
//
// The oracle is safe for concurrent use.
type CostOracle struct {
	resolver     DistanceResolver
	averageSpeed float64
	logger       *zap.Logger
}

// New builds an oracle. averageSpeed of 0 selects DefaultAverageSpeed.
func New(resolver DistanceResolver, averageSpeed float64, logger *zap.Logger) (*CostOracle, error) {
	if resolver == nil {
		return nil, errors.New("new cost oracle: resolver is nil")
	}
	if averageSpeed == 0 {
		averageSpeed = DefaultAverageSpeed
	}
	if averageSpeed < 0 || math.IsNaN(averageSpeed) || math.IsInf(averageSpeed, 0) {
		return nil, fmt.Errorf("new cost oracle: average speed must be a positive number, got %v", averageSpeed)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CostOracle{resolver: resolver, averageSpeed: averageSpeed, logger: logger}, nil
}

// Distance returns the resolved distance between two locations, unmodified.
func (o *CostOracle) Distance(ctx context.Context, from, to domain.Location) (float64, error) {
	fc, err := from.Coords()
	if err != nil {
		return 0, fmt.Errorf("distance: %w", err)
	}
	tc, err := to.Coords()
	if err != nil {
		return 0, fmt.Errorf("distance: %w", err)
	}

	d, err := o.resolver.Resolve(ctx, fc, tc)
	if err != nil {
		return 0, fmt.Errorf("distance %q -> %q: %w", from.ID, to.ID, err)
	}
	return d, nil
}

// TransportCost scales the distance by the vehicle's per-distance-unit rate.
// A nil vehicle, or one without a type, yields the raw distance.
func (o *CostOracle) TransportCost(ctx context.Context, from, to domain.Location, vehicle *domain.Vehicle) (float64, error) {
	d, err := o.Distance(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("transport cost: %w", err)
	}

	return costFor(d, vehicle), nil
}

// TransportTime divides the distance by the configured average speed.
//
// This is not a speed model: with the default speed of 1 it returns the resolved
// value unchanged, and no unit conversion takes place.
func (o *CostOracle) TransportTime(ctx context.Context, from, to domain.Location) (float64, error) {
	d, err := o.Distance(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("transport time: %w", err)
	}
	return d / o.averageSpeed, nil
}

// Costs holds the three cost functions for one ordered pair.
type Costs struct {
	Distance      float64
	TransportTime float64
	TransportCost float64
}

// Costs derives distance, transport time and transport cost from a single
// resolution, so the answers agree and at most one provider call is made.
func (o *CostOracle) Costs(ctx context.Context, from, to domain.Location, vehicle *domain.Vehicle) (Costs, error) {
	d, err := o.Distance(ctx, from, to)
	if err != nil {
		return Costs{}, fmt.Errorf("costs: %w", err)
	}

	return Costs{
		Distance:      d,
		TransportTime: d / o.averageSpeed,
		TransportCost: costFor(d, vehicle),
	}, nil
}

func costFor(d float64, vehicle *domain.Vehicle) float64 {
	if rate, ok := vehicle.PerDistanceRate(); ok {
		return d * rate
	}
	return d
}

// Misses is the diagnostic count of cache misses served by the provider.
func (o *CostOracle) Misses() int64 { return o.resolver.Misses() }

// Prewarm resolves every ordered pair of distinct locations with at most
// concurrency queries in flight, so a subsequent search runs on a warm cache.
// It stops at the first error. The returned count is the number of provider
// calls made while the prewarm ran, which includes calls from concurrent
// callers sharing this oracle.
func (o *CostOracle) Prewarm(ctx context.Context, locations []domain.Location, concurrency int) (int64, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	coords := make([]domain.Coordinates, 0, len(locations))
	for _, l := range locations {
		c, err := l.Coords()
		if err != nil {
			return 0, fmt.Errorf("prewarm: %w", err)
		}
		coords = append(coords, c)
	}

	missesBefore := o.resolver.Misses()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range coords {
		for j := range coords {
			if i == j {
				continue
			}
			from, to := coords[i], coords[j]
			g.Go(func() error {
				if _, err := o.resolver.Resolve(gctx, from, to); err != nil {
					return fmt.Errorf("prewarm %s -> %s: %w", from, to, err)
				}
				return nil
			})
		}
	}

	err := g.Wait()
	calls := o.resolver.Misses() - missesBefore
	if err != nil {
		return calls, err
	}

	o.logger.Info("prewarm complete",
		zap.Int("locations", len(coords)),
		zap.Int64("provider_calls", calls),
	)

	return calls, nil
}
