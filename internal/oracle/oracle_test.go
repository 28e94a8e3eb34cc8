package oracle

import (
	"context"
	"distance-oracle/internal/adapters/cache"
	"distance-oracle/internal/adapters/distance"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/ports"
	"distance-oracle/internal/resolver"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hub   = domain.NewLocation("HUB", -112.074, 33.4484)
	stopA = domain.NewLocation("A", -111.9261, 33.4255)
	stopB = domain.NewLocation("B", -111.8315, 33.4152)
)

func pairs() []distance.StubPair {
	h, a, b := *hub.Coordinates, *stopA.Coordinates, *stopB.Coordinates
	return []distance.StubPair{
		{From: h, To: a, Seconds: 300},
		{From: h, To: b, Seconds: 600},
		{From: a, To: h, Seconds: 310},
		{From: a, To: b, Seconds: 240},
		{From: b, To: h, Seconds: 620},
		{From: b, To: a, Seconds: 250},
	}
}

func newTestOracle(t *testing.T, provider *distance.StubProvider, detour, speed float64) *CostOracle {
	t.Helper()

	store, err := cache.NewMemoryStore(128)
	require.NoError(t, err)

	r, err := resolver.New(store, provider, resolver.Options{DetourFactor: detour})
	require.NoError(t, err)

	o, err := New(r, speed, nil)
	require.NoError(t, err)
	return o
}

func TestTransportCostAppliesVehicleRate(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)
	ctx := context.Background()

	raw, err := o.Distance(ctx, hub, stopA)
	require.NoError(t, err)
	assert.Equal(t, 300.0, raw)

	cost, err := o.TransportCost(ctx, hub, stopA, domain.NewVehicle("truck", 3))
	require.NoError(t, err)
	assert.Equal(t, 3*raw, cost)

	cost, err = o.TransportCost(ctx, hub, stopA, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, cost)

	cost, err = o.TransportCost(ctx, hub, stopA, &domain.Vehicle{VehicleID: "untyped"})
	require.NoError(t, err)
	assert.Equal(t, raw, cost)

	assert.Equal(t, int64(1), provider.Calls())
}

func TestTransportTimeDividesBySpeed(t *testing.T) {
	ctx := context.Background()

	identity := newTestOracle(t, distance.NewStubProvider(pairs()), 1, 0)
	tt, err := identity.TransportTime(ctx, hub, stopB)
	require.NoError(t, err)
	assert.Equal(t, 600.0, tt, "default speed of 1 returns the distance unchanged")

	halved := newTestOracle(t, distance.NewStubProvider(pairs()), 1, 2)
	tt, err = halved.TransportTime(ctx, hub, stopB)
	require.NoError(t, err)
	assert.Equal(t, 300.0, tt)
}

func TestDistanceWithDetourFactor(t *testing.T) {
	o := newTestOracle(t, distance.NewStubProvider(pairs()), 2.0, 0)

	d, err := o.Distance(context.Background(), stopA, stopB)
	require.NoError(t, err)
	assert.Equal(t, 480.0, d)
}

func TestOracleSameLocationIsFree(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)

	cost, err := o.TransportCost(context.Background(), hub, hub, domain.NewVehicle("v", 10))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)
	assert.Equal(t, int64(0), provider.Calls())
}

func TestOracleMissingCoordinate(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)
	ctx := context.Background()

	nowhere := domain.Location{ID: "nowhere"}

	_, err := o.Distance(ctx, nowhere, hub)
	assert.ErrorIs(t, err, domain.ErrMissingCoordinate)
	_, err = o.TransportCost(ctx, hub, nowhere, nil)
	assert.ErrorIs(t, err, domain.ErrMissingCoordinate)
	_, err = o.TransportTime(ctx, nowhere, nowhere)
	assert.ErrorIs(t, err, domain.ErrMissingCoordinate)

	assert.Equal(t, int64(0), provider.Calls())
}

func TestOracleIsIdempotentUnderConcurrency(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)
	vehicle := domain.NewVehicle("v", 1.5)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cost, err := o.TransportCost(context.Background(), stopA, stopB, vehicle)
				if assert.NoError(t, err) {
					assert.Equal(t, 360.0, cost)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, provider.Calls(), o.Misses())
}

func TestPrewarmResolvesEveryOrderedPair(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)
	ctx := context.Background()

	locations := []domain.Location{hub, stopA, stopB}
	calls, err := o.Prewarm(ctx, locations, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), calls)
	assert.Equal(t, int64(6), provider.Calls())

	calls, err = o.Prewarm(ctx, locations, 2)
	require.NoError(t, err)
	assert.Zero(t, calls, "second prewarm is served from cache")

	for _, from := range locations {
		for _, to := range locations {
			_, err := o.Distance(ctx, from, to)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, int64(6), provider.Calls(), "prewarmed pairs are served from cache")
}

func TestPrewarmStopsOnError(t *testing.T) {
	provider := distance.NewStubProvider(pairs())
	o := newTestOracle(t, provider, 1, 0)
	ctx := context.Background()

	unknown := domain.NewLocation("X", 0, 0)
	_, err := o.Prewarm(ctx, []domain.Location{hub, unknown}, 1)
	assert.ErrorIs(t, err, ports.ErrNoRouteFound)

	_, err = o.Prewarm(ctx, []domain.Location{hub, {ID: "nowhere"}}, 1)
	assert.ErrorIs(t, err, domain.ErrMissingCoordinate)
}

// downStore fails every read and write.
type downStore struct{}

func (downStore) Get(context.Context, string) (string, error) { return "", ports.ErrCacheUnavailable }

func (downStore) Set(context.Context, string, string, time.Duration) error {
	return ports.ErrCacheUnavailable
}

func (downStore) Close() error { return nil }

func TestCostsResolvesOnce(t *testing.T) {
	provider := distance.NewStubProvider(pairs())

	r, err := resolver.New(downStore{}, provider, resolver.Options{})
	require.NoError(t, err)
	o, err := New(r, 2, nil)
	require.NoError(t, err)

	got, err := o.Costs(context.Background(), hub, stopA, domain.NewVehicle("truck", 3))
	require.NoError(t, err)
	assert.Equal(t, Costs{Distance: 300, TransportTime: 150, TransportCost: 900}, got)
	assert.Equal(t, int64(1), provider.Calls())

	got, err = o.Costs(context.Background(), hub, stopA, nil)
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.TransportCost)

	_, err = o.Costs(context.Background(), hub, domain.Location{ID: "nowhere"}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingCoordinate)
}

func TestNewValidatesSpeed(t *testing.T) {
	r, err := resolver.New(nil, distance.NewStubProvider(nil), resolver.Options{})
	require.NoError(t, err)

	_, err = New(r, -1, nil)
	assert.Error(t, err)

	_, err = New(nil, 1, nil)
	assert.Error(t, err)
}
