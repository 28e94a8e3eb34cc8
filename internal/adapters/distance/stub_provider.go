package distance

import (
	"context"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/ports"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type StubPair struct {
	From, To domain.Coordinates
	Seconds  float64
	Meters   float64
	// Err, when set, is returned instead of a result.
	Err error
}

// StubProvider is a deterministic in-memory RouteProvider that counts calls.
// Unknown pairs fail with ErrNoRouteFound.
type StubProvider struct {
	m     map[string]StubPair
	delay time.Duration
	calls atomic.Int64

	mu      sync.Mutex
	perPair map[string]int
}

func NewStubProvider(pairs []StubPair) *StubProvider {
	m := make(map[string]StubPair, len(pairs))
	for _, p := range pairs {
		m[stubKey(p.From, p.To)] = p
	}
	return &StubProvider{m: m, perPair: map[string]int{}}
}

// WithDelay makes every query block for d (or until ctx is done).
func (p *StubProvider) WithDelay(d time.Duration) *StubProvider {
	p.delay = d
	return p
}

func (p *StubProvider) Query(ctx context.Context, from, to domain.Coordinates) (ports.RouteResult, error) {
	key := stubKey(from, to)

	p.calls.Inc()
	p.mu.Lock()
	p.perPair[key]++
	p.mu.Unlock()

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ports.RouteResult{}, fmt.Errorf("stub provider: %w: %w", ports.ErrProviderTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	pair, ok := p.m[key]
	if !ok {
		return ports.RouteResult{}, fmt.Errorf("stub provider: missing pair %s -> %s: %w", from, to, ports.ErrNoRouteFound)
	}
	if pair.Err != nil {
		return ports.RouteResult{}, pair.Err
	}

	return ports.RouteResult{DistanceMeters: pair.Meters, DurationSeconds: pair.Seconds}, nil
}

// Calls returns the total number of queries received.
func (p *StubProvider) Calls() int64 { return p.calls.Load() }

// CallsFor returns the number of queries received for one ordered pair.
func (p *StubProvider) CallsFor(from, to domain.Coordinates) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perPair[stubKey(from, to)]
}

func stubKey(from, to domain.Coordinates) string {
	return from.Canonical() + "|" + to.Canonical()
}
