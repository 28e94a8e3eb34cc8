package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"distance-oracle/internal/domain"
	"distance-oracle/internal/oracle"
	"distance-oracle/internal/platform/obs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixedOracle struct{}

func (fixedOracle) Costs(context.Context, domain.Location, domain.Location, *domain.Vehicle) (oracle.Costs, error) {
	return oracle.Costs{Distance: 1, TransportTime: 1, TransportCost: 1}, nil
}

func (fixedOracle) Prewarm(context.Context, []domain.Location, int) (int64, error) { return 0, nil }

func TestRouterAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := httptest.NewServer(NewRouter(fixedOracle{}, nil, zap.New(core)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reqID := resp.Header.Get("X-Request-ID")
	assert.NotEmpty(t, reqID)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, reqID, fields["req_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestRouterKeepsCallerRequestID(t *testing.T) {
	srv := httptest.NewServer(NewRouter(fixedOracle{}, nil, nil))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRouterServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs.NewMetrics(reg).CacheResult("hit")

	srv := httptest.NewServer(NewRouter(fixedOracle{}, reg, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
