package api

import (
	"net/http"

	"distance-oracle/internal/api/handlers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(oracle handlers.Oracle, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	costs := &handlers.CostHandler{Oracle: oracle, Logger: logger}

	mux.HandleFunc("/health", handlers.Health(logger))
	mux.HandleFunc("/costs", costs.Costs)
	mux.HandleFunc("/prewarm", costs.Prewarm)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return requestIDMiddleware(loggingMiddleware(logger, mux))
}
