package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// Health provides a minimal liveness check endpoint.
func Health(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, logger, http.MethodGet) {
			return
		}
		writeJSON(w, r, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
