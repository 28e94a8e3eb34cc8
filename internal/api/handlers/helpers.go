package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"distance-oracle/internal/api/dto"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/platform/obs"
	"distance-oracle/internal/ports"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, msg string) {
	writeJSON(w, r, logger, status, map[string]string{"error": msg})
}

// decodeBody decodes exactly one JSON object with no unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// allowMethod writes a 405 and returns false when r does not use method.
func allowMethod(w http.ResponseWriter, r *http.Request, logger *zap.Logger, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, logger, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func toLocation(l dto.LocationRequest) domain.Location {
	loc := domain.Location{ID: l.ID}
	if l.Coordinates != nil {
		loc.Coordinates = &domain.Coordinates{X: l.Coordinates[0], Y: l.Coordinates[1]}
	}
	return loc
}

// statusFor maps oracle errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingCoordinate):
		return http.StatusUnprocessableEntity, "location is missing a coordinate"
	case errors.Is(err, ports.ErrNoRouteFound):
		return http.StatusUnprocessableEntity, "no route found"
	case errors.Is(err, ports.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "routing provider timed out"
	case errors.Is(err, ports.ErrProviderUnavailable):
		return http.StatusBadGateway, "routing provider unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeOracleError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
	}
	writeError(w, r, logger, status, msg)
}
