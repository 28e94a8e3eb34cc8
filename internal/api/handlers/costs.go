package handlers

import (
	"context"
	"net/http"

	"distance-oracle/internal/api/dto"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/oracle"

	"go.uber.org/zap"
)

const maxPrewarmLocations = 200

// Oracle is the slice of the cost oracle the HTTP handlers need.
type Oracle interface {
	Costs(ctx context.Context, from, to domain.Location, vehicle *domain.Vehicle) (oracle.Costs, error)
	Prewarm(ctx context.Context, locations []domain.Location, concurrency int) (int64, error)
}

type CostHandler struct {
	Oracle Oracle
	Logger *zap.Logger
}

// Costs answers distance, transport time and transport cost for one pair
// from a single resolution.
func (h *CostHandler) Costs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.Logger, http.MethodPost) {
		return
	}

	var req dto.CostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.Logger, http.StatusBadRequest, err.Error())
		return
	}

	var vehicle *domain.Vehicle
	if req.Vehicle != nil {
		vehicle = &domain.Vehicle{VehicleID: req.Vehicle.ID}
		if req.Vehicle.PerDistanceUnit != nil {
			if *req.Vehicle.PerDistanceUnit < 0 {
				writeError(w, r, h.Logger, http.StatusBadRequest, "per_distance_unit must not be negative")
				return
			}
			vehicle = domain.NewVehicle(req.Vehicle.ID, *req.Vehicle.PerDistanceUnit)
		}
	}

	costs, err := h.Oracle.Costs(r.Context(), toLocation(req.From), toLocation(req.To), vehicle)
	if err != nil {
		writeOracleError(w, r, h.Logger, "costs", err)
		return
	}

	writeJSON(w, r, h.Logger, http.StatusOK, dto.CostResponse{
		Distance:      costs.Distance,
		TransportTime: costs.TransportTime,
		TransportCost: costs.TransportCost,
	})
}

// Prewarm resolves every ordered pair of the given locations into the cache.
func (h *CostHandler) Prewarm(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.Logger, http.MethodPost) {
		return
	}

	var req dto.PrewarmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.Logger, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Locations) > maxPrewarmLocations {
		writeError(w, r, h.Logger, http.StatusBadRequest, "too many locations")
		return
	}
	if req.Concurrency < 0 || req.Concurrency > 32 {
		writeError(w, r, h.Logger, http.StatusBadRequest, "concurrency must be between 0 and 32")
		return
	}

	locs := make([]domain.Location, 0, len(req.Locations))
	for _, l := range req.Locations {
		locs = append(locs, toLocation(l))
	}

	calls, err := h.Oracle.Prewarm(r.Context(), locs, req.Concurrency)
	if err != nil {
		writeOracleError(w, r, h.Logger, "prewarm", err)
		return
	}

	n := len(locs)
	writeJSON(w, r, h.Logger, http.StatusOK, dto.PrewarmResponse{
		Pairs:         n * (n - 1),
		ProviderCalls: calls,
	})
}
