package dto

// LocationRequest is a location in request bodies. Coordinates is [x, y]
// (longitude, latitude) and may be omitted.
type LocationRequest struct {
	ID          string      `json:"id"`
	Coordinates *[2]float64 `json:"coordinates"`
}

type VehicleRequest struct {
	ID              string   `json:"id"`
	PerDistanceUnit *float64 `json:"per_distance_unit"`
}

type CostRequest struct {
	From    LocationRequest `json:"from"`
	To      LocationRequest `json:"to"`
	Vehicle *VehicleRequest `json:"vehicle"`
}

type CostResponse struct {
	Distance      float64 `json:"distance"`
	TransportTime float64 `json:"transport_time"`
	TransportCost float64 `json:"transport_cost"`
}

type PrewarmRequest struct {
	Locations   []LocationRequest `json:"locations"`
	Concurrency int               `json:"concurrency"`
}

// ProviderCalls counts provider queries made while the prewarm ran.
type PrewarmResponse struct {
	Pairs         int   `json:"pairs"`
	ProviderCalls int64 `json:"provider_calls"`
}
