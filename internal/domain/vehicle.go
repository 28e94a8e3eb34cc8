package domain

// Per-unit cost rates owned by the optimizer's vehicle model.
type VehicleCostParams struct {
	PerDistanceUnit float64
}

// VehicleType groups vehicles sharing the same cost parameters.
type VehicleType struct {
	TypeID     string
	CostParams VehicleCostParams
}

// Delivery vehicle as seen by the cost oracle. Type may be nil, in which case
// no rate applies and transport cost equals distance.
type Vehicle struct {
	VehicleID string
	Type      *VehicleType
}

func NewVehicle(id string, perDistanceUnit float64) *Vehicle {
	return &Vehicle{
		VehicleID: id,
		Type: &VehicleType{
			TypeID:     id,
			CostParams: VehicleCostParams{PerDistanceUnit: perDistanceUnit},
		},
	}
}

// PerDistanceRate returns the vehicle's per-distance-unit rate, if it has one.
func (v *Vehicle) PerDistanceRate() (float64, bool) {
	if v == nil || v.Type == nil {
		return 0, false
	}
	return v.Type.CostParams.PerDistanceUnit, true
}
