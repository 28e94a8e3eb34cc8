package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingCoordinate is returned when a location carries no usable coordinate.
var ErrMissingCoordinate = errors.New("coordinate is missing")

// Immutable geographic coordinates (X = longitude, Y = latitude).
type Coordinates struct {
	X float64
	Y float64
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// Canonical returns the "x,y" form with six decimals used to build cache keys.
// Two coordinates are the same point iff their canonical forms are equal.
func (c Coordinates) Canonical() string {
	return fmt.Sprintf("%f,%f", c.X, c.Y)
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.X, c.Y} }

// LatLng returns the "lat,lng" form expected by Google-style APIs.
func (c Coordinates) LatLng() string {
	return fmt.Sprintf("%f,%f", c.Y, c.X)
}

func (c Coordinates) String() string { return c.Canonical() }

// ParseCoordinates parses an "x,y" pair.
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("parse coordinates %q: expected \"x,y\"", s)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse coordinates %q: x: %w", s, err)
	}

	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse coordinates %q: y: %w", s, err)
	}

	c := Coordinates{X: x, Y: y}
	if !c.Valid() {
		return Coordinates{}, fmt.Errorf("parse coordinates %q: %w", s, ErrMissingCoordinate)
	}

	return c, nil
}

// A place the optimizer routes between. Coordinates may be nil when the
// caller never resolved one; cost lookups then fail with ErrMissingCoordinate.
type Location struct {
	ID          string
	Coordinates *Coordinates
}

// NewLocation builds a location with the given coordinates.
func NewLocation(id string, x, y float64) Location {
	return Location{ID: id, Coordinates: &Coordinates{X: x, Y: y}}
}

// Coords returns the location's coordinates or ErrMissingCoordinate.
func (l Location) Coords() (Coordinates, error) {
	if l.Coordinates == nil || !l.Coordinates.Valid() {
		return Coordinates{}, fmt.Errorf("location %q: %w", l.ID, ErrMissingCoordinate)
	}
	return *l.Coordinates, nil
}
