package aprs

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is wrapped by out-of-range coordinate construction.
var ErrInvalidCoordinate = errors.New("aprs: invalid coordinate")

// Coordinate is a WGS84 point. Valid instances come from NewCoordinate.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinate rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180].
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, lon)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// roundCoord rounds to the 6 decimal places position reports are stored at.
func roundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
