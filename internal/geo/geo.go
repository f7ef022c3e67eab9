// Package geo implements the geospatial math used for proximity matching:
// great-circle distance, 8-point compass bearing, distance bands and
// coarse bounding boxes for prefiltering stored locations.
package geo

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/bowwow/internal/common"
)

// Unit selects the earth radius used by Distance.
type Unit string

const (
	Mile      Unit = "mile"
	Kilometer Unit = "km"
)

const (
	earthRadiusMiles      = 3959.0
	earthRadiusKilometers = 6371.0
	kilometersPerMile     = earthRadiusKilometers / earthRadiusMiles
)

// ParseUnit accepts "mile"/"mi" and "km"/"kilometer".
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "mile", "mi", "miles":
		return Mile, nil
	case "km", "kilometer", "kilometers":
		return Kilometer, nil
	}
	return "", fmt.Errorf("unknown distance unit %q", s)
}

// EarthRadius returns the mean earth radius expressed in u. Unknown units
// fall back to miles, the default preference of a new user.
func (u Unit) EarthRadius() float64 {
	if u == Kilometer {
		return earthRadiusKilometers
	}
	return earthRadiusMiles
}

// Convert expresses a distance measured in from as a distance in to.
func Convert(d float64, from, to Unit) float64 {
	if from == to {
		return d
	}
	if to == Kilometer {
		return d * kilometersPerMile
	}
	return d / kilometersPerMile
}

// Point is a validated WGS84 coordinate.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPoint returns a Point or common.ErrInvalidLocation when the latitude is
// outside [-90,90] or the longitude outside [-180,180].
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Latitude: lat, Longitude: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", common.ErrInvalidLocation, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", common.ErrInvalidLocation, p.Longitude)
	}
	return nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Distance is the haversine great-circle distance between a and b in unit u.
func Distance(a, b Point, u Unit) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := lat2 - lat1
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * u.EarthRadius() * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
