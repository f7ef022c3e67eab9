package geo

import "math"

// Direction is one of the eight compass points.
type Direction string

const (
	North     Direction = "N"
	NorthEast Direction = "NE"
	East      Direction = "E"
	SouthEast Direction = "SE"
	South     Direction = "S"
	SouthWest Direction = "SW"
	West      Direction = "W"
	NorthWest Direction = "NW"
)

var compass = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// InitialBearing returns the initial great-circle bearing from a to b in
// degrees, normalized to [0,360).
func InitialBearing(a, b Point) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLng := radians(b.Longitude - a.Longitude)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	angle := math.Mod(degrees(math.Atan2(y, x))+360, 360)
	if angle >= 360 {
		angle = 0
	}
	return angle
}

// Bearing buckets the initial bearing from a to b into 45 degree sectors
// centered on the cardinal and intercardinal points. Identical points yield N.
func Bearing(a, b Point) Direction {
	index := int(math.Round(InitialBearing(a, b)/45)) % 8
	return compass[index]
}
