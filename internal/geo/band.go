package geo

import "math"

// Band is a distance interval [Min, Max), or [Min, Max] when Closed is set.
type Band struct {
	Min    float64
	Max    float64
	Closed bool
}

// Contains reports whether d lies inside the band.
func (b Band) Contains(d float64) bool {
	if d < b.Min {
		return false
	}
	if b.Closed {
		return d <= b.Max
	}
	return d < b.Max
}

// Within is the closed band [0, max].
func Within(max float64) Band {
	return Band{Min: 0, Max: max, Closed: true}
}

// RingCount is the number of one-unit rings a pulse of the given reach
// expands through. A reach below one unit still produces a single ring.
func RingCount(maxDistance float64) int {
	n := int(math.Floor(maxDistance))
	if n < 1 {
		return 1
	}
	return n
}

// Ring returns the band processed at propagation step k (1-based) of a pulse
// with the given reach. Ring k covers [k-1, k) and the last ring is closed at
// maxDistance, so every distance in [0, maxDistance] belongs to exactly one ring.
func Ring(k int, maxDistance float64) Band {
	if k >= RingCount(maxDistance) {
		return Band{Min: float64(k - 1), Max: maxDistance, Closed: true}
	}
	return Band{Min: float64(k - 1), Max: float64(k)}
}

// Box is a latitude/longitude rectangle used to prefilter candidate rows.
type Box struct {
	MinLatitude, MaxLatitude   float64
	MinLongitude, MaxLongitude float64
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLatitude && p.Latitude <= b.MaxLatitude &&
		p.Longitude >= b.MinLongitude && p.Longitude <= b.MaxLongitude
}

// BoundingBox returns a rectangle that contains every point within radius of
// center (unit u), widened by margin degrees on each side. Boxes that would
// wrap a pole or the antimeridian are widened to the full longitude range.
func BoundingBox(center Point, radius float64, u Unit, margin float64) Box {
	dLat := degrees(radius/u.EarthRadius()) + margin
	box := Box{
		MinLatitude:  math.Max(-90, center.Latitude-dLat),
		MaxLatitude:  math.Min(90, center.Latitude+dLat),
		MinLongitude: -180,
		MaxLongitude: 180,
	}
	if box.MinLatitude <= -90 || box.MaxLatitude >= 90 {
		return box
	}

	cos := math.Cos(radians(math.Max(math.Abs(box.MinLatitude), math.Abs(box.MaxLatitude))))
	dLng := degrees(radius/u.EarthRadius())/cos + margin
	minLng, maxLng := center.Longitude-dLng, center.Longitude+dLng
	if dLng >= 180 || minLng < -180 || maxLng > 180 {
		return box
	}
	box.MinLongitude, box.MaxLongitude = minLng, maxLng
	return box
}

// Grid snaps coordinates to a coarse grid of 10^-precision degrees.
type Grid struct {
	scale float64
}

// NewGrid with precision 2 gives cells of 0.01 degrees (about 1.1 km).
func NewGrid(precision int) Grid {
	if precision < 0 {
		precision = 0
	}
	return Grid{scale: math.Pow(10, float64(precision))}
}

// Snap rounds p to the nearest grid node.
func (g Grid) Snap(p Point) Point {
	return Point{
		Latitude:  math.Round(p.Latitude*g.scale) / g.scale,
		Longitude: math.Round(p.Longitude*g.scale) / g.scale,
	}
}

// Margin is the largest per-axis displacement Snap can introduce.
func (g Grid) Margin() float64 {
	return 0.5 / g.scale
}
