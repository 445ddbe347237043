package domain

import "github.com/paulmach/orb"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lon float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// PointFromOrb converts an orb point ([lon, lat]) into a GeoPoint.
func PointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
}

// Orb returns the point in orb's [lon, lat] order.
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// RingFromOrb converts an orb ring into a coordinate sequence.
func RingFromOrb(r orb.Ring) []GeoPoint {
	out := make([]GeoPoint, len(r))
	for i, p := range r {
		out[i] = PointFromOrb(p)
	}
	return out
}

// Pairs returns the coordinates as [lon, lat] pairs, the layout GeoJSON and the
// land API expect.
func Pairs(points []GeoPoint) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p.Lon, p.Lat}
	}
	return out
}
