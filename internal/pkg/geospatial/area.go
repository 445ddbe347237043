package geospatial

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrDegenerateRing is returned for rings with fewer than 3 distinct vertices.
var ErrDegenerateRing = errors.New("ring needs at least 3 distinct vertices")

// Polygons returns every polygon in the collection, flattening multipolygons.
// Non-areal features are ignored.
func Polygons(fc *geojson.FeatureCollection) []orb.Polygon {
	if fc == nil {
		return nil
	}
	var out []orb.Polygon
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			out = append(out, g)
		case orb.MultiPolygon:
			out = append(out, g...)
		}
	}
	return out
}

// CloseRing validates r and returns it closed. The input is not modified.
func CloseRing(r orb.Ring) (orb.Ring, error) {
	if len(r) == 0 {
		return nil, ErrDegenerateRing
	}
	distinct := make(map[orb.Point]struct{}, len(r))
	for _, p := range r {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, ErrDegenerateRing
	}

	out := append(orb.Ring(nil), r...)
	if !out.Closed() {
		out = append(out, out[0])
	}
	return out, nil
}

// GeodesicArea sums the spherical area in square meters of all polygons.
// Holes are subtracted. The result is never negative.
func GeodesicArea(polys []orb.Polygon) float64 {
	var total float64
	for _, p := range polys {
		total += geo.Area(p)
	}
	return total
}

// RoundArea rounds to two decimal places.
func RoundArea(a float64) float64 {
	return math.Round(a*100) / 100
}

// CenterOfMass returns the area-weighted centroid of the polygons, computed in
// planar lon/lat space. A zero-area input falls back to the vertex average.
func CenterOfMass(polys []orb.Polygon) orb.Point {
	if len(polys) == 0 {
		return orb.Point{}
	}

	var g orb.Geometry = orb.MultiPolygon(polys)
	if len(polys) == 1 {
		g = polys[0]
	}

	c, area := planar.CentroidArea(g)
	if area != 0 {
		return c
	}

	var sum orb.Point
	var n float64
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		for _, pt := range p[0] {
			sum[0] += pt[0]
			sum[1] += pt[1]
			n++
		}
	}
	if n == 0 {
		return orb.Point{}
	}
	return orb.Point{sum[0] / n, sum[1] / n}
}
