// Package geo holds the great-circle helpers used for route distances.
package geo

import (
	"iter"
	"math"
)

const EarthRadiusKm = 6371

// Point is a WGS84 position in degrees with an optional elevation.
type Point struct {
	Lat        float64
	Lon        float64
	ElevationM float64
}

// DistanceKm is the haversine distance between a and b. NaN inputs
// propagate to the result.
func DistanceKm(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Cumulative pairs a point's elevation with its distance from the first point.
type Cumulative struct {
	DistanceKm float64
	ElevationM float64
}

// CumulativeDistances walks points lazily, yielding the running distance
// from the start; the first point is at 0. Each range over the sequence
// starts again from the beginning.
func CumulativeDistances(points []Point) iter.Seq[Cumulative] {
	return func(yield func(Cumulative) bool) {
		var total float64
		for i, p := range points {
			if i > 0 {
				total += DistanceKm(points[i-1], p)
			}
			if !yield(Cumulative{DistanceKm: total, ElevationM: p.ElevationM}) {
				return
			}
		}
	}
}
