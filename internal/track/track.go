// Package track normalizes route geometry from GPX files and live tracker
// feeds into an ordered point list with aggregate statistics.
package track

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/briangreenhill/ranplan/internal/geo"
)

// ErrNoTrack means the document was readable but carried no track points.
// Callers fall back to a synthetic profile.
var ErrNoTrack = errors.New("no track points")

// ParseError wraps a failure to read a structured track document.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type ElevationUnit string

const (
	Meters ElevationUnit = "m"
	Feet   ElevationUnit = "ft"
)

const metersPerFoot = 0.3048

func ParseElevationUnit(s string) (ElevationUnit, error) {
	switch s {
	case "m", "meters", "metres":
		return Meters, nil
	case "ft", "feet":
		return Feet, nil
	}
	return "", fmt.Errorf("unknown elevation unit %q", s)
}

func (u ElevationUnit) toMeters(v float64) float64 {
	if u == Feet {
		return v * metersPerFoot
	}
	return v
}

type Point struct {
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	ElevationM float64    `json:"ele,omitempty"`
	Time       *time.Time `json:"time,omitempty"`
}

func (p Point) toGeo() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon, ElevationM: p.ElevationM}
}

type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

type Stats struct {
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	ElevationGainM  float64 `json:"elevationGainM"`
	ElevationLossM  float64 `json:"elevationLossM"`
	MinElevationM   float64 `json:"minElevationM"`
	MaxElevationM   float64 `json:"maxElevationM"`
	Bounds          Bounds  `json:"bounds"`
}

type Track struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Stats  Stats   `json:"stats"`
}

func (t *Track) GeoPoints() []geo.Point {
	out := make([]geo.Point, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.toGeo()
	}
	return out
}

// ComputeStats makes a single forward pass over points. Min and max
// include the first point's elevation.
func ComputeStats(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}

	first := points[0]
	s := Stats{
		MinElevationM: first.ElevationM,
		MaxElevationM: first.ElevationM,
		Bounds:        Bounds{MinLat: first.Lat, MinLon: first.Lon, MaxLat: first.Lat, MaxLon: first.Lon},
	}

	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		s.TotalDistanceKm += geo.DistanceKm(prev.toGeo(), cur.toGeo())

		delta := cur.ElevationM - prev.ElevationM
		if delta > 0 {
			s.ElevationGainM += delta
		} else {
			s.ElevationLossM -= delta
		}

		s.MinElevationM = math.Min(s.MinElevationM, cur.ElevationM)
		s.MaxElevationM = math.Max(s.MaxElevationM, cur.ElevationM)
		s.Bounds.MinLat = math.Min(s.Bounds.MinLat, cur.Lat)
		s.Bounds.MinLon = math.Min(s.Bounds.MinLon, cur.Lon)
		s.Bounds.MaxLat = math.Max(s.Bounds.MaxLat, cur.Lat)
		s.Bounds.MaxLon = math.Max(s.Bounds.MaxLon, cur.Lon)
	}

	return s
}
