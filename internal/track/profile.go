package track

import (
	"math"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/geo"
)

// defaultElevationM stands in for aid stations without a surveyed elevation.
const defaultElevationM = 2000

type ProfilePoint struct {
	DistanceKm float64 `json:"distanceKm"`
	ElevationM float64 `json:"elevationM"`
}

// Profile maps each track point to its distance along the route, with
// elevations rounded to whole meters.
func Profile(t *Track) []ProfilePoint {
	out := make([]ProfilePoint, 0, len(t.Points))
	for c := range geo.CumulativeDistances(t.GeoPoints()) {
		out = append(out, ProfilePoint{DistanceKm: c.DistanceKm, ElevationM: math.Round(c.ElevationM)})
	}
	return out
}

// SyntheticProfile approximates the course profile from the catalog alone,
// interpolating between aid-station elevations with a small deterministic
// ripple. Used when no GPX track is available.
func SyntheticProfile(c *course.Catalog, pointsPerKm int) []ProfilePoint {
	if pointsPerKm <= 0 {
		pointsPerKm = 1
	}

	type anchor struct{ km, ele float64 }
	segments := c.Segments()
	anchors := make([]anchor, 0, len(segments)+1)
	anchors = append(anchors, anchor{0, orDefault(segments[0].StartElevationM)})
	for _, s := range segments {
		anchors = append(anchors, anchor{s.CumulativeDistanceKm, orDefault(s.EndElevationM)})
	}

	total := math.Floor(c.TotalDistanceKm())
	n := int(total) * pointsPerKm
	out := make([]ProfilePoint, 0, n+1)
	for i := 0; i <= n; i++ {
		d := float64(i) / float64(pointsPerKm)

		ele := anchors[len(anchors)-1].ele
		for j := 0; j < len(anchors)-1; j++ {
			lo, hi := anchors[j], anchors[j+1]
			if d >= lo.km && d <= hi.km {
				ele = lo.ele + (hi.ele-lo.ele)*(d-lo.km)/(hi.km-lo.km)
				break
			}
		}

		ele += (math.Sin(d*0.1) + math.Cos(d*0.05)) * 20
		out = append(out, ProfilePoint{DistanceKm: d, ElevationM: math.Round(ele)})
	}

	return out
}

func orDefault(ele float64) float64 {
	if ele == 0 {
		return defaultElevationM
	}
	return ele
}

// SegmentStat summarizes the measured profile within one segment's bounds.
type SegmentStat struct {
	SegmentID       int     `json:"segmentId"`
	DistanceKm      float64 `json:"distanceKm"`
	StartElevationM float64 `json:"startElevationM"`
	EndElevationM   float64 `json:"endElevationM"`
	ElevationGainM  float64 `json:"elevationGainM"`
	ElevationLossM  float64 `json:"elevationLossM"`
}

// boundarySnapKm is how close a profile point must be to a boundary to
// provide that boundary's elevation.
const boundarySnapKm = 0.5

// SegmentStats slices profile by bounds and measures each slice.
func SegmentStats(profile []ProfilePoint, bounds []course.Bound) []SegmentStat {
	if len(profile) == 0 {
		return nil
	}

	out := make([]SegmentStat, 0, len(bounds))
	for _, b := range bounds {
		start := nearest(profile, b.StartKm, profile[0])
		end := nearest(profile, b.EndKm, profile[len(profile)-1])

		var gain, loss float64
		var prev *ProfilePoint
		for i := range profile {
			p := &profile[i]
			if !b.Contains(p.DistanceKm) {
				continue
			}
			if prev != nil {
				if delta := p.ElevationM - prev.ElevationM; delta > 0 {
					gain += delta
				} else {
					loss -= delta
				}
			}
			prev = p
		}

		out = append(out, SegmentStat{
			SegmentID:       b.SegmentID,
			DistanceKm:      b.EndKm - b.StartKm,
			StartElevationM: math.Round(start.ElevationM),
			EndElevationM:   math.Round(end.ElevationM),
			ElevationGainM:  math.Round(gain),
			ElevationLossM:  math.Round(loss),
		})
	}

	return out
}

func nearest(profile []ProfilePoint, km float64, fallback ProfilePoint) ProfilePoint {
	for _, p := range profile {
		if math.Abs(p.DistanceKm-km) < boundarySnapKm {
			return p
		}
	}
	return fallback
}
