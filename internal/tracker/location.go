// Package tracker follows the runner's live tracker and places them on the
// course.
package tracker

import (
	"github.com/briangreenhill/ranplan/internal/course"
)

const FinishedName = "Finished"

// Location is where the runner is relative to the segment catalog.
type Location struct {
	SegmentID             int     `json:"segmentId"`
	SegmentName           string  `json:"segmentName"`
	ProgressPercent       float64 `json:"progressInSegment"`
	DistanceIntoSegmentKm float64 `json:"distanceInSegmentKm"`
	CompletedSegmentIDs   []int   `json:"completedSegments"`
	RouteKm               float64 `json:"routeKm"`
}

// Finished reports whether the location is past the last segment.
func (l Location) Finished() bool {
	return l.SegmentName == FinishedName
}

// Resolve places routeKm on the catalog. Bounds are inclusive at both ends,
// so a runner exactly on an aid station belongs to the segment ending there.
func Resolve(routeKm float64, c *course.Catalog) Location {
	segments := c.Segments()
	for i, b := range c.Bounds() {
		if !b.Contains(routeKm) {
			continue
		}
		seg := segments[i]
		into := routeKm - b.StartKm
		return Location{
			SegmentID:             seg.ID,
			SegmentName:           seg.Name,
			ProgressPercent:       into / seg.DistanceKm * 100,
			DistanceIntoSegmentKm: into,
			CompletedSegmentIDs:   idsBefore(segments, i),
			RouteKm:               routeKm,
		}
	}

	if routeKm > c.TotalDistanceKm() {
		return Location{
			SegmentID:           c.Len() + 1,
			SegmentName:         FinishedName,
			ProgressPercent:     100,
			CompletedSegmentIDs: idsBefore(segments, len(segments)),
			RouteKm:             routeKm,
		}
	}

	loc := AtStart(c)
	loc.RouteKm = routeKm
	return loc
}

// AtStart is the location before the gun: segment 1, nothing completed.
func AtStart(c *course.Catalog) Location {
	first := c.First()
	return Location{
		SegmentID:           first.ID,
		SegmentName:         first.Name,
		CompletedSegmentIDs: []int{},
	}
}

func idsBefore(segments []course.Segment, n int) []int {
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = segments[i].ID
	}
	return ids
}
