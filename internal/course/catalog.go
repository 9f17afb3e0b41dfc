package course

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCatalog = errors.New("invalid segment catalog")

const cumulativeTolerance = 1e-6

// Catalog is the immutable, id-ordered list of race segments.
type Catalog struct {
	segments []Segment
}

// New checks that ids run 1..n, distances are positive and every cumulative
// distance equals the running sum.
// Target tables are not required to be complete here; Validate checks that.
func New(segments []Segment) (*Catalog, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrInvalidCatalog)
	}

	var running float64
	out := make([]Segment, len(segments))
	for i, s := range segments {
		if s.ID != i+1 {
			return nil, fmt.Errorf("%w: segment at position %d has id %d", ErrInvalidCatalog, i+1, s.ID)
		}
		if s.DistanceKm <= 0 {
			return nil, fmt.Errorf("%w: segment %d has non-positive distance %.2f", ErrInvalidCatalog, s.ID, s.DistanceKm)
		}
		running += s.DistanceKm
		if math.Abs(running-s.CumulativeDistanceKm) > cumulativeTolerance {
			return nil, fmt.Errorf("%w: segment %d cumulative %.3f km, expected %.3f km",
				ErrInvalidCatalog, s.ID, s.CumulativeDistanceKm, running)
		}

		times := make(map[Target]float64, len(s.TimeByFinishTarget))
		for k, v := range s.TimeByFinishTarget {
			times[k] = v
		}
		s.TimeByFinishTarget = times
		out[i] = s
	}

	return &Catalog{segments: out}, nil
}

// Validate checks that every segment carries a running time for each target.
func (c *Catalog) Validate(targets []Target) error {
	for _, s := range c.segments {
		for _, t := range targets {
			if _, ok := s.TimeByFinishTarget[t]; !ok {
				return fmt.Errorf("%w: segment %d has no time for target %s", ErrInvalidCatalog, s.ID, t)
			}
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.segments)
}

// Segments returns a copy of the ordered segment list.
func (c *Catalog) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

func (c *Catalog) Get(id int) (Segment, bool) {
	if id < 1 || id > len(c.segments) {
		return Segment{}, false
	}
	return c.segments[id-1], true
}

func (c *Catalog) First() Segment {
	return c.segments[0]
}

func (c *Catalog) Last() Segment {
	return c.segments[len(c.segments)-1]
}

func (c *Catalog) TotalDistanceKm() float64 {
	return c.Last().CumulativeDistanceKm
}

// IsLast reports whether id is the final segment of the race.
func (c *Catalog) IsLast(id int) bool {
	return id == len(c.segments)
}

// TransitionHours is the aid-station stop added after a segment. The finish
// line has no aid station, so the last segment gets none.
func (c *Catalog) TransitionHours(id int, transitionMinutes float64) float64 {
	if c.IsLast(id) {
		return 0
	}
	return transitionMinutes / 60
}

// Bounds derives each segment's distance interval from the cumulative
// distances, with the first segment starting at 0.
func (c *Catalog) Bounds() []Bound {
	bounds := make([]Bound, len(c.segments))
	start := 0.0
	for i, s := range c.segments {
		bounds[i] = Bound{SegmentID: s.ID, StartKm: start, EndKm: s.CumulativeDistanceKm}
		start = s.CumulativeDistanceKm
	}
	return bounds
}
