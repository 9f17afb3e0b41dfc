package track

import (
	"github.com/briangreenhill/ranplan/internal/course"
)

// Route is the course geometry the dashboard draws: a measured track when
// one was loaded, otherwise a profile synthesized from the catalog.
type Route struct {
	Track     *Track         `json:"track,omitempty"`
	Profile   []ProfilePoint `json:"profile"`
	Segments  []SegmentStat  `json:"segments"`
	Synthetic bool           `json:"synthetic"`
}

func NewRoute(t *Track, c *course.Catalog, pointsPerKm int) *Route {
	r := &Route{Track: t}
	if t == nil || len(t.Points) == 0 {
		r.Track = nil
		r.Profile = SyntheticProfile(c, pointsPerKm)
		r.Synthetic = true
	} else {
		r.Profile = Profile(t)
	}
	r.Segments = SegmentStats(r.Profile, c.Bounds())
	return r
}
