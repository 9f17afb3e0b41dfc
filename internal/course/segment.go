package course

import (
	"fmt"
	"time"
)

// Target is an overall finish-time goal such as "85h".
type Target string

const (
	Target80h  Target = "80h"
	Target85h  Target = "85h"
	Target90h  Target = "90h"
	Target95h  Target = "95h"
	Target100h Target = "100h"
	Target105h Target = "105h"
)

// Targets lists every supported finish target, fastest first.
var Targets = []Target{Target80h, Target85h, Target90h, Target95h, Target100h, Target105h}

const DefaultTarget = Target85h

// ParseTarget accepts one of the supported labels.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown finish target %q", s)
}

// Segment is one aid-station-to-aid-station leg of the route.
type Segment struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	DistanceKm           float64 `json:"distanceKm"`
	CumulativeDistanceKm float64 `json:"cumulativeDistanceKm"`

	ElevationGainM  float64 `json:"elevationGainM,omitempty"`
	ElevationLossM  float64 `json:"elevationLossM,omitempty"`
	StartElevationM float64 `json:"startElevationM,omitempty"`
	EndElevationM   float64 `json:"endElevationM,omitempty"`

	// TimeByFinishTarget holds running (moving) hours for the leg under each target.
	TimeByFinishTarget map[Target]float64 `json:"timeByFinishTarget"`

	SleepHours float64   `json:"sleepHours"`
	Pacer      string    `json:"pacer,omitempty"` // empty when the runner is alone
	Cutoff     time.Time `json:"cutoff"`
}

// RunningHours returns the planned moving time for the target.
func (s Segment) RunningHours(t Target) (float64, bool) {
	h, ok := s.TimeByFinishTarget[t]
	return h, ok
}

// Bound is the [StartKm, EndKm] interval a segment covers along the route.
type Bound struct {
	SegmentID int     `json:"segmentId"`
	StartKm   float64 `json:"startKm"`
	EndKm     float64 `json:"endKm"`
}

func (b Bound) Contains(km float64) bool {
	return km >= b.StartKm && km <= b.EndKm
}
