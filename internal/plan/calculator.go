// Package plan projects a race schedule, nutrition and pacer workload from
// the segment catalog, a finish target and whatever the runner has done so far.
package plan

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/briangreenhill/ranplan/internal/course"
)

// Calculator holds only immutable configuration, so Compute is safe to
// call concurrently.
type Calculator struct {
	catalog   *course.Catalog
	nutrition NutritionModel
}

func NewCalculator(catalog *course.Catalog, nutrition NutritionModel) *Calculator {
	return &Calculator{
		catalog:   catalog,
		nutrition: nutrition,
	}
}

func (c *Calculator) Catalog() *course.Catalog {
	return c.catalog
}

// Compute plans against catalog with the default nutrition model.
func Compute(in Inputs, catalog *course.Catalog) (*Output, error) {
	return NewCalculator(catalog, DefaultNutrition()).Compute(in)
}

func (c *Calculator) Compute(in Inputs) (*Output, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	// A negative transition means no stop at all.
	transitionMinutes := math.Max(0, in.TransitionMinutes)

	history, err := c.backfill(in, transitionMinutes)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Segments: make([]Segment, 0, c.catalog.Len()),
		Pacers:   make(map[string]PacerSummary),
	}
	pacers := make(map[string]*PacerSummary)
	var cumulative float64

	for _, seg := range c.catalog.Segments() {
		transition := c.catalog.TransitionHours(seg.ID, transitionMinutes)
		startTime := at(in.RaceStart, cumulative)

		row := Segment{
			ID:     seg.ID,
			Name:   seg.Name,
			Cutoff: seg.Cutoff,
			Pacer:  seg.Pacer,
		}

		var running, total float64
		switch {
		case seg.ID < in.CurrentSegmentID:
			row.Category = Completed
			h, ok := history[seg.ID]
			if !ok {
				return nil, &MissingHistoryError{SegmentID: seg.ID}
			}
			total = h.hours
			running = math.Max(0, total-transition-seg.SleepHours)
			row.ActualTotalTimeHours = ptr(round2(total))
			row.Estimated = h.estimated
		default:
			row.Category = Future
			if seg.ID == in.CurrentSegmentID {
				row.Category = Current
			}
			planned, ok := seg.RunningHours(in.Target)
			if !ok {
				return nil, &MissingTargetTimeError{SegmentID: seg.ID, Target: in.Target}
			}
			running = planned
			total = running + transition + seg.SleepHours
			row.PlannedTotalTimeHours = ptr(round2(total))
		}

		cumulative += total
		endTime := at(in.RaceStart, cumulative)

		row.RunningTimeHours = round2(running)
		row.CumulativeTimeHours = round2(cumulative)
		row.StartTime = startTime
		row.EndTime = endTime
		if !seg.Cutoff.IsZero() {
			row.CutoffMarginHours = round2(seg.Cutoff.Sub(endTime).Hours())
		}

		row.Zone = c.nutrition.ZoneFor(seg.CumulativeDistanceKm)
		row.Nutrition = c.nutrition.For(row.Zone, running)
		out.TotalNutrition = out.TotalNutrition.Add(row.Nutrition)

		if seg.Pacer != "" {
			share := row.Nutrition.Scale(c.nutrition.PacerShare)
			row.PacerNutrition = &share

			p, ok := pacers[seg.Pacer]
			if !ok {
				p = &PacerSummary{}
				pacers[seg.Pacer] = p
			}
			p.TotalHours += running
			p.TotalKm += seg.DistanceKm
			p.Nutrition = p.Nutrition.Add(share)
		}

		out.Segments = append(out.Segments, row)
	}

	for name, p := range pacers {
		out.Pacers[name] = PacerSummary{
			TotalHours: round2(p.TotalHours),
			TotalKm:    p.TotalKm,
			Nutrition:  p.Nutrition,
		}
	}
	out.ProjectedTotalTimeHours = round2(cumulative)
	out.ProjectedFinish = at(in.RaceStart, cumulative)

	return out, nil
}

func (c *Calculator) validate(in Inputs) error {
	if in.RaceStart.IsZero() {
		return fmt.Errorf("%w: race start time is required", ErrInvalidInputs)
	}
	if !slices.Contains(course.Targets, in.Target) {
		return fmt.Errorf("%w: unknown finish target %q", ErrInvalidInputs, in.Target)
	}
	if in.CurrentSegmentID < 1 || in.CurrentSegmentID > c.catalog.Len()+1 {
		return fmt.Errorf("%w: current segment %d outside 1..%d", ErrInvalidInputs, in.CurrentSegmentID, c.catalog.Len()+1)
	}
	if !finite(in.TransitionMinutes) {
		return fmt.Errorf("%w: transition minutes must be a finite number, got %v", ErrInvalidInputs, in.TransitionMinutes)
	}
	for _, h := range in.History {
		if h.SegmentID < 1 || h.SegmentID >= in.CurrentSegmentID {
			continue
		}
		if h.ActualTotalTimeHours < 0 || !finite(h.ActualTotalTimeHours) {
			return fmt.Errorf("%w: segment %d: actual time must be a non-negative number, got %v",
				ErrInvalidInputs, h.SegmentID, h.ActualTotalTimeHours)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type recorded struct {
	hours     float64
	estimated bool
}

// backfill returns a total time for every completed segment, estimating the
// ones the runner did not record from the plan for the chosen target.
// Results for segments that are not completed are ignored; on duplicate ids
// the first entry wins.
func (c *Calculator) backfill(in Inputs, transitionMinutes float64) (map[int]recorded, error) {
	history := make(map[int]recorded, in.CurrentSegmentID)
	for _, h := range in.History {
		if h.SegmentID < 1 || h.SegmentID >= in.CurrentSegmentID {
			continue
		}
		if _, seen := history[h.SegmentID]; seen {
			continue
		}
		history[h.SegmentID] = recorded{hours: h.ActualTotalTimeHours}
	}

	for _, seg := range c.catalog.Segments() {
		if seg.ID >= in.CurrentSegmentID {
			break
		}
		if _, ok := history[seg.ID]; ok {
			continue
		}
		planned, ok := seg.RunningHours(in.Target)
		if !ok {
			return nil, &MissingTargetTimeError{SegmentID: seg.ID, Target: in.Target}
		}
		history[seg.ID] = recorded{
			hours:     planned + c.catalog.TransitionHours(seg.ID, transitionMinutes) + seg.SleepHours,
			estimated: true,
		}
	}

	return history, nil
}

func at(start time.Time, hours float64) time.Time {
	return start.Add(time.Duration(hours * float64(time.Hour)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
