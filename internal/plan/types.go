package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/briangreenhill/ranplan/internal/course"
)

const DefaultTransitionMinutes = 15

type Category string

const (
	Completed Category = "completed"
	Current   Category = "current"
	Future    Category = "future"
)

// HistoricalResult is the recorded total time (running, transition and
// sleep) for a segment the runner has finished.
type HistoricalResult struct {
	SegmentID            int     `json:"segmentId"`
	ActualTotalTimeHours float64 `json:"actualTotalTimeHours"`
	Rank                 *int    `json:"rank,omitempty"`
}

type Inputs struct {
	RaceStart         time.Time          `json:"raceStartTime"`
	Target            course.Target      `json:"targetFinishTime"`
	TransitionMinutes float64            `json:"transitionMinutes"`
	CurrentSegmentID  int                `json:"currentSegmentId"`
	History           []HistoricalResult `json:"historicalData"`
}

// Segment is one row of a computed schedule. Exactly one of
// PlannedTotalTimeHours and ActualTotalTimeHours is set.
type Segment struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`

	PlannedTotalTimeHours *float64 `json:"plannedTotalTimeHours,omitempty"`
	ActualTotalTimeHours  *float64 `json:"actualTotalTimeHours,omitempty"`
	// Estimated marks a completed segment whose actual time was filled in from the plan.
	Estimated           bool    `json:"estimated,omitempty"`
	RunningTimeHours    float64 `json:"runningTimeHours"`
	CumulativeTimeHours float64 `json:"cumulativeTimeHours"`

	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Cutoff            time.Time `json:"cutoff"`
	CutoffMarginHours float64   `json:"cutoffMarginHours"`

	Zone           Zone       `json:"nutritionZone"`
	Nutrition      Nutrition  `json:"nutrition"`
	Pacer          string     `json:"pacer,omitempty"`
	PacerNutrition *Nutrition `json:"pacerNutrition,omitempty"`
}

type PacerSummary struct {
	TotalHours float64   `json:"totalHours"`
	TotalKm    float64   `json:"totalKms"`
	Nutrition  Nutrition `json:"nutrition"`
}

type Output struct {
	Segments                []Segment               `json:"segments"`
	ProjectedTotalTimeHours float64                 `json:"projectedTotalTimeHours"`
	ProjectedFinish         time.Time               `json:"projectedFinish"`
	TotalNutrition          Nutrition               `json:"totalNutrition"`
	Pacers                  map[string]PacerSummary `json:"pacerSummary"`
}

var (
	// ErrIntegrity marks a corrupt catalog or an internal bug; never a user mistake.
	ErrIntegrity     = errors.New("plan integrity")
	ErrInvalidInputs = errors.New("invalid plan inputs")
)

type MissingTargetTimeError struct {
	SegmentID int
	Target    course.Target
}

func (e *MissingTargetTimeError) Error() string {
	return fmt.Sprintf("segment %d has no running time for target %s", e.SegmentID, e.Target)
}

func (e *MissingTargetTimeError) Is(target error) bool {
	return target == ErrIntegrity
}

type MissingHistoryError struct {
	SegmentID int
}

func (e *MissingHistoryError) Error() string {
	return fmt.Sprintf("no historical result for completed segment %d", e.SegmentID)
}

func (e *MissingHistoryError) Is(target error) bool {
	return target == ErrIntegrity
}
