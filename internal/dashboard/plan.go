package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/plan"
	"github.com/briangreenhill/ranplan/internal/tracker"
)

// planRequest mirrors plan.Inputs with every field optional.
type planRequest struct {
	RaceStartTime     *time.Time               `json:"raceStartTime"`
	TargetFinishTime  *string                  `json:"targetFinishTime"`
	TransitionMinutes *float64                 `json:"transitionMinutes"`
	CurrentSegmentID  *int                     `json:"currentSegmentId"`
	HistoricalData    *[]plan.HistoricalResult `json:"historicalData"`
}

func handleGetPlan(logger *slog.Logger, calc *plan.Calculator, history HistoryStore, localizer *tracker.Localizer, defaults PlanDefaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := planRequestFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		computePlan(w, r, logger, calc, history, localizer, defaults, req)
	}
}

func handlePostPlan(logger *slog.Logger, calc *plan.Calculator, history HistoryStore, localizer *tracker.Localizer, defaults PlanDefaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid plan request body", err)
			return
		}

		computePlan(w, r, logger, calc, history, localizer, defaults, req)
	}
}

// computePlan fills what req leaves out from defaults. The current segment
// comes from the live tracker when known, otherwise 1.
func computePlan(w http.ResponseWriter, r *http.Request, logger *slog.Logger, calc *plan.Calculator, history HistoryStore, localizer *tracker.Localizer, defaults PlanDefaults, req planRequest) {
	in := plan.Inputs{
		RaceStart:         defaults.RaceStart,
		Target:            defaults.Target,
		TransitionMinutes: defaults.TransitionMinutes,
		CurrentSegmentID:  1,
	}
	if req.RaceStartTime != nil {
		in.RaceStart = *req.RaceStartTime
	}
	if req.TargetFinishTime != nil {
		in.Target = course.Target(*req.TargetFinishTime)
	}
	if req.TransitionMinutes != nil {
		in.TransitionMinutes = *req.TransitionMinutes
	}
	if req.CurrentSegmentID != nil {
		in.CurrentSegmentID = *req.CurrentSegmentID
	} else if loc, ok := localizer.Location(); ok {
		in.CurrentSegmentID = loc.SegmentID
	}

	if req.HistoricalData != nil {
		in.History = *req.HistoricalData
	} else {
		recorded, err := history.List(r.Context())
		if err != nil {
			logger.Error("Error listing history", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to load historical results", err)
			return
		}
		in.History = recorded
	}

	out, err := calc.Compute(in)
	switch {
	case errors.Is(err, plan.ErrInvalidInputs):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		logger.Error("Error computing plan", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "cannot compute plan", err)
		return
	}

	writeJSON(w, logger, http.StatusOK, out)
}

func planRequestFromQuery(r *http.Request) (planRequest, error) {
	q := r.URL.Query()
	var req planRequest

	if v := q.Get("start"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, fmt.Errorf("start must be RFC3339: %v", err)
		}
		req.RaceStartTime = &start
	}
	if v := q.Get("target"); v != "" {
		req.TargetFinishTime = &v
	}
	if v := q.Get("transition"); v != "" {
		minutes, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("transition must be a number of minutes: %v", err)
		}
		req.TransitionMinutes = &minutes
	}
	if v := q.Get("current"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("current must be a segment id: %v", err)
		}
		req.CurrentSegmentID = &id
	}

	return req, nil
}
