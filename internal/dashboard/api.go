// Package dashboard serves plan, tracker and route data to the web UI.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/plan"
	"github.com/briangreenhill/ranplan/internal/track"
	"github.com/briangreenhill/ranplan/internal/tracker"
)

// HistoryStore is the part of the history service the API uses.
type HistoryStore interface {
	Add(ctx context.Context, r plan.HistoricalResult) error
	List(ctx context.Context) ([]plan.HistoricalResult, error)
	Delete(ctx context.Context, segmentID int) (bool, error)
}

// PlanDefaults fill in whatever a plan request leaves out.
type PlanDefaults struct {
	RaceStart         time.Time
	Target            course.Target
	TransitionMinutes float64
}

type Deps struct {
	Logger         *slog.Logger
	Calculator     *plan.Calculator
	History        HistoryStore
	Localizer      *tracker.Localizer
	Route          *track.Route
	Defaults       PlanDefaults
	AllowedOrigins []string
}

type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewAPI(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", handleHealth(d.Logger, d.History))

	r.Route("/api", func(r chi.Router) {
		r.Get("/segments", handleGetSegments(d.Logger, d.Calculator.Catalog()))

		r.Get("/plan", handleGetPlan(d.Logger, d.Calculator, d.History, d.Localizer, d.Defaults))
		r.Post("/plan", handlePostPlan(d.Logger, d.Calculator, d.History, d.Localizer, d.Defaults))

		r.Get("/tracker", handleGetTracker(d.Logger, d.Localizer))

		r.Get("/track", handleGetTrack(d.Logger, d.Route))
		r.Get("/track/profile", handleGetProfile(d.Logger, d.Route))
		r.Get("/track/segments", handleGetSegmentStats(d.Logger, d.Route))
		r.Get("/track/geojson", handleGetGeoJSON(d.Logger, d.Route, d.Localizer))

		r.Get("/history", handleListHistory(d.Logger, d.History))
		r.Post("/history", handleAddHistory(d.Logger, d.History))
		r.Delete("/history/{segmentId}", handleDeleteHistory(d.Logger, d.History))
	})

	return r
}

func handleHealth(logger *slog.Logger, history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if _, err := history.List(ctx); err != nil {
			writeJSON(w, logger, http.StatusServiceUnavailable, map[string]interface{}{
				"status":    "error",
				"database":  "disconnected",
				"timestamp": time.Now().UTC(),
				"error":     err.Error(),
			})
			return
		}

		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"database":  "connected",
			"timestamp": time.Now().UTC(),
		})
	}
}

func handleGetSegments(logger *slog.Logger, catalog *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"segments": catalog.Segments(),
			"bounds":   catalog.Bounds(),
			"targets":  course.Targets,
		})
	}
}

// handleGetTracker returns the last known location even when the latest
// poll failed. Only an upstream failure with nothing to fall back on is a 502.
func handleGetTracker(logger *slog.Logger, localizer *tracker.Localizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		snap := localizer.Snapshot()
		if err := localizer.Err(); snap.Location == nil && errors.Is(err, tracker.ErrUpstream) {
			writeError(w, http.StatusBadGateway, "tracker unavailable", err)
			return
		}

		writeJSON(w, logger, http.StatusOK, snap)
	}
}

// writeJSON encodes v before writing any header, so a value that cannot be
// encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Error encoding response", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to encode response", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Error("Error writing response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]interface{}{"internal": err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
