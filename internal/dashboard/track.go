package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/briangreenhill/ranplan/internal/track"
	"github.com/briangreenhill/ranplan/internal/tracker"
)

type trackResponse struct {
	Name      string       `json:"name,omitempty"`
	Stats     *track.Stats `json:"stats,omitempty"`
	Points    int          `json:"points"`
	Synthetic bool         `json:"synthetic"`
}

func handleGetTrack(logger *slog.Logger, route *track.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := trackResponse{Synthetic: route.Synthetic}
		if route.Track != nil {
			resp.Name = route.Track.Name
			resp.Stats = &route.Track.Stats
			resp.Points = len(route.Track.Points)
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

func handleGetProfile(logger *slog.Logger, route *track.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"synthetic": route.Synthetic,
			"profile":   route.Profile,
		})
	}
}

func handleGetSegmentStats(logger *slog.Logger, route *track.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, route.Segments)
	}
}

// handleGetGeoJSON draws the loaded route, falling back to the live feed's
// breadcrumb trail, plus the runner's marker.
func handleGetGeoJSON(logger *slog.Logger, route *track.Route, localizer *tracker.Localizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := route.Track
		var marker *track.Marker
		if feed := localizer.Snapshot().Feed; feed != nil {
			marker = feed.Marker
			if t == nil {
				t = &feed.Track
			}
		}

		raw, err := track.FeatureCollection(t, marker).MarshalJSON()
		if err != nil {
			logger.Error("Error encoding geojson", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to encode route", err)
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(raw); err != nil {
			logger.Error("Error writing geojson", slog.Any("error", err))
		}
	}
}
