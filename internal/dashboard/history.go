package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/briangreenhill/ranplan/internal/plan"
)

func handleListHistory(logger *slog.Logger, history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := history.List(r.Context())
		if err != nil {
			logger.Error("Error listing history", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to list historical results", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, results)
	}
}

func handleAddHistory(logger *slog.Logger, history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var result plan.HistoricalResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			writeError(w, http.StatusBadRequest, "invalid historical result", err)
			return
		}

		if err := history.Add(r.Context(), result); err != nil {
			logger.Error("Error adding history", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "failed to record historical result", err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, result)
	}
}

func handleDeleteHistory(logger *slog.Logger, history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "segmentId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "segmentId must be an integer", nil)
			return
		}

		deleted, err := history.Delete(r.Context(), id)
		if err != nil {
			logger.Error("Error deleting history", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to delete historical result", err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "no result recorded for segment", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
