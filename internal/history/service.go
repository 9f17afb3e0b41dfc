// Package history keeps the runner's recorded segment results for the
// current session in sqlite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/briangreenhill/ranplan/internal/plan"
)

const schema = `
        CREATE TABLE IF NOT EXISTS segment_results (
        segment_id INTEGER PRIMARY KEY,
        actual_total_time_hours REAL NOT NULL,
        rank INTEGER,
        recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`

type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// Open connects to a sqlite database and ensures the schema. An in-memory
// database lives on a single connection so every query sees the same data.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating table: %w", err)
	}

	return db, nil
}

// Add records a result, replacing any earlier one for the same segment.
func (s *Service) Add(ctx context.Context, r plan.HistoricalResult) error {
	if r.SegmentID < 1 {
		return fmt.Errorf("segment id must be positive, got %d", r.SegmentID)
	}
	if r.ActualTotalTimeHours < 0 || math.IsNaN(r.ActualTotalTimeHours) || math.IsInf(r.ActualTotalTimeHours, 0) {
		return fmt.Errorf("segment %d: time must be a non-negative number, got %v", r.SegmentID, r.ActualTotalTimeHours)
	}

	var rank sql.NullInt64
	if r.Rank != nil {
		rank = sql.NullInt64{Int64: int64(*r.Rank), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
    INSERT INTO segment_results
    (segment_id,
    actual_total_time_hours,
    rank)
    VALUES
    (?, ?, ?)
    ON CONFLICT(segment_id) DO UPDATE SET
    actual_total_time_hours = excluded.actual_total_time_hours,
    rank = excluded.rank,
    recorded_at = CURRENT_TIMESTAMP`,
		r.SegmentID,
		r.ActualTotalTimeHours,
		rank,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", affected)
	}

	s.logger.Info("Recorded segment result",
		slog.Int("segment", r.SegmentID),
		slog.Float64("hours", r.ActualTotalTimeHours))

	return nil
}

// List returns every recorded result ordered by segment id.
func (s *Service) List(ctx context.Context) ([]plan.HistoricalResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT segment_id, actual_total_time_hours, rank FROM segment_results ORDER BY segment_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []plan.HistoricalResult{}
	for rows.Next() {
		var r plan.HistoricalResult
		var rank sql.NullInt64
		if err := rows.Scan(&r.SegmentID, &r.ActualTotalTimeHours, &rank); err != nil {
			return nil, err
		}
		if rank.Valid {
			v := int(rank.Int64)
			r.Rank = &v
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Delete removes a segment's result. It reports whether a row existed.
func (s *Service) Delete(ctx context.Context, segmentID int) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM segment_results WHERE segment_id = ?", segmentID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if affected > 0 {
		s.logger.Info("Deleted segment result", slog.Int("segment", segmentID))
	}
	return affected > 0, nil
}
