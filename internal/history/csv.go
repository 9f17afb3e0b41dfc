package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/briangreenhill/ranplan/internal/plan"
)

// ParseCSV reads rows of segment_id,actual_total_time_hours[,rank]. A
// leading header row is skipped.
func ParseCSV(r io.Reader) ([]plan.HistoricalResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var results []plan.HistoricalResult
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 fields, got %d", line, len(record))
		}

		id, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: segment id: %w", line, err)
		}
		hours, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: hours: %w", line, err)
		}

		res := plan.HistoricalResult{SegmentID: id, ActualTotalTimeHours: hours}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			rank, err := strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d: rank: %w", line, err)
			}
			res.Rank = &rank
		}
		results = append(results, res)
	}

	return results, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(record[0]))
	return err != nil
}

// Import parses r and records every row. It returns how many rows were stored.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	results, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}

	for i, res := range results {
		if err := s.Add(ctx, res); err != nil {
			return i, err
		}
	}

	return len(results), nil
}
