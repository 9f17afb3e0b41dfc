package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/plan"
	"github.com/briangreenhill/ranplan/internal/track"
	"github.com/briangreenhill/ranplan/internal/tracker"
)

type memoryStore struct {
	mu      sync.Mutex
	results map[int]plan.HistoricalResult
	err     error
}

func newMemoryStore(results ...plan.HistoricalResult) *memoryStore {
	s := &memoryStore{results: make(map[int]plan.HistoricalResult)}
	for _, r := range results {
		s.results[r.SegmentID] = r
	}
	return s
}

func (s *memoryStore) Add(_ context.Context, r plan.HistoricalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.SegmentID < 1 {
		return errors.New("segment id must be positive")
	}
	s.results[r.SegmentID] = r
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]plan.HistoricalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []plan.HistoricalResult{}
	for id := 1; len(out) < len(s.results); id++ {
		if r, ok := s.results[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.results[id]
	delete(s.results, id)
	return ok, nil
}

type fixture struct {
	handler   http.Handler
	store     *memoryStore
	localizer *tracker.Localizer
}

func newFixture(t *testing.T, catalog *course.Catalog, store *memoryStore) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start, err := time.Parse(time.RFC3339, "2025-06-13T09:00:00-07:00")
	require.NoError(t, err)

	localizer := tracker.NewLocalizer(catalog, logger)
	handler := NewAPI(Deps{
		Logger:     logger,
		Calculator: plan.NewCalculator(catalog, plan.DefaultNutrition()),
		History:    store,
		Localizer:  localizer,
		Route:      track.NewRoute(nil, catalog, 1),
		Defaults: PlanDefaults{
			RaceStart:         start,
			Target:            course.Target85h,
			TransitionMinutes: plan.DefaultTransitionMinutes,
		},
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return fixture{handler: handler, store: store, localizer: localizer}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

var sampleHistory = []plan.HistoricalResult{
	{SegmentID: 1, ActualTotalTimeHours: 4.2},
	{SegmentID: 2, ActualTotalTimeHours: 3.4},
	{SegmentID: 3, ActualTotalTimeHours: 7.8},
	{SegmentID: 4, ActualTotalTimeHours: 6.1},
}

func TestHealth(t *testing.T) {
	store := newMemoryStore()
	f := newFixture(t, course.Tahoe(), store)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.err = errors.New("database is locked")
	rec = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetSegments(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	rec := f.do(t, http.MethodGet, "/api/segments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Segments []course.Segment `json:"segments"`
		Bounds   []course.Bound   `json:"bounds"`
		Targets  []course.Target  `json:"targets"`
	}](t, rec)
	assert.Len(t, body.Segments, 12)
	assert.Len(t, body.Bounds, 12)
	assert.Equal(t, course.Targets, body.Targets)
}

func TestPlanUsesRecordedHistory(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore(sampleHistory...))

	rec := f.do(t, http.MethodGet, "/api/plan?current=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[plan.Output](t, rec)
	assert.InDelta(t, 81.95, out.ProjectedTotalTimeHours, 1e-9)
	require.Len(t, out.Segments, 12)
	assert.Equal(t, plan.Completed, out.Segments[3].Category)
	assert.Equal(t, plan.Current, out.Segments[4].Category)
}

func TestPlanCurrentFollowsTracker(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore(sampleHistory...))

	_, err := f.localizer.Update(tracker.Status{"Race Status": "Racing", "Route mile": "70 mi"}, time.Now())
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/plan", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[plan.Output](t, rec)
	assert.Equal(t, plan.Current, out.Segments[4].Category)
	assert.InDelta(t, 81.95, out.ProjectedTotalTimeHours, 1e-9)
}

func TestPlanWithoutTrackerStartsAtFirstSegment(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	rec := f.do(t, http.MethodGet, "/api/plan?target=90h", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[plan.Output](t, rec)
	assert.Equal(t, plan.Current, out.Segments[0].Category)
	for _, s := range out.Segments {
		assert.NotEqual(t, plan.Completed, s.Category)
	}
}

func TestPostPlanOverridesStoredHistory(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore(plan.HistoricalResult{SegmentID: 1, ActualTotalTimeHours: 10}))

	rec := f.do(t, http.MethodPost, "/api/plan", `{
		"raceStartTime": "2025-06-13T09:00:00-07:00",
		"targetFinishTime": "85h",
		"transitionMinutes": 15,
		"currentSegmentId": 5,
		"historicalData": [
			{"segmentId": 1, "actualTotalTimeHours": 4.2},
			{"segmentId": 2, "actualTotalTimeHours": 3.4},
			{"segmentId": 3, "actualTotalTimeHours": 7.8},
			{"segmentId": 4, "actualTotalTimeHours": 6.1}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[plan.Output](t, rec)
	assert.InDelta(t, 81.95, out.ProjectedTotalTimeHours, 1e-9)
}

func TestPlanBadRequests(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	for _, tc := range []struct {
		name, method, target, body string
	}{
		{"unknown target", http.MethodGet, "/api/plan?target=70h", ""},
		{"bad start", http.MethodGet, "/api/plan?start=yesterday", ""},
		{"bad transition", http.MethodGet, "/api/plan?transition=soon", ""},
		{"current out of range", http.MethodGet, "/api/plan?current=14", ""},
		{"current not a number", http.MethodGet, "/api/plan?current=five", ""},
		{"malformed body", http.MethodPost, "/api/plan", "{"},
		{"non-finite transition", http.MethodGet, "/api/plan?transition=NaN", ""},
		{"infinite transition", http.MethodGet, "/api/plan?transition=Inf", ""},
		{"negative recorded time", http.MethodPost, "/api/plan",
			`{"currentSegmentId": 3, "historicalData": [{"segmentId": 1, "actualTotalTimeHours": -50}]}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.target, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestPlanIntegrityFailure(t *testing.T) {
	catalog, err := course.New([]course.Segment{{
		ID:                   1,
		Name:                 "Only",
		DistanceKm:           10,
		CumulativeDistanceKm: 10,
		TimeByFinishTarget:   map[course.Target]float64{course.Target80h: 2},
	}})
	require.NoError(t, err)
	f := newFixture(t, catalog, newMemoryStore())

	rec := f.do(t, http.MethodGet, "/api/plan", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "cannot compute plan", decode[ErrorResponse](t, rec).Error)
}

func TestHistoryEndpoints(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	rec := f.do(t, http.MethodPost, "/api/history", `{"segmentId": 2, "actualTotalTimeHours": 3.5, "rank": 12}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]plan.HistoricalResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].SegmentID)
	require.NotNil(t, results[0].Rank)
	assert.Equal(t, 12, *results[0].Rank)

	rec = f.do(t, http.MethodDelete, "/api/history/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/history/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/history/two", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/history", `{"segmentId": 0, "actualTotalTimeHours": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackerSnapshot(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	rec := f.do(t, http.MethodGet, "/api/tracker", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[tracker.Snapshot](t, rec)
	assert.Nil(t, snap.Location)

	_, err := f.localizer.Update(tracker.Status{"Race Status": "Pre-start"}, time.Now())
	require.NoError(t, err)
	f.localizer.Fail(errors.New("upstream timeout"))

	rec = f.do(t, http.MethodGet, "/api/tracker", "")
	snap = decode[tracker.Snapshot](t, rec)
	require.NotNil(t, snap.Location)
	assert.Equal(t, 1, snap.Location.SegmentID)
	assert.True(t, snap.Stale)
	assert.Equal(t, "upstream timeout", snap.Error)
}

func TestTrackEndpointsUseSyntheticRoute(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	rec := f.do(t, http.MethodGet, "/api/track", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[trackResponse](t, rec)
	assert.True(t, body.Synthetic)
	assert.Nil(t, body.Stats)

	rec = f.do(t, http.MethodGet, "/api/track/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[struct {
		Synthetic bool                 `json:"synthetic"`
		Profile   []track.ProfilePoint `json:"profile"`
	}](t, rec)
	assert.True(t, profile.Synthetic)
	assert.Len(t, profile.Profile, 322)

	rec = f.do(t, http.MethodGet, "/api/track/segments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]track.SegmentStat](t, rec), 12)
}

func TestTrackGeoJSONUsesFeed(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	f.localizer.UpdateFeed(track.Feed{
		Track: track.Track{Points: []track.Point{
			{Lat: 39.1, Lon: -120.1},
			{Lat: 39.2, Lon: -120.2},
		}},
		Marker: &track.Marker{Lat: 39.2, Lon: -120.2, Tooltip: "Jorge"},
	})

	rec := f.do(t, http.MethodGet, "/api/track/geojson", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	body := decode[struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}](t, rec)
	assert.Equal(t, "FeatureCollection", body.Type)
	require.Len(t, body.Features, 2)
	assert.Equal(t, "LineString", body.Features[0].Geometry.Type)
	assert.Equal(t, "Point", body.Features[1].Geometry.Type)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTrackerUpstreamFailure(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	f.localizer.Fail(fmt.Errorf("%w: connection refused", tracker.ErrUpstream))
	rec := f.do(t, http.MethodGet, "/api/tracker", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "tracker unavailable", decode[ErrorResponse](t, rec).Error)

	// a known location is still served while polls fail
	_, err := f.localizer.Update(tracker.Status{"Race Status": "Racing", "Route mile": "10 mi"}, time.Now())
	require.NoError(t, err)
	f.localizer.Fail(fmt.Errorf("%w: connection refused", tracker.ErrUpstream))

	rec = f.do(t, http.MethodGet, "/api/tracker", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[tracker.Snapshot](t, rec)
	assert.True(t, snap.Stale)
	require.NotNil(t, snap.Location)
	assert.Equal(t, 1, snap.Location.SegmentID)
}

func TestPostPlanCurrentFollowsTracker(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	_, err := f.localizer.Update(tracker.Status{"Race Status": "Racing", "Route mile": "70 mi"}, time.Now())
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/plan", `{"historicalData": [
		{"segmentId": 1, "actualTotalTimeHours": 4.2},
		{"segmentId": 2, "actualTotalTimeHours": 3.4},
		{"segmentId": 3, "actualTotalTimeHours": 7.8},
		{"segmentId": 4, "actualTotalTimeHours": 6.1}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[plan.Output](t, rec)
	assert.Equal(t, plan.Current, out.Segments[4].Category)
	assert.InDelta(t, 81.95, out.ProjectedTotalTimeHours, 1e-9)
}

func TestTrackerIgnoresNonFiniteDistance(t *testing.T) {
	f := newFixture(t, course.Tahoe(), newMemoryStore())

	_, err := f.localizer.Update(tracker.Status{"Race Status": "Racing", "Route mile": "70 mi"}, time.Now())
	require.NoError(t, err)
	_, err = f.localizer.Update(tracker.Status{"Race Status": "Racing", "Route mile": "NaN mi"}, time.Now())
	require.Error(t, err)

	rec := f.do(t, http.MethodGet, "/api/tracker", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[tracker.Snapshot](t, rec)
	require.NotNil(t, snap.Location)
	assert.Equal(t, 5, snap.Location.SegmentID)
	assert.True(t, snap.Stale)
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), http.StatusOK, map[string]float64{"hours": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to encode response", decode[ErrorResponse](t, rec).Error)
}
