package tracker

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/track"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeStatus(t *testing.T) {
	raw := []byte(`{"data":[["Race Status","Racing"],["Route mile","120.3 mi"],["Speed","2.1 mph"],[1,"skip"],["short"]]}`)

	status, err := DecodeStatus(raw)
	require.NoError(t, err)

	assert.Equal(t, "Racing", status.RaceStatus())
	assert.Equal(t, "2.1 mph", status["Speed"])
	assert.Len(t, status, 3)
	assert.False(t, status.NotStarted())

	km, ok := status.RouteKm()
	require.True(t, ok)
	assert.InDelta(t, 120.3*1.60934, km, 1e-9)
}

func TestDecodeStatusErrors(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"error":"Failed to fetch tracker data"}`,
		`{"data":"nope"}`,
		`{}`,
	} {
		_, err := DecodeStatus([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedStatus, "input %s", raw)
	}
}

func TestStatusRouteKm(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"10 mi", 16.0934, true},
		{" 0.0 mi ", 0, true},
		{"42.5", 42.5 * 1.60934, true},
		{"n/a", 0, false},
		{"NaN mi", 0, false},
		{"+Inf mi", 0, false},
	}
	for _, tc := range tests {
		km, ok := Status{"Route mile": tc.raw}.RouteKm()
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.InDelta(t, tc.want, km, 1e-9, tc.raw)
	}

	_, ok := Status{}.RouteKm()
	assert.False(t, ok)
}

func TestStatusNotStarted(t *testing.T) {
	assert.True(t, Status{"Race Status": "Pre-start"}.NotStarted())
	assert.True(t, Status{"Race Status": "DNS"}.NotStarted())
	assert.False(t, Status{"Race Status": "Finished"}.NotStarted())
}

func TestLocalizerStartsEmpty(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())

	_, ok := l.Location()
	assert.False(t, ok)

	snap := l.Snapshot()
	assert.Nil(t, snap.Location)
	assert.False(t, snap.Stale)
	assert.Equal(t, uuid.Nil, snap.PollID)
}

func TestLocalizerRetainsLastLocationOnFailure(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())
	at := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	loc, err := l.Update(Status{"Race Status": "Racing", "Route mile": "70 mi"}, at)
	require.NoError(t, err)
	assert.Equal(t, 5, loc.SegmentID)

	first := l.Snapshot()
	assert.NotEqual(t, uuid.Nil, first.PollID)

	l.Fail(errors.New("connection refused"))

	snap := l.Snapshot()
	assert.True(t, snap.Stale)
	assert.Equal(t, "connection refused", snap.Error)
	require.NotNil(t, snap.Location)
	assert.Equal(t, *first.Location, *snap.Location)
	assert.Equal(t, first.PollID, snap.PollID)
	assert.Equal(t, at, snap.PolledAt)

	got, ok := l.Location()
	require.True(t, ok)
	assert.Equal(t, loc, got)

	// a later success clears the stale flag
	_, err = l.Update(Status{"Route mile": "80 mi"}, at.Add(time.Minute))
	require.NoError(t, err)
	snap = l.Snapshot()
	assert.False(t, snap.Stale)
	assert.Empty(t, snap.Error)
	assert.NotEqual(t, first.PollID, snap.PollID)
}

func TestLocalizerPreStartOverridesDistance(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())

	loc, err := l.Update(Status{"Race Status": "Pre-start", "Route mile": "150 mi"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, loc.SegmentID)
	assert.Zero(t, loc.ProgressPercent)
	assert.Empty(t, loc.CompletedSegmentIDs)
}

func TestLocalizerMissingDistanceKeepsLocation(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())
	_, err := l.Update(Status{"Route mile": "10 mi"}, time.Now())
	require.NoError(t, err)

	_, err = l.Update(Status{"Race Status": "Racing"}, time.Now())
	assert.ErrorIs(t, err, ErrNoRouteDistance)

	loc, ok := l.Location()
	require.True(t, ok)
	assert.Equal(t, 1, loc.SegmentID)
	assert.True(t, l.Snapshot().Stale)
}

func TestLocalizerUpdateFeed(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())

	feed := track.Feed{Marker: &track.Marker{Lat: 39, Lon: -120}}
	l.UpdateFeed(feed)
	l.UpdateFeed(track.Feed{})

	snap := l.Snapshot()
	require.NotNil(t, snap.Feed)
	assert.Equal(t, 39.0, snap.Feed.Marker.Lat)
}

func TestLocalizerNonFiniteDistanceKeepsLocation(t *testing.T) {
	l := NewLocalizer(course.Tahoe(), discardLogger())
	good, err := l.Update(Status{"Race Status": "Racing", "Route mile": "10 mi"}, time.Now())
	require.NoError(t, err)

	_, err = l.Update(Status{"Race Status": "Racing", "Route mile": "NaN mi"}, time.Now())
	assert.ErrorIs(t, err, ErrNoRouteDistance)

	snap := l.Snapshot()
	assert.True(t, snap.Stale)
	require.NotNil(t, snap.Location)
	assert.Equal(t, good, *snap.Location)

	_, err = json.Marshal(snap)
	assert.NoError(t, err)
}
