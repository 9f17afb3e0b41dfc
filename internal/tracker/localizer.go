package tracker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/track"
)

// ErrNoRouteDistance means the runner has started but the tracker did not
// report a usable distance along the route.
var ErrNoRouteDistance = errors.New("tracker status has no route distance")

// Snapshot is what consumers see: the last good resolution plus whether the
// most recent poll failed.
type Snapshot struct {
	PollID   uuid.UUID   `json:"pollId"`
	PolledAt time.Time   `json:"polledAt"`
	Location *Location   `json:"location,omitempty"`
	Status   Status      `json:"status,omitempty"`
	Feed     *track.Feed `json:"feed,omitempty"`
	Stale    bool        `json:"stale"`
	Error    string      `json:"error,omitempty"`

	// FeedStale is set when the latest map feed fetch failed; Feed is then
	// the last one that succeeded.
	FeedStale bool   `json:"feedStale"`
	FeedError string `json:"feedError,omitempty"`
}

// Localizer owns the last known location. Only successful polls replace
// it; failures just mark it stale.
type Localizer struct {
	catalog *course.Catalog
	logger  *slog.Logger

	mu       sync.RWMutex
	location *Location
	status   Status
	feed     *track.Feed
	pollID   uuid.UUID
	polledAt time.Time
	lastErr  error
	feedErr  error
}

func NewLocalizer(catalog *course.Catalog, logger *slog.Logger) *Localizer {
	return &Localizer{
		catalog: catalog,
		logger:  logger,
	}
}

// Update resolves a freshly fetched status and stores it. A pre-start
// status pins the runner to the first segment regardless of distance.
func (l *Localizer) Update(status Status, at time.Time) (Location, error) {
	var loc Location
	switch km, ok := status.RouteKm(); {
	case status.NotStarted():
		loc = AtStart(l.catalog)
	case ok:
		loc = Resolve(km, l.catalog)
	default:
		l.Fail(ErrNoRouteDistance)
		return Location{}, ErrNoRouteDistance
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.location = &loc
	l.status = status
	l.pollID = uuid.New()
	l.polledAt = at
	l.lastErr = nil

	l.logger.Debug("Resolved runner location",
		slog.Int("segment", loc.SegmentID),
		slog.Float64("progress", loc.ProgressPercent),
		slog.String("race_status", status.RaceStatus()))

	return loc, nil
}

// UpdateFeed stores the latest parsed map feed and clears any feed error.
// An empty feed does not replace a previous one.
func (l *Localizer) UpdateFeed(feed track.Feed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.feedErr = nil
	if len(feed.Track.Points) == 0 && feed.Marker == nil {
		return
	}
	l.feed = &feed
}

// FailFeed records a failed feed fetch without touching the last feed.
func (l *Localizer) FailFeed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.feedErr = err
}

// Fail records a failed poll without touching the last location.
func (l *Localizer) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastErr = err
}

// Err is the error from the most recent poll, nil after a success.
func (l *Localizer) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

func (l *Localizer) Location() (Location, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.location == nil {
		return Location{}, false
	}
	return *l.location, true
}

func (l *Localizer) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		PollID:   l.pollID,
		PolledAt: l.polledAt,
		Status:   l.status,
		Feed:     l.feed,
		Stale:    l.lastErr != nil,
	}
	if l.location != nil {
		loc := *l.location
		s.Location = &loc
	}
	if l.lastErr != nil {
		s.Error = l.lastErr.Error()
	}
	if l.feedErr != nil {
		s.FeedStale = true
		s.FeedError = l.feedErr.Error()
	}
	return s
}
