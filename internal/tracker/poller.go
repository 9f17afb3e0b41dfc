package tracker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/briangreenhill/ranplan/internal/track"
)

// Source is the subset of Client the poller needs.
type Source interface {
	FetchStatus(ctx context.Context) (Status, error)
	FetchFeed(ctx context.Context) (string, error)
	HasFeed() bool
}

// Poller refreshes a Localizer on a fixed interval. Polls never overlap: a
// tick that arrives while one is running is dropped.
type Poller struct {
	source    Source
	localizer *Localizer
	parser    *track.FeedParser
	interval  time.Duration
	logger    *slog.Logger
	running   atomic.Bool
}

func NewPoller(source Source, localizer *Localizer, parser *track.FeedParser, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		source:    source,
		localizer: localizer,
		parser:    parser,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-ctx.Done():
			p.logger.Info("Tracker polling stopped")
			return
		}
	}
}

// PollOnce fetches the tracker once. It returns false when skipped because
// another poll was still in flight.
func (p *Poller) PollOnce(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug("Skipping poll, previous poll still running")
		return false
	}
	defer p.running.Store(false)

	status, err := p.source.FetchStatus(ctx)
	if err != nil {
		p.logger.Error("Error fetching tracker status", slog.Any("error", err))
		p.localizer.Fail(err)
	} else if loc, err := p.localizer.Update(status, time.Now().UTC()); err != nil {
		p.logger.Warn("Tracker status not usable", slog.Any("error", err))
	} else {
		p.logger.Info("Tracker polled",
			slog.Int("segment", loc.SegmentID),
			slog.String("segment_name", loc.SegmentName),
			slog.Float64("route_km", loc.RouteKm))
	}

	if p.source.HasFeed() && p.parser != nil {
		text, err := p.source.FetchFeed(ctx)
		if err != nil {
			p.logger.Error("Error fetching tracker feed", slog.Any("error", err))
			p.localizer.FailFeed(err)
		} else {
			p.localizer.UpdateFeed(p.parser.Parse(text))
		}
	}

	return true
}
