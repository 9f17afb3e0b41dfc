package track

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	coordArrayRe = regexp.MustCompile(`LLarray\s*=\s*(\[[\s\S]*?\])\s*;`)
	lastMarkerRe = regexp.MustCompile(`imarker(\d+)\s*=\s*L\.marker\(\[([^\]]+)\],\s*\{\s*icon:\s*icon9999`)
)

const fallbackTooltip = "Last point on route"

// Marker is the runner's last reported position on the feed map.
type Marker struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Tooltip   string  `json:"tooltip"`
	PopupHTML string  `json:"popupHtml"`
	// Fallback is set when the feed had no live marker and the last route
	// point was used instead.
	Fallback bool `json:"fallback"`
}

// Feed is the parsed form of a scraped tracker page.
type Feed struct {
	Track  Track   `json:"track"`
	Marker *Marker `json:"marker,omitempty"`
}

// FeedParser extracts geometry from the JavaScript a tracker map page
// embeds. It never fails: undecodable pieces are logged and left empty.
type FeedParser struct {
	logger      *slog.Logger
	runnerLabel string
}

func NewFeedParser(logger *slog.Logger, runnerLabel string) *FeedParser {
	return &FeedParser{
		logger:      logger,
		runnerLabel: runnerLabel,
	}
}

func (p *FeedParser) Parse(text string) Feed {
	points := p.coordinates(text)
	feed := Feed{
		Track: Track{
			Name:   p.runnerLabel,
			Points: points,
			Stats:  ComputeStats(points),
		},
	}

	if m := p.liveMarker(text); m != nil {
		feed.Marker = m
	} else if len(points) > 0 {
		last := points[len(points)-1]
		feed.Marker = &Marker{
			Lat:       last.Lat,
			Lon:       last.Lon,
			Tooltip:   fallbackTooltip,
			PopupHTML: fmt.Sprintf("<div><b>%s</b><br/>Last known position</div>", p.runnerLabel),
			Fallback:  true,
		}
	}

	return feed
}

func (p *FeedParser) coordinates(text string) []Point {
	match := coordArrayRe.FindStringSubmatch(text)
	if match == nil {
		p.logger.Debug("feed has no coordinate array")
		return nil
	}

	raw := match[1]
	if !gjson.Valid(raw) {
		p.logger.Warn("Error decoding coordinate array", slog.Int("bytes", len(raw)))
		return nil
	}

	var points []Point
	skipped := 0
	gjson.Parse(raw).ForEach(func(_, pair gjson.Result) bool {
		coords := pair.Array()
		if !pair.IsArray() || len(coords) < 2 || coords[0].Type != gjson.Number || coords[1].Type != gjson.Number {
			skipped++
			return true
		}
		points = append(points, Point{Lat: coords[0].Float(), Lon: coords[1].Float()})
		return true
	})

	if skipped > 0 {
		p.logger.Warn("Skipped malformed coordinate pairs", slog.Int("skipped", skipped))
	}
	p.logger.Debug("feed coordinates extracted", slog.Int("points", len(points)))

	return points
}

func (p *FeedParser) liveMarker(text string) *Marker {
	match := lastMarkerRe.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	parts := strings.Split(match[2], ",")
	if len(parts) < 2 {
		p.logger.Warn("Live marker has too few coordinates", slog.String("coords", match[2]))
		return nil
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		p.logger.Warn("Error decoding live marker", slog.String("coords", match[2]))
		return nil
	}

	m := &Marker{Lat: lat, Lon: lon}

	id := regexp.QuoteMeta(match[1])
	tooltipRe := regexp.MustCompile(`imarker` + id + `\.bindTooltip\("([^"]+)"`)
	if t := tooltipRe.FindStringSubmatch(text); t != nil {
		m.Tooltip = t[1]
	}
	popupRe := regexp.MustCompile(`imarker` + id + `\.bindPopup\('([^']+)'\)`)
	if pm := popupRe.FindStringSubmatch(text); pm != nil {
		m.PopupHTML = pm[1]
	}

	return m
}
