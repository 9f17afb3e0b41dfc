package track

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tkrajina/gpxgo/gpx"
)

var errNoTrackContainer = errors.New("document has no <trk> element")

// ParseGPX reads the first track of a GPX document. Elevations are
// converted from unit to meters.
func ParseGPX(data []byte, unit ElevationUnit) (*Track, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, &ParseError{Source: "gpx", Err: err}
	}

	if len(g.Tracks) == 0 {
		return nil, &ParseError{Source: "gpx", Err: errNoTrackContainer}
	}

	trk := g.Tracks[0]
	name := trk.Name
	if name == "" {
		name = "Track 1"
	}

	var points []Point
	for _, segment := range trk.Segments {
		for _, p := range segment.Points {
			pt := Point{Lat: p.Latitude, Lon: p.Longitude}
			if !p.Timestamp.IsZero() {
				ts := p.Timestamp
				pt.Time = &ts
			}
			if p.Elevation.NotNull() {
				pt.ElevationM = unit.toMeters(p.Elevation.Value())
			}
			points = append(points, pt)
		}
	}

	if len(points) == 0 {
		return nil, ErrNoTrack
	}

	return &Track{
		Name:   name,
		Points: points,
		Stats:  ComputeStats(points),
	}, nil
}

// ReadGPXFile loads and parses a GPX file from disk.
func ReadGPXFile(path string, unit ElevationUnit) (*Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading gpx file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("gpx file is a directory")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return ParseGPX(contents, unit)
}
