package tracker

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const kmPerMile = 1.60934

const (
	fieldRaceStatus = "Race Status"
	fieldRouteMile  = "Route mile"
)

var ErrMalformedStatus = errors.New("malformed tracker status")

// Status is the tracker's named telemetry, e.g. "Route mile" -> "120.3 mi".
type Status map[string]string

// DecodeStatus reads {"data": [[key, value], ...]}. Pairs that are not two
// strings are skipped.
func DecodeStatus(raw []byte) (Status, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not json", ErrMalformedStatus)
	}

	doc := gjson.ParseBytes(raw)
	if e := doc.Get("error"); e.Exists() {
		return nil, fmt.Errorf("%w: tracker reported %q", ErrMalformedStatus, e.String())
	}

	data := doc.Get("data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: missing data array", ErrMalformedStatus)
	}

	status := make(Status)
	data.ForEach(func(_, pair gjson.Result) bool {
		kv := pair.Array()
		if len(kv) >= 2 && kv[0].Type == gjson.String {
			status[kv[0].String()] = kv[1].String()
		}
		return true
	})

	return status, nil
}

func (s Status) RaceStatus() string {
	return s[fieldRaceStatus]
}

// NotStarted is true before the runner has crossed the start line.
func (s Status) NotStarted() bool {
	switch s.RaceStatus() {
	case "Pre-start", "DNS":
		return true
	}
	return false
}

// RouteKm converts the "Route mile" field ("120.3 mi") to kilometres.
// NaN and infinite readings count as missing.
func (s Status) RouteKm() (float64, bool) {
	raw, ok := s[fieldRouteMile]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "mi"))
	miles, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(miles) || math.IsInf(miles, 0) {
		return 0, false
	}
	return miles * kmPerMile, true
}
