package course

import (
	"fmt"
	"time"
)

type leg struct {
	name   string
	km     float64
	gainM  float64
	hours  [6]float64 // 80h..105h
	pacer  string
	sleepH float64
	cutoff string
}

// Tahoe 200 (2025 edition). Distances are the differences between the
// published cumulative aid-station kilometres.
var tahoeLegs = []leg{
	{"Armstrong Pass", 24.0, 889, [6]float64{3.8, 4.0, 4.3, 4.5, 4.7, 5.0}, "", 0, "2025-06-13T12:47:00-07:00"},
	{"Housewife Hill", 26.9, 717, [6]float64{3.1, 3.3, 3.5, 3.7, 3.9, 4.1}, "", 0, "2025-06-13T15:50:00-07:00"},
	{"Armstrong Pass", 27.0, 1260, [6]float64{7.2, 7.6, 8.0, 8.4, 8.8, 9.2}, "", 0, "2025-06-13T23:00:00-07:00"},
	{"Heavenly", 23.9, 646, [6]float64{5.4, 5.7, 6.0, 6.3, 6.6, 6.9}, "", 1.0, "2025-06-14T15:00:00-07:00"},
	{"Spooner Summit", 28.9, 909, [6]float64{7.1, 7.5, 7.9, 8.3, 8.7, 9.1}, "luis", 0, "2025-06-14T23:30:00-07:00"},
	{"Village Green", 29.6, 849, [6]float64{5.8, 6.1, 6.4, 6.7, 7.0, 7.3}, "huevo", 0, "2025-06-15T08:30:00-07:00"},
	{"Brockway Summit", 21.3, 972, [6]float64{6.3, 6.6, 6.9, 7.2, 7.5, 7.8}, "gavilan", 2.0, "2025-06-15T15:30:00-07:00"},
	{"Tahoe City", 30.3, 755, [6]float64{6.1, 6.4, 6.7, 7.0, 7.3, 7.6}, "gavilan", 0, "2025-06-16T02:30:00-07:00"},
	{"Brockway Summit", 30.3, 1060, [6]float64{7.2, 7.6, 8.0, 8.4, 8.8, 9.2}, "", 1.0, "2025-06-16T13:30:00-07:00"},
	{"Village Green", 21.2, 720, [6]float64{6.6, 6.9, 7.2, 7.5, 7.8, 8.1}, "luis", 0, "2025-06-16T20:00:00-07:00"},
	{"Spooner Summit", 30.3, 1071, [6]float64{7.1, 7.5, 7.9, 8.3, 8.7, 9.1}, "huevo", 0, "2025-06-17T07:00:00-07:00"},
	{"Finish", 28.2, 1017, [6]float64{6.8, 7.1, 7.4, 7.7, 8.0, 8.3}, "gavilan", 0, "2025-06-17T18:00:00-07:00"},
}

// Tahoe returns the reference catalog. It panics if the static table is
// inconsistent, which can only happen through an edit to this file.
func Tahoe() *Catalog {
	segments := make([]Segment, len(tahoeLegs))
	var cumulative float64
	for i, l := range tahoeLegs {
		cumulative += l.km
		cutoff, err := time.Parse(time.RFC3339, l.cutoff)
		if err != nil {
			panic(fmt.Sprintf("course: bad cutoff for segment %d: %v", i+1, err))
		}

		times := make(map[Target]float64, len(Targets))
		for j, t := range Targets {
			times[t] = l.hours[j]
		}

		segments[i] = Segment{
			ID:                   i + 1,
			Name:                 l.name,
			DistanceKm:           l.km,
			CumulativeDistanceKm: cumulative,
			ElevationGainM:       l.gainM,
			TimeByFinishTarget:   times,
			SleepHours:           l.sleepH,
			Pacer:                l.pacer,
			Cutoff:               cutoff,
		}
	}

	c, err := New(segments)
	if err != nil {
		panic(err)
	}
	if err := c.Validate(Targets); err != nil {
		panic(err)
	}
	return c
}
