package track

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the route as a LineString and, when present,
// the live marker as a Point.
func FeatureCollection(t *Track, marker *Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if t != nil && len(t.Points) > 0 {
		line := make(orb.LineString, len(t.Points))
		for i, p := range t.Points {
			line[i] = orb.Point{p.Lon, p.Lat}
		}
		route := geojson.NewFeature(line)
		route.Properties["kind"] = "route"
		route.Properties["name"] = t.Name
		route.Properties["distanceKm"] = t.Stats.TotalDistanceKm
		fc.Append(route)
	}

	if marker != nil {
		live := geojson.NewFeature(orb.Point{marker.Lon, marker.Lat})
		live.Properties["kind"] = "runner"
		live.Properties["tooltip"] = marker.Tooltip
		live.Properties["popupHtml"] = marker.PopupHTML
		live.Properties["fallback"] = marker.Fallback
		fc.Append(live)
	}

	return fc
}
