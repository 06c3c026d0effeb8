package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"kmlgen/internal/apperr"
)

// DecodeGeoJSON reads a FeatureCollection or a single Feature. Points become named
// points (the "name" property), LineStrings become line overlays under the same
// closed-line rule as DecodeKML.
func DecodeGeoJSON(data []byte) (Data, error) {
	var features []*geojson.Feature
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		features = fc.Features
	} else {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil || f.Geometry == nil {
			if err == nil {
				err = ferr
			}
			return Data{}, fmt.Errorf("%w: geojson: %v", apperr.ErrParse, err)
		}
		features = []*geojson.Feature{f}
		fc = nil
	}

	d := Data{MapName: DefaultMapName}
	if fc != nil {
		if n, ok := fc.ExtraMembers["name"].(string); ok && n != "" {
			d.MapName = n
		}
	}
	addLine := func(ls orb.LineString) {
		line := make([][2]float64, len(ls))
		for i, p := range ls {
			line[i] = [2]float64(p)
		}
		if len(line) < 2 || closed(line) {
			return
		}
		d.addLine(line)
	}
	for _, f := range features {
		name := StripDistance(f.Properties.MustString("name", ""))
		switch g := f.Geometry.(type) {
		case orb.Point:
			d.addPoint(Point{Name: name, Lon: g.Lon(), Lat: g.Lat()})
		case orb.MultiPoint:
			for _, p := range g {
				d.addPoint(Point{Name: name, Lon: p.Lon(), Lat: p.Lat()})
			}
		case orb.LineString:
			addLine(g)
		case orb.MultiLineString:
			for _, ls := range g {
				addLine(ls)
			}
		}
	}
	if len(d.Points) == 0 {
		return Data{}, fmt.Errorf("%w: geojson: no points found", apperr.ErrParse)
	}
	return d, nil
}
