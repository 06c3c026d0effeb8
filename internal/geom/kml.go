package geom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml/v3"

	"kmlgen/internal/apperr"
)

// DefaultMapName is used when an imported document has no root <name>.
const DefaultMapName = "Imported route"

// RouteName names the LineString placemark joining the exported points.
const RouteName = "Route"

// distanceSuffix matches the " - 1234 м" annotation EncodeKML appends to names.
var distanceSuffix = regexp.MustCompile(`(?i)\s+-\s+\d+\s*[мmМM]$`)

// EncodeKML writes one Placemark per point, in order, followed by the Route
// LineString when there are at least two points. Every name after the first carries
// the cumulative distance in meters. Output depends only on the input.
func EncodeKML(w io.Writer, mapName string, pts []Point) error {
	elems := []kml.Element{kml.Name(mapName)}
	coords := make([]kml.Coordinate, 0, len(pts))
	var total float64
	for i, p := range pts {
		name := p.Name
		if i > 0 {
			total += Distance(pts[i-1].Orb(), p.Orb())
			name = fmt.Sprintf("%s - %d м", p.Name, int64(math.Round(total)))
		}
		c := kml.Coordinate{Lon: round6(p.Lon), Lat: round6(p.Lat)}
		coords = append(coords, c)
		elems = append(elems, kml.Placemark(
			kml.Name(name),
			kml.Point(kml.Coordinates(c)),
		))
	}
	if len(pts) >= 2 {
		elems = append(elems, kml.Placemark(
			kml.Name(RouteName),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}
	doc := kml.KML(kml.Document(elems...))
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write kml: %w", err)
	}
	return nil
}

// EncodeKMLBytes is EncodeKML into memory.
func EncodeKMLBytes(mapName string, pts []Point) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeKML(&buf, mapName, pts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlMultiGeometry struct {
	Points      []kmlGeometry `xml:"Point"`
	LineStrings []kmlGeometry `xml:"LineString"`
}

type kmlPlacemark struct {
	Name       string            `xml:"name"`
	Point      *kmlGeometry      `xml:"Point"`
	LineString *kmlGeometry      `xml:"LineString"`
	Multi      *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlContainer struct {
	Name       string         `xml:"name"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   *kmlContainer  `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

// DecodeKML extracts Point placemarks as named points and open LineStrings as line
// overlays. Closed LineStrings are discarded. Folders are walked recursively.
func DecodeKML(data []byte) (Data, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return Data{}, fmt.Errorf("%w: kml: %v", apperr.ErrParse, err)
	}
	d := Data{MapName: DefaultMapName}
	var walk func(c kmlContainer)
	walk = func(c kmlContainer) {
		for _, pm := range c.Placemarks {
			d.addPlacemark(pm)
		}
		for _, f := range c.Folders {
			walk(f)
		}
	}
	if root.Document != nil {
		if n := strings.TrimSpace(root.Document.Name); n != "" {
			d.MapName = n
		}
		walk(*root.Document)
	}
	walk(kmlContainer{Folders: root.Folders, Placemarks: root.Placemarks})
	if len(d.Points) == 0 {
		return Data{}, fmt.Errorf("%w: kml: no points found", apperr.ErrParse)
	}
	return d, nil
}

func (d *Data) addPlacemark(pm kmlPlacemark) {
	name := StripDistance(pm.Name)
	addPoint := func(g kmlGeometry) {
		cs := parseKMLCoords(g.Coordinates)
		if len(cs) == 0 {
			return
		}
		d.addPoint(Point{Name: name, Lon: cs[0][0], Lat: cs[0][1]})
	}
	addLine := func(g kmlGeometry) {
		ls := parseKMLCoords(g.Coordinates)
		if len(ls) < 2 || closed(ls) {
			return
		}
		d.addLine(ls)
	}
	if pm.Point != nil {
		addPoint(*pm.Point)
	}
	if pm.LineString != nil {
		addLine(*pm.LineString)
	}
	if pm.Multi != nil {
		for _, g := range pm.Multi.Points {
			addPoint(g)
		}
		for _, g := range pm.Multi.LineStrings {
			addLine(g)
		}
	}
}

// StripDistance removes a trailing " - <digits> м" annotation (any case, Latin or
// Cyrillic m).
func StripDistance(name string) string {
	return strings.TrimSpace(distanceSuffix.ReplaceAllString(strings.TrimSpace(name), ""))
}

var spacedComma = regexp.MustCompile(`\s*,\s*`)

// parseKMLCoords reads whitespace separated "lon,lat[,alt]" tuples; altitude is ignored.
// Hand-edited files often put spaces after the commas, so those are collapsed first.
func parseKMLCoords(s string) [][2]float64 {
	var out [][2]float64
	for _, tuple := range strings.Fields(spacedComma.ReplaceAllString(s, ",")) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, [2]float64{lon, lat})
	}
	return out
}
