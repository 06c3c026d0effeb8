package geom

import "github.com/paulmach/orb"

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Extend grows the box to include lon/lat. The zero box is treated as empty only
// through the first flag.
func (b *BBox) Extend(lon, lat float64, first bool) {
	if first {
		*b = BBox{MinX: lon, MinY: lat, MaxX: lon, MaxY: lat}
		return
	}
	if lon < b.MinX {
		b.MinX = lon
	}
	if lat < b.MinY {
		b.MinY = lat
	}
	if lon > b.MaxX {
		b.MaxX = lon
	}
	if lat > b.MaxY {
		b.MaxY = lat
	}
}

// Valid reports whether the box has a non-zero extent on both axes.
func (b BBox) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

// Point is a named placemark as it appears in an imported or exported document.
type Point struct {
	Name string
	Lat  float64
	Lon  float64
}

func (p Point) Orb() orb.Point { return orb.Point{p.Lon, p.Lat} }

// Data is what an import yields: named points, open line overlays ([lon, lat] pairs)
// and the document name.
type Data struct {
	MapName string
	Points  []Point
	Lines   [][][2]float64
	BBox    BBox
}

func (d *Data) addPoint(p Point) {
	d.BBox.Extend(p.Lon, p.Lat, len(d.Points) == 0 && len(d.Lines) == 0)
	d.Points = append(d.Points, p)
}

func (d *Data) addLine(ls [][2]float64) {
	for i, c := range ls {
		d.BBox.Extend(c[0], c[1], i == 0 && len(d.Points) == 0 && len(d.Lines) == 0)
	}
	d.Lines = append(d.Lines, ls)
}

// closed reports whether a line starts and ends on the same pair; such lines are
// building or polygon outlines, not routes.
func closed(ls [][2]float64) bool {
	return len(ls) > 1 && ls[0] == ls[len(ls)-1]
}
