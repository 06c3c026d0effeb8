package geom

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errCoords = errors.New("coordinates must look like lat/lon")

// ParseCoords reads "lat/lon", "lat, lon", "lat;lon" or "lat lon". A decimal comma is
// accepted unless the comma is the separator.
func ParseCoords(s string) (lat, lon float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, errCoords
	}
	var parts []string
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	case strings.Contains(s, ";"):
		parts = strings.Split(s, ";")
	case strings.Count(s, ",") == 1:
		parts = strings.Split(s, ",")
	default:
		parts = strings.Fields(s)
	}
	if len(parts) != 2 {
		return 0, 0, errCoords
	}
	lat, err1 := ParseNumber(parts[0])
	lon, err2 := ParseNumber(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, errCoords
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, errors.New("coordinates out of range")
	}
	return lat, lon, nil
}

// ParseNumber parses a float, accepting a decimal comma.
func ParseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errCoords
	}
	return v, nil
}

// FormatCoords renders the persisted "lat/lon" form.
func FormatCoords(lat, lon float64) string {
	return strconv.FormatFloat(round6(lat), 'f', -1, 64) + "/" + strconv.FormatFloat(round6(lon), 'f', -1, 64)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
