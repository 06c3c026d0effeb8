package geom

import (
	"strings"
	"unicode"
)

// FileName turns a map name into a safe base name for "<name>.kml". Path
// separators, reserved characters and control runes become '_'; an empty result
// falls back to "route".
func FileName(mapName string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		}
		return r
	}, mapName)
	s = strings.Trim(s, " .")
	if s == "" {
		return "route"
	}
	return s
}
