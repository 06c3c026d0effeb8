package geom

import "testing"

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Маршрут 1": "Маршрут 1",
		"a/b\\c":    "a_b_c",
		"../etc":    "_etc",
		"  ":        "route",
		"x:y?\n":    "x_y__",
		"trip.":     "trip",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q): Expected %q, got %q", in, want, got)
		}
	}
}
