package route

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// SortFrom orders wps by greedy nearest neighbour starting at startID: from the
// current point it always steps to the closest unvisited waypoint, ties going to the
// earlier one in input order. There is no backtracking, so the tour is not the
// shortest one in general. If startID is not in wps the input order is returned.
func SortFrom(startID int, wps []Waypoint, dist DistanceFunc) []Waypoint {
	start := slices.IndexFunc(wps, func(w Waypoint) bool { return w.ID == startID })
	if start < 0 {
		return slices.Clone(wps)
	}
	out := make([]Waypoint, 0, len(wps))
	visited := make([]bool, len(wps))
	cur := start
	for {
		visited[cur] = true
		out = append(out, wps[cur])
		next, best := -1, math.Inf(1)
		for i, w := range wps {
			if visited[i] {
				continue
			}
			if d := dist(wps[cur].Point(), w.Point()); d < best {
				next, best = i, d
			}
		}
		if next < 0 {
			return out
		}
		cur = next
	}
}

// OrderAlongLine orders wps by the index of their nearest vertex on line, so points
// imported next to a track follow the direction of that track. Ties keep input order.
func OrderAlongLine(wps []Waypoint, line [][2]float64, dist DistanceFunc) []Waypoint {
	out := slices.Clone(wps)
	if len(line) == 0 {
		return out
	}
	rank := make(map[int]int, len(wps))
	for _, w := range wps {
		best, bestD := 0, math.Inf(1)
		for i, v := range line {
			if d := dist(w.Point(), orb.Point(v)); d < bestD {
				best, bestD = i, d
			}
		}
		rank[w.ID] = best
	}
	slices.SortStableFunc(out, func(a, b Waypoint) int { return rank[a.ID] - rank[b.ID] })
	return out
}
