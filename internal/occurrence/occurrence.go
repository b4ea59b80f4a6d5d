// Package occurrence tracks per-reader occurrence markers: crop-local
// pixel positions flagged as "present but not quantified" (C10), such as
// a pollen taxon marked present below the countable threshold.
package occurrence

import (
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/label"
)

// Point is a crop-local pixel position.
type Point struct {
	X, Y int
}

// Set is a per-reader set of occurrence points, deduplicated by position.
type Set struct {
	points map[Point]bool
}

// NewSet returns an empty occurrence set.
func NewSet() *Set {
	return &Set{points: map[Point]bool{}}
}

// Add records a point, no-op if already present.
func (s *Set) Add(p Point) {
	s.points[p] = true
}

// Remove discards a point.
func (s *Set) Remove(p Point) {
	delete(s.points, p)
}

// Points returns the set's members in no particular order.
func (s *Set) Points() []Point {
	out := make([]Point, 0, len(s.points))
	for p := range s.points {
		out = append(out, p)
	}
	return out
}

// Len reports the number of occurrence points.
func (s *Set) Len() int { return len(s.points) }

// GetOccurrences consumes the current selection: for every currently
// selected connected component, its rounded centroid is added to the set.
// If clearSelected is true, those pixels are also cleared from binary
// (removing them from the reader's digitizable data).
func GetOccurrences(s *Set, sel *label.Selection, binary []uint8, cols int, clearSelected bool) {
	sums := map[int32][3]int{} // label -> (sumX, sumY, count)
	for i, v := range sel.Original {
		if v == 0 || !sel.IsSelected(i) {
			continue
		}
		x := i % sel.Cols
		y := i / sel.Cols
		t := sums[v]
		t[0] += x
		t[1] += y
		t[2]++
		sums[v] = t
	}
	for _, t := range sums {
		cx := (2*t[0] + t[2]) / (2 * t[2])
		cy := (2*t[1] + t[2]) / (2 * t[2])
		s.Add(Point{X: cx, Y: cy})
	}
	if clearSelected && binary != nil {
		for i := range sel.Original {
			if sel.Original[i] != 0 && sel.IsSelected(i) {
				binary[i] = 0
			}
		}
	}
}

// ColumnOf locates which column bound contains a point's x position, -1
// if none.
func ColumnOf(bounds []column.Bounds, p Point) int {
	for i, b := range bounds {
		if p.X >= b.Start && p.X < b.End {
			return i
		}
	}
	return -1
}
