package occurrence

import (
	"testing"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/label"
)

func TestGetOccurrences_AddsCentroid(t *testing.T) {
	rows, cols := 3, 3
	arr := label.NewArray(rows, cols)
	arr.Set(0, 0, 1)
	arr.Set(0, 1, 1)
	sel := label.NewSelection(arr, 1)
	s := NewSet()
	GetOccurrences(s, sel, nil, cols, false)
	if s.Len() != 1 {
		t.Fatalf("expected one occurrence point, got %d", s.Len())
	}
	pts := s.Points()
	if pts[0].Y != 0 {
		t.Fatalf("expected centroid row 0, got %v", pts[0])
	}
}

func TestColumnOf(t *testing.T) {
	bounds := []column.Bounds{{Start: 0, End: 5}, {Start: 5, End: 10}}
	if ColumnOf(bounds, Point{X: 7, Y: 0}) != 1 {
		t.Fatal("expected point at x=7 to land in column 1")
	}
	if ColumnOf(bounds, Point{X: 20, Y: 0}) != -1 {
		t.Fatal("expected out-of-range point to return -1")
	}
}
