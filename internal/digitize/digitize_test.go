package digitize

import (
	"math"
	"testing"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/frame"
)

func TestColumn_OffsetMode(t *testing.T) {
	rows, cols := 3, 5
	bin := make([]uint8, rows*cols)
	bin[0*cols+2] = 1 // row0: rightmost fg at col2, bound [0,5) -> offset 3
	bin[1*cols+0] = 1
	bin[1*cols+4] = 1 // row1: rightmost at col4 -> offset 5
	vals := Column(bin, rows, cols, column.Bounds{Start: 0, End: 5}, ModeOffset)
	if vals[0] != 3 || vals[1] != 5 || vals[2] != 0 {
		t.Fatalf("unexpected offsets: %v", vals)
	}
}

func TestColumn_SumMode(t *testing.T) {
	rows, cols := 2, 4
	bin := make([]uint8, rows*cols)
	bin[0*cols+0] = 1
	bin[0*cols+1] = 1
	vals := Column(bin, rows, cols, column.Bounds{Start: 0, End: 4}, ModeSum)
	if vals[0] != 2 || vals[1] != 0 {
		t.Fatalf("unexpected sums: %v", vals)
	}
}

func TestArea_InterpolatesHlines(t *testing.T) {
	rows, cols := 5, 3
	bin := make([]uint8, rows*cols)
	for r := 0; r < rows; r++ {
		if r == 2 {
			continue
		}
		bin[r*cols+1] = 1
	}
	f := frame.New(rows, 1)
	bounds := []column.Bounds{{Start: 0, End: 3}}
	Area(f, bin, rows, cols, bounds, []int{0}, ModeOffset, []int{2})
	if math.IsNaN(f.Values[0][2]) {
		t.Fatal("hline row should have been interpolated, not left NaN")
	}
}

func TestGetBars_SimpleRuns(t *testing.T) {
	arr := []float64{5, 5, 5, 0, 0, 9, 9, 9, 9}
	bars, _ := GetBars(arr, BarParams{Tolerance: 1})
	if len(bars) == 0 {
		t.Fatal("expected at least one bar")
	}
	first := bars[0]
	if first.Value != 5 {
		t.Fatalf("expected first bar value 5, got %v", first.Value)
	}
}

func TestGetBars_EmptyAllZero(t *testing.T) {
	arr := []float64{0, 0, 0, 0}
	bars, split := GetBars(arr, BarParams{})
	if bars != nil || split != nil {
		t.Fatalf("expected no bars for all-zero input, got %v / %v", bars, split)
	}
}

func TestIsObstacle_ShortSameSignSlopes(t *testing.T) {
	arr := []float64{0, 1, 2, 3, 5, 3, 4, 5, 6}
	if !isObstacle([]int{4, 5}, arr) {
		t.Fatal("expected a narrow symmetric bump on a rising run to be flagged an obstacle")
	}
}

func TestStackedArea_BandWidthsFromCumulative(t *testing.T) {
	rows := 3
	f := frame.New(rows, 2)
	s := NewStackedArea(rows)
	s.AddCol(f, 0, []float64{5, 5, 5})
	if f.Values[0][0] != 5 {
		t.Fatalf("first band width should equal its cumulative offset, got %v", f.Values[0][0])
	}
	s.AddCol(f, 1, []float64{8, 9, 20})
	want := []float64{3, 4, 15}
	for r, w := range want {
		if f.Values[1][r] != w {
			t.Fatalf("band 1 width at row %d = %v, want %v", r, f.Values[1][r], w)
		}
	}
}

func TestExaggerationMerge_ReplacesBelowThreshold(t *testing.T) {
	parent := frame.New(3, 1)
	exagg := frame.New(3, 1)
	parent.Values[0] = []float64{1, 2, 100}
	exagg.Values[0] = []float64{20, 40, 2000}
	replaced := ExaggerationMerge(parent, exagg, 0, 10, 100, 0.05, 8)
	if len(replaced) == 0 {
		t.Fatal("expected some rows below threshold to be replaced")
	}
	if parent.Values[0][2] != 100 {
		t.Fatal("row far above threshold should not be replaced")
	}
}
