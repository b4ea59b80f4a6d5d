package clean

import (
	"reflect"
	"testing"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/label"
)

func fullRowBinary(rows, cols int, fullRows []int) []uint8 {
	out := make([]uint8, rows*cols)
	set := map[int]bool{}
	for _, r := range fullRows {
		set[r] = true
	}
	for r := 0; r < rows; r++ {
		if set[r] {
			for c := 0; c < cols; c++ {
				out[r*cols+c] = 1
			}
		}
	}
	return out
}

func TestRecognizeHLines(t *testing.T) {
	rows, cols := 10, 10
	bin := fullRowBinary(rows, cols, []int{3, 7})
	got := RecognizeHLines(bin, rows, cols, LineParams{Fraction: 0.99})
	want := []int{3, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterRuns_MinLW(t *testing.T) {
	got := filterRuns([]int{1, 2, 5, 6, 7}, 3, 0)
	want := []int{5, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterRuns_MaxLW(t *testing.T) {
	got := filterRuns([]int{5, 6, 7, 8}, 2, 2)
	want := []int{5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestShowSmallParts(t *testing.T) {
	rows, cols := 3, 3
	arr := label.NewArray(rows, cols)
	arr.Set(0, 0, 1)
	arr.Set(2, 2, 2)
	arr.Set(2, 1, 2)
	small := ShowSmallParts(arr, 2, 2)
	if small.At(0, 0) != 1 {
		t.Fatal("single-pixel label should qualify as small")
	}
	if small.At(2, 2) != 0 {
		t.Fatal("two-pixel label should not qualify for n=2 (not < 2)")
	}
}

func TestShowCrossColumnFeatures(t *testing.T) {
	rows, cols := 2, 6
	bounds := []column.Bounds{{Start: 0, End: 3}, {Start: 3, End: 6}}
	arr := label.NewArray(rows, cols)
	// Label 1 spans both columns with >= 2 px each.
	arr.Set(0, 1, 1)
	arr.Set(0, 2, 1)
	arr.Set(0, 3, 1)
	arr.Set(0, 4, 1)
	// Label 2 lives entirely in column 0.
	arr.Set(1, 0, 2)
	arr.Set(1, 1, 2)

	out := ShowCrossColumnFeatures(arr, bounds, 2)
	if out.At(0, 1) != 1 {
		t.Fatal("label spanning two columns with >= min_px each should qualify")
	}
	if out.At(1, 0) != 0 {
		t.Fatal("single-column label should not qualify")
	}
}

func TestShowPartsAtColumnEnds(t *testing.T) {
	rows, cols := 1, 10
	bounds := []column.Bounds{{Start: 0, End: 10}}
	arr := label.NewArray(rows, cols)
	arr.Set(0, 9, 5)
	out := ShowPartsAtColumnEnds(arr, bounds, 2)
	if out.At(0, 9) != 5 {
		t.Fatal("label touching column end within npixels should qualify")
	}
}
