package straditizer

import (
	"testing"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/digitize"
	"github.com/stratidigit/straditize/internal/frame"
	"github.com/stratidigit/straditize/internal/reader"
)

func TestGuessDataLims_FindsBoundingBox(t *testing.T) {
	rows, cols := 10, 10
	grey := make([]int, rows*cols)
	for r := 2; r < 5; r++ {
		for c := 3; c < 6; c++ {
			grey[r*cols+c] = 1
		}
	}
	box := GuessDataLims(grey, cols, rows)
	if box.X0 != 3 || box.X1 != 6 || box.Y0 != 2 || box.Y1 != 5 {
		t.Fatalf("unexpected box: %+v", box)
	}
}

func TestDigitizeAll_WritesDisjointColumns(t *testing.T) {
	rows, cols := 5, 2
	bin := make([]uint8, rows*cols)
	bin[0*cols+0] = 1 // column 0, row 0
	bounds := []column.Bounds{{Start: 0, End: 1}, {Start: 1, End: 2}}

	s := &Straditizer{Concurrency: 4}
	s.Tree = reader.NewTree(rows, cols, bounds, bin, reader.KindArea)
	s.Tree.FullDF = frame.New(rows, len(bounds))

	if err := s.DigitizeAll(digitize.ModeOffset); err != nil {
		t.Fatal(err)
	}
	if s.Tree.FullDF.Values[0][0] != 1 {
		t.Fatalf("expected digitized value 1 at column 0 row 0, got %v", s.Tree.FullDF.Values[0][0])
	}
	if s.Tree.FullDF.Values[1][0] != 0 {
		t.Fatalf("expected column 1 unaffected, got %v", s.Tree.FullDF.Values[1][0])
	}
}

func TestDigitizeAll_MergesExaggerationReader(t *testing.T) {
	rows, cols := 4, 3
	bounds := []column.Bounds{{Start: 0, End: 3}}
	bin := make([]uint8, rows*cols)
	bin[0*cols+0] = 1 // root: offset 1 at row 0

	tree := reader.NewTree(rows, cols, bounds, bin, reader.KindArea)
	exagg, err := tree.CreateExaggerationsReader(tree.RootID, 10, reader.KindArea)
	if err != nil {
		t.Fatal(err)
	}
	exagg.Binary[1*cols+1] = 1 // exaggeration reader: offset 2 at row 1

	s := &Straditizer{Concurrency: 2, ExaggFraction: 0, ExaggAbsolute: 0}
	s.Tree = tree
	s.Tree.FullDF = frame.New(rows, len(bounds))

	if err := s.DigitizeAll(digitize.ModeOffset); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 0.2, 0, 0}
	got := s.Tree.FullDF.Values[0]
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("row %d: want %v, got %v (full: %v)", i, w, got[i], got)
		}
	}
}

func TestDigitizeAll_DispatchesBarKind(t *testing.T) {
	rows, cols := 6, 1
	bounds := []column.Bounds{{Start: 0, End: 1}}
	bin := make([]uint8, rows*cols)
	for r := 0; r < 3; r++ {
		bin[r*cols+0] = 1 // rows 0-2: a bar of height 1
	}

	tree := reader.NewTree(rows, cols, bounds, bin, reader.KindBar)
	s := &Straditizer{Concurrency: 1}
	s.Tree = tree
	s.Tree.FullDF = frame.New(rows, len(bounds))

	if err := s.DigitizeAll(digitize.ModeOffset); err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 3; r++ {
		if v := s.Tree.FullDF.Values[0][r]; v != 1 {
			t.Fatalf("row %d: expected bar value 1, got %v", r, v)
		}
	}
}

func TestNew_AssignsUniqueSessionID(t *testing.T) {
	a := New(nil, DataBox{})
	b := New(nil, DataBox{})
	if a.SessionID == "" || b.SessionID == "" {
		t.Fatal("expected a non-empty session id")
	}
	if a.SessionID == b.SessionID {
		t.Fatal("expected distinct session ids across instances")
	}
}

func TestFinalDF_FillsMissingWithZero(t *testing.T) {
	full := frame.New(5, 1)
	full.Values[0][2] = 42
	out := FinalDF(full, []int{1, 2})
	if out.Values[0][0] != 0 {
		t.Fatalf("expected NaN row filled to 0, got %v", out.Values[0][0])
	}
	if out.Values[0][1] != 42 {
		t.Fatalf("expected sample row preserved, got %v", out.Values[0][1])
	}
}
