package straditizer

import (
	"image"
	"testing"

	"github.com/stratidigit/straditize/internal/axis"
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/frame"
	"github.com/stratidigit/straditize/internal/imageproc"
	"github.com/stratidigit/straditize/internal/reader"
)

func TestToFromDataset_RoundTripsTreeAndGeometry(t *testing.T) {
	rows, cols := 3, 6
	bounds := []column.Bounds{{Start: 0, End: 3}, {Start: 3, End: 6}}
	bin := make([]uint8, rows*cols)
	bin[0*cols+1] = 1

	s := New(nil, DataBox{X0: 1, X1: 2, Y0: 3, Y1: 4})
	s.YAxis = axis.NewYAxis([2]float64{0, 100}, [2]float64{0, 10})
	s.Tree = reader.NewTree(rows, cols, bounds, bin, reader.KindArea)
	s.Tree.ColumnStarts = []int{0, 3}
	s.Tree.ColumnEnds = []int{3, 6}
	s.Tree.HlineLocs = []int{1}
	s.Tree.FullDF = frame.New(rows, len(bounds))
	s.Tree.FullDF.Values[0][0] = 42
	s.Tree.FullDF.Values[1][2] = 7

	child, err := s.Tree.NewChildForCols(s.Tree.RootID, []int{1}, reader.KindBar)
	if err != nil {
		t.Fatal(err)
	}
	exagg, err := s.Tree.CreateExaggerationsReader(s.Tree.RootID, 5, reader.KindArea)
	if err != nil {
		t.Fatal(err)
	}
	s.Attrs["title"] = "example diagram"

	b := s.ToDataset()
	got, err := FromDataset(b)
	if err != nil {
		t.Fatal(err)
	}

	if got.SessionID != s.SessionID {
		t.Fatalf("session id mismatch: %q vs %q", got.SessionID, s.SessionID)
	}
	if got.Attrs["title"] != "example diagram" {
		t.Fatalf("expected attrs round-tripped, got %v", got.Attrs)
	}
	if got.Box != s.Box {
		t.Fatalf("data box mismatch: %+v vs %+v", got.Box, s.Box)
	}
	if !got.YAxis.IsSet() {
		t.Fatal("expected y-axis mapping to round-trip as set")
	}
	if len(got.Tree.Nodes) != len(s.Tree.Nodes) {
		t.Fatalf("expected %d nodes, got %d", len(s.Tree.Nodes), len(got.Tree.Nodes))
	}
	for _, id := range []int{s.Tree.RootID, child.ID, exagg.ID} {
		n, err := got.Tree.Node(id)
		if err != nil {
			t.Fatalf("expected node %d to round-trip: %v", id, err)
		}
		orig, _ := s.Tree.Node(id)
		if n.Kind != orig.Kind || n.IsExaggerated != orig.IsExaggerated {
			t.Fatalf("node %d: kind/exaggeration mismatch: got %+v, want %+v", id, n, orig)
		}
	}
	if got.Tree.FullDF.Values[0][0] != 42 || got.Tree.FullDF.Values[1][2] != 7 {
		t.Fatalf("full data frame did not round-trip: %+v", got.Tree.FullDF.Values)
	}
	if len(got.Tree.HlineLocs) != 1 || got.Tree.HlineLocs[0] != 1 {
		t.Fatalf("expected hline locs to round-trip, got %v", got.Tree.HlineLocs)
	}

	// A reconstructed tree must still be able to mint fresh node ids.
	if _, err := got.Tree.NewChildForCols(got.Tree.RootID, nil, reader.KindLine); err != nil {
		t.Fatalf("expected reconstructed tree to mint new node ids: %v", err)
	}
}

func TestToDataset_RoundTripsImage(t *testing.T) {
	img := &imageproc.Image{
		Pix:    image.NewRGBA(image.Rect(0, 0, 2, 2)),
		Width:  2,
		Height: 2,
	}
	img.Pix.Pix[0] = 200
	s := New(img, DataBox{})
	b := s.ToDataset()
	got, err := FromDataset(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Image == nil {
		t.Fatal("expected image to round-trip")
	}
	if got.Image.Width != 2 || got.Image.Height != 2 {
		t.Fatalf("unexpected image dims: %+v", got.Image)
	}
	if got.Image.Pix.Pix[0] != 200 {
		t.Fatalf("expected pixel data to round-trip, got %v", got.Image.Pix.Pix[0])
	}
}
