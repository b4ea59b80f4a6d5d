package reader

import (
	"testing"

	"github.com/stratidigit/straditize/internal/column"
)

func TestNewChildForCols_TransfersPixels(t *testing.T) {
	rows, cols := 2, 10
	bounds := []column.Bounds{{Start: 0, End: 5}, {Start: 5, End: 10}}
	binary := make([]uint8, rows*cols)
	binary[0*cols+2] = 1 // in column 0
	binary[1*cols+7] = 1 // in column 1
	tree := NewTree(rows, cols, bounds, binary, KindArea)

	child, err := tree.NewChildForCols(tree.RootID, []int{1}, KindBar)
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	if len(root.Columns) != 1 || root.Columns[0] != 0 {
		t.Fatalf("root should retain only column 0, got %v", root.Columns)
	}
	if len(child.Columns) != 1 || child.Columns[0] != 1 {
		t.Fatalf("child should own column 1, got %v", child.Columns)
	}
	if root.Binary[1*cols+7] != 0 {
		t.Fatal("pixel in the moved column should have been cleared from the parent")
	}
	if child.Binary[1*cols+7] != 1 {
		t.Fatal("pixel should have been transferred to the child")
	}
	if root.Binary[0*cols+2] != 1 {
		t.Fatal("pixel in the retained column should be unaffected")
	}
}

func TestSetAsParent_SwapsRoot(t *testing.T) {
	rows, cols := 1, 4
	bounds := []column.Bounds{{Start: 0, End: 2}, {Start: 2, End: 4}}
	tree := NewTree(rows, cols, bounds, make([]uint8, rows*cols), KindArea)
	child, _ := tree.NewChildForCols(tree.RootID, []int{1}, KindBar)

	if err := tree.SetAsParent(child.ID); err != nil {
		t.Fatal(err)
	}
	if tree.RootID != child.ID {
		t.Fatalf("expected root id %d, got %d", child.ID, tree.RootID)
	}
	if !tree.Root().IsRoot() {
		t.Fatal("new root should report IsRoot true")
	}
}

func TestCreateExaggerationsReader_SharesColumns(t *testing.T) {
	rows, cols := 1, 4
	bounds := []column.Bounds{{Start: 0, End: 4}}
	tree := NewTree(rows, cols, bounds, make([]uint8, rows*cols), KindArea)
	exagg, err := tree.CreateExaggerationsReader(tree.RootID, 10, KindArea)
	if err != nil {
		t.Fatal(err)
	}
	if exagg.IsExaggerated != 10 {
		t.Fatalf("expected exaggeration factor 10, got %v", exagg.IsExaggerated)
	}
	if len(exagg.Columns) != 1 || exagg.Columns[0] != 0 {
		t.Fatalf("exaggeration reader should share the base's columns, got %v", exagg.Columns)
	}
}

func TestBaseOf_FindsNonExaggeratedSibling(t *testing.T) {
	rows, cols := 1, 4
	bounds := []column.Bounds{{Start: 0, End: 4}}
	tree := NewTree(rows, cols, bounds, make([]uint8, rows*cols), KindArea)
	exagg, err := tree.CreateExaggerationsReader(tree.RootID, 10, KindArea)
	if err != nil {
		t.Fatal(err)
	}

	base, err := tree.BaseOf(exagg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if base.ID != tree.RootID {
		t.Fatalf("expected base to be the root node %d, got %d", tree.RootID, base.ID)
	}
}

func TestMarkAsExaggerations_MovesMaskedPixels(t *testing.T) {
	rows, cols := 1, 4
	bounds := []column.Bounds{{Start: 0, End: 4}}
	binary := []uint8{1, 1, 0, 0}
	tree := NewTree(rows, cols, bounds, binary, KindArea)
	exagg, _ := tree.CreateExaggerationsReader(tree.RootID, 5, KindArea)

	mask := []bool{true, false, false, false}
	if err := tree.MarkAsExaggerations(tree.RootID, exagg.ID, mask); err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	if root.Binary[0] != 0 {
		t.Fatal("masked pixel should be cleared from the base reader")
	}
	if exagg.Binary[0] != 1 {
		t.Fatal("masked pixel should have moved to the exaggeration reader")
	}
	if root.Binary[1] != 1 {
		t.Fatal("unmasked pixel should remain on the base reader")
	}
}
