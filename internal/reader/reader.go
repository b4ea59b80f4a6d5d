// Package reader implements the reader hierarchy (C5): an arena of nodes
// — one binary/label crop per reader, each owning a set of taxon columns
// — rather than a tree of pointer-linked parent/child/sibling structs.
// Nodes reference each other by int ID so the tree can be serialized and
// cloned without chasing cycles. Shared, parent-owned state (column
// bounds, the full data frame, sample locations, hline/vline
// removals, per-column vertical shift, occurrences) lives on the Tree
// itself, keyed by node ID where it's per-reader.
package reader

import (
	"fmt"
	"sort"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/frame"
	"github.com/stratidigit/straditize/internal/label"
	"github.com/stratidigit/straditize/internal/occurrence"
)

// Kind identifies a digitizer strategy for a reader.
type Kind int

const (
	KindArea Kind = iota
	KindLine
	KindBar
	KindRoundedBar
	KindStackedArea
)

// Node is one reader: a binary/label crop owning a set of taxon columns.
// ParentID equal to the node's own ID marks it as the tree's root reader.
type Node struct {
	ID            int
	ParentID      int
	Columns       []int
	IsExaggerated float64
	Kind          Kind
	Binary        []uint8 // full image width*height, zero outside owned bounds
	Labels        *label.Array
}

// IsRoot reports whether n is the tree's parent reader.
func (n *Node) IsRoot() bool { return n.ID == n.ParentID }

// Tree is the arena holding every reader plus the parent-owned shared
// state that every reader in the tree reads and writes through.
type Tree struct {
	Rows, Cols int
	Bounds     []column.Bounds

	Nodes  []*Node
	RootID int
	nextID int

	ColumnStarts []int
	ColumnEnds   []int
	FullDF       *frame.Frame
	SampleLocs   []int
	HlineLocs    []int
	VlineLocs    []int
	ColumnShift  []float64

	Occurrences map[int]*occurrence.Set
}

// NewTree creates a single-node tree: one root reader owning every
// column, with binary as its initial crop.
func NewTree(rows, cols int, bounds []column.Bounds, binary []uint8, kind Kind) *Tree {
	allCols := make([]int, len(bounds))
	for i := range bounds {
		allCols[i] = i
	}
	root := &Node{ID: 0, ParentID: 0, Columns: allCols, Kind: kind, Binary: append([]uint8(nil), binary...)}
	return &Tree{
		Rows: rows, Cols: cols, Bounds: bounds,
		Nodes: []*Node{root}, RootID: 0, nextID: 1,
		Occurrences: map[int]*occurrence.Set{0: occurrence.NewSet()},
	}
}

// RecomputeNextID resyncs the arena's next-id counter from the highest ID
// currently present in Nodes. Callers that build a Tree's Nodes directly
// (e.g. deserializing one) must call this before using NewChildForCols or
// CreateExaggerationsReader, since those rely on nextID to avoid reusing
// an existing node's ID.
func (t *Tree) RecomputeNextID() {
	next := 0
	for _, n := range t.Nodes {
		if n.ID >= next {
			next = n.ID + 1
		}
	}
	t.nextID = next
}

// Node looks up a node by ID.
func (t *Tree) Node(id int) (*Node, error) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("reader: no node with id %d", id)
}

// Root returns the tree's parent reader.
func (t *Tree) Root() *Node {
	n, _ := t.Node(t.RootID)
	return n
}

// Owner returns the node that currently owns the given taxon column.
func (t *Tree) Owner(col int) (*Node, error) {
	for _, n := range t.Nodes {
		for _, c := range n.Columns {
			if c == col {
				return n, nil
			}
		}
	}
	return nil, fmt.Errorf("reader: column %d is not owned by any node", col)
}

// NewChildForCols moves ownership of cols from parentID's node to a new
// child node, physically transferring the pixels within those columns'
// bounds from the parent's binary into the child's.
func (t *Tree) NewChildForCols(parentID int, cols []int, kind Kind) (*Node, error) {
	parent, err := t.Node(parentID)
	if err != nil {
		return nil, err
	}
	owned := map[int]bool{}
	for _, c := range parent.Columns {
		owned[c] = true
	}
	for _, c := range cols {
		if !owned[c] {
			return nil, fmt.Errorf("reader: column %d is not owned by node %d", c, parentID)
		}
	}
	child := &Node{
		ID: t.nextID, ParentID: parentID, Columns: append([]int(nil), cols...), Kind: kind,
		Binary: make([]uint8, len(parent.Binary)),
	}
	t.nextID++

	moved := map[int]bool{}
	for _, c := range cols {
		moved[c] = true
	}
	var remaining []int
	for _, c := range parent.Columns {
		if moved[c] {
			continue
		}
		remaining = append(remaining, c)
	}
	sort.Ints(remaining)
	parent.Columns = remaining

	for _, c := range cols {
		b := t.Bounds[c]
		for r := 0; r < t.Rows; r++ {
			for px := b.Start; px < b.End; px++ {
				idx := r*t.Cols + px
				child.Binary[idx] = parent.Binary[idx]
				parent.Binary[idx] = 0
			}
		}
	}

	t.Nodes = append(t.Nodes, child)
	t.Occurrences[child.ID] = occurrence.NewSet()
	return child, nil
}

// SetAsParent promotes childID to be the tree's root, swapping the
// parent/child linkage between it and the node that previously owned it.
// Shared state (owned by the Tree, not any one node) is untouched.
func (t *Tree) SetAsParent(childID int) error {
	child, err := t.Node(childID)
	if err != nil {
		return err
	}
	if child.IsRoot() {
		return nil
	}
	oldParentID := t.RootID
	oldParent, err := t.Node(oldParentID)
	if err != nil {
		return err
	}
	oldParent.ParentID = childID
	child.ParentID = childID
	t.RootID = childID
	return nil
}

// CreateExaggerationsReader makes a sibling reader under the same root
// as base, sharing base's column list, with an empty binary and
// IsExaggerated set to factor.
func (t *Tree) CreateExaggerationsReader(baseID int, factor float64, kind Kind) (*Node, error) {
	base, err := t.Node(baseID)
	if err != nil {
		return nil, err
	}
	parentID := base.ParentID
	if base.IsRoot() {
		parentID = base.ID
	}
	n := &Node{
		ID: t.nextID, ParentID: parentID, Columns: append([]int(nil), base.Columns...),
		IsExaggerated: factor, Kind: kind, Binary: make([]uint8, len(base.Binary)),
	}
	t.nextID++
	t.Nodes = append(t.Nodes, n)
	t.Occurrences[n.ID] = occurrence.NewSet()
	return n, nil
}

// BaseOf returns the non-exaggerated sibling reader that an exaggerations
// reader overlays: the node sharing exaggID's ParentID and column set with
// IsExaggerated == 0.
func (t *Tree) BaseOf(exaggID int) (*Node, error) {
	exagg, err := t.Node(exaggID)
	if err != nil {
		return nil, err
	}
	for _, n := range t.Nodes {
		if n.ID == exagg.ID || n.IsExaggerated != 0 || n.ParentID != exagg.ParentID {
			continue
		}
		if sameColumns(n.Columns, exagg.Columns) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("reader: no non-exaggerated sibling found for node %d", exaggID)
}

func sameColumns(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}

// MarkAsExaggerations moves every pixel selected by mask (same length as
// base.Binary) from base into exagg, clearing it from base.
func (t *Tree) MarkAsExaggerations(baseID, exaggID int, mask []bool) error {
	base, err := t.Node(baseID)
	if err != nil {
		return err
	}
	exagg, err := t.Node(exaggID)
	if err != nil {
		return err
	}
	if len(mask) != len(base.Binary) {
		return fmt.Errorf("reader: mask length %d does not match binary length %d", len(mask), len(base.Binary))
	}
	for i, set := range mask {
		if set && base.Binary[i] != 0 {
			exagg.Binary[i] = base.Binary[i]
			base.Binary[i] = 0
		}
	}
	return nil
}
