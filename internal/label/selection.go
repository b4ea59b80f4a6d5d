package label

import "sort"

// Selection pairs a mutable label array with its frozen original copy.
// A cell is selected iff it equals its original value (and is non-zero) or
// exceeds NumLabels (a user-selected region with no original label). Cells
// set to -1 are explicitly cleared.
type Selection struct {
	Rows, Cols int
	Array      []int32
	Original   []int32
	NumLabels  int
}

// NewSelection builds a Selection from a freshly labeled array.
func NewSelection(labels *Array, numLabels int) *Selection {
	orig := make([]int32, len(labels.Data))
	copy(orig, labels.Data)
	arr := make([]int32, len(labels.Data))
	copy(arr, labels.Data)
	return &Selection{Rows: labels.Rows, Cols: labels.Cols, Array: arr, Original: orig, NumLabels: numLabels}
}

// IsSelected reports whether the cell at flat index i is currently selected.
func (s *Selection) IsSelected(i int) bool {
	v := s.Array[i]
	if v == -1 {
		return false
	}
	if v > int32(s.NumLabels) {
		return true
	}
	return v != 0 && v == s.Original[i]
}

// SelectedLabels returns the sorted set of distinct original label ids
// that have at least one currently selected cell.
func (s *Selection) SelectedLabels() []int32 {
	seen := map[int32]bool{}
	for i, v := range s.Original {
		if v == 0 {
			continue
		}
		if s.IsSelected(i) {
			seen[v] = true
		}
	}
	out := make([]int32, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SelectAll copies the original array back into the working array,
// selecting everything.
func (s *Selection) SelectAll() {
	copy(s.Array, s.Original)
}

// UnselectAll zeroes positive cells that are <= NumLabels, leaving -1 cells
// and user-added (>NumLabels) cells untouched.
func (s *Selection) UnselectAll() {
	for i, v := range s.Array {
		if v > 0 && v <= int32(s.NumLabels) {
			s.Array[i] = 0
		}
	}
}

// Invert flips the selection: currently-selected cells are set to -1
// (explicitly cleared); unselected positive original cells revert to
// their original label, which selects them.
func (s *Selection) Invert() {
	was := make([]bool, len(s.Array))
	for i := range s.Array {
		was[i] = s.IsSelected(i)
	}
	for i := range s.Array {
		if was[i] {
			s.Array[i] = -1
		} else {
			s.Array[i] = s.Original[i]
		}
	}
}

// ExpandToLabel, for every currently-selected cell, selects the entire
// connected component (by original label) that cell belongs to.
func (s *Selection) ExpandToLabel() {
	labels := map[int32]bool{}
	for i := range s.Array {
		if s.IsSelected(i) {
			if orig := s.Original[i]; orig != 0 {
				labels[orig] = true
			}
		}
	}
	for i, orig := range s.Original {
		if orig != 0 && labels[orig] {
			s.Array[i] = orig
		}
	}
}

// PickLabel toggles the label at crop-local coordinate (x, y): if that
// cell's component is selected it is unselected (and vice versa). Returns
// the original label id touched, or 0 if the cell has no label.
func (s *Selection) PickLabel(x, y int) int32 {
	idx := y*s.Cols + x
	orig := s.Original[idx]
	if orig == 0 {
		return 0
	}
	selected := s.IsSelected(idx)
	for i, o := range s.Original {
		if o != orig {
			continue
		}
		if selected {
			s.Array[i] = -1
		} else {
			s.Array[i] = orig
		}
	}
	return orig
}

// Ellipse is a bounding ellipse around a small highlighted component,
// expressed in crop-local pixel coordinates (center + half-axes).
type Ellipse struct {
	CenterX, CenterY float64
	Width, Height    float64
}

// HighlightSmall computes selected ∧ ¬remove_small_objects(selected, n):
// the selected pixels belonging to components smaller than n. It relabels
// those pixels and returns a bounding ellipse (at least 5% of each image
// dimension) per resulting component, for visual attention.
func (s *Selection) HighlightSmall(n int) (*Array, []Ellipse) {
	mask := make([]uint8, len(s.Array))
	for i := range s.Array {
		if s.IsSelected(i) {
			mask[i] = 1
		}
	}
	small := removeSmallComplement(mask, s.Rows, s.Cols, n)

	relabeled, numLabels := Label(small, s.Rows, s.Cols)
	if numLabels == 0 {
		return relabeled, nil
	}

	minHeight := ceilFrac(s.Rows, 0.05)
	minWidth := ceilFrac(s.Cols, 0.05)

	ellipses := make([]Ellipse, 0, numLabels)
	for lbl := int32(1); lbl <= int32(numLabels); lbl++ {
		minX, maxX, minY, maxY := -1, -1, -1, -1
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				if relabeled.At(r, c) != lbl {
					continue
				}
				if minX == -1 || c < minX {
					minX = c
				}
				if c > maxX {
					maxX = c
				}
				if minY == -1 || r < minY {
					minY = r
				}
				if r > maxY {
					maxY = r
				}
			}
		}
		width := float64(maxX - minX)
		height := float64(maxY - minY)
		ellipses = append(ellipses, Ellipse{
			CenterX: float64(minX) + width/2 + 0.5,
			CenterY: float64(minY) + height/2 + 0.5,
			Width:   maxFloat(minWidth, width+2),
			Height:  maxFloat(minHeight, height+2),
		})
	}
	return relabeled, ellipses
}

func ceilFrac(n int, frac float64) float64 {
	v := float64(n) * frac
	if v == float64(int(v)) {
		return v
	}
	return float64(int(v) + 1)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// removeSmallComplement returns mask ∧ ¬(components of mask with size >= n),
// i.e. the cells belonging to components smaller than n pixels.
func removeSmallComplement(mask []uint8, rows, cols, n int) []uint8 {
	labeled, numLabels := Label(mask, rows, cols)
	size := make([]int, numLabels+1)
	for _, v := range labeled.Data {
		if v > 0 {
			size[v]++
		}
	}
	out := make([]uint8, len(mask))
	for i, v := range labeled.Data {
		if v > 0 && size[v] < n {
			out[i] = 1
		}
	}
	return out
}

// SiblingArray is a mutable array of equal shape to a Selection, registered
// so RemoveSelected can zero out cells alongside the selection's own array
// (e.g. the parent RGBA image, the reader's binary, an exaggeration
// reader's binary).
type SiblingArray interface {
	// Len returns the number of cells (rows*cols).
	Len() int
	// Clear zeroes the cell at flat index i.
	Clear(i int)
}

// RemoveCallback observes a sibling array and the removal mask before the
// array is mutated, so collaborators can react (e.g. record removed rows).
type RemoveCallback func(arr SiblingArray, mask []bool)

// RemoveSelected computes the mask "selected positive OR above num_labels"
// and, for every registered sibling array, runs that sibling's callbacks
// (in declaration order) and then zeroes the masked cells.
func (s *Selection) RemoveSelected(siblings []SiblingArray, callbacks [][]RemoveCallback) {
	mask := make([]bool, len(s.Array))
	any := false
	for i, v := range s.Array {
		if s.IsSelected(i) || v > int32(s.NumLabels) {
			mask[i] = true
			any = true
		}
	}
	if !any {
		return
	}
	for si, arr := range siblings {
		var cbs []RemoveCallback
		if si < len(callbacks) {
			cbs = callbacks[si]
		}
		for _, cb := range cbs {
			cb(arr, mask)
		}
		for i, m := range mask {
			if m {
				arr.Clear(i)
			}
		}
	}
}
