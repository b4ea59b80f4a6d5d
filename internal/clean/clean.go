// Package clean implements the artifact removers (C4): detectors for
// full-width/full-height lines, per-column axes, disconnected components,
// cross-column features, small specks, and column-end overhangs. Each
// detector returns candidate pixel locations for the caller to review
// before applying them to a label.Selection.
package clean

import (
	"sort"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/label"
)

// LineParams configures the hline/vline/xaxis/yaxis detectors.
type LineParams struct {
	Fraction float64 // default 0.99
	MinLW    int     // default 1
	MaxLW    int      // 0 means unbounded
}

func (p LineParams) fraction() float64 {
	if p.Fraction <= 0 {
		return 0.99
	}
	return p.Fraction
}

func (p LineParams) minLW() int {
	if p.MinLW <= 0 {
		return 1
	}
	return p.MinLW
}

// RecognizeHLines returns the sorted row indices whose foreground coverage
// is >= fraction of the row width, filtered by run-length (min_lw/max_lw).
func RecognizeHLines(binary []uint8, rows, cols int, p LineParams) []int {
	var all []int
	for r := 0; r < rows; r++ {
		n := 0
		for c := 0; c < cols; c++ {
			if binary[r*cols+c] != 0 {
				n++
			}
		}
		if float64(n)/float64(cols) >= p.fraction() {
			all = append(all, r)
		}
	}
	return filterRuns(all, p.minLW(), p.MaxLW)
}

// RecognizeVLines returns the sorted column indices whose foreground
// coverage is >= fraction of the column height, filtered by run-length.
func RecognizeVLines(binary []uint8, rows, cols int, p LineParams) []int {
	var all []int
	for c := 0; c < cols; c++ {
		n := 0
		for r := 0; r < rows; r++ {
			if binary[r*cols+c] != 0 {
				n++
			}
		}
		if float64(n)/float64(rows) >= p.fraction() {
			all = append(all, c)
		}
	}
	return filterRuns(all, p.minLW(), p.MaxLW)
}

// RecognizeXAxes restricts the hline detector to each column's bound
// region, so a per-column x-axis can be found individually. The result
// maps column index -> detected rows local to that column's sub-image.
func RecognizeXAxes(binary []uint8, rows, cols int, bounds []column.Bounds, p LineParams) map[int][]int {
	out := make(map[int][]int, len(bounds))
	for ci, b := range bounds {
		sub, subCols := subColumns(binary, rows, cols, b)
		rowsFound := RecognizeHLines(sub, rows, subCols, p)
		if len(rowsFound) > 0 {
			out[ci] = rowsFound
		}
	}
	return out
}

// RecognizeYAxes restricts the vline detector to each column's bound
// region, so a per-column y-axis can be found individually. The result
// maps column index -> detected columns local to that column's sub-image.
func RecognizeYAxes(binary []uint8, rows, cols int, bounds []column.Bounds, p LineParams) map[int][]int {
	out := make(map[int][]int, len(bounds))
	for ci, b := range bounds {
		sub, subCols := subColumns(binary, rows, cols, b)
		colsFound := RecognizeVLines(sub, rows, subCols, p)
		if len(colsFound) > 0 {
			out[ci] = colsFound
		}
	}
	return out
}

func subColumns(binary []uint8, rows, cols int, b column.Bounds) ([]uint8, int) {
	width := b.End - b.Start
	out := make([]uint8, rows*width)
	for r := 0; r < rows; r++ {
		copy(out[r*width:(r+1)*width], binary[r*cols+b.Start:r*cols+b.End])
	}
	return out, width
}

// filterRuns splits locs into consecutive runs, keeps runs with length
// >= minLW, and within a kept run retains at most maxLW entries (0 ==
// unbounded).
func filterRuns(locs []int, minLW, maxLW int) []int {
	if len(locs) == 0 || minLW < 2 && maxLW == 0 {
		return locs
	}
	var out []int
	start := 0
	for start < len(locs) {
		end := start + 1
		for end < len(locs) && locs[end] == locs[end-1]+1 {
			end++
		}
		run := locs[start:end]
		if len(run) >= minLW {
			if maxLW > 0 && len(run) > maxLW {
				run = run[:maxLW]
			}
			out = append(out, run...)
		}
		start = end
	}
	return out
}

// ShowDisconnectedParts finds, per column, pixels whose row has a gap of at
// least fromlast to the previous foreground pixel of a different label and
// which are at least from0 columns from the column start. A whole label
// becomes a candidate if every one of its pixels meets the criterion.
func ShowDisconnectedParts(labels *label.Array, bounds []column.Bounds, fromlast, from0 int) *label.Array {
	rows, cols := labels.Rows, labels.Cols
	labelMeets := map[int32]bool{}
	labelSeen := map[int32]bool{}

	for _, b := range bounds {
		for r := 0; r < rows; r++ {
			var fgCols []int
			var fgLabels []int32
			for c := b.Start; c < b.End; c++ {
				if v := labels.At(r, c); v != 0 {
					fgCols = append(fgCols, c)
					fgLabels = append(fgLabels, v)
				}
			}
			for i := 1; i < len(fgCols); i++ {
				lbl := fgLabels[i]
				labelSeen[lbl] = true
				gap := fgCols[i] - fgCols[i-1]
				distFrom0 := fgCols[i] - b.Start
				meets := gap >= fromlast && fgLabels[i-1] != lbl && distFrom0 >= from0
				if meets {
					if _, ok := labelMeets[lbl]; !ok {
						labelMeets[lbl] = true
					}
				} else if _, ok := labelMeets[lbl]; !ok {
					labelMeets[lbl] = false
				}
			}
			// first pixel in a row has no predecessor: never "meets"
			if len(fgCols) > 0 {
				lbl := fgLabels[0]
				labelSeen[lbl] = true
				if _, ok := labelMeets[lbl]; !ok {
					labelMeets[lbl] = false
				}
			}
		}
	}

	out := label.NewArray(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lbl := labels.At(r, c)
			if lbl != 0 && labelMeets[lbl] {
				out.Set(r, c, lbl)
			}
		}
	}
	return out
}

// ShowCrossColumnFeatures returns labels that have >= minPx pixels in at
// least two distinct columns, computed against bounds (a "merged-children"
// column layout).
func ShowCrossColumnFeatures(labels *label.Array, bounds []column.Bounds, minPx int) *label.Array {
	rows, cols := labels.Rows, labels.Cols
	counts := map[int32]map[int]int{}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lbl := labels.At(r, c)
			if lbl == 0 {
				continue
			}
			ci := columnIndexFor(bounds, c)
			if ci < 0 {
				continue
			}
			m, ok := counts[lbl]
			if !ok {
				m = map[int]int{}
				counts[lbl] = m
			}
			m[ci]++
		}
	}
	qualifies := map[int32]bool{}
	for lbl, m := range counts {
		n := 0
		for _, cnt := range m {
			if cnt >= minPx {
				n++
			}
		}
		if n >= 2 {
			qualifies[lbl] = true
		}
	}
	out := label.NewArray(rows, cols)
	for i, v := range labels.Data {
		if v != 0 && qualifies[v] {
			out.Data[i] = v
		}
	}
	return out
}

func columnIndexFor(bounds []column.Bounds, c int) int {
	for i, b := range bounds {
		if c >= b.Start && c < b.End {
			return i
		}
	}
	return -1
}

// ShowSmallParts returns labels smaller than n pixels.
func ShowSmallParts(labels *label.Array, numLabels, n int) *label.Array {
	size := make([]int, numLabels+1)
	for _, v := range labels.Data {
		if v > 0 {
			size[v]++
		}
	}
	out := label.NewArray(labels.Rows, labels.Cols)
	for i, v := range labels.Data {
		if v > 0 && size[v] < n {
			out.Data[i] = v
		}
	}
	return out
}

// ShowPartsAtColumnEnds returns labels touching the rightmost npixels of a
// column: a label qualifies if, in at least one of its rows, its
// rightmost pixel in that column lies within npixels of the column end.
func ShowPartsAtColumnEnds(labels *label.Array, bounds []column.Bounds, npixels int) *label.Array {
	rows := labels.Rows
	qualifies := map[int32]bool{}
	for _, b := range bounds {
		for r := 0; r < rows; r++ {
			rightmost := -1
			var rightmostLabel int32
			for c := b.Start; c < b.End; c++ {
				if v := labels.At(r, c); v != 0 {
					rightmost = c
					rightmostLabel = v
				}
			}
			if rightmost >= 0 && b.End-rightmost <= npixels {
				qualifies[rightmostLabel] = true
			}
		}
	}
	out := label.NewArray(labels.Rows, labels.Cols)
	for i, v := range labels.Data {
		if v != 0 && qualifies[v] {
			out.Data[i] = v
		}
	}
	return out
}

// SortedInts is a small helper used by callers that need deterministic
// iteration over a detected-row/col set built from a map.
func SortedInts(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
