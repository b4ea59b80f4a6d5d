// Package column estimates column (taxon) boundaries from the density of
// foreground pixels in a reader's binary image.
package column

// DefaultThreshold is the fraction of column height that must carry
// foreground pixels for a candidate start to be considered valid.
const DefaultThreshold = 0.10

// Bounds is a single column's [Start, End) pixel-column interval.
type Bounds struct {
	Start, End int
}

// EstimateStarts combines three column-boundary detectors:
// null-gap transitions, doubling of density, and increasing runs that at
// least double by their end — each gated on the column covering at least
// `threshold` of the image height, then filtered so consecutive starts are
// at least 1% of the image width apart.
func EstimateStarts(binary []uint8, rows, cols int, threshold float64) []int {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	colMask := make([]bool, cols)
	summed := make([]int, cols)
	for c := 0; c < cols; c++ {
		n := 0
		for r := 0; r < rows; r++ {
			if binary[r*cols+c] != 0 {
				n++
			}
		}
		summed[c] = n
		colMask[c] = n > 0
	}
	valid := make([]bool, cols)
	for c := 0; c < cols; c++ {
		valid[c] = float64(summed[c])/float64(rows) >= threshold
	}

	candidates := map[int]bool{}

	// Null-gap: False→True transitions in colMask.
	for c := 1; c < cols; c++ {
		if colMask[c] && !colMask[c-1] && valid[c] {
			candidates[c] = true
		}
	}
	if cols > 0 && colMask[0] && valid[0] {
		candidates[0] = true
	}

	// Doubling: summed[c] > 2*summed[c-1] and valid[c].
	for c := 1; c < cols; c++ {
		if summed[c] > 2*summed[c-1] && valid[c] {
			candidates[c] = true
		}
	}

	// Increasing runs: maximal runs where summed strictly increases; take
	// start+1 if summed[end] > 2*summed[start] and valid[end].
	c := 0
	for c < cols-1 {
		if summed[c+1] <= summed[c] {
			c++
			continue
		}
		start := c
		end := c
		for end < cols-1 && summed[end+1] > summed[end] {
			end++
		}
		if summed[end] > 2*summed[start] && valid[end] {
			candidates[start+1] = true
		}
		c = end + 1
	}

	sorted := sortedKeys(candidates)

	// Filter: require >= 1% of width between consecutive starts.
	minDiff := 0.01 * float64(cols)
	var filtered []int
	for _, s := range sorted {
		if len(filtered) == 0 || float64(s-filtered[len(filtered)-1]) >= minDiff {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// insertion sort is fine; candidate sets are small relative to image width
	for i := 1; i < len(out); i++ {
		v := out[i]
		j := i - 1
		for j >= 0 && out[j] > v {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = v
	}
	return out
}

// EndsFromStarts derives default column_ends: [starts[1:], width].
func EndsFromStarts(starts []int, width int) []int {
	ends := make([]int, len(starts))
	for i := 0; i < len(starts)-1; i++ {
		ends[i] = starts[i+1]
	}
	if len(ends) > 0 {
		ends[len(ends)-1] = width
	}
	return ends
}

// Bound zips starts and ends into Bounds.
func Bound(starts, ends []int) []Bounds {
	out := make([]Bounds, len(starts))
	for i := range starts {
		out[i] = Bounds{Start: starts[i], End: ends[i]}
	}
	return out
}
