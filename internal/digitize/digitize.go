// Package digitize turns a reader's binary image into data values: one
// reading per row per column (C6). It implements the area/line strategy
// (rightmost foreground pixel or pixel count per row) and the bar strategies
// (contiguous same-height runs, with optional rounded-top obstacle
// rejection and over/under-length splitting), plus merging of an
// exaggerated reader's values back into its parent (C7).
package digitize

import (
	"math"

	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/frame"
)

// Mode selects how a row's value is derived from its foreground pixels.
type Mode int

const (
	// ModeOffset takes 1 + the index of the rightmost foreground pixel
	// relative to the column start, 0 if the row has none (used by area
	// and line readers).
	ModeOffset Mode = iota
	// ModeSum counts the foreground pixels in the row.
	ModeSum
)

// Column computes one column's raw values for rows [0,rows) by scanning
// bounds b of the binary image (row-major, width cols).
func Column(binary []uint8, rows, cols int, b column.Bounds, mode Mode) []float64 {
	vals := make([]float64, rows)
	for r := 0; r < rows; r++ {
		switch mode {
		case ModeSum:
			n := 0
			for c := b.Start; c < b.End; c++ {
				if binary[r*cols+c] != 0 {
					n++
				}
			}
			vals[r] = float64(n)
		default:
			rightmost := -1
			for c := b.Start; c < b.End; c++ {
				if binary[r*cols+c] != 0 {
					rightmost = c
				}
			}
			if rightmost < 0 {
				vals[r] = 0
			} else {
				vals[r] = float64(rightmost - b.Start + 1)
			}
		}
	}
	return vals
}

// Area digitizes every column in columns (indices into bounds/f.Values)
// from the binary image, then interpolates rows detected as hlines.
func Area(f *frame.Frame, binary []uint8, rows, cols int, bounds []column.Bounds, columns []int, mode Mode, hlineLocs []int) {
	for _, col := range columns {
		f.Values[col] = Column(binary, rows, cols, bounds[col], mode)
	}
	for _, col := range columns {
		f.InterpolateRows(hlineLocs, col)
	}
}

// Line digitizes with the same semantics as Area; kept as a distinct entry
// point because the reader that owns it may apply different cleaning
// passes upstream.
func Line(f *frame.Frame, binary []uint8, rows, cols int, bounds []column.Bounds, columns []int, mode Mode, hlineLocs []int) {
	Area(f, binary, rows, cols, bounds, columns, mode, hlineLocs)
}

// Bar is one contiguous run of rows sharing a bar's height: [Start,End)
// with the bar's value being the maximum raw value inside the run.
type Bar struct {
	Start, End int
	Value      float64
}

func diff(b Bar) int { return b.End - b.Start }

func isNanOr0(v float64) bool { return math.IsNaN(v) || v == 0 }

// BarParams configures bar segmentation.
type BarParams struct {
	Tolerance float64 // max deviation from the run's starting value, default 2
	Rounded   bool    // trigger a new bar on a slope reversal, gated by obstacle rejection
	MinLen    *int    // reject runs shorter than this (nil: skip this explicit check)
	MaxLen    *int    // split runs longer than this (nil: skip this explicit check)
	DoSplit   bool    // actually split too-long bars into equal pieces rather than just flagging them
}

func (p BarParams) tolerance() float64 {
	if p.Tolerance <= 0 {
		return 2
	}
	return p.Tolerance
}

// GetBars segments raw per-row values into bars. It mirrors the reference
// state machine: a new bar starts whenever the value crosses from
// zero/NaN into data, whenever it crosses back out, whenever a rounded
// bar's slope reverses (and the reversal isn't a shallow obstacle), when
// the value strays more than tolerance from the bar's starting value, or
// at the final row. Runs far shorter than the median are then dropped and
// runs far longer than the median are flagged (and, if DoSplit, cut into
// equal-width pieces).
func GetBars(arr []float64, p BarParams) (bars []Bar, splitted []Bar) {
	first := -1
	for i, v := range arr {
		if !isNanOr0(v) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil
	}

	var indices []Bar
	lastStart := first
	lastEnd := first
	lastVal := arr[first]
	lastStartVal := lastVal
	lastState := 1
	nrows := len(arr) - 1

	for i := first + 1; i < len(arr); i++ {
		value := arr[i]
		state := 0
		if !isNanOr0(value) && !isNanOr0(lastVal) {
			state = sign(value - lastVal)
		}
		if i == nrows {
			lastEnd++
		}
		switch {
		case isNanOr0(lastVal) && !isNanOr0(value):
			lastStart = i
			lastStartVal = value
		case (isNanOr0(value) && !isNanOr0(lastVal)) ||
			(p.Rounded && state != 0 && state > lastState && !isObstacle([]int{i}, arr)) ||
			math.Abs(value-lastStartVal) > p.tolerance() ||
			(!isNanOr0(value) && i == nrows):
			end := lastEnd + 1
			b := Bar{Start: lastStart, End: end}
			b.Value = maxInRange(arr, b.Start, b.End)
			indices = append(indices, b)
			lastStart = i
			lastStartVal = value
		}
		lastEnd = i
		lastVal = value
		if state != 0 {
			lastState = state
		}
	}

	if p.MinLen != nil {
		indices = removeTooShort(indices, float64(*p.MinLen))
	}
	indices = removeTooShortFraction(indices, 0.4)

	var split []Bar
	if p.MaxLen != nil {
		indices, split = splitTooLong(indices, arr, float64(*p.MaxLen), p.DoSplit, split)
	}
	indices, split = splitTooLongFraction(indices, arr, 1.7, p.DoSplit, split)
	indices = removeTooShortFraction(indices, 0.4)

	return indices, split
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func maxInRange(arr []float64, start, end int) float64 {
	m := math.Inf(-1)
	for i := start; i < end && i < len(arr); i++ {
		if arr[i] > m {
			m = arr[i]
		}
	}
	return m
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := append([]float64(nil), vals...)
	for i := 1; i < len(cp); i++ {
		v := cp[i]
		j := i - 1
		for j >= 0 && cp[j] > v {
			cp[j+1] = cp[j]
			j--
		}
		cp[j+1] = v
	}
	n := len(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

func lengths(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(diff(b))
	}
	return out
}

func removeTooShort(bars []Bar, val float64) []Bar {
	var out []Bar
	for _, b := range bars {
		if float64(diff(b)) >= val {
			out = append(out, b)
		}
	}
	return out
}

func removeTooShortFraction(bars []Bar, fraction float64) []Bar {
	if len(bars) == 0 {
		return bars
	}
	val := fraction * median(lengths(bars))
	return removeTooShort(bars, val)
}

func splitTooLong(bars []Bar, arr []float64, val float64, doSplit bool, splitAccum []Bar) ([]Bar, []Bar) {
	return splitTooLongVal(bars, arr, val, doSplit, splitAccum)
}

func splitTooLongFraction(bars []Bar, arr []float64, fraction float64, doSplit bool, splitAccum []Bar) ([]Bar, []Bar) {
	if len(bars) == 0 {
		return bars, splitAccum
	}
	med := median(lengths(bars))
	return splitTooLongVal(bars, arr, fraction*med, doSplit, splitAccum)
}

func splitTooLongVal(bars []Bar, arr []float64, val float64, doSplit bool, splitAccum []Bar) ([]Bar, []Bar) {
	if len(bars) == 0 {
		return bars, splitAccum
	}
	med := median(lengths(bars))
	roundedMed := int(math.Round(med))
	var out []Bar
	for _, b := range bars {
		if float64(diff(b)) <= val {
			out = append(out, b)
			continue
		}
		splitAccum = append(splitAccum, b)
		if !doSplit || roundedMed <= 0 {
			out = append(out, b)
			continue
		}
		nbars := int(math.Ceil(float64(diff(b)) / med))
		for j := 0; j < nbars; j++ {
			s := b.Start + j*roundedMed
			e := b.Start + (j+1)*roundedMed
			if e > b.End {
				e = b.End
			}
			if e <= s {
				continue
			}
			out = append(out, Bar{Start: s, End: e, Value: maxInRange(arr, s, e)})
		}
	}
	return out, splitAccum
}

// isObstacle reports whether the extremum at indices is a shallow bump
// that should not trigger a new bar: short (span <= 2), not at the array's
// end, and flanked by same-signed slopes on either side.
func isObstacle(indices []int, arr []float64) bool {
	if indices[len(indices)-1]-indices[0] > 2 || indices[len(indices)-1] == len(arr)-1 {
		return false
	}
	slope0, slope1, ok := surroundingSlopes(indices, arr)
	if !ok {
		return false
	}
	return sign(slope0) == sign(slope1)
}

func surroundingSlopes(indices []int, arr []float64) (float64, float64, bool) {
	vmin := indices[0]
	vmax := indices[len(indices)-1] - 1
	if vmax >= len(arr)-1 {
		return 0, 0, false
	}
	nlower := nextInterval(arr, vmin, -1)
	nhigher := nextInterval(arr, vmax, 1)
	if nlower > 0 && nhigher > 0 && vmin-nlower-1 > 0 && vmax+nhigher+1 < len(arr) {
		slope0 := (arr[vmin-1] - arr[vmin-nlower-1]) / float64(nlower)
		slope1 := (arr[vmax+nhigher+1] - arr[vmax+1]) / float64(nhigher)
		return slope0, slope1, true
	}
	return 0, 0, false
}

// nextInterval walks from i in the given direction (+1/-1) until the value
// differs from the boundary value, returning the run length.
func nextInterval(arr []float64, i, step int) int {
	if step == 1 {
		base := arr[i+1]
		n := 0
		for j := i + 1; j < len(arr); j++ {
			if arr[j] != base {
				return n
			}
			n++
		}
		return n
	}
	base := arr[i-1]
	n := 0
	for j := i - 1; j >= 0; j-- {
		if arr[j] != base {
			return n
		}
		n++
	}
	return n
}

// DigitizeBars runs GetBars per column and writes the flattened result
// (NaN outside any bar, the bar's value for every row inside it) into f.
func DigitizeBars(f *frame.Frame, raw *frame.Frame, columns []int, params BarParams) (bars map[int][]Bar, splitted map[int][]Bar) {
	bars = make(map[int][]Bar, len(columns))
	splitted = make(map[int][]Bar, len(columns))
	for _, col := range columns {
		arr := raw.Values[col]
		found, split := GetBars(arr, params)
		bars[col] = found
		splitted[col] = split
		out := f.Values[col]
		for i := range out {
			out[i] = math.NaN()
		}
		for _, b := range found {
			for r := b.Start; r < b.End && r < len(out); r++ {
				out[r] = b.Value
			}
		}
	}
	return bars, splitted
}

// StackedArea accumulates incremental user selections into a stacked-area
// reader's columns. full_df stores per-band widths (differences between
// consecutive bands' rightmost-pixel offsets), not cumulative totals: band
// k's plotted curve is the prefix sum of bands 0..k.
type StackedArea struct {
	// totals[row] is the cumulative rightmost-pixel offset through the
	// last band added.
	totals []float64
}

// NewStackedArea starts a stack with an all-zero running total, so the
// first band added has a width equal to its cumulative offset. It writes
// no column itself.
func NewStackedArea(rows int) *StackedArea {
	return &StackedArea{totals: make([]float64, rows)}
}

// AddCol appends a new band from a per-row rightmost-pixel-offset mask,
// writing the band's width (this band's cumulative offset minus the
// previous band's) into f.Values[col] and advancing the running total.
func (s *StackedArea) AddCol(f *frame.Frame, col int, cumulative []float64) {
	width := make([]float64, len(cumulative))
	for r, v := range cumulative {
		width[r] = v - s.totals[r]
	}
	f.Values[col] = width
	s.totals = cumulative
}

// UpdateCol replaces an already-added band's cumulative curve, recomputing
// its width and the width of the following band (if any) so the stack
// stays consistent.
func (s *StackedArea) UpdateCol(f *frame.Frame, col int, cumulative []float64, prevCumulative []float64, nextCol int, nextCumulative []float64) {
	width := make([]float64, len(cumulative))
	for r, v := range cumulative {
		width[r] = v - prevCumulative[r]
	}
	f.Values[col] = width
	if nextCumulative != nil {
		nextWidth := make([]float64, len(nextCumulative))
		for r, v := range nextCumulative {
			nextWidth[r] = v - cumulative[r]
		}
		f.Values[nextCol] = nextWidth
	}
	s.totals = cumulative
	if nextCumulative != nil {
		s.totals = nextCumulative
	}
}

// ExaggerationMerge merges an exaggerations reader's values into the
// parent's full data frame wherever the parent's value is at or below
// max(fraction*columnWidth, absolute) — C7. It returns the rows that were
// replaced.
func ExaggerationMerge(parent, exagg *frame.Frame, col int, exaggFactor float64, columnWidth int, fraction, absolute float64) []int {
	pv := parent.Values[col]
	ev := exagg.Values[col]
	threshold := math.Max(fraction*float64(columnWidth), absolute)
	var replaced []int
	for r := range pv {
		if math.IsNaN(pv[r]) || pv[r] > threshold {
			continue
		}
		if math.IsNaN(ev[r]) {
			continue
		}
		pv[r] = ev[r] / exaggFactor
		replaced = append(replaced, r)
	}
	return replaced
}
