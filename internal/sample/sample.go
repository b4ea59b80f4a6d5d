// Package sample implements the extremum (measurement) finder: locating
// candidate sample rows in a single column's digitized values (C8),
// rejecting shallow obstacles, aligning candidates across columns by
// interval overlap, and assembling the final per-row sample table.
package sample

import (
	"math"
	"sort"

	"github.com/stratidigit/straditize/internal/frame"
)

// Interval is a half-open row range [Lo, Hi).
type Interval struct {
	Lo, Hi int
}

func (iv Interval) width() int { return iv.Hi - iv.Lo }

// FindPotentialFilter optionally rejects a candidate interval in addition
// to the min/max length checks.
type FindPotentialFilter func(iv Interval) bool

// FindPotential implements find_potential_samples: a single pass of the
// slope state machine producing candidate extremum intervals, followed by
// obstacle rejection and a second pass over the flattened array. Returns
// the included and excluded intervals (union of both passes' exclusions).
func FindPotential(a []float64, minLen, maxLen *int, filter FindPotentialFilter) (included, excluded []Interval) {
	doAppend := func(iv Interval) bool {
		w := iv.width()
		if minLen != nil && w <= *minLen {
			return false
		}
		if maxLen != nil && w > *maxLen {
			return false
		}
		if filter != nil {
			return filter(iv)
		}
		return true
	}

	_, excluded0 := findPass(a, doAppend)
	flat := append([]float64(nil), a...)
	included1, excluded1 := findPassFlatten(flat, doAppend)
	excluded = append(excluded1, excluded0...)
	return included1, excluded
}

func findPass(a []float64, doAppend func(Interval) bool) (included, excluded []Interval) {
	intervals := scanIntervals(a, doAppend)
	for _, iv := range intervals {
		if isObstacleInterval(iv, a) {
			excluded = append(excluded, iv)
		} else {
			included = append(included, iv)
		}
	}
	return included, excluded
}

// findPassFlatten scans a, flattens any obstacle interval in place to
// min(value at its left edge, value at its right edge) (matching outward
// merges of adjacent flattened obstacles), then re-scans the flattened
// array for the final included set.
func findPassFlatten(a []float64, doAppend func(Interval) bool) (included, excluded []Interval) {
	intervals := scanIntervals(a, doAppend)
	orig := append([]float64(nil), a...)
	last := -1
	for _, iv := range intervals {
		if !isObstacleInterval(iv, orig) {
			continue
		}
		excluded = append(excluded, iv)
		var v float64
		switch {
		case iv.Lo <= 0:
			v = orig[iv.Hi-1]
		case iv.Hi == len(a):
			v = orig[iv.Lo-1]
		default:
			v = math.Min(orig[iv.Lo-1], orig[iv.Hi-1])
		}
		if last >= 0 {
			maxDiff := 0.0
			for i := last + 1; i < iv.Hi-1 && i < len(orig); i++ {
				d := math.Abs(orig[i] - v)
				if d > maxDiff {
					maxDiff = d
				}
			}
			if maxDiff <= 1 {
				v = math.Min(v, orig[last])
				for i := last; i < iv.Lo; i++ {
					a[i] = v
				}
			}
		}
		last = iv.Lo
		for i := iv.Lo; i < iv.Hi; i++ {
			a[i] = v
		}
	}
	return scanIncluded(a, doAppend)
}

func scanIncluded(a []float64, doAppend func(Interval) bool) (included, excluded []Interval) {
	intervals := scanIntervals(a, doAppend)
	for _, iv := range intervals {
		if isObstacleInterval(iv, a) {
			excluded = append(excluded, iv)
		} else {
			included = append(included, iv)
		}
	}
	return included, excluded
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

// scanIntervals implements the slope state machine: minima crossings
// (merged if the prior zero-interval's slope re-crosses within 4 rows),
// and slope-reversal closures.
func scanIntervals(a []float64, doAppend func(Interval) bool) []Interval {
	var out []Interval
	if len(a) < 2 {
		return out
	}
	lastState := 0
	lastChange := 0
	wasZero := false
	leftVal := a[0]
	const minVal = 0.0

	appendOrMerge := func(iv Interval, merge bool) {
		if merge && len(out) > 0 {
			cand := Interval{out[len(out)-1].Lo, iv.Hi + 1}
			if doAppend(cand) {
				out[len(out)-1] = cand
			} else {
				out = out[:len(out)-1]
			}
			return
		}
		if len(out) > 0 && out[len(out)-1].Hi > iv.Lo {
			return
		}
		if doAppend(iv) {
			out = append(out, iv)
		}
	}

	for i := 1; i < len(a); i++ {
		val := a[i]
		if math.IsNaN(val) {
			continue
		}
		state := sign(val - leftVal)
		switch {
		case state == 0:
			// no-op
		case leftVal > minVal && val <= minVal:
			appendOrMerge(Interval{i, i + 1}, false)
			wasZero = true
			lastState = state
		case leftVal <= minVal && val > minVal:
			merge := wasZero && (i-lastChange) <= 4
			appendOrMerge(Interval{i - 1, i}, merge)
			wasZero = false
			lastState = state
		default:
			if lastState == 0 {
				lastState = state
			} else if state != lastState {
				appendOrMerge(Interval{lastChange, i}, false)
				lastState = state
			}
			lastChange = i
			wasZero = false
		}
		leftVal = val
	}
	return out
}

// isObstacleInterval rejects a candidate whose span is short (<=2), not
// at the array's end, and flanked by same-signed slopes on both sides —
// a shallow bump in an otherwise monotone trend rather than a genuine
// extremum.
func isObstacleInterval(iv Interval, a []float64) bool {
	if iv.Hi-iv.Lo > 2 || iv.Hi-1 == len(a)-1 {
		return false
	}
	s0, s1, ok := surroundingSlopes(iv, a)
	if !ok {
		return false
	}
	return sign(s0) == sign(s1)
}

func surroundingSlopes(iv Interval, a []float64) (float64, float64, bool) {
	vmin := iv.Lo
	vmax := iv.Hi - 1
	if vmax >= len(a)-1 {
		return 0, 0, false
	}
	nlower := nextInterval(a, vmin, -1)
	nhigher := nextInterval(a, vmax, 1)
	if nlower > 0 && nhigher > 0 && vmin-nlower-1 > 0 && vmax+nhigher+1 < len(a) {
		s0 := (a[vmin-1] - a[vmin-nlower-1]) / float64(nlower)
		s1 := (a[vmax+nhigher+1] - a[vmax+1]) / float64(nhigher)
		return s0, s1, true
	}
	return 0, 0, false
}

func nextInterval(a []float64, i, step int) int {
	if step == 1 {
		base := a[i+1]
		n := 0
		for j := i + 1; j < len(a); j++ {
			if a[j] != base {
				return n
			}
			n++
		}
		return n
	}
	base := a[i-1]
	n := 0
	for j := i - 1; j >= 0; j-- {
		if a[j] != base {
			return n
		}
		n++
	}
	return n
}

// Bar is one column's candidate interval, used for cross-column alignment.
type Bar struct {
	Col     int
	Indices Interval

	overlaps    []*Bar
	allOverlaps []*Bar
}

func (b *Bar) loc() float64 { return float64(b.Indices.Lo+b.Indices.Hi-1) / 2 }

func (b *Bar) meanLoc() float64 {
	members := b.group()
	sum, n := 0.0, 0
	for _, m := range members {
		sum += float64(m.Indices.Lo + m.Indices.Hi - 1)
		n += 2
	}
	return sum / float64(n)
}

func (b *Bar) group() []*Bar {
	if b.allOverlaps != nil {
		return b.allOverlaps
	}
	if b.overlaps != nil {
		return append([]*Bar{b}, b.overlaps...)
	}
	return []*Bar{b}
}

// GetOverlaps records which bars in bars overlap b by at least minFract
// (clamped at width-1 rows), keeping only the closest bar per column when
// more than one candidate from that column qualifies.
func (b *Bar) GetOverlaps(bars []*Bar, minFract float64) {
	byCol := map[int][]*Bar{}
	vmin1, vmax1 := b.Indices.Lo, b.Indices.Hi
	n1 := vmax1 - vmin1
	for _, other := range bars {
		if other.Col == b.Col {
			continue
		}
		if other.Indices.Lo > b.Indices.Hi-1 || other.Indices.Hi-1 < b.Indices.Lo {
			continue
		}
		vmin2, vmax2 := other.Indices.Lo, other.Indices.Hi
		minLen := n1
		if w := vmax2 - vmin2; w < minLen {
			minLen = w
		}
		overlap := math.Min(float64(vmax1), float64(vmax2)) - math.Max(float64(vmin1), float64(vmin2))
		thresh := math.Min(float64(minLen-1), minFract*float64(minLen))
		if overlap >= thresh {
			byCol[other.Col] = append(byCol[other.Col], other)
		}
	}
	var out []*Bar
	for _, candidates := range byCol {
		if len(candidates) == 1 {
			out = append(out, candidates[0])
			continue
		}
		best := candidates[0]
		bestDist := math.Abs(b.loc() - best.loc())
		for _, c := range candidates[1:] {
			d := math.Abs(b.loc() - c.loc())
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		out = append(out, best)
	}
	b.overlaps = out
}

// GetAllOverlaps computes the transitive closure of overlapping bars
// across columns (one bar per column at most, matching cols_map).
func (b *Bar) GetAllOverlaps() {
	if b.allOverlaps != nil {
		return
	}
	all := []*Bar{b}
	cols := map[int]bool{b.Col: true}
	var visit func(cur *Bar)
	visit = func(cur *Bar) {
		for _, o := range cur.overlaps {
			if o.allOverlaps == nil && !contains(all, o) && !cols[o.Col] {
				all = append(all, o)
				cols[o.Col] = true
				visit(o)
			}
		}
	}
	visit(b)
	for _, bar := range all {
		bar.allOverlaps = all
	}
}

func contains(s []*Bar, b *Bar) bool {
	for _, x := range s {
		if x == b {
			return true
		}
	}
	return false
}

// UniqueBars groups potential-sample intervals across columns into
// maximal overlap groups, keyed by column -> merged [lo,hi) interval,
// sorted by group mean location.
func UniqueBars(potentials map[int][]Interval, minFract float64) []map[int]Interval {
	var bars []*Bar
	for col, ivs := range potentials {
		for _, iv := range ivs {
			bars = append(bars, &Bar{Col: col, Indices: iv})
		}
	}
	for _, b := range bars {
		b.GetOverlaps(bars, minFract)
	}
	var roots []*Bar
	for _, b := range bars {
		if b.allOverlaps == nil {
			b.GetAllOverlaps()
			roots = append(roots, b)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].meanLoc() < roots[j].meanLoc() })

	out := make([]map[int]Interval, 0, len(roots))
	for _, r := range roots {
		group := map[int]Interval{}
		for _, m := range r.group() {
			cur, ok := group[m.Col]
			if !ok {
				group[m.Col] = m.Indices
				continue
			}
			lo, hi := cur.Lo, cur.Hi
			if m.Indices.Lo < lo {
				lo = m.Indices.Lo
			}
			if m.Indices.Hi > hi {
				hi = m.Indices.Hi
			}
			group[m.Col] = Interval{lo, hi}
		}
		out = append(out, group)
	}
	return out
}

// Sample is one assembled measurement row.
type Sample struct {
	Row    int
	Values []float64            // one per column
	Rough  map[int]Interval // member columns only
}

// FindMeasurements assembles unique_bars groups into sample rows: the
// group's row is the rounded mean of all rows covered by the member
// intervals (single-row intervals, if any, take priority), per-column value for
// member columns is the mean of full_df over the interval, and
// non-member columns take the value at the group's row.
func FindMeasurements(full *frame.Frame, groups []map[int]Interval) []Sample {
	ncols := full.Cols
	out := make([]Sample, 0, len(groups))
	for _, g := range groups {
		row := groupRow(g)
		s := Sample{Row: row, Values: make([]float64, ncols), Rough: map[int]Interval{}}
		for col := 0; col < ncols; col++ {
			if iv, ok := g[col]; ok {
				s.Values[col] = roundMean(full.Values[col], iv.Lo, iv.Hi)
				s.Rough[col] = iv
			} else {
				s.Values[col] = full.Values[col][row]
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	out = dedupByRow(out)
	return out
}

func groupRow(g map[int]Interval) int {
	var singleSum, singleN, allSum, allN float64
	for _, iv := range g {
		for r := iv.Lo; r < iv.Hi; r++ {
			allSum += float64(r)
			allN++
			if iv.Hi-iv.Lo == 1 {
				singleSum += float64(r)
				singleN++
			}
		}
	}
	if singleN > 0 {
		return int(math.Round(singleSum / singleN))
	}
	return int(math.Round(allSum / allN))
}

func roundMean(vals []float64, lo, hi int) float64 {
	sum, n := 0.0, 0
	for r := lo; r < hi && r < len(vals); r++ {
		if !math.IsNaN(vals[r]) {
			sum += vals[r]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum / float64(n))
}

func dedupByRow(samples []Sample) []Sample {
	var out []Sample
	seen := map[int]bool{}
	for _, s := range samples {
		if seen[s.Row] {
			continue
		}
		seen[s.Row] = true
		out = append(out, s)
	}
	return out
}

// EnsureBoundaries implements the measurements_at_boundaries policy: the
// first and last non-null, non-zero row of full_df (any column) must
// appear as a sample, inserted verbatim if missing.
func EnsureBoundaries(full *frame.Frame, samples []Sample) []Sample {
	first, last := -1, -1
	for r := 0; r < full.Rows; r++ {
		if rowHasData(full, r) {
			if first < 0 {
				first = r
			}
			last = r
		}
	}
	if first < 0 {
		return samples
	}
	has := map[int]bool{}
	for _, s := range samples {
		has[s.Row] = true
	}
	add := func(row int) {
		if has[row] {
			return
		}
		vals := make([]float64, full.Cols)
		for c := 0; c < full.Cols; c++ {
			vals[c] = full.Values[c][row]
		}
		samples = append(samples, Sample{Row: row, Values: vals, Rough: map[int]Interval{}})
		has[row] = true
	}
	add(first)
	add(last)
	sort.Slice(samples, func(i, j int) bool { return samples[i].Row < samples[j].Row })
	return samples
}

func rowHasData(full *frame.Frame, r int) bool {
	for c := 0; c < full.Cols; c++ {
		v := full.Values[c][r]
		if !math.IsNaN(v) && v > 0 {
			return true
		}
	}
	return false
}

// MergeCloseMeasurements groups consecutive samples whose rows are within
// pixelTol of each other and collapses each group to a single row: the
// mean of the members whose rough interval is narrowest, and rough
// intervals unioned to [min lo, max hi]. The merged values are copied
// from the member sample whose row equals the new row, or from the
// group's first member when no member sits on that row; they are not
// re-read from full_df. warn, if non-nil, is called once per column in
// which more than one member of the group carries a rough interval.
func MergeCloseMeasurements(samples []Sample, pixelTol int, warn func(col int)) []Sample {
	if len(samples) == 0 {
		return samples
	}
	var out []Sample
	i := 0
	for i < len(samples) {
		j := i + 1
		for j < len(samples) && samples[j].Row-samples[j-1].Row <= pixelTol {
			j++
		}
		group := samples[i:j]
		if len(group) == 1 {
			out = append(out, group[0])
			i = j
			continue
		}
		minWidth := math.MaxInt32
		for _, s := range group {
			for _, iv := range s.Rough {
				if w := iv.Hi - iv.Lo; w > 0 && w < minWidth {
					minWidth = w
				}
			}
		}
		var narrowRows []int
		for _, s := range group {
			for _, iv := range s.Rough {
				if iv.Hi-iv.Lo == minWidth {
					narrowRows = append(narrowRows, s.Row)
					break
				}
			}
		}
		newRow := group[0].Row
		if len(narrowRows) > 0 {
			sum := 0
			for _, r := range narrowRows {
				sum += r
			}
			newRow = int(math.Round(float64(sum) / float64(len(narrowRows))))
		}
		merged := Sample{Row: newRow, Values: make([]float64, len(group[0].Values)), Rough: map[int]Interval{}}
		for col := range merged.Values {
			lo, hi := math.MaxInt32, -1
			count := 0
			for _, s := range group {
				if iv, ok := s.Rough[col]; ok {
					if iv.Lo < lo {
						lo = iv.Lo
					}
					if iv.Hi > hi {
						hi = iv.Hi
					}
					count++
				}
			}
			if count > 0 {
				merged.Rough[col] = Interval{lo, hi}
				if count > 1 && warn != nil {
					warn(col)
				}
			}
		}
		for col := range merged.Values {
			merged.Values[col] = group[0].Values[col]
			for _, s := range group {
				if s.Row == newRow {
					merged.Values[col] = s.Values[col]
					break
				}
			}
		}
		out = append(out, merged)
		i = j
	}
	return out
}
