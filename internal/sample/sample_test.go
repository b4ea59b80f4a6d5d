package sample

import (
	"testing"

	"github.com/stratidigit/straditize/internal/frame"
)

func TestFindPotential_SingleMinimum(t *testing.T) {
	a := []float64{5, 3, 1, 0, 1, 3, 5, 7, 9, 7, 5}
	included, _ := FindPotential(a, nil, nil, nil)
	if len(included) == 0 {
		t.Fatal("expected at least one candidate interval for a clear minimum/maximum")
	}
}

func TestIsObstacleInterval_SymmetricBump(t *testing.T) {
	a := []float64{0, 1, 2, 3, 5, 3, 4, 5, 6}
	if !isObstacleInterval(Interval{4, 5}, a) {
		t.Fatal("narrow symmetric peak inside a monotone run should be an obstacle")
	}
}

func TestSurroundingSlopes_MatchesDigitizePackageVmax(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 4, 4, 5, 6, 7, 8}
	s0, s1, ok := surroundingSlopes(Interval{4, 6}, a)
	if !ok {
		t.Fatal("expected surroundingSlopes to find valid flanking runs")
	}
	if sign(s0) != sign(s1) {
		t.Fatalf("expected same-signed flanking slopes for a shallow plateau, got s0=%v s1=%v", s0, s1)
	}
}

func TestUniqueBars_GroupsOverlappingColumns(t *testing.T) {
	potentials := map[int][]Interval{
		0: {{10, 20}},
		1: {{12, 19}},
	}
	groups := UniqueBars(potentials, 0.9)
	if len(groups) != 1 {
		t.Fatalf("expected the two overlapping intervals to merge into one group, got %d groups", len(groups))
	}
	if _, ok := groups[0][0]; !ok {
		t.Fatal("expected column 0 in the merged group")
	}
	if _, ok := groups[0][1]; !ok {
		t.Fatal("expected column 1 in the merged group")
	}
}

func TestUniqueBars_NonOverlappingStaySeparate(t *testing.T) {
	potentials := map[int][]Interval{
		0: {{10, 20}},
		1: {{50, 60}},
	}
	groups := UniqueBars(potentials, 0.9)
	if len(groups) != 2 {
		t.Fatalf("expected two distinct groups, got %d", len(groups))
	}
}

func TestFindMeasurements_AssemblesPerColumnValues(t *testing.T) {
	f := frame.New(30, 2)
	for r := 10; r < 20; r++ {
		f.Values[0][r] = 100
		f.Values[1][r] = 50
	}
	for r := 0; r < 30; r++ {
		if r < 10 || r >= 20 {
			f.Values[0][r] = 0
			f.Values[1][r] = 0
		}
	}
	groups := []map[int]Interval{{0: {10, 20}, 1: {10, 20}}}
	samples := FindMeasurements(f, groups)
	if len(samples) != 1 {
		t.Fatalf("expected one sample, got %d", len(samples))
	}
	if samples[0].Values[0] != 100 || samples[0].Values[1] != 50 {
		t.Fatalf("unexpected assembled values: %v", samples[0].Values)
	}
}

func TestMergeCloseMeasurements_CollapsesWithinTolerance(t *testing.T) {
	samples := []Sample{
		{Row: 10, Values: []float64{1}, Rough: map[int]Interval{0: {10, 11}}},
		{Row: 11, Values: []float64{2}, Rough: map[int]Interval{0: {11, 13}}},
		{Row: 50, Values: []float64{9}, Rough: map[int]Interval{0: {50, 51}}},
	}
	merged := MergeCloseMeasurements(samples, 2, nil)
	if len(merged) != 2 {
		t.Fatalf("expected the first two close samples to merge, got %d results", len(merged))
	}
}

func TestEnsureBoundaries_AddsFirstAndLast(t *testing.T) {
	f := frame.New(10, 1)
	for r := 2; r < 8; r++ {
		f.Values[0][r] = 5
	}
	samples := []Sample{{Row: 4, Values: []float64{5}, Rough: map[int]Interval{}}}
	out := EnsureBoundaries(f, samples)
	if out[0].Row != 2 {
		t.Fatalf("expected first non-null row 2 to be inserted, got %v", out[0].Row)
	}
	if out[len(out)-1].Row != 7 {
		t.Fatalf("expected last non-null row 7 to be inserted, got %v", out[len(out)-1].Row)
	}
}
