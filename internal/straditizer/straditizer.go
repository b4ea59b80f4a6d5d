// Package straditizer is the C11 facade: it owns the source image, the
// data box, the reader tree, the y-axis translation, occurrences and
// opaque UI progress tags, and orchestrates the pipeline stages (C3-C9)
// over the whole diagram.
package straditizer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/stratidigit/straditize/internal/axis"
	"github.com/stratidigit/straditize/internal/clean"
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/digitize"
	"github.com/stratidigit/straditize/internal/frame"
	"github.com/stratidigit/straditize/internal/imageproc"
	"github.com/stratidigit/straditize/internal/reader"
	"github.com/stratidigit/straditize/internal/sample"
	"github.com/stratidigit/straditize/internal/straderr"
)

// DataBox is the rectangular region of the source image holding the
// diagram's plotted data, in image pixel coordinates.
type DataBox struct {
	X0, X1, Y0, Y1 int
}

// Straditizer holds the full state for one diagram.
type Straditizer struct {
	// SessionID identifies this digitizing session for logging and for
	// the attrs recorded alongside the dataset bundle on export.
	SessionID string

	Image *imageproc.Image
	Box   DataBox

	Tree  *reader.Tree
	YAxis axis.YAxis

	Attrs      map[string]string
	DoneTasks  map[string]bool

	Concurrency int
	Warn        straderr.Sink

	// ShowProgress enables the terminal progress bar during DigitizeAll
	// and FindAllMeasurements. Off by default so library callers don't
	// get unsolicited stderr output.
	ShowProgress bool

	// BarParams configures bar/rounded-bar segmentation for nodes of
	// those kinds; Rounded is overridden per node to match its Kind.
	BarParams digitize.BarParams
	// ExaggFraction and ExaggAbsolute are the C7 merge thresholds: an
	// exaggeration reader's value replaces the base's wherever the base
	// is at or below max(ExaggFraction*columnWidth, ExaggAbsolute).
	ExaggFraction float64
	ExaggAbsolute float64
}

// New creates a Straditizer over img with the given data box.
func New(img *imageproc.Image, box DataBox) *Straditizer {
	return &Straditizer{
		SessionID: uuid.NewString(),
		Image:     img, Box: box,
		Attrs: map[string]string{}, DoneTasks: map[string]bool{},
		Concurrency:   runtime.NumCPU(),
		ExaggFraction: 0.05,
		ExaggAbsolute: 8,
	}
}

// GuessDataLims heuristically locates the largest non-background
// bounding box in the image to pre-fill the data box.
func GuessDataLims(grey []int, width, height int) DataBox {
	minX, minY, maxX, maxY := width, height, 0, 0
	found := false
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if grey[y*width+x] != 0 {
				found = true
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if !found {
		return DataBox{0, width, 0, height}
	}
	return DataBox{X0: minX, X1: maxX + 1, Y0: minY, Y1: maxY + 1}
}

// InitReaders crops the data box to greyscale/binary, estimates column
// bounds, and builds the initial single-node reader tree.
func (s *Straditizer) InitReaders(threshold int, colThreshold float64) error {
	ext := imageproc.Extent{X0: s.Box.X0, X1: s.Box.X1, Y0: s.Box.Y0, Y1: s.Box.Y1}
	crop, err := imageproc.Crop(s.Image, ext)
	if err != nil {
		return straderr.New(straderr.Precondition, "cropping data box: %v", err)
	}
	grey := imageproc.Greyscale(crop, threshold)
	binary := imageproc.Binary(grey)
	rows, cols := crop.Height, crop.Width

	starts := column.EstimateStarts(binary, rows, cols, colThreshold)
	ends := column.EndsFromStarts(starts, cols)
	bounds := column.Bound(starts, ends)
	if len(bounds) == 0 {
		return straderr.New(straderr.Shape, "no columns detected in data box")
	}

	s.Tree = reader.NewTree(rows, cols, bounds, binary, reader.KindArea)
	s.Tree.ColumnStarts = starts
	s.Tree.ColumnEnds = ends
	s.Tree.FullDF = frame.New(rows, len(bounds))
	return nil
}

// RemoveHLines detects and removes full-width gridlines, recording their
// rows for later interpolation.
func (s *Straditizer) RemoveHLines(n *reader.Node, p clean.LineParams) []int {
	rows, cols := s.Tree.Rows, s.Tree.Cols
	locs := clean.RecognizeHLines(n.Binary, rows, cols, p)
	s.Tree.HlineLocs = mergeSortedUnique(s.Tree.HlineLocs, locs)
	for _, r := range locs {
		for c := 0; c < cols; c++ {
			n.Binary[r*cols+c] = 0
		}
	}
	return locs
}

func mergeSortedUnique(a, b []int) []int {
	seen := map[int]bool{}
	for _, v := range a {
		seen[v] = true
	}
	out := append([]int(nil), a...)
	for _, v := range b {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// digitizeNode runs the digitizer strategy matching n.Kind, writing into
// out (the shared full data frame for non-exaggerated nodes, or a scratch
// frame when digitizing an exaggeration reader ahead of the C7 merge).
func (s *Straditizer) digitizeNode(n *reader.Node, out *frame.Frame, mode digitize.Mode) {
	rows, cols := s.Tree.Rows, s.Tree.Cols
	switch n.Kind {
	case reader.KindArea:
		digitize.Area(out, n.Binary, rows, cols, s.Tree.Bounds, n.Columns, mode, s.Tree.HlineLocs)
	case reader.KindLine:
		digitize.Line(out, n.Binary, rows, cols, s.Tree.Bounds, n.Columns, mode, s.Tree.HlineLocs)
	case reader.KindBar, reader.KindRoundedBar:
		raw := frame.New(rows, len(s.Tree.Bounds))
		for _, col := range n.Columns {
			raw.Values[col] = digitize.Column(n.Binary, rows, cols, s.Tree.Bounds[col], mode)
			raw.InterpolateRows(s.Tree.HlineLocs, col)
		}
		params := s.BarParams
		params.Rounded = n.Kind == reader.KindRoundedBar
		digitize.DigitizeBars(out, raw, n.Columns, params)
	case reader.KindStackedArea:
		sa := digitize.NewStackedArea(rows)
		for _, col := range n.Columns {
			cumulative := digitize.Column(n.Binary, rows, cols, s.Tree.Bounds[col], digitize.ModeOffset)
			sa.AddCol(out, col, cumulative)
		}
	}
}

// DigitizeAll runs every reader's digitizer strategy (by its own Kind)
// concurrently across the tree's non-exaggerated nodes, writing into the
// shared full data frame, then merges every exaggeration reader's own
// digitization back into its base (C7). Mirrors the job-channel/
// worker-pool pattern used for per-tile encoding: a bounded set of workers
// drains a job channel, the first error wins, and each worker writes to a
// disjoint node's columns so no locking is needed on the result frame.
func (s *Straditizer) DigitizeAll(mode digitize.Mode) error {
	var base, exagg []*reader.Node
	for _, n := range s.Tree.Nodes {
		if n.IsExaggerated != 0 {
			exagg = append(exagg, n)
		} else {
			base = append(base, n)
		}
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	jobs := make(chan *reader.Node, concurrency*2)
	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	pb := newProgressBar("Digitizing", int64(len(base)), !s.ShowProgress)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				func() {
					defer func() {
						if r := recover(); r != nil {
							select {
							case errCh <- fmt.Errorf("digitizing reader %d: %v", n.ID, r):
							default:
							}
						}
					}()
					s.digitizeNode(n, s.Tree.FullDF, mode)
					pb.Increment()
				}()
			}
		}()
	}
	for _, n := range base {
		jobs <- n
	}
	close(jobs)
	wg.Wait()
	pb.Finish()

	select {
	case err := <-errCh:
		return err
	default:
	}

	for _, n := range exagg {
		exaggFrame := frame.New(s.Tree.Rows, len(s.Tree.Bounds))
		s.digitizeNode(n, exaggFrame, mode)
		if _, err := s.Tree.BaseOf(n.ID); err != nil {
			return err
		}
		for _, col := range n.Columns {
			w := s.Tree.Bounds[col].End - s.Tree.Bounds[col].Start
			digitize.ExaggerationMerge(s.Tree.FullDF, exaggFrame, col, n.IsExaggerated, w, s.ExaggFraction, s.ExaggAbsolute)
		}
	}
	return nil
}

// FindAllMeasurements runs the sample finder concurrently per column,
// then assembles cross-column groups on the caller's goroutine (the
// merge step genuinely needs every column's candidates together).
func (s *Straditizer) FindAllMeasurements(minFract float64, pixelTol int) ([]sample.Sample, error) {
	cols := make([]int, len(s.Tree.Bounds))
	for i := range cols {
		cols[i] = i
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	type result struct {
		col        int
		potentials []sample.Interval
	}
	jobs := make(chan int, concurrency*2)
	results := make(chan result, len(cols))
	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	pb := newProgressBar("Finding samples", int64(len(cols)), !s.ShowProgress)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for col := range jobs {
				included, _ := sample.FindPotential(s.Tree.FullDF.Values[col], nil, nil, nil)
				results <- result{col: col, potentials: included}
				pb.Increment()
			}
		}()
	}
	for _, col := range cols {
		jobs <- col
	}
	close(jobs)
	wg.Wait()
	close(results)
	pb.Finish()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	potentials := map[int][]sample.Interval{}
	for r := range results {
		potentials[r.col] = r.potentials
	}
	groups := sample.UniqueBars(potentials, minFract)
	measurements := sample.FindMeasurements(s.Tree.FullDF, groups)
	measurements = sample.EnsureBoundaries(s.Tree.FullDF, measurements)
	measurements = sample.MergeCloseMeasurements(measurements, pixelTol, func(col int) {
		straderr.Warn(s.Warn, straderr.Consistency, "distinct measurements merged in column %d", col)
	})
	s.Tree.SampleLocs = make([]int, len(measurements))
	for i, m := range measurements {
		s.Tree.SampleLocs[i] = m.Row
	}
	return measurements, nil
}

// FullDF returns the full data frame with each column's values passed
// through that column's x mapping from xAxes (columns without one are
// copied as is). Rows stay indexed by crop pixel row: the y-axis
// translation is not applied here.
func (s *Straditizer) FullDF(xAxes map[int]axis.ReaderXAxis) (*frame.Frame, error) {
	src := s.Tree.FullDF
	out := frame.New(src.Rows, src.Cols)
	for c := 0; c < src.Cols; c++ {
		xa, hasX := xAxes[c]
		for r := 0; r < src.Rows; r++ {
			v := src.Values[c][r]
			if hasX {
				dv, err := xa.PxToDataX(v)
				if err != nil {
					return nil, err
				}
				v = dv
			}
			out.Values[c][r] = v
		}
	}
	return out, nil
}

// FinalDF subsets the full data frame to sample rows, with missing cells
// filled with 0.
func FinalDF(full *frame.Frame, sampleRows []int) *frame.Frame {
	out := frame.New(len(sampleRows), full.Cols)
	for newRow, srcRow := range sampleRows {
		for c := 0; c < full.Cols; c++ {
			v := full.Values[c][srcRow]
			out.Values[c][newRow] = v
		}
	}
	for c := 0; c < out.Cols; c++ {
		for r := range out.Values[c] {
			if isNaN(out.Values[c][r]) {
				out.Values[c][r] = 0
			}
		}
	}
	return out
}

func isNaN(v float64) bool { return v != v }
