// Command straditize runs the full batch pipeline over a single diagram
// image: load, crop to the data box, segment columns, remove gridlines,
// digitize, find samples, and write the dataset bundle.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/stratidigit/straditize/internal/clean"
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/dataset"
	"github.com/stratidigit/straditize/internal/digitize"
	"github.com/stratidigit/straditize/internal/imageproc"
	"github.com/stratidigit/straditize/internal/straditizer"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		threshold   int
		colThresh   float64
		useSum      bool
		minFract    float64
		pixelTol    int
		concurrency int
		showVersion bool
		outPath     string
		x0, x1, y0, y1 int
		autoBox     bool
		showProgress bool
	)

	flag.IntVar(&threshold, "grey-threshold", imageproc.DefaultGreyThreshold, "Greyscale background threshold (sum of RGB, 0-765)")
	flag.Float64Var(&colThresh, "column-threshold", column.DefaultThreshold, "Minimum fraction of image height a column must cover")
	flag.BoolVar(&useSum, "use-sum", false, "Digitize area/line readers by foreground pixel count instead of rightmost offset")
	flag.Float64Var(&minFract, "min-fract", 0.9, "Minimum overlap fraction for cross-column sample alignment")
	flag.IntVar(&pixelTol, "pixel-tol", 2, "Row tolerance for merging close measurements")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel workers for digitization and sample finding")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&outPath, "o", "", "Output dataset path (required)")
	flag.BoolVar(&autoBox, "auto-box", true, "Guess the data box from the largest non-background region")
	flag.IntVar(&x0, "x0", 0, "Data box left (ignored if -auto-box)")
	flag.IntVar(&x1, "x1", 0, "Data box right (ignored if -auto-box)")
	flag.IntVar(&y0, "y0", 0, "Data box top (ignored if -auto-box)")
	flag.IntVar(&y1, "y1", 0, "Data box bottom (ignored if -auto-box)")
	flag.BoolVar(&showProgress, "progress", true, "Print a progress bar to stderr during digitizing and sample finding")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: straditize [flags] <input-image> -o <output.strd>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("straditize %s (%s)\n", version, commit)
		return
	}
	if flag.NArg() < 1 || outPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), outPath, threshold, colThresh, useSum, minFract, pixelTol, concurrency, autoBox, x0, x1, y0, y1, showProgress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, threshold int, colThresh float64, useSum bool, minFract float64, pixelTol, concurrency int, autoBox bool, x0, x1, y0, y1 int, showProgress bool) error {
	img, err := imageproc.Load(inPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", inPath, err)
	}

	var box straditizer.DataBox
	if autoBox {
		full := imageproc.Greyscale(img, threshold)
		box = straditizer.GuessDataLims(full, img.Width, img.Height)
	} else {
		box = straditizer.DataBox{X0: x0, X1: x1, Y0: y0, Y1: y1}
	}

	s := straditizer.New(img, box)
	s.Concurrency = concurrency
	s.ShowProgress = showProgress
	if err := s.InitReaders(threshold, colThresh); err != nil {
		return fmt.Errorf("initializing readers: %w", err)
	}

	s.RemoveHLines(s.Tree.Root(), clean.LineParams{})

	mode := digitize.ModeOffset
	if useSum {
		mode = digitize.ModeSum
	}
	if err := s.DigitizeAll(mode); err != nil {
		return fmt.Errorf("digitizing: %w", err)
	}

	if _, err := s.FindAllMeasurements(minFract, pixelTol); err != nil {
		return fmt.Errorf("finding measurements: %w", err)
	}

	b := s.ToDataset()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()
	if err := dataset.Write(f, b); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	return nil
}
