// Command straddebug prints intermediate pipeline state for a single
// image: crop, greyscale/binary, detected columns and gridlines.
package main

import (
	"fmt"
	"os"

	"github.com/stratidigit/straditize/internal/clean"
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/imageproc"
	"github.com/stratidigit/straditize/internal/straditizer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: straddebug <image>\n")
		os.Exit(1)
	}
	path := os.Args[1]

	img, err := imageproc.Load(path)
	if err != nil {
		fmt.Printf("Error loading: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Width: %d, Height: %d\n", img.Width, img.Height)

	grey := imageproc.Greyscale(img, imageproc.DefaultGreyThreshold)
	box := straditizer.GuessDataLims(grey, img.Width, img.Height)
	fmt.Printf("Guessed data box: x0=%d x1=%d y0=%d y1=%d\n", box.X0, box.X1, box.Y0, box.Y1)

	crop, err := imageproc.Crop(img, imageproc.Extent{X0: box.X0, X1: box.X1, Y0: box.Y0, Y1: box.Y1})
	if err != nil {
		fmt.Printf("Error cropping: %v\n", err)
		os.Exit(1)
	}
	cropGrey := imageproc.Greyscale(crop, imageproc.DefaultGreyThreshold)
	binary := imageproc.Binary(cropGrey)

	starts := column.EstimateStarts(binary, crop.Height, crop.Width, column.DefaultThreshold)
	ends := column.EndsFromStarts(starts, crop.Width)
	bounds := column.Bound(starts, ends)
	fmt.Printf("Columns: %d\n", len(bounds))
	for i, b := range bounds {
		fmt.Printf("  col %d: [%d, %d)\n", i, b.Start, b.End)
	}

	hlines := clean.RecognizeHLines(binary, crop.Height, crop.Width, clean.LineParams{})
	fmt.Printf("Detected hlines: %v\n", hlines)
	vlines := clean.RecognizeVLines(binary, crop.Height, crop.Width, clean.LineParams{})
	fmt.Printf("Detected vlines: %v\n", vlines)
}
