// Command stradexport converts a dataset bundle's full_df arrays to CSV
// or XLSX.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/stratidigit/straditize/internal/dataset"
	"github.com/stratidigit/straditize/internal/export"
	"github.com/stratidigit/straditize/internal/frame"
)

func main() {
	var (
		format  string
		outPath string
	)
	flag.StringVar(&format, "format", "csv", "Output format: csv, xlsx")
	flag.StringVar(&outPath, "o", "", "Output path (required)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stradexport [flags] <input.strd> -o <output>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || outPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), outPath, format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, format string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer f.Close()

	b, err := dataset.Read(f)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}

	var names []string
	for _, a := range b.Arrays {
		if strings.HasPrefix(a.Name, "full_df_") {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("dataset has no full_df_* arrays")
	}

	vals, _ := dataset.GetFloat64s(b, names[0])
	fr := frame.New(len(vals), len(names))
	for c, name := range names {
		v, ok := dataset.GetFloat64s(b, name)
		if !ok {
			return fmt.Errorf("array %q has unexpected dtype", name)
		}
		fr.Values[c] = v
	}

	switch format {
	case "csv":
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer out.Close()
		return export.WriteCSV(out, fr, names)
	case "xlsx":
		return export.WriteXLSX(outPath, fr, names, b.Attrs)
	default:
		return fmt.Errorf("unknown format %q (supported: csv, xlsx)", format)
	}
}
