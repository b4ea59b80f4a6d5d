// Command stradinfo prints the directory of a dataset bundle: its
// arrays, shapes, and attrs.
package main

import (
	"fmt"
	"os"

	"github.com/stratidigit/straditize/internal/dataset"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: stradinfo <file.strd>\n")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	b, err := dataset.Read(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File: %s\n", os.Args[1])
	fmt.Printf("Arrays: %d\n", len(b.Arrays))
	for _, a := range b.Arrays {
		fmt.Printf("  %-24s dtype=%-2d shape=%v bytes=%d\n", a.Name, a.DType, a.Shape, len(a.Bytes))
	}
	if len(b.Attrs) > 0 {
		fmt.Println("Attrs:")
		for k, v := range b.Attrs {
			fmt.Printf("  %s = %s\n", k, v)
		}
	}
}
