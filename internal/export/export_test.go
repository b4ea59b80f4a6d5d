package export

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stratidigit/straditize/internal/frame"
)

func TestWriteCSV_EmitsHeaderAndRows(t *testing.T) {
	f := frame.New(2, 2)
	f.Values[0][0] = 1
	f.Values[1][0] = 2
	f.Values[0][1] = math.NaN()
	f.Values[1][1] = 4

	var buf bytes.Buffer
	if err := WriteCSV(&buf, f, []string{"taxonA", "taxonB"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "taxonA,taxonB") {
		t.Fatalf("expected header row, got %q", out)
	}
	if !strings.Contains(out, "1,2") {
		t.Fatalf("expected first data row, got %q", out)
	}
	if !strings.Contains(out, ",4") {
		t.Fatalf("expected NaN cell to be blank, got %q", out)
	}
}
