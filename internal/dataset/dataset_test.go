package dataset

import (
	"bytes"
	"math"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	b := NewBundle()
	b.Attrs["name"] = "core-1"
	PutFloat64s(b, "full_df", []int{3, 1}, []float64{1, math.NaN(), 3})
	PutUint8s(b, "binary", []int{2, 2}, []uint8{1, 0, 0, 1})

	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		t.Fatal(err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Attrs["name"] != "core-1" {
		t.Fatalf("expected attrs to round-trip, got %v", got.Attrs)
	}
	vals, ok := GetFloat64s(got, "full_df")
	if !ok || len(vals) != 3 {
		t.Fatalf("expected full_df array with 3 values, got %v", vals)
	}
	if vals[0] != 1 || vals[2] != 3 || !math.IsNaN(vals[1]) {
		t.Fatalf("unexpected round-tripped values: %v", vals)
	}
	bin, ok := GetUint8s(got, "binary")
	if !ok || !bytes.Equal(bin, []uint8{1, 0, 0, 1}) {
		t.Fatalf("unexpected binary array: %v", bin)
	}
}

func TestRead_RejectsBadMagic(t *testing.T) {
	if _, err := Read(bytes.NewReader(make([]byte, HeaderSize))); err == nil {
		t.Fatal("expected an error for a header with no valid magic")
	}
}
