package axis

import "testing"

func TestYAxis_ToDataAndBack(t *testing.T) {
	y := NewYAxis([2]float64{100, 200}, [2]float64{0, 10})
	d, err := y.ToData(150)
	if err != nil {
		t.Fatal(err)
	}
	if d != 5 {
		t.Fatalf("expected midpoint data value 5, got %v", d)
	}
	px, err := y.ToPixel(5)
	if err != nil {
		t.Fatal(err)
	}
	if px != 150 {
		t.Fatalf("expected round trip to 150, got %v", px)
	}
}

func TestReaderXAxis_NotSet(t *testing.T) {
	var x ReaderXAxis
	if _, err := x.PxToDataX(10); err == nil {
		t.Fatal("expected an error reading an unset x mapping")
	}
}

func TestMapping_AnchorsRoundTrip(t *testing.T) {
	m := NewMapping(100, 200, 0, 10)
	px0, px1, d0, d1, ok := m.Anchors()
	if !ok {
		t.Fatal("expected a set mapping to report ok")
	}
	if px0 != 100 || px1 != 200 || d0 != 0 || d1 != 10 {
		t.Fatalf("unexpected anchors: %v %v %v %v", px0, px1, d0, d1)
	}
	rebuilt := NewMapping(px0, px1, d0, d1)
	d, err := rebuilt.ToData(150)
	if err != nil {
		t.Fatal(err)
	}
	if d != 5 {
		t.Fatalf("expected rebuilt mapping to translate identically, got %v", d)
	}
}

func TestMapping_AnchorsUnset(t *testing.T) {
	var m Mapping
	if _, _, _, _, ok := m.Anchors(); ok {
		t.Fatal("expected an unset mapping to report ok=false")
	}
}

func TestReaderXAxis_Translates(t *testing.T) {
	x := NewReaderXAxis([2]float64{0, 50}, [2]float64{0, 100})
	v, err := x.PxToDataX(25)
	if err != nil {
		t.Fatal(err)
	}
	if v != 50 {
		t.Fatalf("expected 50, got %v", v)
	}
}
