package config

import "testing"

func TestValidate_RejectsOutOfRangeThreshold(t *testing.T) {
	err := Validate(GreyParams{Threshold: 1000})
	if err == nil {
		t.Fatal("expected an error for a threshold above 765")
	}
}

func TestValidate_AcceptsValidParams(t *testing.T) {
	if err := Validate(ColumnParams{Threshold: 0.1}); err != nil {
		t.Fatalf("expected valid params to pass, got %v", err)
	}
}

func TestValidate_RejectsZeroFraction(t *testing.T) {
	if err := Validate(LineParams{Fraction: 0, MinLW: 2}); err == nil {
		t.Fatal("expected an error for a zero fraction")
	}
}
