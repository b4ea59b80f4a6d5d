// Package config validates pipeline parameter structs (grey/column
// thresholds, bar tolerances, merge parameters) with struct tags, the way
// vinodismyname-mcpxcel/pkg/validation wraps go-playground/validator.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	return v
}

// Validate runs struct-tag validation over s and returns a single
// human-readable error describing the first violation, or nil.
func Validate(s any) error {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Errorf("%s is required", field)
			case "min", "max", "gte", "lte":
				return fmt.Errorf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			default:
				return fmt.Errorf("%s is invalid (%s)", field, fe.Tag())
			}
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GreyParams configures the greyscale/binary conversion (C1).
type GreyParams struct {
	Threshold int `validate:"gte=0,lte=765"`
}

// ColumnParams configures column segmentation (C3).
type ColumnParams struct {
	Threshold float64 `validate:"gt=0,lte=1"`
}

// LineParams configures hline/vline/axis detection (C4).
type LineParams struct {
	Fraction float64 `validate:"gt=0,lte=1"`
	MinLW    int     `validate:"gte=0"`
	MaxLW    int      `validate:"gte=0"`
}

// BarParams configures bar segmentation (C6).
type BarParams struct {
	Tolerance float64 `validate:"gt=0"`
	Rounded   bool
}

// SampleParams configures the sample finder and cross-column alignment
// (C8).
type SampleParams struct {
	MinFract float64 `validate:"gt=0,lte=1"`
	PixelTol int     `validate:"gte=0"`
}

// ExaggerationParams configures the exaggeration merge (C7).
type ExaggerationParams struct {
	Fraction float64 `validate:"gte=0,lte=1"`
	Absolute float64 `validate:"gte=0"`
	Factor   float64 `validate:"gt=0"`
}
