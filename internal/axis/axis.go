// Package axis translates pixel positions to data values. The
// straditizer-level y-axis maps two pixel rows to two data values; each
// reader's x-axis maps two pixel columns (within one column) to two data
// values, restarting from 0 per column since diagrams commonly break the
// x-axis between columns (C9).
package axis

import "fmt"

// Mapping is an affine map through two (pixel, data) anchor points.
type Mapping struct {
	px0, px1     float64
	data0, data1 float64
	set          bool
}

// NewMapping builds a mapping through the two given anchors.
func NewMapping(px0, px1, data0, data1 float64) Mapping {
	return Mapping{px0: px0, px1: px1, data0: data0, data1: data1, set: true}
}

// ToData converts a pixel coordinate to a data value.
func (m Mapping) ToData(px float64) (float64, error) {
	if !m.set {
		return 0, fmt.Errorf("axis: mapping not set")
	}
	if m.px1 == m.px0 {
		return 0, fmt.Errorf("axis: degenerate mapping, px0 == px1")
	}
	t := (px - m.px0) / (m.px1 - m.px0)
	return m.data0 + t*(m.data1-m.data0), nil
}

// ToPixel converts a data value back to a pixel coordinate.
func (m Mapping) ToPixel(data float64) (float64, error) {
	if !m.set {
		return 0, fmt.Errorf("axis: mapping not set")
	}
	if m.data1 == m.data0 {
		return 0, fmt.Errorf("axis: degenerate mapping, data0 == data1")
	}
	t := (data - m.data0) / (m.data1 - m.data0)
	return m.px0 + t*(m.px1-m.px0), nil
}

// IsSet reports whether the mapping has been configured.
func (m Mapping) IsSet() bool { return m.set }

// Anchors returns the two (pixel, data) anchor points the mapping was
// built from, for persistence. ok is false if the mapping is unset, in
// which case the other return values are meaningless.
func (m Mapping) Anchors() (px0, px1, data0, data1 float64, ok bool) {
	return m.px0, m.px1, m.data0, m.data1, m.set
}

// YAxis is the straditizer-wide pixel<->data map for the vertical axis.
type YAxis struct {
	Mapping
}

// NewYAxis builds the y-axis mapping from two (pixel row, data value) pairs.
func NewYAxis(pxOrig [2]float64, dataOrig [2]float64) YAxis {
	return YAxis{NewMapping(pxOrig[0], pxOrig[1], dataOrig[0], dataOrig[1])}
}

// ReaderXAxis is a single reader's per-column x-axis mapping. Because
// x-axes may restart at each column break, px2data translates pixel
// offsets relative to the column start (so the result begins at 0), not
// absolute image coordinates.
type ReaderXAxis struct {
	Mapping
}

// NewReaderXAxis builds the x-axis mapping from two pixel positions *in
// the same column* and their corresponding data values.
func NewReaderXAxis(pxOrig [2]float64, dataOrig [2]float64) ReaderXAxis {
	return ReaderXAxis{NewMapping(pxOrig[0], pxOrig[1], dataOrig[0], dataOrig[1])}
}

// PxToDataX translates an x pixel offset (already relative to its
// column's start) to a data value. Returns an error if no mapping has
// been set for this reader.
func (r ReaderXAxis) PxToDataX(pxOffset float64) (float64, error) {
	if !r.set {
		return 0, fmt.Errorf("axis: x translation not set for this reader")
	}
	return r.ToData(pxOffset)
}
