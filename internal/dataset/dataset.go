// Package dataset persists straditizer state as a self-describing bundle
// of named arrays: a fixed binary header, a gzip-compressed JSON directory
// describing every array's dtype/shape/byte range, and the raw array bytes
// themselves.
package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

func float64bits(v float64) uint64   { return math.Float64bits(v) }
func float64frombits(v uint64) float64 { return math.Float64frombits(v) }

// Magic identifies the container format and version.
const Magic = "STRATA01"

// HeaderSize is the fixed-size binary header: 8-byte magic, 8-byte
// directory offset, 8-byte directory length (gzip-compressed), 8-byte
// array-count.
const HeaderSize = 8 + 8 + 8 + 8

// DType is the element type of a stored array.
type DType int

const (
	DTypeFloat64 DType = iota
	DTypeInt32
	DTypeUint8
	DTypeString
)

// Entry describes one named array in the directory.
type Entry struct {
	Name   string `json:"name"`
	DType  DType  `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// Array is an in-memory named array pending serialization.
type Array struct {
	Name  string
	DType DType
	Shape []int
	Bytes []byte
}

// Bundle is the in-memory mirror of the on-disk container.
type Bundle struct {
	Arrays []Array
	Attrs  map[string]string
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{Attrs: map[string]string{}}
}

// Put adds or replaces a named array.
func (b *Bundle) Put(a Array) {
	for i, existing := range b.Arrays {
		if existing.Name == a.Name {
			b.Arrays[i] = a
			return
		}
	}
	b.Arrays = append(b.Arrays, a)
}

// Get retrieves a named array.
func (b *Bundle) Get(name string) (Array, bool) {
	for _, a := range b.Arrays {
		if a.Name == name {
			return a, true
		}
	}
	return Array{}, false
}

type directory struct {
	Entries []Entry           `json:"entries"`
	Attrs   map[string]string `json:"attrs"`
}

// Write serializes the bundle: header, gzip-compressed JSON directory,
// then the concatenated raw array bytes.
func Write(w io.Writer, b *Bundle) error {
	var dataBuf bytes.Buffer
	dir := directory{Attrs: b.Attrs}
	var offset uint64
	for _, a := range b.Arrays {
		dir.Entries = append(dir.Entries, Entry{
			Name: a.Name, DType: a.DType, Shape: a.Shape,
			Offset: offset, Length: uint64(len(a.Bytes)),
		})
		if _, err := dataBuf.Write(a.Bytes); err != nil {
			return fmt.Errorf("dataset: buffering array %q: %w", a.Name, err)
		}
		offset += uint64(len(a.Bytes))
	}

	dirJSON, err := json.Marshal(dir)
	if err != nil {
		return fmt.Errorf("dataset: encoding directory: %w", err)
	}
	var dirGz bytes.Buffer
	gz := gzip.NewWriter(&dirGz)
	if _, err := gz.Write(dirJSON); err != nil {
		return fmt.Errorf("dataset: compressing directory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("dataset: closing directory gzip stream: %w", err)
	}

	header := make([]byte, HeaderSize)
	copy(header[0:8], Magic)
	binary.LittleEndian.PutUint64(header[8:16], uint64(HeaderSize))
	binary.LittleEndian.PutUint64(header[16:24], uint64(dirGz.Len()))
	binary.LittleEndian.PutUint64(header[24:32], uint64(len(b.Arrays)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("dataset: writing header: %w", err)
	}
	if _, err := w.Write(dirGz.Bytes()); err != nil {
		return fmt.Errorf("dataset: writing directory: %w", err)
	}
	if _, err := w.Write(dataBuf.Bytes()); err != nil {
		return fmt.Errorf("dataset: writing array data: %w", err)
	}
	return nil
}

// Read parses a bundle previously written by Write. r must support
// reading the whole stream; Read buffers it to resolve directory offsets.
func Read(r io.Reader) (*Bundle, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading stream: %w", err)
	}
	if len(all) < HeaderSize {
		return nil, fmt.Errorf("dataset: truncated header")
	}
	if string(all[0:8]) != Magic {
		return nil, fmt.Errorf("dataset: bad magic %q", all[0:8])
	}
	dirOffset := binary.LittleEndian.Uint64(all[8:16])
	dirLength := binary.LittleEndian.Uint64(all[16:24])
	if dirOffset != HeaderSize {
		return nil, fmt.Errorf("dataset: unexpected directory offset %d", dirOffset)
	}
	if uint64(len(all)) < dirOffset+dirLength {
		return nil, fmt.Errorf("dataset: truncated directory")
	}

	gz, err := gzip.NewReader(bytes.NewReader(all[dirOffset : dirOffset+dirLength]))
	if err != nil {
		return nil, fmt.Errorf("dataset: opening directory gzip stream: %w", err)
	}
	dirJSON, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("dataset: decompressing directory: %w", err)
	}
	var dir directory
	if err := json.Unmarshal(dirJSON, &dir); err != nil {
		return nil, fmt.Errorf("dataset: decoding directory: %w", err)
	}

	dataStart := dirOffset + dirLength
	b := &Bundle{Attrs: dir.Attrs}
	for _, e := range dir.Entries {
		lo := dataStart + e.Offset
		hi := lo + e.Length
		if hi > uint64(len(all)) {
			return nil, fmt.Errorf("dataset: array %q out of bounds", e.Name)
		}
		b.Arrays = append(b.Arrays, Array{
			Name: e.Name, DType: e.DType, Shape: e.Shape,
			Bytes: append([]byte(nil), all[lo:hi]...),
		})
	}
	return b, nil
}

// PutFloat64s stores a []float64 array under name with the given shape.
func PutFloat64s(b *Bundle, name string, shape []int, vals []float64) {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], float64bits(v))
	}
	b.Put(Array{Name: name, DType: DTypeFloat64, Shape: shape, Bytes: buf})
}

// GetFloat64s reads back a []float64 array stored by PutFloat64s.
func GetFloat64s(b *Bundle, name string) ([]float64, bool) {
	a, ok := b.Get(name)
	if !ok || a.DType != DTypeFloat64 {
		return nil, false
	}
	n := len(a.Bytes) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64frombits(binary.LittleEndian.Uint64(a.Bytes[i*8 : i*8+8]))
	}
	return out, true
}

// PutUint8s stores a []uint8 array under name with the given shape.
func PutUint8s(b *Bundle, name string, shape []int, vals []uint8) {
	b.Put(Array{Name: name, DType: DTypeUint8, Shape: shape, Bytes: append([]byte(nil), vals...)})
}

// GetUint8s reads back a []uint8 array stored by PutUint8s.
func GetUint8s(b *Bundle, name string) ([]uint8, bool) {
	a, ok := b.Get(name)
	if !ok || a.DType != DTypeUint8 {
		return nil, false
	}
	return append([]byte(nil), a.Bytes...), true
}

// PutInt32s stores a []int32 array under name with the given shape.
func PutInt32s(b *Bundle, name string, shape []int, vals []int32) {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(v))
	}
	b.Put(Array{Name: name, DType: DTypeInt32, Shape: shape, Bytes: buf})
}

// GetInt32s reads back a []int32 array stored by PutInt32s.
func GetInt32s(b *Bundle, name string) ([]int32, bool) {
	a, ok := b.Get(name)
	if !ok || a.DType != DTypeInt32 {
		return nil, false
	}
	n := len(a.Bytes) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(a.Bytes[i*4 : i*4+4]))
	}
	return out, true
}
