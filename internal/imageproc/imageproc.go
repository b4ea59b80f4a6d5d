// Package imageproc converts a source raster into the greyscale and binary
// arrays the rest of the digitizer operates on, and tracks the pixel
// extents used to translate crop-local coordinates back to image space.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/gen2brain/webp"
)

// DefaultGreyThreshold is the sum of three 8-bit channels (0..765) above
// which a pixel is treated as background. 690 == 230 per channel.
const DefaultGreyThreshold = 690

// Image wraps a decoded RGBA raster.
type Image struct {
	Pix           *image.RGBA
	Width, Height int
}

// Load decodes a PNG, JPEG, or WebP file by sniffing its magic bytes, the
// way cog.Open sniffs TIFF byte order before parsing.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data)
}

// Decode sniffs and decodes raw image bytes into an *Image.
func Decode(data []byte) (*Image, error) {
	var img image.Image
	var err error

	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}):
		img, err = png.Decode(bytes.NewReader(data))
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("decoding image: unrecognized format")
	}
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return FromImage(img), nil
}

// FromImage normalizes any image.Image into an *image.RGBA-backed Image.
func FromImage(img image.Image) *Image {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		return &Image{Pix: rgba, Width: b.Dx(), Height: b.Dy()}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			rgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return &Image{Pix: rgba, Width: b.Dx(), Height: b.Dy()}
}

// Extent gives a reader crop's origin in the parent image's coordinate
// system: (X0, X1, Y1, Y0).
type Extent struct {
	X0, X1, Y1, Y0 int
}

// Width returns the extent's pixel width.
func (e Extent) Width() int { return e.X1 - e.X0 }

// Height returns the extent's pixel height.
func (e Extent) Height() int { return e.Y0 - e.Y1 }

// Crop extracts the sub-image described by ext from img.
func Crop(img *Image, ext Extent) (*Image, error) {
	if ext.X0 < 0 || ext.Y1 < 0 || ext.X1 > img.Width || ext.Y0 > img.Height || ext.X1 <= ext.X0 || ext.Y0 <= ext.Y1 {
		return nil, fmt.Errorf("crop extent %+v out of bounds for image %dx%d", ext, img.Width, img.Height)
	}
	w, h := ext.Width(), ext.Height()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := img.Pix.PixOffset(ext.X0, ext.Y1+y)
		dstOff := dst.PixOffset(0, y)
		copy(dst.Pix[dstOff:dstOff+w*4], img.Pix.Pix[srcOff:srcOff+w*4])
	}
	return &Image{Pix: dst, Width: w, Height: h}, nil
}

// Greyscale converts img to a greyscale array: alpha==0 or channel-sum >
// threshold maps to 0 (background); otherwise the value is luminance+1, so
// valid pixels occupy 1..255.
func Greyscale(img *Image, threshold int) []int {
	out := make([]int, img.Width*img.Height)
	pix := img.Pix.Pix
	stride := img.Pix.Stride
	for y := 0; y < img.Height; y++ {
		row := y * stride
		for x := 0; x < img.Width; x++ {
			off := row + x*4
			r, g, b, a := pix[off], pix[off+1], pix[off+2], pix[off+3]
			idx := y*img.Width + x
			if a == 0 || int(r)+int(g)+int(b) > threshold {
				out[idx] = 0
				continue
			}
			l := luminance(r, g, b)
			out[idx] = int(l) + 1
		}
	}
	return out
}

// luminance matches the ITU-R 601 weights PIL's "L" conversion uses.
func luminance(r, g, b uint8) uint8 {
	v := (299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Binary converts a greyscale array to {0,1}.
func Binary(grey []int) []uint8 {
	out := make([]uint8, len(grey))
	for i, v := range grey {
		if v > 0 {
			out[i] = 1
		}
	}
	return out
}

// ToGreyscale runs the full greyscale conversion in one call.
func ToGreyscale(img *Image, threshold int) []int {
	if threshold <= 0 {
		threshold = DefaultGreyThreshold
	}
	return Greyscale(img, threshold)
}

// ToBinary runs the full binary conversion in one call.
func ToBinary(img *Image, threshold int) []uint8 {
	return Binary(ToGreyscale(img, threshold))
}
