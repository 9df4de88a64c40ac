// Package imaging applies single color transforms to RGBA rasters.
//
// Every transform reads a source Raster and writes a freshly allocated one of
// the same size; the source is never modified. Alpha passes through
// unchanged. Channel results are rounded to the nearest integer and clamped
// to [0,255].
//
// # Transforms
//
//	Grayscale   R=G=B = 0.2126R + 0.7152G + 0.0722B
//	Sepia       fixed 3x3 sepia matrix, clamped at 255
//	HueRotate   rotate HSL hue by amount degrees
//	Brightness  add amount to every channel
//	Saturation  scale HSL saturation by 1 + amount/100
//	Contrast    scale around mid-gray by 259(C+255) / 255(259-C)
//
// Repeated adjustments (a slider being dragged) should always be applied to
// the original image, never to the previous output; Editor does that
// bookkeeping.
package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// Raster is a Width x Height grid of non-premultiplied RGBA pixels stored
// row-major, four bytes per pixel.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width * Height * 4
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) *Raster {
	if width <= 0 || height <= 0 {
		return &Raster{}
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r *Raster) valid() bool {
	return len(r.Pix) == r.Width*r.Height*4
}

// At returns the pixel at (x, y).
func (r *Raster) At(x, y int) color.NRGBA {
	i := (y*r.Width + x) * 4
	p := r.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes the pixel at (x, y).
func (r *Raster) Set(x, y int, c color.NRGBA) {
	i := (y*r.Width + x) * 4
	p := r.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Width != o.Width || r.Height != o.Height || len(r.Pix) != len(o.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// FromImage copies any image into a Raster, converting to non-premultiplied
// RGBA.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	if b.Empty() {
		return &Raster{}
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	out := NewRaster(b.Dx(), b.Dy())
	copy(out.Pix, nrgba.Pix[:len(out.Pix)])
	return out
}

// Image returns the raster as an *image.NRGBA anchored at the origin. The
// pixels are copied.
func (r *Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Pix)
	return img
}
