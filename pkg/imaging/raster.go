// Package imaging turns floating-point scattering grids into 8-bit
// grayscale rasters.
//
// [FormRaster] is a pure function of its inputs: the same grid and [Config]
// always produce the same bytes. The steps are min/max normalization, gamma
// correction, quantization to [0, 255], an optional [LookupTable], and an
// aspect-preserving nearest-neighbour downscale when either side exceeds
// Config.MaxDimension.
//
//	r, err := imaging.FormRaster(scatter.Data, scatter.Rows, scatter.Cols, imaging.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	img := r.Image() // *image.Gray, ready for image/png
package imaging

import (
	"image"

	"github.com/quantfocus/semsim/pkg/errors"
)

// Raster is an 8-bit grayscale image, row-major with no padding:
// len(Pix) == Width*Height.
type Raster struct {
	Pix    []byte
	Width  int
	Height int
}

// Validate reports whether the pixel buffer matches the dimensions.
func (r *Raster) Validate() error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil raster")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "raster dimensions %dx%d must be positive", r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height {
		return errors.New(errors.ErrCodeInvalidInput,
			"raster holds %d bytes, %dx%d needs %d", len(r.Pix), r.Width, r.Height, r.Width*r.Height)
	}
	return nil
}

// At returns the pixel at column x, row y.
func (r *Raster) At(x, y int) byte {
	return r.Pix[y*r.Width+x]
}

// Image wraps the raster as an *image.Gray. The image shares Pix.
func (r *Raster) Image() *image.Gray {
	return &image.Gray{
		Pix:    r.Pix,
		Stride: r.Width,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// FromImage copies any image into a Raster using the gray color model.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := &Raster{Pix: make([]byte, b.Dx()*b.Dy()), Width: b.Dx(), Height: b.Dy()}
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < r.Height; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(r.Pix[y*r.Width:(y+1)*r.Width], g.Pix[off:off+r.Width])
		}
		return r
	}
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	copy(r.Pix, gray.Pix)
	return r
}

// ScaleToWidth returns a nearest-neighbour enlargement of r by the smallest
// integer factor that makes it at least minWidth wide. Rasters already wide
// enough are returned unchanged.
func ScaleToWidth(r *Raster, minWidth int) *Raster {
	if r.Width >= minWidth || r.Width == 0 {
		return r
	}
	k := (minWidth + r.Width - 1) / r.Width
	out := &Raster{Pix: make([]byte, r.Width*k*r.Height*k), Width: r.Width * k, Height: r.Height * k}
	for y := 0; y < out.Height; y++ {
		src := r.Pix[(y/k)*r.Width : (y/k+1)*r.Width]
		row := out.Pix[y*out.Width : (y+1)*out.Width]
		for x := range row {
			row[x] = src[x/k]
		}
	}
	return out
}
