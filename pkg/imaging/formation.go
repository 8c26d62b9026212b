package imaging

import (
	"math"

	"github.com/quantfocus/semsim/pkg/errors"
)

// Default raster size limits.
const (
	DefaultMaxDimension = 16384
	DefaultMinDimension = 1
)

// Config controls raster formation.
type Config struct {
	// Gamma is the correction exponent denominator: n' = n^(1/Gamma).
	// It must be positive and finite; 1 leaves intensities unchanged.
	Gamma float64

	// LUT, if set, remaps every quantized byte.
	LUT *LookupTable

	// MaxDimension caps both raster sides. Zero means DefaultMaxDimension.
	MaxDimension int

	// MinDimension is the smallest side a downscale may produce. Zero means
	// DefaultMinDimension.
	MinDimension int
}

// DefaultConfig returns gamma 1, no LUT and the default size limits.
func DefaultConfig() Config {
	return Config{Gamma: 1, MaxDimension: DefaultMaxDimension, MinDimension: DefaultMinDimension}
}

// ValidateAndSetDefaults fills zero size limits and checks the rest.
func (c *Config) ValidateAndSetDefaults() error {
	if c.MaxDimension == 0 {
		c.MaxDimension = DefaultMaxDimension
	}
	if c.MinDimension == 0 {
		c.MinDimension = DefaultMinDimension
	}
	if math.IsNaN(c.Gamma) || math.IsInf(c.Gamma, 0) || c.Gamma <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gamma must be a positive finite number, got %g", c.Gamma)
	}
	if c.MaxDimension < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "max dimension must be positive, got %d", c.MaxDimension)
	}
	if c.MinDimension < 1 || c.MinDimension > c.MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput,
			"min dimension must be in [1, %d], got %d", c.MaxDimension, c.MinDimension)
	}
	return nil
}

// FormRaster converts a row-major rows×cols grid into an 8-bit raster.
//
// Values are normalized against the grid's finite minimum and maximum; a
// constant grid maps to black, and non-finite values map to 0. When either
// side exceeds cfg.MaxDimension the raster is downscaled so its larger side
// equals MaxDimension, preserving aspect ratio, by nearest-neighbour
// sampling.
func FormRaster(data []float64, rows, cols int, cfg Config) (*Raster, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "grid dimensions %dx%d must be positive", rows, cols)
	}
	if rows*cols/cols != rows || len(data) != rows*cols {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"grid holds %d values, %dx%d needs %d", len(data), rows, cols, rows*cols)
	}

	lo, hi := finiteRange(data)
	q := quantizer{lo: lo, span: hi - lo, invGamma: 1 / cfg.Gamma, lut: cfg.LUT}

	outRows, outCols := targetSize(rows, cols, cfg.MaxDimension, cfg.MinDimension)
	r := &Raster{Pix: make([]byte, outRows*outCols), Width: outCols, Height: outRows}

	// Only sampled pixels are transformed; normalization uses the full
	// grid's range either way.
	for y := 0; y < outRows; y++ {
		sy := sourceIndex(y, rows, outRows)
		src := data[sy*cols : (sy+1)*cols]
		dst := r.Pix[y*outCols : (y+1)*outCols]
		for x := range dst {
			dst[x] = q.byteFor(src[sourceIndex(x, cols, outCols)])
		}
	}
	return r, nil
}

type quantizer struct {
	lo, span float64
	invGamma float64
	lut      *LookupTable
}

func (q quantizer) byteFor(v float64) byte {
	var n float64
	if q.span > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
		n = (v - q.lo) / q.span
	}
	if q.invGamma != 1 {
		n = math.Pow(n, q.invGamma)
	}
	b := byte(math.Max(0, math.Min(255, math.Round(n*255))))
	if q.lut != nil {
		return q.lut[b]
	}
	return b
}

// finiteRange returns the minimum and maximum finite values in data, or
// (0, 0) if there are none.
func finiteRange(data []float64) (lo, hi float64) {
	first := true
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// targetSize returns the output dimensions for a rows×cols grid.
func targetSize(rows, cols, maxDim, minDim int) (int, int) {
	if rows <= maxDim && cols <= maxDim {
		return rows, cols
	}
	small := func(side, large int) int {
		s := int(math.Round(float64(side) * float64(maxDim) / float64(large)))
		return min(max(s, minDim), maxDim)
	}
	if rows >= cols {
		return maxDim, small(cols, rows)
	}
	return small(rows, cols), maxDim
}

// sourceIndex maps output index dst to floor(dst*old/new).
func sourceIndex(dst, oldSize, newSize int) int {
	if oldSize == newSize {
		return dst
	}
	return int(int64(dst) * int64(oldSize) / int64(newSize))
}
