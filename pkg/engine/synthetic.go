package engine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/quantfocus/semsim/pkg/params"
)

// Synthetic grid sizes and sampling limits.
const (
	syntheticScatterSize   = 64
	syntheticImageSize     = 128
	syntheticMaxResolution = 4096
	syntheticMaxElectrons  = 200_000
	syntheticBeamElectrons = 20_000
)

// Synthetic is a pure-Go stand-in for the native engine. It produces
// plausible, deterministic grids from a seeded Monte-Carlo walk and keeps
// its state the way the native engine does: in a single mutable instance
// whose buffers are reused and overwritten by the next run. It is not safe
// for concurrent use; drive it through a [Client].
type Synthetic struct {
	seed uint64

	mode               params.Mode
	energy, p2, p3, p4 float64
	configured         bool

	scatter                  []float64
	scatterRows, scatterCols int
	image                    []float64
	imageWidth, imageHeight  int
	valid                    bool
}

// NewSynthetic returns a synthetic engine seeded with seed.
func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{seed: seed}
}

// Name implements [Namer].
func (s *Synthetic) Name() string {
	return fmt.Sprintf("synthetic:%d", s.seed)
}

// Init implements [Engine]. It invalidates all previously returned buffers.
func (s *Synthetic) Init(mode params.Mode, energy, p2, p3, p4 float64) {
	s.mode = mode
	s.energy, s.p2, s.p3, s.p4 = energy, p2, p3, p4
	s.configured = true
	s.valid = false
}

// Run implements [Engine].
func (s *Synthetic) Run() {
	s.valid = false
	if !s.configured {
		return
	}
	rng := rand.New(rand.NewPCG(s.seed, math.Float64bits(s.energy)^math.Float64bits(s.p2)<<1^
		math.Float64bits(s.p3)<<2^math.Float64bits(s.p4)<<3))

	switch s.mode {
	case params.ModeTransmission:
		s.runTransmission(rng)
	default:
		s.runBeam(rng)
	}
	s.valid = true
}

// ScatterData implements [Engine].
func (s *Synthetic) ScatterData() ([]float64, int, int) {
	if !s.valid {
		return nil, 0, 0
	}
	return s.scatter, s.scatterRows, s.scatterCols
}

// ImageData implements [Engine].
func (s *Synthetic) ImageData() ([]float64, int, int) {
	if !s.valid {
		return nil, 0, 0
	}
	return s.image, s.imageWidth, s.imageHeight
}

// runBeam scans a resolution×resolution field over a patterned specimen.
// The scatter grid is the lateral spread of backscattered electrons, whose
// radius grows with energy following the Kanaya-Okayama range.
func (s *Synthetic) runBeam(rng *rand.Rand) {
	current, distance := s.p2, s.p4
	res := int(s.p3)
	if res < 1 {
		res = 1
	}
	if res > syntheticMaxResolution {
		res = syntheticMaxResolution
	}

	s.image = resize(s.image, res*res)
	s.imageWidth, s.imageHeight = res, res

	// Larger working distance softens contrast slightly.
	contrast := 1 / (1 + 0.02*distance)
	noise := 0.05 / math.Sqrt(current)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			u := (float64(x) + 0.5) / float64(res)
			v := (float64(y) + 0.5) / float64(res)
			yield := 0.2 + contrast*specimen(u, v)
			s.image[y*res+x] = math.Max(0, yield+noise*rng.NormFloat64())
		}
	}

	rangeUM := 0.0276 * math.Pow(s.energy, 1.67)
	s.fillScatter(syntheticBeamElectrons, func() (float64, float64) {
		r := rangeUM * math.Sqrt(-2*math.Log(1-rng.Float64())) / 3
		phi := 2 * math.Pi * rng.Float64()
		return r * math.Cos(phi), r * math.Sin(phi)
	}, rangeUM)
}

// runTransmission pushes electrons through a foil. Each electron undergoes
// a Poisson number of small-angle events; the scatter grid holds the exit
// angles and the image the exit positions on a far detector.
func (s *Synthetic) runTransmission(rng *rand.Rand) {
	thickness, sigma := s.p2, s.p3
	n := int(s.p4)
	if n > syntheticMaxElectrons {
		n = syntheticMaxElectrons
	}
	if n < 1 {
		n = 1
	}

	// Elastic mean free path grows roughly linearly with energy.
	mfp := 5 * s.energy
	events := thickness / mfp
	spread := sigma * math.Sqrt(math.Max(events, 1e-9))
	limit := 4 * math.Max(spread, 1e-6)

	// The sum of k independent N(0, sigma²) steps is N(0, k*sigma²).
	walk := func() (float64, float64) {
		step := sigma * math.Sqrt(float64(poisson(rng, events)))
		return step * rng.NormFloat64(), step * rng.NormFloat64()
	}

	s.fillScatter(n, walk, limit)

	size := syntheticImageSize
	s.image = resize(s.image, size*size)
	s.imageWidth, s.imageHeight = size, size
	for i := 0; i < n; i++ {
		tx, ty := walk()
		x := int((tx/limit + 1) / 2 * float64(size))
		y := int((ty/limit + 1) / 2 * float64(size))
		if x >= 0 && x < size && y >= 0 && y < size {
			s.image[y*size+x]++
		}
	}
}

// fillScatter histograms n samples over [-limit, limit]² into the scatter grid.
func (s *Synthetic) fillScatter(n int, sample func() (float64, float64), limit float64) {
	size := syntheticScatterSize
	s.scatter = resize(s.scatter, size*size)
	s.scatterRows, s.scatterCols = size, size
	for i := 0; i < n; i++ {
		a, b := sample()
		col := int((a/limit + 1) / 2 * float64(size))
		row := int((b/limit + 1) / 2 * float64(size))
		if col >= 0 && col < size && row >= 0 && row < size {
			s.scatter[row*size+col]++
		}
	}
}

// specimen is a synthetic sample: a disc and a grid of heavier particles on
// a light substrate, in [0,1].
func specimen(u, v float64) float64 {
	val := 0.1
	if dx, dy := u-0.35, v-0.4; dx*dx+dy*dy < 0.04 {
		val = 0.6
	}
	gx, gy := math.Mod(u*8, 1)-0.5, math.Mod(v*8, 1)-0.5
	if gx*gx+gy*gy < 0.02 {
		val = 0.9
	}
	return val
}

// resize returns buf zeroed with length n, reusing its storage when possible.
func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// poisson draws from a Poisson distribution with mean lambda.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		k := int(math.Round(lambda + math.Sqrt(lambda)*rng.NormFloat64()))
		return max(k, 0)
	}
	l := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
