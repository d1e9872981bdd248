package core

import (
	rmath "github.com/lumenray/tracer/pkg/math"
)

// PCG32 is a small, fast, statistically strong PRNG with an explicitly
// seedable (state, sequence) pair, which is what makes per-tile
// deterministic seeding (seed(tileID) = tileID) possible: two PCG32
// streams seeded with different sequence constants never correlate, even
// though Go's math/rand.Rand gives no such per-goroutine guarantee.
type PCG32 struct {
	state, inc uint64
}

const (
	pcgDefaultState = 0x853c49e6748fea9b
	pcgMultiplier   = 6364136223846793005
)

// NewPCG32 seeds a stream from (seed, sequence); sequence selects one of
// 2^63 independent streams from the same seed.
func NewPCG32(seed, sequence uint64) *PCG32 {
	p := &PCG32{}
	p.Seed(seed, sequence)
	return p
}

// Seed re-seeds the stream in place.
func (p *PCG32) Seed(seed, sequence uint64) {
	p.state = 0
	p.inc = (sequence << 1) | 1
	p.step()
	p.state += seed
	p.step()
}

func (p *PCG32) step() {
	p.state = p.state*pcgMultiplier + p.inc
}

// Uint32 returns the next pseudo-random uint32.
func (p *PCG32) Uint32() uint32 {
	old := p.state
	p.step()
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Float64 returns a uniform random value in [0, 1).
func (p *PCG32) Float64() float64 {
	return float64(p.Uint32()) * (1.0 / 4294967296.0)
}

// Float32 returns a uniform random value in [0, 1) as a plain float32,
// the fast path used by the stratified sampler's jitter-table precompute
// where float64 precision is unnecessary overhead.
func (p *PCG32) Float32() float32 {
	return float32(p.Uint32()) * (1.0 / 4294967296.0)
}

// Clone copies the stream state and reseeds it with a fresh sequence
// constant, giving an independent, reproducible child stream.
func (p *PCG32) Clone(sequence uint64) *PCG32 {
	return NewPCG32(p.state, sequence)
}

// Sampler is the interface every per-pixel/per-sample stochastic source
// implements: 1D and 2D uniform draws, camera-sample construction, and
// cloning for per-tile-worker reseeding.
type Sampler interface {
	StartPixel(p [2]int)
	StartNextSample() bool
	Get1D() float64
	Get2D() rmath.Vec2
	GetCameraSample(pRaster rmath.Vec2) CameraSample
	Request1DArray(n int)
	Get1DArray() []float64
	Clone(seed uint64) Sampler
	SamplesPerPixel() int
}

// CameraSample is the (film-plane, lens) sample pair a Sampler hands the
// camera for ray generation.
type CameraSample struct {
	PFilm rmath.Vec2
	PLens rmath.Vec2
}

// RandomSampler wraps a PCG32 stream; it ignores pixel locality entirely
// (every Get1D/Get2D call draws fresh, uncorrelated numbers), matching
// spec.md's minimal required Sampler implementation.
type RandomSampler struct {
	rng             *PCG32
	spp             int
	sampleIndex     int
	pixel           [2]int
	array1DRequests []int
	array1D         [][]float64
	arrayIdx        int
}

// NewRandomSampler creates a RandomSampler with the given samples-per-pixel.
func NewRandomSampler(spp int, seed uint64) *RandomSampler {
	return &RandomSampler{rng: NewPCG32(seed, 0), spp: spp}
}

func (s *RandomSampler) StartPixel(p [2]int) {
	s.pixel = p
	s.sampleIndex = -1
	s.arrayIdx = 0
}

func (s *RandomSampler) StartNextSample() bool {
	s.sampleIndex++
	s.arrayIdx = 0
	return s.sampleIndex < s.spp
}

func (s *RandomSampler) Get1D() float64 { return s.rng.Float64() }

func (s *RandomSampler) Get2D() rmath.Vec2 {
	return rmath.NewVec2(s.rng.Float64(), s.rng.Float64())
}

func (s *RandomSampler) GetCameraSample(pRaster rmath.Vec2) CameraSample {
	return CameraSample{
		PFilm: pRaster.Add(s.Get2D()),
		PLens: s.Get2D(),
	}
}

func (s *RandomSampler) Request1DArray(n int) {
	s.array1DRequests = append(s.array1DRequests, n)
}

func (s *RandomSampler) Get1DArray() []float64 {
	if s.arrayIdx >= len(s.array1DRequests) {
		return nil
	}
	n := s.array1DRequests[s.arrayIdx]
	s.arrayIdx++
	arr := make([]float64, n)
	for i := range arr {
		arr[i] = s.rng.Float64()
	}
	return arr
}

func (s *RandomSampler) Clone(seed uint64) Sampler {
	clone := &RandomSampler{
		rng:             s.rng.Clone(seed),
		spp:             s.spp,
		array1DRequests: append([]int(nil), s.array1DRequests...),
	}
	clone.rng.Seed(seed, seed)
	return clone
}

func (s *RandomSampler) SamplesPerPixel() int { return s.spp }
