package renderer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/integrator"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/rtlog"
)

var (
	invalidRadianceLogger  = rtlog.New("renderer")
	invalidRadianceLogOnce sync.Once
)

// SamplerFactory builds a fresh per-tile Sampler stream seeded from the
// tile index, so seed(tile) = tile index regardless of which concrete
// Sampler the scene selects.
type SamplerFactory func(samplesPerPixel int, seed uint64) core.Sampler

// Renderer drives a tiled, parallel sampling render: a pool of workers
// sized to the host's hardware threads pulls tiles off a shared atomic
// counter (work-stealing by index fetch-and-add), each rendering its tile
// with its own arena and a Sampler cloned from the tile index, then
// merging the result into Scene.Film under its single mutex.
type Renderer struct {
	Scene           *Scene
	Integrator      integrator.Integrator
	SamplesPerPixel int
	NumWorkers      int
	NewSampler      SamplerFactory
}

// NewRenderer builds a renderer; numWorkers <= 0 defaults to
// runtime.NumCPU(). NewSampler is set to a core.NewRandomSampler factory;
// callers may replace the field afterwards.
func NewRenderer(scene *Scene, integ integrator.Integrator, samplesPerPixel, numWorkers int) *Renderer {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Renderer{
		Scene:           scene,
		Integrator:      integ,
		SamplesPerPixel: samplesPerPixel,
		NumWorkers:      numWorkers,
		NewSampler: func(spp int, seed uint64) core.Sampler {
			return core.NewRandomSampler(spp, seed)
		},
	}
}

// Render runs every tile to completion and returns render-wide stats.
// Ordering between tiles is unspecified; determinism across runs requires
// a fixed RNG seed schedule (guaranteed here, since seed(tile) = tile
// index) and NumWorkers == 1.
func (r *Renderer) Render() *RenderStats {
	start := time.Now()
	stats := newRenderStats(r.NumWorkers, tileSize)

	tiles := tileGrid(r.Scene.Film.CropBounds)
	var nextTile int64

	var wg sync.WaitGroup
	wg.Add(r.NumWorkers)
	for w := 0; w < r.NumWorkers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := atomic.AddInt64(&nextTile, 1) - 1
				if i >= int64(len(tiles)) {
					return
				}
				r.renderTile(int(i), tiles[i], stats)
			}
		}()
	}
	wg.Wait()

	stats.RenderTime = time.Since(start)
	return stats
}

// renderTile renders one tile's pixels with a dedicated arena and a
// Sampler stream seeded from the tile's own index, then merges the
// result into the film under its mutex. No worker blocks another except
// at that single merge point.
func (r *Renderer) renderTile(tileIndex int, bounds rmath.BBox2, stats *RenderStats) {
	sampler := r.NewSampler(r.SamplesPerPixel, uint64(tileIndex))
	arena := core.NewArena()
	filmTile := r.Scene.Film.GetFilmTile(bounds)

	samplesTaken := 0
	var rrTerminations int64
	for y := bounds.Min[1]; y < bounds.Max[1]; y++ {
		for x := bounds.Min[0]; x < bounds.Max[0]; x++ {
			sampler.StartPixel([2]int{x, y})
			for sampler.StartNextSample() {
				arena.Reset()

				cs := sampler.GetCameraSample(rmath.NewVec2(float64(x), float64(y)))
				ray, weight := r.Scene.Camera.CastRay(cs)
				if weight == 0 {
					continue
				}

				L, rrTerminated := r.Integrator.Li(ray, r.Scene, sampler, arena, 0)
				if rrTerminated {
					rrTerminations++
				}
				if clamped, invalid := L.ClampZeroIfInvalid(); invalid {
					invalidRadianceLogOnce.Do(func() {
						invalidRadianceLogger.Warningf("non-finite or negative radiance estimate at pixel (%d,%d); replacing sample with zero", x, y)
					})
					L = clamped
				}
				filmTile.AddSample(cs.PFilm, L, weight)
				samplesTaken++
			}
		}
	}

	r.Scene.Film.MergeFilmTile(filmTile)
	stats.addTile(bounds.Dx()*bounds.Dy(), samplesTaken, rrTerminations)
}
