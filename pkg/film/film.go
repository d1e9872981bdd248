// Package film accumulates filtered radiance samples into pixels and
// writes the final tone-mapped image.
package film

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/nfnt/resize"
)

// Pixel accumulates the XYZ contribution of regular (filtered) samples
// plus a separate, lock-free splat accumulator for delta-light
// contributions that bypass the filter.
type Pixel struct {
	XYZ             [3]float64
	FilterWeightSum float64
	SplatXYZ        [3]uint64 // bit patterns of float64, updated via CAS
}

// splatAdd performs a lock-free read-compute-CAS accumulation of v into
// the splat channel at bits.
func splatAdd(bits *uint64, v float64) {
	for {
		old := atomic.LoadUint64(bits)
		sum := math.Float64frombits(old) + v
		if atomic.CompareAndSwapUint64(bits, old, math.Float64bits(sum)) {
			return
		}
	}
}

// FilmTile is a thread-local accumulator for one rendered tile, sized to
// the tile's pixel bounds expanded by the filter radius. It is owned by
// the goroutine rendering the tile and merged into Film exactly once.
type FilmTile struct {
	bounds       rmath.BBox2
	filterTable  *filterTable
	pixels       []Pixel
	maxSampleLum float64
}

func newFilmTile(bounds rmath.BBox2, ft *filterTable, maxSampleLum float64) *FilmTile {
	return &FilmTile{
		bounds:       bounds,
		filterTable:  ft,
		pixels:       make([]Pixel, bounds.Dx()*bounds.Dy()),
		maxSampleLum: maxSampleLum,
	}
}

func (t *FilmTile) pixelAt(x, y int) *Pixel {
	return &t.pixels[(y-t.bounds.Min[1])*t.bounds.Dx()+(x-t.bounds.Min[0])]
}

// AddSample splats a radiance sample L (with sampler weight w) at film
// position pFilm across every pixel within the filter radius, weighted by
// the precomputed filter table.
func (t *FilmTile) AddSample(pFilm rmath.Vec2, L core.Spectrum, w float64) {
	if lum := L.Luminance(); lum > t.maxSampleLum && lum > 0 {
		L = L.Scale(t.maxSampleLum / lum)
	}

	radius := t.filterTable.radius
	p0x := int(math.Ceil(pFilm.X - 0.5 - radius.X))
	p0y := int(math.Ceil(pFilm.Y - 0.5 - radius.Y))
	p1x := int(math.Floor(pFilm.X-0.5+radius.X)) + 1
	p1y := int(math.Floor(pFilm.Y-0.5+radius.Y)) + 1

	if p0x < t.bounds.Min[0] {
		p0x = t.bounds.Min[0]
	}
	if p0y < t.bounds.Min[1] {
		p0y = t.bounds.Min[1]
	}
	if p1x > t.bounds.Max[0] {
		p1x = t.bounds.Max[0]
	}
	if p1y > t.bounds.Max[1] {
		p1y = t.bounds.Max[1]
	}

	xyz := L.Scale(w).ToXYZ()
	for y := p0y; y < p1y; y++ {
		for x := p0x; x < p1x; x++ {
			fw := t.filterTable.lookup(float64(x)+0.5-pFilm.X, float64(y)+0.5-pFilm.Y)
			if fw == 0 {
				continue
			}
			px := t.pixelAt(x, y)
			px.XYZ[0] += xyz[0] * fw
			px.XYZ[1] += xyz[1] * fw
			px.XYZ[2] += xyz[2] * fw
			px.FilterWeightSum += fw
		}
	}
}

// Film is the full-resolution pixel accumulator. The pixel array, splat
// accumulator, and tile-merge mutex are the only mutable shared state;
// everything else is fixed at construction.
type Film struct {
	Resolution         [2]int
	CropBounds         rmath.BBox2
	Filter             Filter
	filterTable        *filterTable
	Scale              float64
	MaxSampleLuminance float64

	mu     sync.Mutex
	pixels []Pixel
}

// NewFilm builds a Film over the given full resolution, with pixels
// restricted to cropBounds (pixel-space, already intersected with
// [0,resolution)).
func NewFilm(resolution [2]int, cropBounds rmath.BBox2, filter Filter, scale, maxSampleLuminance float64) *Film {
	if maxSampleLuminance <= 0 {
		maxSampleLuminance = math.Inf(1)
	}
	return &Film{
		Resolution:         resolution,
		CropBounds:         cropBounds,
		Filter:             filter,
		filterTable:        newFilterTable(filter),
		Scale:              scale,
		MaxSampleLuminance: maxSampleLuminance,
		pixels:             make([]Pixel, cropBounds.Dx()*cropBounds.Dy()),
	}
}

// Pixels returns a snapshot copy of the film's pixel buffer, in the same
// row-major order as CropBounds.
func (f *Film) Pixels() []Pixel {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Pixel, len(f.pixels))
	copy(out, f.pixels)
	return out
}

// GetFilmTile allocates a FilmTile covering sampleBounds (tile pixel
// bounds in the camera's raster space), expanded by the filter radius and
// clipped to the film's crop bounds.
func (f *Film) GetFilmTile(sampleBounds rmath.BBox2) *FilmTile {
	radius := f.filterTable.radius
	x0 := int(math.Floor(float64(sampleBounds.Min[0]) + 0.5 - radius.X))
	y0 := int(math.Floor(float64(sampleBounds.Min[1]) + 0.5 - radius.Y))
	x1 := int(math.Ceil(float64(sampleBounds.Max[0]) - 0.5 + radius.X))
	y1 := int(math.Ceil(float64(sampleBounds.Max[1]) - 0.5 + radius.Y))

	bounds := rmath.NewBBox2(x0, y0, x1, y1).Intersect(f.CropBounds)
	return newFilmTile(bounds, f.filterTable, f.MaxSampleLuminance)
}

// MergeFilmTile folds tile's pixels into the film's shared accumulator
// under mu, the film's single tile-merge mutex.
func (f *Film) MergeFilmTile(tile *FilmTile) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for y := tile.bounds.Min[1]; y < tile.bounds.Max[1]; y++ {
		for x := tile.bounds.Min[0]; x < tile.bounds.Max[0]; x++ {
			src := tile.pixelAt(x, y)
			if src.XYZ[0] == 0 && src.XYZ[1] == 0 && src.XYZ[2] == 0 && src.FilterWeightSum == 0 {
				continue
			}
			dst := f.pixelAt(x, y)
			dst.XYZ[0] += src.XYZ[0]
			dst.XYZ[1] += src.XYZ[1]
			dst.XYZ[2] += src.XYZ[2]
			dst.FilterWeightSum += src.FilterWeightSum
		}
	}
}

// AddSplat deposits a radiance contribution directly at a pixel, bypassing
// the reconstruction filter. Safe to call from any goroutine at any time.
func (f *Film) AddSplat(pFilm rmath.Vec2, L core.Spectrum) {
	x := int(math.Floor(pFilm.X))
	y := int(math.Floor(pFilm.Y))
	if !f.CropBounds.InsideExclusive(x, y) {
		return
	}
	px := f.pixelAt(x, y)
	xyz := L.ToXYZ()
	splatAdd(&px.SplatXYZ[0], xyz[0])
	splatAdd(&px.SplatXYZ[1], xyz[1])
	splatAdd(&px.SplatXYZ[2], xyz[2])
}

func (f *Film) pixelAt(x, y int) *Pixel {
	return &f.pixels[(y-f.CropBounds.Min[1])*f.CropBounds.Dx()+(x-f.CropBounds.Min[0])]
}

// WriteImageToFile tone-maps the accumulated pixels and writes a PNG to
// filename. splatScale weights the splat accumulator relative to the
// filtered contribution; outputResolution, if non-zero and different from
// the crop size, resizes the rendered image before encoding.
func (f *Film) WriteImageToFile(filename string, splatScale float64, outputResolution [2]int) error {
	width, height := f.CropBounds.Dx(), f.CropBounds.Dy()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := f.pixelAt(x+f.CropBounds.Min[0], y+f.CropBounds.Min[1])

			xyz := px.XYZ
			if px.FilterWeightSum > 0 {
				inv := 1 / px.FilterWeightSum
				xyz[0] *= inv
				xyz[1] *= inv
				xyz[2] *= inv
			}
			rgb := core.FromXYZ(xyz)

			splat := core.FromXYZ([3]float64{
				math.Float64frombits(atomic.LoadUint64(&px.SplatXYZ[0])),
				math.Float64frombits(atomic.LoadUint64(&px.SplatXYZ[1])),
				math.Float64frombits(atomic.LoadUint64(&px.SplatXYZ[2])),
			})
			rgb = rgb.Add(splat.Scale(splatScale))
			rgb = rgb.Scale(f.Scale)

			r := clamp8(core.GammaCorrect(rgb.R))
			g := clamp8(core.GammaCorrect(rgb.G))
			b := clamp8(core.GammaCorrect(rgb.B))
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	var out image.Image = img
	if outputResolution[0] > 0 && outputResolution[1] > 0 &&
		(outputResolution[0] != width || outputResolution[1] != height) {
		out = resize.Resize(uint(outputResolution[0]), uint(outputResolution[1]), img, resize.Bilinear)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("film: creating output file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, out); err != nil {
		return fmt.Errorf("film: encoding PNG: %w", err)
	}
	return nil
}

func clamp8(v float64) uint8 {
	v = v*255 + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
