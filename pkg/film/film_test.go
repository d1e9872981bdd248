package film

import (
	"math"
	"os"
	"sync"
	"testing"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

func newTestFilm(w, h int) *Film {
	return NewFilm([2]int{w, h}, rmath.NewBBox2(0, 0, w, h), NewBoxFilter(rmath.NewVec2(0.5, 0.5)), 1, 0)
}

func TestBoxFilterAlwaysEvaluatesToOne(t *testing.T) {
	f := NewBoxFilter(rmath.NewVec2(0.5, 0.5))
	for _, p := range []rmath.Vec2{{X: 0, Y: 0}, {X: 0.4, Y: 0.1}, {X: -0.5, Y: 0.5}} {
		if got := f.Evaluate(p); got != 1 {
			t.Errorf("BoxFilter.Evaluate(%+v) = %v, want 1", p, got)
		}
	}
}

func TestAddSampleAccumulatesIntoSinglePixel(t *testing.T) {
	f := newTestFilm(4, 4)
	tile := f.GetFilmTile(rmath.NewBBox2(0, 0, 4, 4))

	tile.AddSample(rmath.NewVec2(1.5, 1.5), core.NewSpectrum(1, 1, 1), 1)
	f.MergeFilmTile(tile)

	px := f.pixelAt(1, 1)
	if px.FilterWeightSum == 0 {
		t.Fatalf("expected pixel (1,1) to receive nonzero filter weight, got %v", px.FilterWeightSum)
	}
	if px.XYZ[1] == 0 {
		t.Errorf("expected nonzero luminance contribution, got %v", px.XYZ[1])
	}
}

func TestAddSampleClampsToMaxSampleLuminance(t *testing.T) {
	f := NewFilm([2]int{2, 2}, rmath.NewBBox2(0, 0, 2, 2), NewBoxFilter(rmath.NewVec2(0.5, 0.5)), 1, 1.0)
	tile := f.GetFilmTile(rmath.NewBBox2(0, 0, 2, 2))

	bright := core.NewSpectrum(1000, 1000, 1000)
	tile.AddSample(rmath.NewVec2(1.0, 1.0), bright, 1)
	f.MergeFilmTile(tile)

	px := f.pixelAt(0, 0)
	rgb := core.FromXYZ(px.XYZ)
	if rgb.Luminance() > 1.01 {
		t.Errorf("expected luminance clamp near 1.0, got %v", rgb.Luminance())
	}
}

func TestMergeFilmTileIsIdempotentUnderPartition(t *testing.T) {
	serial := newTestFilm(8, 8)
	tileAll := serial.GetFilmTile(rmath.NewBBox2(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tileAll.AddSample(rmath.NewVec2(float64(x)+0.5, float64(y)+0.5), core.NewSpectrum(0.2, 0.4, 0.6), 1)
		}
	}
	serial.MergeFilmTile(tileAll)

	partitioned := newTestFilm(8, 8)
	for _, half := range []rmath.BBox2{rmath.NewBBox2(0, 0, 4, 8), rmath.NewBBox2(4, 0, 8, 8)} {
		tile := partitioned.GetFilmTile(half)
		for y := half.Min[1]; y < half.Max[1]; y++ {
			for x := half.Min[0]; x < half.Max[0]; x++ {
				tile.AddSample(rmath.NewVec2(float64(x)+0.5, float64(y)+0.5), core.NewSpectrum(0.2, 0.4, 0.6), 1)
			}
		}
		partitioned.MergeFilmTile(tile)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a := serial.pixelAt(x, y)
			b := partitioned.pixelAt(x, y)
			if diff := absf(a.XYZ[0] - b.XYZ[0]); diff > 1e-9 {
				t.Fatalf("pixel (%d,%d) X mismatch: serial=%v partitioned=%v", x, y, a.XYZ[0], b.XYZ[0])
			}
		}
	}
}

func TestAddSplatIsAtomicAcrossGoroutines(t *testing.T) {
	f := newTestFilm(4, 4)
	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				f.AddSplat(rmath.NewVec2(1.5, 1.5), core.NewSpectrum(0.1, 0.1, 0.1))
			}
		}()
	}
	wg.Wait()

	px := f.pixelAt(1, 1)
	want := core.NewSpectrum(0.1, 0.1, 0.1).Scale(float64(goroutines * perGoroutine)).ToXYZ()
	for i := range want {
		got := math.Float64frombits(px.SplatXYZ[i])
		if absf(got-want[i]) > 1e-6 {
			t.Errorf("splat channel %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestWriteImageToFileProducesAFile(t *testing.T) {
	f := newTestFilm(2, 2)
	tile := f.GetFilmTile(rmath.NewBBox2(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			tile.AddSample(rmath.NewVec2(float64(x)+0.5, float64(y)+0.5), core.NewSpectrum(0.5, 0.5, 0.5), 1)
		}
	}
	f.MergeFilmTile(tile)

	path := t.TempDir() + "/out.png"
	if err := f.WriteImageToFile(path, 1, [2]int{}); err != nil {
		t.Fatalf("WriteImageToFile: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected a nonempty PNG at %s", path)
	}
}
