package renderer

import (
	"testing"

	"github.com/lumenray/tracer/pkg/camera"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/film"
	"github.com/lumenray/tracer/pkg/integrator"
	"github.com/lumenray/tracer/pkg/light"
	"github.com/lumenray/tracer/pkg/material"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

func newTestScene(resX, resY int) *Scene {
	identity := rmath.Identity()
	sphere := shape.NewSphere(&identity, &identity, 1.0)
	mat := material.NewLambertian(core.NewSpectrum(0.5, 0.5, 0.5))
	entity := NewEntity(sphere, mat, nil)

	lampShape := shape.NewSphere(&identity, &identity, 0.5)
	lamp := light.NewDiffuseAreaLight(lampShape, core.NewSpectrum(8, 8, 8), true, 1)

	cam := camera.NewPerspectiveCamera(60, rmath.NewVec3(0, 0, 5), rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 1, 0), resX, resY)
	f := film.NewFilm([2]int{resX, resY}, rmath.NewBBox2(0, 0, resX, resY), film.NewBoxFilter(rmath.NewVec2(0.5, 0.5)), 1, 10)

	return NewScene([]*Entity{entity}, []light.Light{lamp}, cam, f)
}

func TestTileGridCoversEveryPixelExactlyOnce(t *testing.T) {
	bounds := rmath.NewBBox2(0, 0, 37, 19) // deliberately not a multiple of tileSize
	tiles := tileGrid(bounds)

	covered := make(map[[2]int]int)
	for _, tb := range tiles {
		for y := tb.Min[1]; y < tb.Max[1]; y++ {
			for x := tb.Min[0]; x < tb.Max[0]; x++ {
				covered[[2]int{x, y}]++
			}
		}
	}

	for y := bounds.Min[1]; y < bounds.Max[1]; y++ {
		for x := bounds.Min[0]; x < bounds.Max[0]; x++ {
			if covered[[2]int{x, y}] != 1 {
				t.Fatalf("pixel (%d,%d) covered %d times, want 1", x, y, covered[[2]int{x, y}])
			}
		}
	}
}

func TestRenderProducesFiniteNonNegativeStats(t *testing.T) {
	scene := newTestScene(16, 16)
	integ := integrator.NewWhittedIntegrator(2)
	r := NewRenderer(scene, integ, 2, 2)

	stats := r.Render()

	if stats.PixelsRendered != 16*16 {
		t.Errorf("PixelsRendered = %d, want %d", stats.PixelsRendered, 16*16)
	}
	if stats.SamplesTaken <= 0 {
		t.Errorf("expected positive SamplesTaken, got %d", stats.SamplesTaken)
	}
	if stats.TilesRendered != 1 {
		t.Errorf("a 16x16 image in one tile should render exactly 1 tile, got %d", stats.TilesRendered)
	}
}

func TestRenderIsDeterministicAcrossRunsWithOneWorker(t *testing.T) {
	render := func() *film.Film {
		scene := newTestScene(16, 16)
		integ := integrator.NewWhittedIntegrator(2)
		r := NewRenderer(scene, integ, 2, 1)
		r.Render()
		return scene.Film
	}

	pa := render().Pixels()
	pb := render().Pixels()

	for i := range pa {
		if pa[i].XYZ != pb[i].XYZ || pa[i].FilterWeightSum != pb[i].FilterWeightSum {
			t.Fatalf("pixel %d differs between runs: %+v vs %+v", i, pa[i], pb[i])
		}
	}
}

func TestRenderWithMultipleWorkersCoversAllTiles(t *testing.T) {
	scene := newTestScene(64, 33)
	integ := integrator.NewWhittedIntegrator(2)
	r := NewRenderer(scene, integ, 1, 8)

	stats := r.Render()
	wantTiles := len(tileGrid(scene.Film.CropBounds))
	if int(stats.TilesRendered) != wantTiles {
		t.Errorf("TilesRendered = %d, want %d", stats.TilesRendered, wantTiles)
	}
}
