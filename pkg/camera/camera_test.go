package camera

import (
	"math"
	"testing"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

func TestCenterPixelPointsDownLookDirection(t *testing.T) {
	eye := rmath.NewVec3(0, 0, 0)
	lookAt := rmath.NewVec3(0, 0, 1)
	up := rmath.NewVec3(0, 1, 0)
	cam := NewPerspectiveCamera(90, eye, lookAt, up, 200, 100)

	ray, weight := cam.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 100, Y: 50}})
	if weight != 1 {
		t.Fatalf("expected weight 1, got %v", weight)
	}

	dir := ray.Direction.Normalize()
	want := lookAt.Subtract(eye).Normalize()
	if math.Abs(dir.X-want.X) > 1e-9 || math.Abs(dir.Y-want.Y) > 1e-9 || math.Abs(dir.Z-want.Z) > 1e-9 {
		t.Errorf("center ray direction = %+v, want %+v", dir, want)
	}
	if math.Abs(ray.Origin.X-eye.X) > 1e-9 || math.Abs(ray.Origin.Y-eye.Y) > 1e-9 || math.Abs(ray.Origin.Z-eye.Z) > 1e-9 {
		t.Errorf("ray origin = %+v, want eye %+v", ray.Origin, eye)
	}
}

func TestCornerRaysDivergeSymmetrically(t *testing.T) {
	eye := rmath.NewVec3(0, 0, 0)
	lookAt := rmath.NewVec3(0, 0, 1)
	up := rmath.NewVec3(0, 1, 0)
	cam := NewPerspectiveCamera(90, eye, lookAt, up, 200, 100)

	left, _ := cam.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 0, Y: 50}})
	right, _ := cam.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 200, Y: 50}})

	if left.Direction.X >= 0 {
		t.Errorf("leftmost raster column should point toward -x, got dir.X=%v", left.Direction.X)
	}
	if right.Direction.X <= 0 {
		t.Errorf("rightmost raster column should point toward +x, got dir.X=%v", right.Direction.X)
	}
	if math.Abs(left.Direction.X+right.Direction.X) > 1e-9 {
		t.Errorf("symmetric fov should produce symmetric edge rays, got %v and %v", left.Direction.X, right.Direction.X)
	}

	top, _ := cam.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 100, Y: 0}})
	bottom, _ := cam.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 100, Y: 100}})
	if top.Direction.Y <= 0 {
		t.Errorf("top raster row should point toward +y, got dir.Y=%v", top.Direction.Y)
	}
	if bottom.Direction.Y >= 0 {
		t.Errorf("bottom raster row should point toward -y, got dir.Y=%v", bottom.Direction.Y)
	}
}

func TestAllRayDirectionsAreUnit(t *testing.T) {
	cam := NewPerspectiveCamera(60, rmath.NewVec3(1, 2, 3), rmath.NewVec3(4, 2, 10), rmath.NewVec3(0, 1, 0), 64, 48)
	for _, p := range []rmath.Vec2{{X: 0, Y: 0}, {X: 64, Y: 48}, {X: 32, Y: 24}, {X: 10, Y: 40}} {
		ray, _ := cam.CastRay(core.CameraSample{PFilm: p})
		length := ray.Direction.Length()
		if math.Abs(length-1) > 1e-9 {
			t.Errorf("ray direction at %+v not unit length: %v", p, length)
		}
	}
}

func TestWiderFovWidensEdgeAngle(t *testing.T) {
	narrow := NewPerspectiveCamera(30, rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1), rmath.NewVec3(0, 1, 0), 100, 100)
	wide := NewPerspectiveCamera(120, rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1), rmath.NewVec3(0, 1, 0), 100, 100)

	rayNarrow, _ := narrow.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 100, Y: 50}})
	rayWide, _ := wide.CastRay(core.CameraSample{PFilm: rmath.Vec2{X: 100, Y: 50}})

	if rayWide.Direction.X <= rayNarrow.Direction.X {
		t.Errorf("wider fov should diverge more at the edge: narrow.X=%v wide.X=%v", rayNarrow.Direction.X, rayWide.Direction.X)
	}
}
