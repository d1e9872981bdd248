package integrator

import (
	"testing"

	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/light"
	"github.com/lumenray/tracer/pkg/material"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// testEntity satisfies the hitable interface this package type-asserts
// against, without importing pkg/renderer.
type testEntity struct {
	mat material.Material
	al  light.AreaLight
}

func (e *testEntity) Material() material.Material { return e.mat }
func (e *testEntity) AreaLight() light.AreaLight  { return e.al }

// testScene satisfies the Scene interface directly over a single sphere.
type testScene struct {
	sphere  *shape.Sphere
	entity  *testEntity
	lights  []light.Light
	distrib light.Distribution
}

func newTestScene(mat material.Material, al light.AreaLight, lights []light.Light) *testScene {
	identity := rmath.Identity()
	sphere := shape.NewSphere(&identity, &identity, 1.0)
	return &testScene{
		sphere:  sphere,
		entity:  &testEntity{mat: mat, al: al},
		lights:  lights,
		distrib: light.NewUniformLightDistribution(lights),
	}
}

func (s *testScene) Hit(ray rmath.Ray) (float64, shape.SurfaceInteraction, bool) {
	tHit, isect, ok := s.sphere.HitInteraction(ray)
	if ok {
		isect.Hitable = s.entity
	}
	return tHit, isect, ok
}

func (s *testScene) AnyHit(ray rmath.Ray) bool { return s.sphere.Hit(ray) }
func (s *testScene) Lights() []light.Light     { return s.lights }
func (s *testScene) LightDistribution() light.Distribution { return s.distrib }

func TestWhittedIntegratorMissReturnsBlack(t *testing.T) {
	scene := newTestScene(material.NewLambertian(core.NewSpectrum(0.5, 0.5, 0.5)), nil, nil)
	integ := NewWhittedIntegrator(4)
	sampler := core.NewRandomSampler(1, 1)
	arena := core.NewArena()

	ray := rmath.NewRay(rmath.NewVec3(0, 0, 5), rmath.NewVec3(0, 1, 0)) // points away from sphere
	L, _ := integ.Li(ray, scene, sampler, arena, 0)
	if !L.IsBlack() {
		t.Errorf("expected black for a ray that misses everything, got %+v", L)
	}
}

func TestWhittedIntegratorHitReturnsNonNegative(t *testing.T) {
	lamp := light.NewDiffuseAreaLight(shapeAtDistance(t, 5), core.NewSpectrum(10, 10, 10), true, 1)
	scene := newTestScene(material.NewLambertian(core.NewSpectrum(0.5, 0.5, 0.5)), nil, []light.Light{lamp})
	integ := NewWhittedIntegrator(4)
	sampler := core.NewRandomSampler(1, 2)
	arena := core.NewArena()

	ray := rmath.NewRay(rmath.NewVec3(0, 0, 5), rmath.NewVec3(0, 0, -1))
	L, _ := integ.Li(ray, scene, sampler, arena, 0)
	if L.R < 0 || L.G < 0 || L.B < 0 {
		t.Errorf("expected nonnegative radiance, got %+v", L)
	}
}

func TestPathIntegratorTerminatesAtMaxDepth(t *testing.T) {
	mirror := material.NewMirror(core.NewSpectrum(0.99, 0.99, 0.99))
	scene := newTestScene(mirror, nil, nil)
	integ := NewPathIntegrator(0)
	sampler := core.NewRandomSampler(1, 3)
	arena := core.NewArena()

	ray := rmath.NewRay(rmath.NewVec3(0, 0, 5), rmath.NewVec3(0, 0, -1))
	L, _ := integ.Li(ray, scene, sampler, arena, 0)
	if !L.IsBlack() {
		t.Errorf("expected black at maxDepth=0 with no emissive hit, got %+v", L)
	}
}

func TestPathIntegratorRussianRouletteEventuallyTerminates(t *testing.T) {
	mirror := material.NewMirror(core.NewSpectrum(0.01, 0.01, 0.01))
	scene := newTestScene(mirror, nil, nil)
	integ := NewPathIntegrator(50)

	// Starting at the mirror sphere's centre, the ray bounces back and forth
	// between opposite walls, so paths run past the bounce at which
	// Russian roulette starts.
	ray := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(1, 0, 0))
	sawTermination := false
	for i := 0; i < 20; i++ {
		sampler := core.NewRandomSampler(1, uint64(100+i))
		arena := core.NewArena()
		L, terminated := integ.Li(ray, scene, sampler, arena, 0)
		if L.HasNaN() {
			t.Fatalf("got NaN radiance on iteration %d", i)
		}
		sawTermination = sawTermination || terminated
	}
	if !sawTermination {
		t.Error("expected Russian-roulette to terminate at least one of 20 high-bounce-count paths through a low-reflectance mirror")
	}
}

func TestEstimateDirectProducesNonnegativeRadiance(t *testing.T) {
	lamp := light.NewDiffuseAreaLight(shapeAtDistance(t, 5), core.NewSpectrum(10, 10, 10), true, 1)
	scene := newTestScene(material.NewLambertian(core.NewSpectrum(0.5, 0.5, 0.5)), nil, []light.Light{lamp})

	isect := shape.SurfaceInteraction{
		P:    rmath.NewVec3(0, 0, 1),
		N:    rmath.NewVec3(0, 0, 1),
		Wo:   rmath.NewVec3(0, 0, 1),
		Dpdu: rmath.NewVec3(1, 0, 0),
	}
	arena := core.NewArena()
	b := bsdf.NewBSDF(arena, isect.Dpdu, isect.N, 1)
	b.Add(bsdf.NewLambertianReflection(arena, core.NewSpectrum(0.5, 0.5, 0.5)))

	Ld := estimateDirect(&isect, b, rmath.NewVec2(0.5, 0.5), lamp, rmath.NewVec2(0.5, 0.5), scene, false)
	if Ld.R < 0 || Ld.G < 0 || Ld.B < 0 {
		t.Errorf("expected nonnegative direct lighting estimate, got %+v", Ld)
	}
}

// shapeAtDistance builds a radius-0.5 sphere light source offset along +z from
// the origin, so it doesn't coincide with the scene's test sphere.
func shapeAtDistance(t *testing.T, z float64) shape.Shape {
	t.Helper()
	toWorld := rmath.Translate(rmath.NewVec3(0, 0, z))
	toObj := toWorld.Inverse()
	return shape.NewSphere(&toWorld, &toObj, 0.5)
}
