package integrator

import (
	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// WhittedIntegrator recursively traces specular reflection/transmission
// and, at every hit, sums direct lighting from every light in the scene.
// It never samples indirect (glossy/diffuse-bounce) lighting.
type WhittedIntegrator struct {
	MaxDepth int
}

func NewWhittedIntegrator(maxDepth int) *WhittedIntegrator {
	return &WhittedIntegrator{MaxDepth: maxDepth}
}

func (w *WhittedIntegrator) Li(ray rmath.Ray, scene Scene, sampler core.Sampler, arena *core.Arena, depth int) (core.Spectrum, bool) {
	L := core.NewSpectrum(0, 0, 0)

	_, isect, hit := scene.Hit(ray)
	if !hit {
		return escapedRadiance(scene.Lights(), ray), false
	}

	L = L.Add(emittedLight(&isect, isect.Wo))

	b := computeScatteringFunctions(&isect, arena, false)
	if b == nil {
		return w.Li(isect.SpawnRay(ray.Direction), scene, sampler, arena, depth)
	}
	isect.BSDF = b

	for _, lgt := range scene.Lights() {
		Li, wi, pdf, vis := lgt.SampleLi(isect.P, sampler.Get2D())
		if pdf == 0 || Li.IsBlack() {
			continue
		}
		f := b.F(isect.Wo, wi, bsdf.All)
		if f.IsBlack() {
			continue
		}
		if !vis.Unoccluded(scene) {
			continue
		}
		L = L.Add(f.Mul(Li).Scale(wi.AbsDot(isect.N) / pdf))
	}

	if depth+1 < w.MaxDepth {
		L = L.Add(w.specularReflect(&isect, b, scene, sampler, arena, depth))
		L = L.Add(w.specularTransmit(&isect, b, scene, sampler, arena, depth))
	}

	return L, false
}

// specularReflect samples the BSDF restricted to specular-reflection
// lobes and recurses along the sampled direction.
func (w *WhittedIntegrator) specularReflect(isect *shape.SurfaceInteraction, b *bsdf.BSDF, scene Scene, sampler core.Sampler, arena *core.Arena, depth int) core.Spectrum {
	flags := bsdf.Reflection | bsdf.Specular
	wi, f, pdf, _ := b.SampleF(isect.Wo, sampler.Get2D(), sampler.Get1D(), flags)
	if pdf == 0 || f.IsBlack() || wi.AbsDot(isect.N) == 0 {
		return core.NewSpectrum(0, 0, 0)
	}
	Li, _ := w.Li(isect.SpawnRay(wi), scene, sampler, arena, depth+1)
	return f.Mul(Li).Scale(wi.AbsDot(isect.N) / pdf)
}

// specularTransmit mirrors specularReflect for specular-transmission lobes.
func (w *WhittedIntegrator) specularTransmit(isect *shape.SurfaceInteraction, b *bsdf.BSDF, scene Scene, sampler core.Sampler, arena *core.Arena, depth int) core.Spectrum {
	flags := bsdf.Transmission | bsdf.Specular
	wi, f, pdf, _ := b.SampleF(isect.Wo, sampler.Get2D(), sampler.Get1D(), flags)
	if pdf == 0 || f.IsBlack() || wi.AbsDot(isect.N) == 0 {
		return core.NewSpectrum(0, 0, 0)
	}
	Li, _ := w.Li(isect.SpawnRay(wi), scene, sampler, arena, depth+1)
	return f.Mul(Li).Scale(wi.AbsDot(isect.N) / pdf)
}
