package integrator

import (
	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/light"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// bsdfFlagsFor selects the lobes estimateDirect evaluates: every lobe when
// its `specular` flag is set, otherwise the non-specular lobes only.
func bsdfFlagsFor(specular bool) bsdf.BxDFType {
	if specular {
		return bsdf.All
	}
	return bsdf.All &^ bsdf.Specular
}

// estimateDirect computes a single-sample MIS estimate of direct lighting
// from lgt at surface interaction it, combining a light-sample and a
// BSDF-sample strategy via the power heuristic.
func estimateDirect(it *shape.SurfaceInteraction, b *bsdf.BSDF, uS rmath.Vec2, lgt light.Light, uL rmath.Vec2, scene Scene, specular bool) core.Spectrum {
	flags := bsdfFlagsFor(specular)
	Ld := core.NewSpectrum(0, 0, 0)

	// Light-sampling strategy.
	Li, wi, lightPdf, vis := lgt.SampleLi(it.P, uL)
	if lightPdf > 0 && !Li.IsBlack() {
		f := b.F(it.Wo, wi, flags).Scale(wi.AbsDot(it.N))
		scatteringPdf := b.PDF(it.Wo, wi, flags)
		if !f.IsBlack() {
			if !vis.Unoccluded(scene) {
				Li = core.NewSpectrum(0, 0, 0)
			}
			if !Li.IsBlack() {
				if lgt.Flags().IsDelta() {
					Ld = Ld.Add(f.Mul(Li).Scale(1 / lightPdf))
				} else {
					weight := core.PowerHeuristic(1, lightPdf, 1, scatteringPdf)
					Ld = Ld.Add(f.Mul(Li).Scale(weight / lightPdf))
				}
			}
		}
	}

	// BSDF-sampling strategy; skipped for delta lights, which have zero
	// probability of being hit by a randomly sampled direction.
	if !lgt.Flags().IsDelta() {
		wiS, f, scatteringPdf, sampledType := b.SampleF(it.Wo, uS, 0.5, flags)
		f = f.Scale(wiS.AbsDot(it.N))
		sampledSpecular := sampledType&bsdf.Specular != 0

		if !f.IsBlack() && scatteringPdf > 0 {
			weight := 1.0
			if !sampledSpecular {
				lp := lgt.PdfLi(it.P, wiS)
				if lp == 0 {
					return Ld
				}
				weight = core.PowerHeuristic(1, scatteringPdf, 1, lp)
			}

			shadowRay := it.SpawnRay(wiS)
			tHit, lightIsect, hit := scene.Hit(shadowRay)
			var Li core.Spectrum
			if hit {
				_ = tHit
				if al := areaLightOf(&lightIsect); al != nil && lightsEqual(al, lgt) {
					Li = al.L(lightIsect.P, lightIsect.N, wiS.Negate())
				} else {
					Li = core.NewSpectrum(0, 0, 0)
				}
			} else {
				Li = lgt.Le(shadowRay)
			}
			if !Li.IsBlack() {
				Ld = Ld.Add(f.Mul(Li).Scale(weight / scatteringPdf))
			}
		}
	}

	return Ld
}

// lightsEqual compares an AreaLight recovered from a hit primitive against
// the light currently being sampled; both are always backed by the same
// concrete *DiffuseAreaLight instance for a given entity, so a pointer
// compare via the Light interface suffices.
func lightsEqual(a light.AreaLight, b light.Light) bool {
	return a == b
}

// uniformSampleOneLight estimates direct lighting by picking a single
// light from distrib and dividing its contribution by the probability of
// having picked it, the standard one-sample MIS reduction used by the
// Path integrator at every non-specular bounce.
func uniformSampleOneLight(it *shape.SurfaceInteraction, b *bsdf.BSDF, scene Scene, sampler core.Sampler, distrib light.Distribution) core.Spectrum {
	lights := scene.Lights()
	if len(lights) == 0 {
		return core.NewSpectrum(0, 0, 0)
	}
	d := distrib.Lookup(it.P)
	lightIndex, lightPmf := d.SampleDiscrete(sampler.Get1D())
	if lightPmf == 0 {
		return core.NewSpectrum(0, 0, 0)
	}

	lgt := lights[lightIndex]
	uL := sampler.Get2D()
	uS := sampler.Get2D()
	Ld := estimateDirect(it, b, uS, lgt, uL, scene, false)
	return Ld.Scale(1 / lightPmf)
}
