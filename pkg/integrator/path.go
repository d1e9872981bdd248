package integrator

import (
	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// PathIntegrator is an iterative unidirectional path tracer with
// multiple-importance-sampled direct lighting at every non-specular
// bounce and Russian-roulette termination past a fixed bounce count.
type PathIntegrator struct {
	MaxDepth int
}

func NewPathIntegrator(maxDepth int) *PathIntegrator {
	return &PathIntegrator{MaxDepth: maxDepth}
}

func (p *PathIntegrator) Li(r rmath.Ray, scene Scene, sampler core.Sampler, arena *core.Arena, _ int) (core.Spectrum, bool) {
	L := core.NewSpectrum(0, 0, 0)
	beta := core.NewSpectrum(1, 1, 1)
	ray := r
	specularBounce := false
	etaScale := 1.0
	bounces := 0
	rrTerminated := false

	for {
		_, isect, hit := scene.Hit(ray)

		if bounces == 0 || specularBounce {
			if hit {
				L = L.Add(beta.Mul(emittedLight(&isect, isect.Wo)))
			} else {
				L = L.Add(beta.Mul(escapedRadiance(scene.Lights(), ray)))
			}
		}

		if !hit || bounces >= p.MaxDepth {
			break
		}

		b := computeScatteringFunctions(&isect, arena, true)
		if b == nil {
			ray = isect.SpawnRay(ray.Direction)
			bounces--
			continue
		}
		isect.BSDF = b

		if b.NumComponents(bsdf.All&^bsdf.Specular) > 0 {
			distrib := scene.LightDistribution()
			L = L.Add(beta.Mul(uniformSampleOneLight(&isect, b, scene, sampler, distrib)))
		}

		wi, f, pdf, sampledType := b.SampleF(isect.Wo, sampler.Get2D(), sampler.Get1D(), bsdf.All)
		if f.IsBlack() || pdf == 0 {
			break
		}
		beta = beta.Mul(f).Scale(wi.AbsDot(isect.N) / pdf)

		specularBounce = sampledType&bsdf.Specular != 0
		if specularBounce && sampledType&bsdf.Transmission != 0 {
			eta := b.Eta
			if isect.Wo.Dot(isect.N) > 0 {
				etaScale *= eta * eta
			} else {
				etaScale *= 1 / (eta * eta)
			}
		}

		ray = isect.SpawnRay(wi)
		bounces++

		if bounces > 3 {
			rrBeta := beta.Scale(etaScale)
			q := 0.05
			if m := 1 - rrBeta.MaxComponent(); m > q {
				q = m
			}
			if sampler.Get1D() < q {
				rrTerminated = true
				break
			}
			beta = beta.Scale(1 / (1 - q))
		}
	}

	return L, rrTerminated
}
