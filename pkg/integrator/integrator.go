// Package integrator implements the Whitted and Path light-transport
// estimators, plus the shared MIS direct-lighting estimate they both use.
package integrator

import (
	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/light"
	"github.com/lumenray/tracer/pkg/material"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// Scene is the minimal capability an integrator needs from the renderer's
// Scene type: intersection, occlusion, and light lookup. Declared here
// (rather than importing pkg/renderer) so pkg/renderer can depend on
// pkg/integrator without a cycle; pkg/renderer.Scene satisfies this
// structurally.
type Scene interface {
	Hit(ray rmath.Ray) (tHit float64, isect shape.SurfaceInteraction, ok bool)
	AnyHit(ray rmath.Ray) bool
	Lights() []light.Light
	LightDistribution() light.Distribution
}

// Integrator estimates incident radiance along a ray. The returned bool
// reports whether this estimate's path was cut short by Russian-roulette
// termination (always false for integrators, like Whitted, that don't do
// RR), so callers can track a real trigger rate instead of assuming zero.
type Integrator interface {
	Li(ray rmath.Ray, scene Scene, sampler core.Sampler, arena *core.Arena, depth int) (core.Spectrum, bool)
}

// hitable is the capability a SurfaceInteraction.Hitable must offer for
// shading: its material, and the area light it emits as (nil if none).
// pkg/renderer.Entity satisfies this structurally.
type hitable interface {
	Material() material.Material
	AreaLight() light.AreaLight
}

// computeScatteringFunctions type-asserts isect.Hitable and builds its
// BSDF, or returns nil if the hit primitive has no material (a
// transparent/alpha-tested boundary, not modeled by Lambertian/Mirror but
// kept as an explicit nil path since spec.md's Whitted step 3 requires it).
func computeScatteringFunctions(isect *shape.SurfaceInteraction, arena *core.Arena, allowMultipleLobes bool) *bsdf.BSDF {
	h, ok := isect.Hitable.(hitable)
	if !ok {
		return nil
	}
	mat := h.Material()
	if mat == nil {
		return nil
	}
	return mat.ComputeScatteringFunctions(isect, arena, allowMultipleLobes)
}

// emittedLight returns the radiance an intersection emits toward wo, if
// the hit entity is an area light; zero otherwise.
func emittedLight(isect *shape.SurfaceInteraction, wo rmath.Vec3) core.Spectrum {
	h, ok := isect.Hitable.(hitable)
	if !ok {
		return core.NewSpectrum(0, 0, 0)
	}
	al := h.AreaLight()
	if al == nil {
		return core.NewSpectrum(0, 0, 0)
	}
	return al.L(isect.P, isect.N, wo)
}

// areaLightOf returns the AreaLight an intersection belongs to, or nil.
func areaLightOf(isect *shape.SurfaceInteraction) light.AreaLight {
	h, ok := isect.Hitable.(hitable)
	if !ok {
		return nil
	}
	return h.AreaLight()
}

// escapedRadiance sums Le over every infinite light, for rays that leave
// the scene without hitting anything. This renderer implements no
// infinite lights, so the sum is always zero; kept for interface symmetry
// with PathIntegrator's spec.md step 2.
func escapedRadiance(lights []light.Light, ray rmath.Ray) core.Spectrum {
	sum := core.NewSpectrum(0, 0, 0)
	for _, l := range lights {
		if l.Flags()&light.FlagInfinite != 0 {
			sum = sum.Add(l.Le(ray))
		}
	}
	return sum
}
