// Package shape implements the Sphere and Triangle primitives: object
// bounds, world bounds, ray intersection, area, and surface sampling.
package shape

import (
	rmath "github.com/lumenray/tracer/pkg/math"
)

// SurfaceInteraction records everything a shading point needs: position,
// shading normal, the outgoing direction back toward the ray origin, uv
// and the local tangent frame (dpdu/dpdv), plus which shape/hitable was
// hit. BSDF is filled in later by the material's computeScatteringFunctions
// step and is allocated into the per-sample arena.
type SurfaceInteraction struct {
	P     rmath.Vec3
	N     rmath.Vec3 // geometric/shading normal (shapes here have none distinct)
	Wo    rmath.Vec3
	UV    rmath.Vec2
	Dpdu  rmath.Vec3
	Dpdv  rmath.Vec3
	Shape Shape
	// Hitable is set by the accelerator/aggregate layer (pkg/renderer scene
	// graph) to the concrete primitive hit, so integrators can ask it for
	// material/area-light bindings. Declared as interface{} here to avoid
	// an import cycle; callers type-assert to their own Hitable type.
	Hitable interface{}
	BSDF    interface{} // *bsdf.BSDF, set by Material.ComputeScatteringFunctions
}

// SpawnRay offsets the new ray's origin along n to avoid self-intersection
// ("shadow acne") from floating point error at the hit point.
func (si *SurfaceInteraction) SpawnRay(d rmath.Vec3) rmath.Ray {
	const epsilon = 1e-4
	origin := si.P.Add(si.N.FaceForward(d).Multiply(epsilon))
	return rmath.NewRay(origin, d)
}

// SpawnRayTo builds a ray from this interaction toward a target point,
// with TMax shortened just short of 1 so the target itself isn't
// reported as a self-intersection.
func (si *SurfaceInteraction) SpawnRayTo(p rmath.Vec3) rmath.Ray {
	const shadowEpsilon = 1e-3
	d := p.Subtract(si.P)
	origin := si.P.Add(si.N.FaceForward(d).Multiply(1e-4))
	dist := d.Length()
	return rmath.NewRayBounded(origin, d, dist*(1-shadowEpsilon))
}
