package light

import (
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

const shadowEpsilon = 1e-3

// VisibilityTester checks whether two points see each other, shortening
// the test ray just short of the target so the light sample itself isn't
// reported as a self-occlusion.
type VisibilityTester struct {
	P0, P1 rmath.Vec3
}

func NewVisibilityTester(p0, p1 rmath.Vec3) *VisibilityTester {
	return &VisibilityTester{P0: p0, P1: p1}
}

// Unoccluded returns true if no primitive in occluder blocks the segment
// between P0 and P1.
func (v *VisibilityTester) Unoccluded(occluder Occluder) bool {
	d := v.P1.Subtract(v.P0)
	dist := d.Length()
	if dist == 0 {
		return true
	}
	dir := d.Multiply(1 / dist)
	ray := rmath.NewRayBounded(v.P0, dir, dist*(1-shadowEpsilon))
	return !occluder.AnyHit(ray)
}

// Tr returns the fraction of light transmitted along the segment. This
// renderer models no participating media, so it is always unity; kept as
// a method (rather than dropped) so integrators written against the full
// contract don't need a special case for the no-media path.
func (v *VisibilityTester) Tr(occluder Occluder) core.Spectrum {
	return core.NewSpectrum(1, 1, 1)
}
