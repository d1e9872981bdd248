package light

import (
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// Distribution looks up a Distribution1D over lights for sampling one
// light at a given shading point. UniformLightDistribution ignores
// position entirely; position-aware variants (e.g. spatially weighted by
// nearby power) would implement the same interface.
type Distribution interface {
	Lookup(p rmath.Vec3) *core.Distribution1D
}

// UniformLightDistribution samples every light with equal probability,
// independent of the shading point.
type UniformLightDistribution struct {
	lights []Light
	distrib *core.Distribution1D
}

func NewUniformLightDistribution(lights []Light) *UniformLightDistribution {
	weights := make([]float64, len(lights))
	for i := range weights {
		weights[i] = 1
	}
	return &UniformLightDistribution{lights: lights, distrib: core.NewDistribution1D(weights)}
}

func (u *UniformLightDistribution) Lookup(p rmath.Vec3) *core.Distribution1D {
	return u.distrib
}

func (u *UniformLightDistribution) Lights() []Light { return u.lights }
