// Package material implements the Lambertian and Mirror materials, each
// responsible for building the BSDF a shading point scatters light
// through.
package material

import (
	"github.com/lumenray/tracer/pkg/bsdf"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/shape"
)

// Material builds the BSDF at a shading point. The arena is threaded
// through because the BSDF and every BxDF lobe it composes are allocated
// out of it (bsdf.NewBSDF, bsdf.NewLambertianReflection, ...), not the
// heap, and become invalid the next time that arena is reset.
type Material interface {
	ComputeScatteringFunctions(isect *shape.SurfaceInteraction, arena *core.Arena, allowMultipleLobes bool) *bsdf.BSDF
}

// Lambertian is a perfectly diffuse material with reflectance R.
type Lambertian struct {
	R core.Spectrum
}

func NewLambertian(r core.Spectrum) *Lambertian { return &Lambertian{R: r} }

func (l *Lambertian) ComputeScatteringFunctions(isect *shape.SurfaceInteraction, arena *core.Arena, allowMultipleLobes bool) *bsdf.BSDF {
	b := bsdf.NewBSDF(arena, isect.Dpdu, isect.N, 1)
	b.Add(bsdf.NewLambertianReflection(arena, l.R))
	return b
}

// Mirror is a perfect specular reflector with reflectance R; its Fresnel
// term is constant (FresnelNoOp) rather than a dielectric's
// angle-dependent falloff.
type Mirror struct {
	R core.Spectrum
}

func NewMirror(r core.Spectrum) *Mirror { return &Mirror{R: r} }

func (m *Mirror) ComputeScatteringFunctions(isect *shape.SurfaceInteraction, arena *core.Arena, allowMultipleLobes bool) *bsdf.BSDF {
	b := bsdf.NewBSDF(arena, isect.Dpdu, isect.N, 1)
	b.Add(bsdf.NewSpecularReflection(arena, m.R, bsdf.FresnelNoOp{}))
	return b
}
