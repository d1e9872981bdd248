package renderer

import (
	"github.com/lumenray/tracer/pkg/light"
	"github.com/lumenray/tracer/pkg/material"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// Entity binds a Shape to a Material and, optionally, the AreaLight it
// emits as. It is the concrete type stored in the accelerator and stamped
// onto SurfaceInteraction.Hitable on every hit, so integrators can recover
// the material/light bindings without the shape or accelerator packages
// knowing about either.
type Entity struct {
	Shape    shape.Shape
	Mat      material.Material
	LightSrc light.AreaLight // nil if this entity is not a light
}

func NewEntity(s shape.Shape, m material.Material, l light.AreaLight) *Entity {
	return &Entity{Shape: s, Mat: m, LightSrc: l}
}

// Material and AreaLight let pkg/integrator recover the entity's bindings
// from a SurfaceInteraction.Hitable purely structurally, without importing
// this package (see the matching interfaces declared in pkg/integrator).
func (e *Entity) Material() material.Material { return e.Mat }
func (e *Entity) AreaLight() light.AreaLight  { return e.LightSrc }

func (e *Entity) WorldBound() rmath.BBox3 { return e.Shape.WorldBound() }

func (e *Entity) Hit(ray rmath.Ray) bool { return e.Shape.Hit(ray) }

func (e *Entity) HitInteraction(ray rmath.Ray) (tHit float64, isect shape.SurfaceInteraction, ok bool) {
	tHit, isect, ok = e.Shape.HitInteraction(ray)
	if ok {
		isect.Hitable = e
	}
	return
}
