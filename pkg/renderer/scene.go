package renderer

import (
	"github.com/lumenray/tracer/pkg/accel"
	"github.com/lumenray/tracer/pkg/camera"
	"github.com/lumenray/tracer/pkg/film"
	"github.com/lumenray/tracer/pkg/light"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// Scene is the immutable-after-construction world the renderer traces
// against: the k-d tree over every entity, the lights drawn from during
// shading, a distribution for picking among them, and the camera/film
// pair the tiled renderer samples through. Its Hit/AnyHit/Lights/
// LightDistribution methods satisfy pkg/integrator.Scene structurally, so
// neither package imports the other.
type Scene struct {
	accel             *accel.KdTree
	lights            []light.Light
	lightDistribution light.Distribution

	Camera *camera.PerspectiveCamera
	Film   *film.Film
}

// NewScene builds the accelerator over entities and wires a uniform light
// distribution over lights (entities' own emitters, and any infinite/
// delta lights added separately).
func NewScene(entities []*Entity, lights []light.Light, cam *camera.PerspectiveCamera, f *film.Film) *Scene {
	prims := make([]accel.Primitive, len(entities))
	for i, e := range entities {
		prims[i] = e
	}
	return &Scene{
		accel:             accel.NewKdTree(prims),
		lights:            lights,
		lightDistribution: light.NewUniformLightDistribution(lights),
		Camera:            cam,
		Film:              f,
	}
}

// Hit finds the closest intersection along ray, if any.
func (s *Scene) Hit(ray rmath.Ray) (tHit float64, isect shape.SurfaceInteraction, ok bool) {
	return s.accel.Hit(ray)
}

// AnyHit reports whether ray intersects anything, without computing a
// SurfaceInteraction; implements light.Occluder for shadow rays.
func (s *Scene) AnyHit(ray rmath.Ray) bool {
	return s.accel.HitAny(ray)
}

// Lights returns every light in the scene.
func (s *Scene) Lights() []light.Light { return s.lights }

// LightDistribution returns the distribution used to pick a light during
// direct-lighting estimation.
func (s *Scene) LightDistribution() light.Distribution { return s.lightDistribution }
