// Package scene loads the JSON scene description of spec section 6 into
// a ready-to-run renderer.Renderer: a Camera/Film pair, the k-d tree of
// entities and lights, and the chosen integrator.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenray/tracer/pkg/camera"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/film"
	"github.com/lumenray/tracer/pkg/integrator"
	"github.com/lumenray/tracer/pkg/light"
	"github.com/lumenray/tracer/pkg/loaders"
	"github.com/lumenray/tracer/pkg/material"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/renderer"
	"github.com/lumenray/tracer/pkg/shape"
)

// Loaded is everything a CLI entry point needs to run a render and save
// its result.
type Loaded struct {
	Renderer       *renderer.Renderer
	OutputFilename string
	SplatScale     float64
}

// Load reads and parses the JSON scene file at path. Filenames named
// inside it (mesh files, the output PNG) are resolved relative to path's
// directory.
func Load(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}

	var sf sceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	if sf.Renderer == nil {
		return nil, fmt.Errorf("scene: %s has no Renderer node", path)
	}

	dir := filepath.Dir(path)

	entities, lights, err := buildEntities(sf.Entity, dir)
	if err != nil {
		return nil, err
	}

	cam, f, outputFilename, err := buildCamera(sf.Renderer.Camera, dir)
	if err != nil {
		return nil, err
	}

	sc := renderer.NewScene(entities, lights, cam, f)

	integ, err := buildIntegrator(sf.Renderer)
	if err != nil {
		return nil, err
	}

	spp := 1
	if sf.Renderer.Sampler.SPP != nil {
		spp = *sf.Renderer.Sampler.SPP
	}

	rend := renderer.NewRenderer(sc, integ, spp, 0)
	samplerFactory, err := buildSamplerFactory(sf.Renderer.Sampler)
	if err != nil {
		return nil, err
	}
	rend.NewSampler = samplerFactory

	return &Loaded{
		Renderer:       rend,
		OutputFilename: outputFilename,
		SplatScale:     1,
	}, nil
}

func buildSamplerFactory(s samplerSpec) (renderer.SamplerFactory, error) {
	switch s.Type {
	case "", "Random":
		return func(spp int, seed uint64) core.Sampler { return core.NewRandomSampler(spp, seed) }, nil
	case "Stratified":
		return func(spp int, seed uint64) core.Sampler { return core.NewStratifiedSampler(spp, seed) }, nil
	default:
		return nil, fmt.Errorf("scene: unknown Sampler type %q", s.Type)
	}
}

func buildIntegrator(r *rendererSpec) (integrator.Integrator, error) {
	depth := 2
	if r.Depth != nil {
		depth = *r.Depth
	}
	switch r.Type {
	case "Whitted":
		return integrator.NewWhittedIntegrator(depth), nil
	case "Path":
		return integrator.NewPathIntegrator(depth), nil
	default:
		return nil, fmt.Errorf("scene: unknown Renderer type %q", r.Type)
	}
}

func buildCamera(c cameraSpec, dir string) (*camera.PerspectiveCamera, *film.Film, string, error) {
	if c.Type != "Perspective" {
		return nil, nil, "", fmt.Errorf("scene: unknown Camera type %q", c.Type)
	}

	worldUp := rmath.NewVec3(0, 1, 0)
	if c.WorldUp != nil {
		worldUp = rmath.NewVec3(c.WorldUp[0], c.WorldUp[1], c.WorldUp[2])
	}
	eye := rmath.NewVec3(c.Eye[0], c.Eye[1], c.Eye[2])
	focus := rmath.NewVec3(c.Focus[0], c.Focus[1], c.Focus[2])

	resX, resY := 800, 600
	if c.Film.Resolution != nil {
		resX, resY = c.Film.Resolution[0], c.Film.Resolution[1]
	}

	cropMinFrac, cropMaxFrac := [2]float64{0, 0}, [2]float64{1, 1}
	if c.Film.CropMin != nil {
		cropMinFrac = *c.Film.CropMin
	}
	if c.Film.CropMax != nil {
		cropMaxFrac = *c.Film.CropMax
	}
	cropBounds := rmath.NewBBox2(
		int(cropMinFrac[0]*float64(resX)), int(cropMinFrac[1]*float64(resY)),
		int(cropMaxFrac[0]*float64(resX)), int(cropMaxFrac[1]*float64(resY)),
	)

	radius := rmath.NewVec2(0.5, 0.5)
	if c.Film.Filter.Radius != nil {
		radius = rmath.NewVec2(c.Film.Filter.Radius[0], c.Film.Filter.Radius[1])
	}
	var filt film.Filter
	switch c.Film.Filter.Type {
	case "", "Box":
		filt = film.NewBoxFilter(radius)
	default:
		return nil, nil, "", fmt.Errorf("scene: unknown Filter type %q", c.Film.Filter.Type)
	}

	scale := 1.0
	if c.Film.Scale != nil {
		scale = *c.Film.Scale
	}
	maxLum := 0.0
	if c.Film.MaxLum != nil {
		maxLum = *c.Film.MaxLum
	}

	filename := c.Film.Filename
	if filename == "" {
		filename = "rendered.png"
	}

	cam := camera.NewPerspectiveCamera(c.Fov, eye, focus, worldUp, resX, resY)
	f := film.NewFilm([2]int{resX, resY}, cropBounds, filt, scale, maxLum)
	return cam, f, filepath.Join(dir, filename), nil
}

func buildEntities(specs []entitySpec, dir string) ([]*renderer.Entity, []light.Light, error) {
	var entities []*renderer.Entity
	var lights []light.Light

	for i, e := range specs {
		switch e.Type {
		case "Entity":
			objectToWorld, err := parseTransform(e.Shape.Transform)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}
			worldToObject := objectToWorld.Inverse()

			s, err := buildShape(e.Shape, &objectToWorld, &worldToObject)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}
			mat, err := buildMaterial(e.Material)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}

			var areaLight light.AreaLight
			if e.Light != nil {
				al, err := buildLight(*e.Light, s)
				if err != nil {
					return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
				}
				areaLight = al
				lights = append(lights, al)
			}
			entities = append(entities, renderer.NewEntity(s, mat, areaLight))

		case "MeshEntity":
			objectToWorld, err := parseTransform(e.Transform)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}
			worldToObject := objectToWorld.Inverse()

			mesh, err := loaders.LoadTriangleMesh(filepath.Join(dir, e.Filename), &objectToWorld, &worldToObject)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}
			mat, err := buildMaterial(e.Material)
			if err != nil {
				return nil, nil, fmt.Errorf("scene: entity %d: %w", i, err)
			}

			numTriangles := len(mesh.Indices) / 3
			for t := 0; t < numTriangles; t++ {
				tri := shape.NewTriangle(mesh, t)
				entities = append(entities, renderer.NewEntity(tri, mat, nil))
			}

		default:
			return nil, nil, fmt.Errorf("scene: entity %d: unknown Type %q", i, e.Type)
		}
	}
	return entities, lights, nil
}

func buildShape(s shapeSpec, objectToWorld, worldToObject *rmath.Transform) (shape.Shape, error) {
	switch s.Type {
	case "Sphere":
		return shape.NewSphere(objectToWorld, worldToObject, s.Radius), nil
	default:
		return nil, fmt.Errorf("unknown Shape type %q", s.Type)
	}
}

func buildMaterial(m materialSpec) (material.Material, error) {
	r := core.NewSpectrum(m.R[0], m.R[1], m.R[2])
	switch m.Type {
	case "Lambertian":
		return material.NewLambertian(r), nil
	case "Mirror":
		return material.NewMirror(r), nil
	default:
		return nil, fmt.Errorf("unknown Material type %q", m.Type)
	}
}

func buildLight(l lightSpec, s shape.Shape) (light.AreaLight, error) {
	if l.Type != "AreaDiffuse" {
		return nil, fmt.Errorf("unknown Light type %q", l.Type)
	}
	nSamples := 1
	if l.LightSamples != nil {
		nSamples = *l.LightSamples
	}
	radiance := core.NewSpectrum(l.Radiance[0], l.Radiance[1], l.Radiance[2])
	return light.NewDiffuseAreaLight(s, radiance, l.TwoSided, nSamples), nil
}
