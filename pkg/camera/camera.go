// Package camera implements the perspective camera: it precomputes the
// screen/raster/camera/world transform chain once at construction and
// turns a film-space sample into a world-space ray per render call.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// PerspectiveCamera is configured by a vertical field of view, an eye
// point, a look-at point, an up vector, and the target raster resolution.
type PerspectiveCamera struct {
	CameraToWorld  rmath.Transform
	RasterToCamera rmath.Transform

	// Area is the image-plane area in camera space, used by bidirectional
	// light-transport importance terms; unused by the Whitted/Path
	// integrators in this renderer but kept since it falls out of the
	// same precomputation.
	Area float64
}

// NewPerspectiveCamera builds the camera's transform chain. fovDegrees is
// the full vertical field of view; resX/resY is the raster resolution.
func NewPerspectiveCamera(fovDegrees float64, eye, lookAt, worldUp rmath.Vec3, resX, resY int) *PerspectiveCamera {
	cameraToWorld := lookAt_(eye, lookAt, worldUp)

	aspect := float64(resX) / float64(resY)
	halfHeight := math.Tan(fovDegrees * math.Pi / 180 / 2)
	halfWidth := halfHeight * aspect

	rasterToCamera := rmath.Translate(rmath.NewVec3(-halfWidth, halfHeight, 1)).
		Compose(rmath.Scale(rmath.NewVec3(2*halfWidth/float64(resX), -2*halfHeight/float64(resY), 1)))

	return &PerspectiveCamera{
		CameraToWorld:  cameraToWorld,
		RasterToCamera: rasterToCamera,
		Area:           (2 * halfWidth) * (2 * halfHeight),
	}
}

// lookAt_ builds the camera-to-world transform: camera space looks down
// +z, with +x to the right and +y up, per the standard left-handed
// raster convention. The matrix's columns are the world-space images of
// the camera's x/y/z/origin axes.
func lookAt_(eye, lookAt, worldUp rmath.Vec3) rmath.Transform {
	dir := lookAt.Subtract(eye).Normalize()
	right := worldUp.Normalize().Cross(dir).Normalize()
	newUp := dir.Cross(right)

	m := mgl64.Mat4{
		right.X, right.Y, right.Z, 0,
		newUp.X, newUp.Y, newUp.Z, 0,
		dir.X, dir.Y, dir.Z, 0,
		eye.X, eye.Y, eye.Z, 1,
	}
	return rmath.NewTransform(m)
}

// CastRay turns a film-space sample (pFilm in raster coordinates, pLens
// unused by this pinhole camera) into a world-space ray with weight 1.
func (c *PerspectiveCamera) CastRay(sample core.CameraSample) (rmath.Ray, float64) {
	pCamera := c.RasterToCamera.Point(rmath.NewVec3(sample.PFilm.X, sample.PFilm.Y, 0))
	dirCamera := pCamera.Normalize()
	ray := rmath.NewRay(rmath.Vec3{}, dirCamera)
	worldRay := c.CameraToWorld.Ray(ray)
	return worldRay, 1
}
