package shape

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// TriangleMesh is a shared vertex buffer referenced by many Triangle
// shapes (one per mesh face), so per-triangle storage is just 3 indices.
type TriangleMesh struct {
	ObjectToWorld *rmath.Transform
	WorldToObject *rmath.Transform
	Indices       []int // len = 3*numTriangles
	P             []rmath.Vec3
	UV            []rmath.Vec2 // optional, len(UV)==len(P) or nil
}

// Triangle is one face of a TriangleMesh, indexing its shared vertex
// buffer by the triIndex'th group of 3 indices.
type Triangle struct {
	Mesh     *TriangleMesh
	TriIndex int
}

func NewTriangle(mesh *TriangleMesh, triIndex int) *Triangle {
	return &Triangle{Mesh: mesh, TriIndex: triIndex}
}

func (t *Triangle) indices() (i0, i1, i2 int) {
	base := t.TriIndex * 3
	return t.Mesh.Indices[base], t.Mesh.Indices[base+1], t.Mesh.Indices[base+2]
}

func (t *Triangle) worldVerts() (p0, p1, p2 rmath.Vec3) {
	i0, i1, i2 := t.indices()
	return t.Mesh.P[i0], t.Mesh.P[i1], t.Mesh.P[i2]
}

func (t *Triangle) ObjectBound() rmath.BBox3 {
	p0, p1, p2 := t.worldVerts()
	op0 := t.Mesh.WorldToObject.Point(p0)
	op1 := t.Mesh.WorldToObject.Point(p1)
	op2 := t.Mesh.WorldToObject.Point(p2)
	return rmath.NewBBox3(op0, op0).UnionPoint(op1).UnionPoint(op2)
}

func (t *Triangle) WorldBound() rmath.BBox3 {
	p0, p1, p2 := t.worldVerts()
	return rmath.NewBBox3(p0, p0).UnionPoint(p1).UnionPoint(p2)
}

func (t *Triangle) Area() float64 {
	p0, p1, p2 := t.worldVerts()
	return 0.5 * p1.Subtract(p0).Cross(p2.Subtract(p0)).Length()
}

// intersect implements Möller-Trumbore with the shear/permute
// transformation for numerical robustness against grazing rays.
func (t *Triangle) intersect(ray rmath.Ray) (tHit, b0, b1, b2 float64, ok bool) {
	p0, p1, p2 := t.worldVerts()

	// Translate vertices so the ray origin is at (0,0,0).
	p0t := p0.Subtract(ray.Origin)
	p1t := p1.Subtract(ray.Origin)
	p2t := p2.Subtract(ray.Origin)

	// Permute so the largest-magnitude direction component is "z".
	kz := ray.Direction.MaxDimension()
	kx := kz + 1
	if kx == 3 {
		kx = 0
	}
	ky := kx + 1
	if ky == 3 {
		ky = 0
	}
	d := ray.Direction.Permute(kx, ky, kz)
	p0t = p0t.Permute(kx, ky, kz)
	p1t = p1t.Permute(kx, ky, kz)
	p2t = p2t.Permute(kx, ky, kz)

	// Shear the triangle so the ray direction aligns with +z.
	sx := -d.X / d.Z
	sy := -d.Y / d.Z
	sz := 1 / d.Z

	p0t.X += sx * p0t.Z
	p0t.Y += sy * p0t.Z
	p1t.X += sx * p1t.Z
	p1t.Y += sy * p1t.Z
	p2t.X += sx * p2t.Z
	p2t.Y += sy * p2t.Z

	e0 := p1t.X*p2t.Y - p1t.Y*p2t.X
	e1 := p2t.X*p0t.Y - p2t.Y*p0t.X
	e2 := p0t.X*p1t.Y - p0t.Y*p1t.X

	if (e0 < 0 || e1 < 0 || e2 < 0) && (e0 > 0 || e1 > 0 || e2 > 0) {
		return 0, 0, 0, 0, false
	}
	det := e0 + e1 + e2
	if det == 0 {
		return 0, 0, 0, 0, false
	}

	p0t.Z *= sz
	p1t.Z *= sz
	p2t.Z *= sz
	tScaled := e0*p0t.Z + e1*p1t.Z + e2*p2t.Z

	if det < 0 && (tScaled >= 0 || tScaled < ray.TMax*det) {
		return 0, 0, 0, 0, false
	} else if det > 0 && (tScaled <= 0 || tScaled > ray.TMax*det) {
		return 0, 0, 0, 0, false
	}

	invDet := 1 / det
	b0 = e0 * invDet
	b1 = e1 * invDet
	b2 = e2 * invDet
	tHit = tScaled * invDet
	return tHit, b0, b1, b2, true
}

func (t *Triangle) Hit(ray rmath.Ray) bool {
	_, _, _, _, ok := t.intersect(ray)
	return ok
}

func (t *Triangle) HitInteraction(ray rmath.Ray) (float64, SurfaceInteraction, bool) {
	tHit, b0, b1, b2, ok := t.intersect(ray)
	if !ok {
		return 0, SurfaceInteraction{}, false
	}
	p0, p1, p2 := t.worldVerts()
	p := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))

	dp02 := p0.Subtract(p2)
	dp12 := p1.Subtract(p2)
	n := dp02.Cross(dp12).Normalize()

	var uv [3]rmath.Vec2
	if t.Mesh.UV != nil {
		i0, i1, i2 := t.indices()
		uv[0], uv[1], uv[2] = t.Mesh.UV[i0], t.Mesh.UV[i1], t.Mesh.UV[i2]
	} else {
		uv[0] = rmath.NewVec2(0, 0)
		uv[1] = rmath.NewVec2(1, 0)
		uv[2] = rmath.NewVec2(1, 1)
	}
	uvHit := rmath.NewVec2(
		b0*uv[0].X+b1*uv[1].X+b2*uv[2].X,
		b0*uv[0].Y+b1*uv[1].Y+b2*uv[2].Y,
	)

	isect := SurfaceInteraction{
		P:     p,
		N:     n.FaceForward(ray.Direction.Negate()),
		Wo:    ray.Direction.Negate(),
		UV:    uvHit,
		Dpdu:  dp02,
		Dpdv:  dp12,
		Shape: t,
	}
	return tHit, isect, true
}

// Sample picks a point uniform by area using barycentric sampling
// (1-sqrt(u0), u1*sqrt(u0)).
func (t *Triangle) Sample(u rmath.Vec2) (p, n rmath.Vec3, pdfArea float64) {
	b0, b1 := core.SampleUniformTriangle(u)
	b2 := 1 - b0 - b1
	p0, p1, p2 := t.worldVerts()
	p = p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))
	n = p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
	area := t.Area()
	if area == 0 {
		return p, n, 0
	}
	return p, n, 1.0 / area
}

func (t *Triangle) SampleFrom(ref rmath.Vec3, u rmath.Vec2) (p, n rmath.Vec3, pdfSolidAngle float64) {
	p, n, pdfArea := t.Sample(u)
	return p, n, areaToSolidAnglePDF(ref, p, n, pdfArea)
}

func (t *Triangle) PDFFrom(ref rmath.Vec3, wi rmath.Vec3) float64 {
	ray := rmath.NewRay(ref, wi)
	tHit, isect, ok := t.HitInteraction(ray)
	if !ok || math.IsInf(tHit, 0) {
		return 0
	}
	area := t.Area()
	if area == 0 {
		return 0
	}
	return areaToSolidAnglePDF(ref, isect.P, isect.N, 1.0/area)
}
