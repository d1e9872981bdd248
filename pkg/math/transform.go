package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform pairs a 4x4 matrix with its inverse, as required by every
// apply operation below (points, vectors, rays, normals, bounding boxes).
// The underlying matrix type is mgl64.Mat4, column-major like the rest of
// the go-gl ecosystem.
type Transform struct {
	M, MInv mgl64.Mat4
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{M: mgl64.Ident4(), MInv: mgl64.Ident4()}
}

// NewTransform builds a Transform from a matrix, computing its inverse.
func NewTransform(m mgl64.Mat4) Transform {
	return Transform{M: m, MInv: m.Inv()}
}

// Inverse swaps M and M^-1.
func (t Transform) Inverse() Transform {
	return Transform{M: t.MInv, MInv: t.M}
}

// Compose returns t applied after o, i.e. the transform for (t . o).
func (t Transform) Compose(o Transform) Transform {
	return Transform{M: t.M.Mul4(o.M), MInv: o.MInv.Mul4(t.MInv)}
}

func Translate(delta Vec3) Transform {
	m := mgl64.Translate3D(delta.X, delta.Y, delta.Z)
	inv := mgl64.Translate3D(-delta.X, -delta.Y, -delta.Z)
	return Transform{M: m, MInv: inv}
}

func Scale(s Vec3) Transform {
	m := mgl64.Scale3D(s.X, s.Y, s.Z)
	inv := mgl64.Scale3D(1/s.X, 1/s.Y, 1/s.Z)
	return Transform{M: m, MInv: inv}
}

// Rotate builds a rotation of theta degrees about the axis (ax,ay,az).
func Rotate(thetaDegrees float64, axis Vec3) Transform {
	rad := thetaDegrees * gomath.Pi / 180
	m := mgl64.HomogRotate3D(rad, mgl64.Vec3{axis.X, axis.Y, axis.Z}.Normalize())
	return Transform{M: m, MInv: m.Transpose()}
}

// Point applies the transform to a point (w=1), dividing through by the
// homogeneous w coordinate.
func (t Transform) Point(p Vec3) Vec3 {
	x := t.M[0]*p.X + t.M[4]*p.Y + t.M[8]*p.Z + t.M[12]
	y := t.M[1]*p.X + t.M[5]*p.Y + t.M[9]*p.Z + t.M[13]
	z := t.M[2]*p.X + t.M[6]*p.Y + t.M[10]*p.Z + t.M[14]
	w := t.M[3]*p.X + t.M[7]*p.Y + t.M[11]*p.Z + t.M[15]
	if w == 1 {
		return NewVec3(x, y, z)
	}
	return NewVec3(x/w, y/w, z/w)
}

// Vector applies the transform to a direction (w=0); no perspective divide.
func (t Transform) Vector(v Vec3) Vec3 {
	x := t.M[0]*v.X + t.M[4]*v.Y + t.M[8]*v.Z
	y := t.M[1]*v.X + t.M[5]*v.Y + t.M[9]*v.Z
	z := t.M[2]*v.X + t.M[6]*v.Y + t.M[10]*v.Z
	return NewVec3(x, y, z)
}

// Normal applies the transform to a surface normal. Correct semantics use
// the inverse-transpose; since only rigid + uniform-scale transforms are
// produced by the scene opcode stream, this is approximated by applying M
// directly, as spec.md's Transform contract specifies.
func (t Transform) Normal(n Vec3) Vec3 {
	return t.Vector(n)
}

// Ray transforms a ray's origin as a point and direction as a vector,
// preserving TMax.
func (t Transform) Ray(r Ray) Ray {
	return Ray{Origin: t.Point(r.Origin), Direction: t.Vector(r.Direction).Normalize(), TMax: r.TMax}
}

// BBox transforms all 8 corners of b and unions the results.
func (t Transform) BBox(b BBox3) BBox3 {
	ret := BBox3{Min: t.Point(b.Corner(0)), Max: t.Point(b.Corner(0))}
	for i := 1; i < 8; i++ {
		ret = ret.UnionPoint(t.Point(b.Corner(i)))
	}
	return ret
}
