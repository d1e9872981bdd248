package math

import gomath "math"

// machineEpsilon is the float64 machine epsilon (half ULP at 1.0).
const machineEpsilon = 1.1102230246251565e-16

// gamma bounds the relative rounding error after n operations in
// floating-point arithmetic; used to make the slab test conservative.
func gamma(n int) float64 {
	ne := float64(n) * machineEpsilon
	return ne / (1 - ne)
}

// BBox3 is an axis-aligned bounding box in 3D, inclusive of both corners.
// An empty box has Min = +Inf and Max = -Inf on every axis.
type BBox3 struct {
	Min, Max Vec3
}

// EmptyBBox3 returns the canonical empty box.
func EmptyBBox3() BBox3 {
	inf := gomath.Inf(1)
	return BBox3{Min: NewVec3(inf, inf, inf), Max: NewVec3(-inf, -inf, -inf)}
}

func NewBBox3(min, max Vec3) BBox3 { return BBox3{Min: min, Max: max} }

// Union returns the smallest box containing both b and o.
func (b BBox3) Union(o BBox3) BBox3 {
	return BBox3{
		Min: NewVec3(gomath.Min(b.Min.X, o.Min.X), gomath.Min(b.Min.Y, o.Min.Y), gomath.Min(b.Min.Z, o.Min.Z)),
		Max: NewVec3(gomath.Max(b.Max.X, o.Max.X), gomath.Max(b.Max.Y, o.Max.Y), gomath.Max(b.Max.Z, o.Max.Z)),
	}
}

// UnionPoint returns the smallest box containing b and p.
func (b BBox3) UnionPoint(p Vec3) BBox3 {
	return BBox3{
		Min: NewVec3(gomath.Min(b.Min.X, p.X), gomath.Min(b.Min.Y, p.Y), gomath.Min(b.Min.Z, p.Z)),
		Max: NewVec3(gomath.Max(b.Max.X, p.X), gomath.Max(b.Max.Y, p.Y), gomath.Max(b.Max.Z, p.Z)),
	}
}

func (b BBox3) Diagonal() Vec3 { return b.Max.Subtract(b.Min) }

func (b BBox3) SurfaceArea() float64 {
	d := b.Diagonal()
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

func (b BBox3) Center() Vec3 { return b.Min.Add(b.Max).Multiply(0.5) }

// MaximumExtent returns the axis (0,1,2) of largest extent.
func (b BBox3) MaximumExtent() int {
	d := b.Diagonal()
	if d.X > d.Y && d.X > d.Z {
		return 0
	}
	if d.Y > d.Z {
		return 1
	}
	return 2
}

// AxisMin/AxisMax index a box's corners by axis (0=X,1=Y,2=Z).
func (b BBox3) AxisMin(axis int) float64 { return b.Min.Component(axis) }
func (b BBox3) AxisMax(axis int) float64 { return b.Max.Component(axis) }

// Corner returns one of the 8 corners, indexed 0-7 by bit pattern (bit i
// selects Max on axis i when set).
func (b BBox3) Corner(i int) Vec3 {
	x := b.Min.X
	if i&1 != 0 {
		x = b.Max.X
	}
	y := b.Min.Y
	if i&2 != 0 {
		y = b.Max.Y
	}
	z := b.Min.Z
	if i&4 != 0 {
		z = b.Max.Z
	}
	return NewVec3(x, y, z)
}

// Hit implements the slab method with a robustness term multiplied into
// t_far on each axis, per the ray/AABB contract. Returns the overlap
// interval (t0, t1) and whether it is non-empty within [0, ray.TMax].
func (b BBox3) Hit(ray Ray) (t0, t1 float64, hit bool) {
	t0, t1 = 0, ray.TMax
	invD := NewVec3(1/ray.Direction.X, 1/ray.Direction.Y, 1/ray.Direction.Z)
	for axis := 0; axis < 3; axis++ {
		o := ray.Origin.Component(axis)
		d := invD.Component(axis)
		tNear := (b.AxisMin(axis) - o) * d
		tFar := (b.AxisMax(axis) - o) * d
		if tNear > tFar {
			tNear, tFar = tFar, tNear
		}
		tFar *= 1 + 2*gamma(3)
		if tNear > t0 {
			t0 = tNear
		}
		if tFar < t1 {
			t1 = tFar
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// BBox2 is an axis-aligned, integer-corner, inclusive-exclusive 2D box
// used for pixel ranges (image bounds, tile bounds, film crop window).
type BBox2 struct {
	Min, Max [2]int
}

func NewBBox2(minX, minY, maxX, maxY int) BBox2 {
	return BBox2{Min: [2]int{minX, minY}, Max: [2]int{maxX, maxY}}
}

func (b BBox2) Dx() int { return b.Max[0] - b.Min[0] }
func (b BBox2) Dy() int { return b.Max[1] - b.Min[1] }

func (b BBox2) Intersect(o BBox2) BBox2 {
	r := BBox2{
		Min: [2]int{maxInt(b.Min[0], o.Min[0]), maxInt(b.Min[1], o.Min[1])},
		Max: [2]int{minInt(b.Max[0], o.Max[0]), minInt(b.Max[1], o.Max[1])},
	}
	if r.Max[0] < r.Min[0] {
		r.Max[0] = r.Min[0]
	}
	if r.Max[1] < r.Min[1] {
		r.Max[1] = r.Min[1]
	}
	return r
}

func (b BBox2) InsideExclusive(x, y int) bool {
	return x >= b.Min[0] && x < b.Max[0] && y >= b.Min[1] && y < b.Max[1]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
