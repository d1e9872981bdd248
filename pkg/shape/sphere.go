package shape

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// Sphere is centered at the object-space origin with the given radius.
// ObjectToWorld/WorldToObject are borrowed, not owned, per spec.
type Sphere struct {
	ObjectToWorld *rmath.Transform
	WorldToObject *rmath.Transform
	Radius        float64
}

func NewSphere(objectToWorld, worldToObject *rmath.Transform, radius float64) *Sphere {
	return &Sphere{ObjectToWorld: objectToWorld, WorldToObject: worldToObject, Radius: radius}
}

func (s *Sphere) ObjectBound() rmath.BBox3 {
	r := rmath.NewVec3(s.Radius, s.Radius, s.Radius)
	return rmath.NewBBox3(r.Negate(), r)
}

func (s *Sphere) WorldBound() rmath.BBox3 {
	return s.ObjectToWorld.BBox(s.ObjectBound())
}

func (s *Sphere) Area() float64 {
	return 4 * math.Pi * s.Radius * s.Radius
}

// quadratic solves a*t^2 + 2*b*t + c = 0, returning the two roots in
// ascending order.
func quadratic(a, b, c float64) (t0, t1 float64, ok bool) {
	disc := b*b - a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	t0 = (-b - sq) / a
	t1 = (-b + sq) / a
	return t0, t1, true
}

func (s *Sphere) hitObjectSpace(objRay rmath.Ray) (t float64, pObj rmath.Vec3, ok bool) {
	o := objRay.Origin
	d := objRay.Direction
	a := d.Dot(d)
	b := o.Dot(d)
	c := o.Dot(o) - s.Radius*s.Radius

	t0, t1, hasRoots := quadratic(a, b, c)
	if !hasRoots {
		return 0, rmath.Vec3{}, false
	}
	if t0 > objRay.TMax || t1 <= 0 {
		return 0, rmath.Vec3{}, false
	}
	tShape := t0
	if tShape <= 0 {
		tShape = t1
		if tShape > objRay.TMax {
			return 0, rmath.Vec3{}, false
		}
	}

	pHit := objRay.At(tShape)
	// Refine the hit point so it lies exactly on the sphere, countering
	// accumulated floating point error from the quadratic solve.
	pHit = pHit.Multiply(s.Radius / pHit.Length())
	return tShape, pHit, true
}

func (s *Sphere) Hit(ray rmath.Ray) bool {
	objRay := s.WorldToObject.Ray(ray)
	_, _, ok := s.hitObjectSpace(objRay)
	return ok
}

func (s *Sphere) HitInteraction(ray rmath.Ray) (float64, SurfaceInteraction, bool) {
	objRay := s.WorldToObject.Ray(ray)
	t, pHit, ok := s.hitObjectSpace(objRay)
	if !ok {
		return 0, SurfaceInteraction{}, false
	}

	phi := math.Atan2(pHit.Y, pHit.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(clampF(pHit.Z/s.Radius, -1, 1))
	u := phi / (2 * math.Pi)
	v := (theta + math.Pi/2) / math.Pi

	zRadius := math.Sqrt(pHit.X*pHit.X + pHit.Y*pHit.Y)
	var dpdu, dpdv rmath.Vec3
	if zRadius > 0 {
		invZRadius := 1 / zRadius
		cosPhi := pHit.X * invZRadius
		sinPhi := pHit.Y * invZRadius
		dpdu = rmath.NewVec3(-2*math.Pi*pHit.Y, 2*math.Pi*pHit.X, 0)
		dpdv = rmath.NewVec3(pHit.Z*cosPhi, pHit.Z*sinPhi, -s.Radius*math.Sin(theta)).Multiply(math.Pi)
	} else {
		dpdu = rmath.NewVec3(1, 0, 0)
		dpdv = rmath.NewVec3(0, 1, 0)
	}

	nObj := pHit.Normalize()

	worldP := s.ObjectToWorld.Point(pHit)
	worldN := s.ObjectToWorld.Normal(nObj).Normalize()
	worldDpdu := s.ObjectToWorld.Vector(dpdu)
	worldDpdv := s.ObjectToWorld.Vector(dpdv)

	isect := SurfaceInteraction{
		P:    worldP,
		N:    worldN.FaceForward(ray.Direction.Negate()),
		Wo:   ray.Direction.Negate(),
		UV:   rmath.NewVec2(u, v),
		Dpdu: worldDpdu,
		Dpdv: worldDpdv,
		Shape: s,
	}
	return t, isect, true
}

// Sample picks a point uniform by area over the sphere's surface.
func (s *Sphere) Sample(u rmath.Vec2) (p, n rmath.Vec3, pdfArea float64) {
	pObj := core.SampleUniformSphere(u).Multiply(s.Radius)
	nObj := pObj.Normalize()
	p = s.ObjectToWorld.Point(pObj)
	n = s.ObjectToWorld.Normal(nObj).Normalize()
	return p, n, 1.0 / s.Area()
}

// SampleFrom samples the sphere as seen from ref: outside the sphere it
// samples uniformly within the cone subtended by the sphere (using a
// Taylor expansion for small cones per spec); inside it falls back to
// uniform-sphere sampling reweighted to solid angle.
func (s *Sphere) SampleFrom(ref rmath.Vec3, u rmath.Vec2) (p, n rmath.Vec3, pdfSolidAngle float64) {
	center := s.ObjectToWorld.Point(rmath.Vec3{})
	dc := center.Subtract(ref).Length()

	if dc*dc <= s.Radius*s.Radius*1.0000001 {
		// Reference point is inside (or on) the sphere: fall back to
		// uniform-area sampling reweighted to solid angle.
		pp, nn, pdfArea := s.Sample(u)
		pdf := areaToSolidAnglePDF(ref, pp, nn, pdfArea)
		return pp, nn, pdf
	}

	sinThetaMax2 := s.Radius * s.Radius / (dc * dc)
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMax2))

	w := center.Subtract(ref).Normalize()
	wi := core.SampleCone(w, cosThetaMax, u)

	cosTheta := wi.Dot(w)
	var sinTheta2 float64
	if sinThetaMax2 < smallSinThetaMax2Threshold {
		sinTheta2 = sinThetaMax2 * u.X
	} else {
		sinTheta2 = 1 - cosTheta*cosTheta
	}

	cosAlpha := sinTheta2/sinThetaMax2*(1-cosTheta) + cosTheta*math.Sqrt(math.Max(0, 1-sinTheta2/sinThetaMax2))
	sinAlpha := math.Sqrt(math.Max(0, 1-cosAlpha*cosAlpha))

	// Build a local frame around w to place the sampled point on the
	// sphere surface at angle alpha from the ref->center axis.
	var tangent rmath.Vec3
	if math.Abs(w.X) > 0.1 {
		tangent = rmath.NewVec3(0, 1, 0)
	} else {
		tangent = rmath.NewVec3(1, 0, 0)
	}
	uAxis := tangent.Cross(w).Normalize()
	vAxis := w.Cross(uAxis)
	phi := u.Y * 2 * math.Pi

	nWorld := uAxis.Multiply(sinAlpha * math.Cos(phi)).
		Add(vAxis.Multiply(sinAlpha * math.Sin(phi))).
		Add(w.Multiply(-cosAlpha)).Normalize()
	pWorld := center.Add(nWorld.Multiply(s.Radius))

	return pWorld, nWorld, core.UniformConePDF(cosThetaMax)
}

const smallSinThetaMax2Threshold = 0.00068523

func (s *Sphere) PDFFrom(ref rmath.Vec3, wi rmath.Vec3) float64 {
	center := s.ObjectToWorld.Point(rmath.Vec3{})
	dc := center.Subtract(ref).Length()
	if dc*dc <= s.Radius*s.Radius*1.0000001 {
		ray := rmath.NewRay(ref, wi)
		_, isect, ok := s.HitInteraction(ray)
		if !ok {
			return 0
		}
		return areaToSolidAnglePDF(ref, isect.P, isect.N, 1.0/s.Area())
	}
	sinThetaMax2 := s.Radius * s.Radius / (dc * dc)
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMax2))
	return core.UniformConePDF(cosThetaMax)
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
