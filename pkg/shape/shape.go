package shape

import (
	rmath "github.com/lumenray/tracer/pkg/math"
)

// Shape is implemented by Sphere and Triangle. A Shape borrows its
// object<->world transforms; it does not own them (they live on the
// Entity/Hitable that placed the shape in the scene).
type Shape interface {
	ObjectBound() rmath.BBox3
	WorldBound() rmath.BBox3

	// Hit reports only whether the ray intersects, without producing a
	// SurfaceInteraction (used by shadow rays and quick tests).
	Hit(ray rmath.Ray) bool

	// HitInteraction intersects and, on a hit, fills tHit and isect;
	// ray.TMax bounds the search.
	HitInteraction(ray rmath.Ray) (tHit float64, isect SurfaceInteraction, ok bool)

	Area() float64

	// Sample picks a point on the shape's surface uniform by area.
	Sample(u rmath.Vec2) (p, n rmath.Vec3, pdfArea float64)

	// SampleFrom picks a point on the shape as seen from a reference
	// point, returning a PDF with respect to solid angle at ref.
	SampleFrom(ref rmath.Vec3, u rmath.Vec2) (p, n rmath.Vec3, pdfSolidAngle float64)

	// PDFFrom returns the solid-angle PDF of direction wi from ref under
	// SampleFrom's distribution (used when direction is already known,
	// e.g. from BSDF sampling in MIS).
	PDFFrom(ref rmath.Vec3, wi rmath.Vec3) float64
}

// areaToSolidAnglePDF converts an area-measure PDF (as returned by Sample)
// to a solid-angle-measure PDF as seen from ref, per the
// Shape::sample(ref,...) contract shared by every shape.
func areaToSolidAnglePDF(ref, p, n rmath.Vec3, pdfArea float64) float64 {
	wi := p.Subtract(ref)
	distSq := wi.LengthSquared()
	if distSq == 0 {
		return 0
	}
	wi = wi.Normalize()
	cosAtLight := n.AbsDot(wi.Negate())
	if cosAtLight == 0 {
		return 0
	}
	pdf := pdfArea * distSq / cosAtLight
	if isInfOrNaN(pdf) {
		return 0
	}
	return pdf
}

func isInfOrNaN(f float64) bool {
	return f != f || f > 1e300 || f < -1e300
}
