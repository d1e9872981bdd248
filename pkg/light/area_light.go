package light

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// DiffuseAreaLight emits a uniform radiance LEmit over one face of shape
// (or both faces if TwoSided).
type DiffuseAreaLight struct {
	shape    shape.Shape
	LEmit    core.Spectrum
	TwoSided bool
	nSamples int
}

func NewDiffuseAreaLight(s shape.Shape, lEmit core.Spectrum, twoSided bool, nSamples int) *DiffuseAreaLight {
	if nSamples < 1 {
		nSamples = 1
	}
	return &DiffuseAreaLight{shape: s, LEmit: lEmit, TwoSided: twoSided, nSamples: nSamples}
}

func (a *DiffuseAreaLight) Flags() Flags    { return FlagArea }
func (a *DiffuseAreaLight) NumSamples() int { return a.nSamples }
func (a *DiffuseAreaLight) Shape() shape.Shape { return a.shape }

// L evaluates emitted radiance at a point on the light's surface, in
// direction w (pointing away from the surface).
func (a *DiffuseAreaLight) L(p, n, w rmath.Vec3) core.Spectrum {
	if a.TwoSided || n.Dot(w) > 0 {
		return a.LEmit
	}
	return core.Black
}

func (a *DiffuseAreaLight) SampleLi(ref rmath.Vec3, u rmath.Vec2) (core.Spectrum, rmath.Vec3, float64, *VisibilityTester) {
	pShape, nShape, pdf := a.shape.SampleFrom(ref, u)
	if pdf == 0 {
		return core.Black, rmath.Vec3{}, 0, nil
	}
	d := pShape.Subtract(ref)
	if d.LengthSquared() == 0 {
		return core.Black, rmath.Vec3{}, 0, nil
	}
	wi := d.Normalize()
	li := a.L(pShape, nShape, wi.Negate())
	vis := NewVisibilityTester(ref, pShape)
	return li, wi, pdf, vis
}

func (a *DiffuseAreaLight) PdfLi(ref rmath.Vec3, wi rmath.Vec3) float64 {
	return a.shape.PDFFrom(ref, wi)
}

// Le is zero: area lights emit only from their bound shape, not toward
// rays that escape the scene.
func (a *DiffuseAreaLight) Le(ray rmath.Ray) core.Spectrum { return core.Black }

func (a *DiffuseAreaLight) Power() core.Spectrum {
	scale := 1.0
	if a.TwoSided {
		scale = 2.0
	}
	return a.LEmit.Scale(scale * a.shape.Area() * math.Pi)
}

// SampleLe/PdfLe support bidirectional light-path generation; no
// integrator in this package calls them (bidirectional transport is out
// of scope), but they are implemented for interface completeness and
// potential future use.
func (a *DiffuseAreaLight) SampleLe(uPos, uDir rmath.Vec2) (rmath.Ray, rmath.Vec3, core.Spectrum, float64, float64) {
	p, n, pdfPos := a.shape.Sample(uPos)
	wLocal := core.SampleCosineHemisphere(uDir)
	frame := rmath.NewVec3(1, 0, 0)
	if math.Abs(n.X) > 0.9 {
		frame = rmath.NewVec3(0, 1, 0)
	}
	ss := frame.Cross(n).Normalize()
	ts := n.Cross(ss)
	w := ss.Multiply(wLocal.X).Add(ts.Multiply(wLocal.Y)).Add(n.Multiply(wLocal.Z))
	pdfDir := core.CosineHemispherePDF(wLocal.Z)
	ray := rmath.NewRay(p, w)
	return ray, n, a.L(p, n, w), pdfPos, pdfDir
}

func (a *DiffuseAreaLight) PdfLe(ray rmath.Ray, nLight rmath.Vec3) (float64, float64) {
	pdfPos := 1.0 / a.shape.Area()
	cosTheta := nLight.AbsDot(ray.Direction)
	pdfDir := core.CosineHemispherePDF(cosTheta)
	return pdfPos, pdfDir
}
