// Package light implements area lights bound to a shape, the shadow-ray
// visibility tester, and the uniform one-light sampling distribution.
package light

import (
	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// Flags classifies a light's sampling behavior; delta lights have no area
// to hit with a BSDF-sampled ray, so MIS weighting against them is skipped.
type Flags int

const (
	FlagArea Flags = 1 << iota
	FlagDeltaPosition
	FlagDeltaDirection
	FlagInfinite
)

func (f Flags) IsDelta() bool { return f&(FlagDeltaPosition|FlagDeltaDirection) != 0 }

// Occluder is the minimal scene-side capability a VisibilityTester needs:
// a shadow-ray any-hit query. Satisfied by the renderer's Scene type;
// declared here to avoid an import cycle (scene depends on light, not
// the reverse).
type Occluder interface {
	AnyHit(ray rmath.Ray) bool
}

// Light is sampled for direct lighting (sample_Li/pdf_Li), queried for
// escaped-ray radiance (Le), and reports total emitted power for light
// selection heuristics (Power). sample_Le/pdf_Le exist for bidirectional
// light-path generation, which this renderer's integrators do not use, but
// are kept on the interface since every Light can answer them uniformly.
type Light interface {
	Flags() Flags
	NumSamples() int

	SampleLi(ref rmath.Vec3, u rmath.Vec2) (li core.Spectrum, wi rmath.Vec3, pdf float64, vis *VisibilityTester)
	PdfLi(ref rmath.Vec3, wi rmath.Vec3) float64

	// Le returns emitted radiance for a ray that escaped the scene without
	// hitting anything; zero for every light type except infinite lights
	// (not implemented here; kept for interface completeness per spec).
	Le(ray rmath.Ray) core.Spectrum

	SampleLe(uPos, uDir rmath.Vec2) (ray rmath.Ray, nLight rmath.Vec3, le core.Spectrum, pdfPos, pdfDir float64)
	PdfLe(ray rmath.Ray, nLight rmath.Vec3) (pdfPos, pdfDir float64)

	Power() core.Spectrum
}

// AreaLight additionally evaluates emitted radiance at a point on its
// bound shape, in a given outgoing direction.
type AreaLight interface {
	Light
	L(p, n, w rmath.Vec3) core.Spectrum
	Shape() shape.Shape
}
