package light

import (
	"math"
	"testing"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// neverOccluder and alwaysOccluder satisfy Occluder for visibility tests.
type neverOccluder struct{}

func (neverOccluder) AnyHit(ray rmath.Ray) bool { return false }

type alwaysOccluder struct{}

func (alwaysOccluder) AnyHit(ray rmath.Ray) bool { return true }

func sphereShape(center rmath.Vec3, radius float64) *shape.Sphere {
	toWorld := rmath.Translate(center)
	toObj := toWorld.Inverse()
	return shape.NewSphere(&toWorld, &toObj, radius)
}

func TestVisibilityTesterUnoccluded(t *testing.T) {
	vt := NewVisibilityTester(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 10))
	if !vt.Unoccluded(neverOccluder{}) {
		t.Error("expected unoccluded")
	}
	if vt.Unoccluded(alwaysOccluder{}) {
		t.Error("expected occluded")
	}
}

func TestDiffuseAreaLightPower(t *testing.T) {
	s := sphereShape(rmath.NewVec3(0, 0, 0), 2)
	l := NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), false, 1)
	want := 4 * math.Pi * 4 * math.Pi // area * pi, area=4*pi*r^2
	got := l.Power().R
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("power = %v, want %v", got, want)
	}

	twoSided := NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), true, 1)
	if math.Abs(twoSided.Power().R-2*want) > 1e-6 {
		t.Errorf("two-sided power should double single-sided")
	}
}

func TestDiffuseAreaLightSampleLiPDFConsistency(t *testing.T) {
	s := sphereShape(rmath.NewVec3(0, 0, 5), 1)
	l := NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), false, 1)

	ref := rmath.NewVec3(0, 0, 0)
	u := rmath.NewVec2(0.3, 0.6)
	li, wi, pdf, vis := l.SampleLi(ref, u)
	if pdf <= 0 {
		t.Fatal("expected positive pdf for a visible sphere light")
	}
	if li.IsBlack() {
		t.Error("expected nonzero radiance toward a front-facing sample")
	}
	pdf2 := l.PdfLi(ref, wi)
	if math.Abs(pdf2-pdf) > 1e-6 {
		t.Errorf("pdf_Li(wi) = %v, want sample_Li's pdf %v", pdf2, pdf)
	}
	if !vis.Unoccluded(neverOccluder{}) {
		t.Error("expected visibility tester to report unoccluded with no blockers")
	}
}

func TestUniformLightDistributionUniformHistogram(t *testing.T) {
	s := sphereShape(rmath.NewVec3(0, 0, 0), 1)
	lights := []Light{
		NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), false, 1),
		NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), false, 1),
		NewDiffuseAreaLight(s, core.NewSpectrum(1, 1, 1), false, 1),
	}
	dist := NewUniformLightDistribution(lights)
	d := dist.Lookup(rmath.NewVec3(0, 0, 0))

	counts := make([]int, len(lights))
	const n = 30000
	for i := 0; i < n; i++ {
		idx, pdf := d.SampleDiscrete(float64(i) / n)
		counts[idx]++
		if math.Abs(pdf-1.0/float64(len(lights))) > 1e-9 {
			t.Fatalf("expected uniform pdf, got %v", pdf)
		}
	}
	for _, c := range counts {
		frac := float64(c) / n
		if math.Abs(frac-1.0/float64(len(lights))) > 0.01 {
			t.Errorf("histogram bucket fraction %v not close to uniform", frac)
		}
	}
}
