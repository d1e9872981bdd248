package core

import (
	"math"

	rmath "github.com/lumenray/tracer/pkg/math"
)

// smallSinSqThreshold is the sin^2(thetaMax) cutoff below which the cone
// PDF's cos(thetaMax) term is computed via a Taylor expansion instead of
// directly, to avoid catastrophic cancellation for distant small spheres.
const smallSinSqThreshold = 0.00068523

// SampleCosineHemisphere returns a cosine-weighted direction in the local
// hemisphere around +Z (concentric-disk mapping projected up), and its
// accompanying PDF is cos(theta)/pi.
func SampleCosineHemisphere(u rmath.Vec2) rmath.Vec3 {
	d := SamplePointInUnitDisk(u)
	z := math.Sqrt(math.Max(0, 1-d.X*d.X-d.Y*d.Y))
	return rmath.NewVec3(d.X, d.Y, z)
}

// CosineHemispherePDF returns the PDF of SampleCosineHemisphere for a
// direction whose cosine with the hemisphere axis is cosTheta.
func CosineHemispherePDF(cosTheta float64) float64 {
	return cosTheta / math.Pi
}

// SamplePointInUnitDisk maps a unit square sample to a unit disk via
// Shirley's concentric mapping, avoiding rejection sampling.
func SamplePointInUnitDisk(u rmath.Vec2) rmath.Vec2 {
	ox := 2*u.X - 1
	oy := 2*u.Y - 1
	if ox == 0 && oy == 0 {
		return rmath.NewVec2(0, 0)
	}
	var theta, r float64
	if math.Abs(ox) > math.Abs(oy) {
		r = ox
		theta = math.Pi / 4 * (oy / ox)
	} else {
		r = oy
		theta = math.Pi/2 - math.Pi/4*(ox/oy)
	}
	return rmath.NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// SampleUniformSphere returns a direction uniform over the unit sphere.
func SampleUniformSphere(u rmath.Vec2) rmath.Vec3 {
	z := 1 - 2*u.X
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u.Y
	return rmath.NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// UniformSpherePDF is the constant PDF (1/4pi) of SampleUniformSphere.
func UniformSpherePDF() float64 { return 1.0 / (4 * math.Pi) }

// SampleUniformTriangle returns barycentric coordinates (b0, b1) uniform
// over a triangle, per the spec's (1-sqrt(u0), u1*sqrt(u0)) construction.
func SampleUniformTriangle(u rmath.Vec2) (b0, b1 float64) {
	su0 := math.Sqrt(u.X)
	return 1 - su0, u.Y * su0
}

// SampleCone samples a direction uniform within a cone of half-angle
// given by cosThetaMax, around axis w.
func SampleCone(w rmath.Vec3, cosThetaMax float64, u rmath.Vec2) rmath.Vec3 {
	var tangent rmath.Vec3
	if math.Abs(w.X) > 0.1 {
		tangent = rmath.NewVec3(0, 1, 0)
	} else {
		tangent = rmath.NewVec3(1, 0, 0)
	}
	uAxis := tangent.Cross(w).Normalize()
	vAxis := w.Cross(uAxis)

	cosTheta := (1 - u.X) + u.X*cosThetaMax
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := u.Y * 2 * math.Pi

	local := rmath.NewVec3(math.Cos(phi)*sinTheta, math.Sin(phi)*sinTheta, cosTheta)
	return uAxis.Multiply(local.X).Add(vAxis.Multiply(local.Y)).Add(w.Multiply(local.Z))
}

// UniformConePDF returns the constant PDF of SampleCone: 1/(2*pi*(1-cosThetaMax)).
// For very small cones (sin^2(thetaMax) below smallSinSqThreshold), a
// Taylor expansion of (1-cosThetaMax) avoids cancellation error.
func UniformConePDF(cosThetaMax float64) float64 {
	sinThetaMax2 := 1 - cosThetaMax*cosThetaMax
	var oneMinusCos float64
	if sinThetaMax2 < smallSinSqThreshold {
		oneMinusCos = sinThetaMax2 * (0.5 + sinThetaMax2*(0.125+sinThetaMax2*0.0625))
	} else {
		oneMinusCos = 1 - cosThetaMax
	}
	return 1.0 / (2 * math.Pi * oneMinusCos)
}

// PowerHeuristic computes the MIS weight for one of two sampling
// strategies, using the power heuristic with beta=2:
// pf^2 / (pf^2 + pg^2) where pf = nf*fPdf, pg = ng*gPdf.
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f == 0 && g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}

// Distribution1D represents a piecewise-constant 1D function and its CDF,
// supporting discrete inverse-CDF sampling; no continuous sampling method
// is provided.
type Distribution1D struct {
	Func       []float64
	CDF        []float64
	FuncInt    float64
}

// NewDistribution1D builds the CDF of f as a running sum of f[i]/n,
// normalized by the total (FuncInt); an all-zero f yields a uniform CDF.
func NewDistribution1D(f []float64) *Distribution1D {
	n := len(f)
	cdf := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		cdf[i] = cdf[i-1] + f[i-1]/float64(n)
	}
	funcInt := cdf[n]
	if funcInt == 0 {
		for i := 1; i <= n; i++ {
			cdf[i] = float64(i) / float64(n)
		}
	} else {
		for i := 1; i <= n; i++ {
			cdf[i] /= funcInt
		}
	}
	return &Distribution1D{Func: append([]float64(nil), f...), CDF: cdf, FuncInt: funcInt}
}

// SampleDiscrete picks an index proportional to Func[i] via binary search
// of the CDF, returning the index and its discrete PDF.
func (d *Distribution1D) SampleDiscrete(u float64) (index int, pdf float64) {
	i := findInterval(d.CDF, u)
	denom := d.FuncInt
	if denom == 0 {
		denom = 1
	}
	pdf = d.Func[i] / (denom * float64(len(d.Func)))
	return i, pdf
}

// findInterval returns the largest i such that cdf[i] <= u < cdf[i+1].
func findInterval(cdf []float64, u float64) int {
	lo, hi := 0, len(cdf)-2
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if cdf[mid] <= u {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo < 0 {
		lo = 0
	}
	return lo
}
