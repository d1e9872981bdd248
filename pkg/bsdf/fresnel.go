package bsdf

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
)

// Fresnel evaluates the fraction of light reflected at a surface for a
// given cosine of the incident angle.
type Fresnel interface {
	Evaluate(cosThetaI float64) core.Spectrum
}

// FresnelDielectric evaluates the dielectric Fresnel equations between an
// incident medium of index EtaI and a transmitted medium of index EtaT.
type FresnelDielectric struct {
	EtaI, EtaT float64
}

func NewFresnelDielectric(etaI, etaT float64) *FresnelDielectric {
	return &FresnelDielectric{EtaI: etaI, EtaT: etaT}
}

// Evaluate returns the uniform (wavelength-independent) reflectance,
// broadcast across all three channels.
func (f *FresnelDielectric) Evaluate(cosThetaI float64) core.Spectrum {
	fr := frDielectric(cosThetaI, f.EtaI, f.EtaT)
	return core.NewSpectrum(fr, fr, fr)
}

// frDielectric computes the unpolarized Fresnel reflectance for dielectric
// materials, handling total internal reflection when etaI > etaT and the
// incident angle exceeds the critical angle.
func frDielectric(cosThetaI, etaI, etaT float64) float64 {
	cosThetaI = clamp(cosThetaI, -1, 1)
	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		return 1
	}
	cosThetaT := math.Sqrt(math.Max(0, 1-sinThetaT*sinThetaT))

	rParl := ((etaT * cosThetaI) - (etaI * cosThetaT)) / ((etaT * cosThetaI) + (etaI * cosThetaT))
	rPerp := ((etaI * cosThetaI) - (etaT * cosThetaT)) / ((etaI * cosThetaI) + (etaT * cosThetaT))
	return (rParl*rParl + rPerp*rPerp) / 2
}

// FresnelNoOp always reports total reflectance; used by mirror materials
// that have no wavelength- or angle-dependent falloff.
type FresnelNoOp struct{}

func (FresnelNoOp) Evaluate(cosThetaI float64) core.Spectrum {
	return core.NewSpectrum(1, 1, 1)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
