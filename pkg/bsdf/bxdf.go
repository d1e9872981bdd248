package bsdf

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// BxDFType is a bitmask over {Reflection, Transmission} x {Diffuse, Glossy,
// Specular}, matched against a caller-supplied flag set at f/sample_f/pdf
// time. All directions passed to a BxDF are in the local shading frame.
type BxDFType int

const (
	Reflection BxDFType = 1 << iota
	Transmission
	Diffuse
	Glossy
	Specular

	All = Reflection | Transmission | Diffuse | Glossy | Specular
)

// TransportMode distinguishes tracing from the camera (radiance) from
// tracing from a light (importance); SpecularTransmission's non-symmetric
// scaling depends on which.
type TransportMode int

const (
	Radiance TransportMode = iota
	Importance
)

// BxDF is one scattering lobe in a local frame where the shading normal is
// +z: CosTheta(w) = w.Z.
type BxDF interface {
	Type() BxDFType
	MatchesFlags(flags BxDFType) bool
	F(wo, wi rmath.Vec3) core.Spectrum
	SampleF(wo rmath.Vec3, u rmath.Vec2) (wi rmath.Vec3, f core.Spectrum, pdf float64, sampledType BxDFType)
	PDF(wo, wi rmath.Vec3) float64
}

func CosTheta(w rmath.Vec3) float64    { return w.Z }
func AbsCosTheta(w rmath.Vec3) float64 { return math.Abs(w.Z) }
func SameHemisphere(a, b rmath.Vec3) bool {
	return a.Z*b.Z > 0
}

func matches(t, flags BxDFType) bool { return t&flags == t }

// cosineSampleF is the default sample_f used by any lobe whose importance
// sampling distribution is simply the reflection cosine (Lambertian).
func cosineSampleF(wo rmath.Vec3, u rmath.Vec2, f func(wo, wi rmath.Vec3) core.Spectrum, sampledType BxDFType) (rmath.Vec3, core.Spectrum, float64, BxDFType) {
	wi := core.SampleCosineHemisphere(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	pdf := 0.0
	if SameHemisphere(wo, wi) {
		pdf = core.CosineHemispherePDF(AbsCosTheta(wi))
	}
	return wi, f(wo, wi), pdf, sampledType
}

// LambertianReflection is a perfectly diffuse reflection lobe: f = R/pi.
type LambertianReflection struct {
	R core.Spectrum
}

func NewLambertianReflection(arena *core.Arena, r core.Spectrum) *LambertianReflection {
	l := core.ArenaNew[LambertianReflection](arena)
	l.R = r
	return l
}

func (l *LambertianReflection) Type() BxDFType             { return Reflection | Diffuse }
func (l *LambertianReflection) MatchesFlags(f BxDFType) bool { return matches(l.Type(), f) }

func (l *LambertianReflection) F(wo, wi rmath.Vec3) core.Spectrum {
	return l.R.Scale(1 / math.Pi)
}

func (l *LambertianReflection) SampleF(wo rmath.Vec3, u rmath.Vec2) (rmath.Vec3, core.Spectrum, float64, BxDFType) {
	return cosineSampleF(wo, u, l.F, 0)
}

func (l *LambertianReflection) PDF(wo, wi rmath.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	return core.CosineHemispherePDF(AbsCosTheta(wi))
}

// SpecularReflection is a delta-distribution mirror lobe: all energy
// leaves along the perfect mirror direction, weighted by fresnel(cosTheta).
type SpecularReflection struct {
	R       core.Spectrum
	Fresnel Fresnel
}

func NewSpecularReflection(arena *core.Arena, r core.Spectrum, fresnel Fresnel) *SpecularReflection {
	s := core.ArenaNew[SpecularReflection](arena)
	s.R = r
	s.Fresnel = fresnel
	return s
}

func (s *SpecularReflection) Type() BxDFType              { return Reflection | Specular }
func (s *SpecularReflection) MatchesFlags(f BxDFType) bool { return matches(s.Type(), f) }

// F is always zero: a delta distribution has no density at an arbitrary wi.
func (s *SpecularReflection) F(wo, wi rmath.Vec3) core.Spectrum { return core.Black }

func (s *SpecularReflection) SampleF(wo rmath.Vec3, u rmath.Vec2) (rmath.Vec3, core.Spectrum, float64, BxDFType) {
	wi := rmath.NewVec3(-wo.X, -wo.Y, wo.Z)
	fr := s.Fresnel.Evaluate(CosTheta(wi))
	f := fr.Mul(s.R).Scale(1 / AbsCosTheta(wi))
	return wi, f, 1, s.Type()
}

func (s *SpecularReflection) PDF(wo, wi rmath.Vec3) float64 { return 0 }

// SpecularTransmission is a delta-distribution refraction lobe through a
// dielectric boundary with indices EtaA (outside) / EtaB (inside).
type SpecularTransmission struct {
	T          core.Spectrum
	EtaA, EtaB float64
	Fresnel    *FresnelDielectric
	Mode       TransportMode
}

func NewSpecularTransmission(t core.Spectrum, etaA, etaB float64, mode TransportMode) *SpecularTransmission {
	return &SpecularTransmission{T: t, EtaA: etaA, EtaB: etaB, Fresnel: NewFresnelDielectric(etaA, etaB), Mode: mode}
}

func (s *SpecularTransmission) Type() BxDFType              { return Transmission | Specular }
func (s *SpecularTransmission) MatchesFlags(f BxDFType) bool { return matches(s.Type(), f) }

func (s *SpecularTransmission) F(wo, wi rmath.Vec3) core.Spectrum { return core.Black }
func (s *SpecularTransmission) PDF(wo, wi rmath.Vec3) float64     { return 0 }

func (s *SpecularTransmission) SampleF(wo rmath.Vec3, u rmath.Vec2) (rmath.Vec3, core.Spectrum, float64, BxDFType) {
	entering := CosTheta(wo) > 0
	etaI, etaT := s.EtaA, s.EtaB
	if !entering {
		etaI, etaT = s.EtaB, s.EtaA
	}

	n := rmath.NewVec3(0, 0, 1)
	if !entering {
		n = n.Negate()
	}
	wi, ok := refract(wo, n, etaI/etaT)
	if !ok {
		return rmath.Vec3{}, core.Black, 0, s.Type()
	}

	fr := s.Fresnel.Evaluate(CosTheta(wi))
	one := core.NewSpectrum(1, 1, 1)
	ft := one.Sub(fr).Mul(s.T)

	if s.Mode == Radiance {
		ft = ft.Scale((etaI * etaI) / (etaT * etaT))
	}
	return wi, ft.Scale(1 / AbsCosTheta(wi)), 1, s.Type()
}

// refract implements Snell's law in the local frame; returns ok=false on
// total internal reflection.
func refract(wi, n rmath.Vec3, eta float64) (rmath.Vec3, bool) {
	cosThetaI := n.Dot(wi)
	sin2ThetaI := math.Max(0, 1-cosThetaI*cosThetaI)
	sin2ThetaT := eta * eta * sin2ThetaI
	if sin2ThetaT >= 1 {
		return rmath.Vec3{}, false
	}
	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	wt := wi.Negate().Multiply(eta).Add(n.Multiply(eta*cosThetaI - cosThetaT))
	return wt, true
}
