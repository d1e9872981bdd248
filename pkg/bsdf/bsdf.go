package bsdf

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
	rmath "github.com/lumenray/tracer/pkg/math"
)

const maxBxDFs = 8

// Frame is the orthonormal shading basis (ss, ts, ns) a BSDF uses to move
// world-space directions into the local frame its BxDF lobes operate in.
type Frame struct {
	SS, TS, NS rmath.Vec3
}

// NewFrame builds a frame from dpdu and the shading normal: ss = normalize
// (dpdu), ts = ns x ss, ns = n.
func NewFrame(dpdu, n rmath.Vec3) Frame {
	ss := dpdu.Normalize()
	ns := n.Normalize()
	ts := ns.Cross(ss)
	return Frame{SS: ss, TS: ts, NS: ns}
}

func (f Frame) WorldToLocal(v rmath.Vec3) rmath.Vec3 {
	return rmath.NewVec3(v.Dot(f.SS), v.Dot(f.TS), v.Dot(f.NS))
}

// LocalToWorld is the transpose of the world-to-local change of basis.
func (f Frame) LocalToWorld(v rmath.Vec3) rmath.Vec3 {
	return rmath.NewVec3(
		f.SS.X*v.X+f.TS.X*v.Y+f.NS.X*v.Z,
		f.SS.Y*v.X+f.TS.Y*v.Y+f.NS.Y*v.Z,
		f.SS.Z*v.X+f.TS.Z*v.Y+f.NS.Z*v.Z,
	)
}

// BSDF is allocated per shading event, out of the per-tile arena passed to
// NewBSDF (the material's ComputeScatteringFunctions step), and composes
// up to maxBxDFs BxDF lobes over a single shading frame. Both the BSDF
// itself and its lobe array live in the arena's backing blocks, not the
// heap; they become invalid the next time that arena is Reset.
type BSDF struct {
	Eta     float64
	frame   Frame
	ng      rmath.Vec3 // geometric normal, for hemisphere consistency checks
	bxdfs   [maxBxDFs]BxDF
	numBxDF int
}

// NewBSDF allocates a BSDF from arena over the given shading frame; ng is
// the geometric normal (here equal to n, since shapes carry no distinct
// shading normal).
func NewBSDF(arena *core.Arena, dpdu, n rmath.Vec3, eta float64) *BSDF {
	b := core.ArenaNew[BSDF](arena)
	b.Eta = eta
	b.frame = NewFrame(dpdu, n)
	b.ng = n
	return b
}

// Add registers a lobe with the BSDF; panics if more than maxBxDFs lobes
// are added (a shading event should never need more).
func (b *BSDF) Add(bx BxDF) {
	if b.numBxDF >= maxBxDFs {
		panic("bsdf: too many BxDF lobes")
	}
	b.bxdfs[b.numBxDF] = bx
	b.numBxDF++
}

func (b *BSDF) lobes() []BxDF { return b.bxdfs[:b.numBxDF] }

func (b *BSDF) NumComponents(flags BxDFType) int {
	n := 0
	for _, bx := range b.lobes() {
		if bx.MatchesFlags(flags) {
			n++
		}
	}
	return n
}

// F evaluates the sum of every matching lobe's f, selecting reflection vs
// transmission lobes by the sign of (wi.n)(wo.n).
func (b *BSDF) F(woW, wiW rmath.Vec3, flags BxDFType) core.Spectrum {
	wo := b.frame.WorldToLocal(woW)
	wi := b.frame.WorldToLocal(wiW)
	if wo.Z == 0 {
		return core.Black
	}
	reflect := wiW.Dot(b.ng)*woW.Dot(b.ng) > 0

	f := core.Black
	for _, bx := range b.lobes() {
		if !bx.MatchesFlags(flags) {
			continue
		}
		t := bx.Type()
		if (reflect && t&Reflection != 0) || (!reflect && t&Transmission != 0) {
			f = f.Add(bx.F(wo, wi))
		}
	}
	return f
}

// PDF averages the matching lobes' pdf over the number of matches.
func (b *BSDF) PDF(woW, wiW rmath.Vec3, flags BxDFType) float64 {
	if b.numBxDF == 0 {
		return 0
	}
	wo := b.frame.WorldToLocal(woW)
	wi := b.frame.WorldToLocal(wiW)
	if wo.Z == 0 {
		return 0
	}

	pdf := 0.0
	matching := 0
	for _, bx := range b.lobes() {
		if bx.MatchesFlags(flags) {
			pdf += bx.PDF(wo, wi)
			matching++
		}
	}
	if matching == 0 {
		return 0
	}
	return pdf / float64(matching)
}

// SampleF picks one matching lobe uniformly by index, draws its sample,
// and for non-specular lobes combines the PDF across every other matching
// lobe (multi-lobe MIS within the BSDF itself).
func (b *BSDF) SampleF(woW rmath.Vec3, u rmath.Vec2, uComponent float64, flags BxDFType) (wiW rmath.Vec3, f core.Spectrum, pdf float64, sampledType BxDFType) {
	matchingIdx := make([]int, 0, b.numBxDF)
	for i, bx := range b.lobes() {
		if bx.MatchesFlags(flags) {
			matchingIdx = append(matchingIdx, i)
		}
	}
	if len(matchingIdx) == 0 {
		return rmath.Vec3{}, core.Black, 0, 0
	}

	m := len(matchingIdx)
	k := int(uComponent * float64(m))
	if k >= m {
		k = m - 1
	}
	chosen := b.bxdfs[matchingIdx[k]]

	wo := b.frame.WorldToLocal(woW)
	if wo.Z == 0 {
		return rmath.Vec3{}, core.Black, 0, 0
	}

	var wi rmath.Vec3
	wi, f, pdf, sampledType = chosen.SampleF(wo, u)
	if pdf == 0 {
		return rmath.Vec3{}, core.Black, 0, 0
	}
	sampledType = chosen.Type()

	specular := sampledType&Specular != 0
	if !specular && m > 1 {
		for _, idx := range matchingIdx {
			other := b.bxdfs[idx]
			if other == chosen {
				continue
			}
			pdf += other.PDF(wo, wi)
		}
	}
	if m > 1 {
		pdf /= float64(m)
	}

	if !specular {
		reflect := wi.Z*wo.Z > 0
		f = core.Black
		for _, idx := range matchingIdx {
			other := b.bxdfs[idx]
			t := other.Type()
			if (reflect && t&Reflection != 0) || (!reflect && t&Transmission != 0) {
				f = f.Add(other.F(wo, wi))
			}
		}
	}

	wiW = b.frame.LocalToWorld(wi)
	return wiW, f, pdf, sampledType
}

// AbsCosThetaWorld returns |n . w| for a world-space normal and direction,
// used by integrators weighting a sampled direction against the surface
// normal (the |wi.n| term in the rendering equation).
func AbsCosThetaWorld(n, w rmath.Vec3) float64 { return math.Abs(n.Dot(w)) }
