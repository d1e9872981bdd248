package film

import rmath "github.com/lumenray/tracer/pkg/math"

// filterTableSize is the resolution of the precomputed filter-weight
// table, evaluated over the filter's positive quadrant and mirrored for
// the other three by symmetry.
const filterTableSize = 16

// Filter is a pixel reconstruction kernel evaluated over [-Radius,Radius].
type Filter interface {
	Evaluate(p rmath.Vec2) float64
	Radius() rmath.Vec2
}

// BoxFilter weighs every sample within its radius equally.
type BoxFilter struct {
	radius rmath.Vec2
}

func NewBoxFilter(radius rmath.Vec2) BoxFilter { return BoxFilter{radius: radius} }

func (f BoxFilter) Evaluate(p rmath.Vec2) float64 { return 1 }
func (f BoxFilter) Radius() rmath.Vec2            { return f.radius }

// filterTable precomputes Filter's values over a filterTableSize x
// filterTableSize grid spanning the positive quadrant of [0,radius], so
// FilmTile.AddSample can look up a weight by indexed distance instead of
// calling Evaluate per sample.
type filterTable struct {
	filter Filter
	radius rmath.Vec2
	values [filterTableSize * filterTableSize]float64
}

func newFilterTable(f Filter) *filterTable {
	t := &filterTable{filter: f, radius: f.Radius()}
	for y := 0; y < filterTableSize; y++ {
		for x := 0; x < filterTableSize; x++ {
			px := (float64(x) + 0.5) / filterTableSize * t.radius.X
			py := (float64(y) + 0.5) / filterTableSize * t.radius.Y
			t.values[y*filterTableSize+x] = f.Evaluate(rmath.NewVec2(px, py))
		}
	}
	return t
}

// lookup returns the precomputed weight for an offset from the sample
// position, given in pixel units. dx/dy are assumed within [-radius,radius];
// callers are expected to have already bounds-checked against the tile's
// pixel range.
func (t *filterTable) lookup(dx, dy float64) float64 {
	ix := int(absf(dx) / t.radius.X * filterTableSize)
	if ix >= filterTableSize {
		ix = filterTableSize - 1
	}
	iy := int(absf(dy) / t.radius.Y * filterTableSize)
	if iy >= filterTableSize {
		iy = filterTableSize - 1
	}
	return t.values[iy*filterTableSize+ix]
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
