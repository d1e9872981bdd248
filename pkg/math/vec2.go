package math

// Vec2 represents a 2D point or sample pair (uv coordinates, lens
// samples, filter-plane offsets).
type Vec2 struct {
	X, Y float64
}

func NewVec2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Subtract(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Multiply(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}
