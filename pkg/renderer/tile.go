package renderer

import rmath "github.com/lumenray/tracer/pkg/math"

// tileSize is the pixel dimension of the scheduling unit: the image is
// partitioned into tileSize x tileSize tiles, each pulled by a worker via
// the atomic work-stealing counter in renderer.go.
const tileSize = 16

// tileGrid enumerates every tile's sample bounds (pixel-space, clipped to
// cropBounds) in row-major order, so tile index i always names the same
// bounds across runs — required for the seed(tile_id) = tile_id
// determinism guarantee.
func tileGrid(cropBounds rmath.BBox2) []rmath.BBox2 {
	var tiles []rmath.BBox2
	for y := cropBounds.Min[1]; y < cropBounds.Max[1]; y += tileSize {
		for x := cropBounds.Min[0]; x < cropBounds.Max[0]; x += tileSize {
			x1 := x + tileSize
			if x1 > cropBounds.Max[0] {
				x1 = cropBounds.Max[0]
			}
			y1 := y + tileSize
			if y1 > cropBounds.Max[1] {
				y1 = cropBounds.Max[1]
			}
			tiles = append(tiles, rmath.NewBBox2(x, y, x1, y1))
		}
	}
	return tiles
}
