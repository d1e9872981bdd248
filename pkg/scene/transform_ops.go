package scene

import (
	"fmt"

	rmath "github.com/lumenray/tracer/pkg/math"
)

// parseTransform interprets a flat token stream of transform opcodes:
//
//	0 tx ty tz   - translate
//	1 sx sy sz   - scale
//	2 ax ay az θ - rotate θ degrees about (ax,ay,az)
//
// Opcodes are accumulated in the order they appear in tokens, then applied
// in reverse order of accumulation: the last opcode in the stream is
// applied to a point first (it is "closest" to the point, i.e. innermost
// in object space), and the first opcode in the stream is applied last
// (outermost, closest to world space). An unknown or truncated opcode is an
// error, returned alongside the identity transform; Load aborts with it.
func parseTransform(tokens []float64) (rmath.Transform, error) {
	ops, err := decodeOps(tokens)
	if err != nil {
		return rmath.Identity(), err
	}

	result := rmath.Identity()
	for i := len(ops) - 1; i >= 0; i-- {
		result = ops[i].Compose(result)
	}
	return result, nil
}

func decodeOps(tokens []float64) ([]rmath.Transform, error) {
	var ops []rmath.Transform
	i := 0
	for i < len(tokens) {
		switch int(tokens[i]) {
		case 0:
			if i+3 >= len(tokens) {
				return nil, fmt.Errorf("scene: truncated translate opcode at token %d", i)
			}
			ops = append(ops, rmath.Translate(rmath.NewVec3(tokens[i+1], tokens[i+2], tokens[i+3])))
			i += 4
		case 1:
			if i+3 >= len(tokens) {
				return nil, fmt.Errorf("scene: truncated scale opcode at token %d", i)
			}
			ops = append(ops, rmath.Scale(rmath.NewVec3(tokens[i+1], tokens[i+2], tokens[i+3])))
			i += 4
		case 2:
			if i+4 >= len(tokens) {
				return nil, fmt.Errorf("scene: truncated rotate opcode at token %d", i)
			}
			axis := rmath.NewVec3(tokens[i+1], tokens[i+2], tokens[i+3])
			ops = append(ops, rmath.Rotate(tokens[i+4], axis))
			i += 5
		default:
			return nil, fmt.Errorf("scene: unknown transform opcode %v at token %d", tokens[i], i)
		}
	}
	return ops, nil
}
