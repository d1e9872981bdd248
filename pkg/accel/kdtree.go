// Package accel implements the k-d tree spatial acceleration structure:
// SAH-guided build, closest-hit traversal and shadow (any-hit) traversal
// over a fixed-size stack.
package accel

import (
	"math"
	"sort"

	"github.com/lumenray/tracer/pkg/shape"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// Primitive is anything the tree can store a reference to: a single shape
// (wrapped by the scene graph with its material/light bindings) or any
// other Hitable. The tree only needs bounds and hit tests.
type Primitive interface {
	WorldBound() rmath.BBox3
	Hit(ray rmath.Ray) bool
	HitInteraction(ray rmath.Ray) (tHit float64, isect shape.SurfaceInteraction, ok bool)
}

const (
	isectCost         = 80.0
	travCost          = 1.0
	emptyBonus        = 0.5
	maxTraversalStack = 64
)

// leafFlag marks a node as a leaf in the low 2 bits of flags; 0,1,2 mean
// an interior node split on that axis.
const leafFlag = 3

type kdNode struct {
	splitPos     float64
	flags        uint32 // low 2 bits: axis (0-2) or 3 = leaf
	nPrims       uint32 // leaf only: primitive count
	aboveChild   int    // interior: index of the "above" child
	onePrimitive int    // leaf with nPrims==1: the primitive index directly
	primsOffset  int    // leaf with nPrims>1: offset into primitiveIndices
}

func (n *kdNode) isLeaf() bool   { return n.flags&3 == leafFlag }
func (n *kdNode) splitAxis() int { return int(n.flags & 3) }

func (n *kdNode) initLeaf(primNums []int, allIndices *[]int) {
	n.flags = leafFlag
	n.nPrims = uint32(len(primNums))
	switch len(primNums) {
	case 0:
		n.onePrimitive = 0
	case 1:
		n.onePrimitive = primNums[0]
	default:
		n.primsOffset = len(*allIndices)
		*allIndices = append(*allIndices, primNums...)
	}
}

func (n *kdNode) initInterior(axis int, aboveChild int, split float64) {
	n.splitPos = split
	n.flags = uint32(axis)
	n.aboveChild = aboveChild
}

type edgeType int

const (
	edgeStart edgeType = 0
	edgeEnd   edgeType = 1
)

type boundEdge struct {
	t       float64
	primNum int
	kind    edgeType
}

// KdTree is a SAH-split k-d tree over a fixed set of primitives, built
// once and queried many times by concurrent readers (safe: immutable
// after Build returns).
type KdTree struct {
	primitives []Primitive
	maxPrims   int
	maxDepth   int

	nodes            []kdNode
	nextFreeNode     int
	primitiveIndices []int
	bounds           rmath.BBox3
}

// NewKdTree builds a tree over prims with default parameters (maxPrims=1,
// maxDepth = ceil(8 + 1.3*log2(N))).
func NewKdTree(prims []Primitive) *KdTree {
	return NewKdTreeWithParams(prims, 1, 0)
}

// NewKdTreeWithParams builds with an explicit maxPrims; maxDepth==0 picks
// the default formula.
func NewKdTreeWithParams(prims []Primitive, maxPrims, maxDepth int) *KdTree {
	t := &KdTree{primitives: prims, maxPrims: maxPrims}
	if maxDepth <= 0 {
		maxDepth = int(math.Ceil(8 + 1.3*math.Log2(float64(len(prims)))))
	}
	t.maxDepth = maxDepth
	t.build()
	return t
}

func (t *KdTree) build() {
	n := len(t.primitives)
	t.nodes = make([]kdNode, 512)
	t.nextFreeNode = 0

	primBounds := make([]rmath.BBox3, n)
	t.bounds = rmath.EmptyBBox3()
	primNums := make([]int, n)
	for i, p := range t.primitives {
		b := p.WorldBound()
		primBounds[i] = b
		t.bounds = t.bounds.Union(b)
		primNums[i] = i
	}

	var edges [3][]boundEdge
	for axis := 0; axis < 3; axis++ {
		edges[axis] = make([]boundEdge, 2*n)
	}
	prims0 := make([]int, n)
	prims1 := make([]int, (t.maxDepth+1)*n)

	if n > 0 {
		t.buildTree(0, t.bounds, primBounds, primNums, t.maxDepth, edges, prims0, prims1, 0)
	} else {
		t.allocNode()
		t.nodes[0].initLeaf(nil, &t.primitiveIndices)
	}
}

func (t *KdTree) allocNode() int {
	if t.nextFreeNode == len(t.nodes) {
		newNodes := make([]kdNode, 2*len(t.nodes))
		copy(newNodes, t.nodes)
		t.nodes = newNodes
	}
	idx := t.nextFreeNode
	t.nextFreeNode++
	return idx
}

func (t *KdTree) buildTree(
	nodeNum int,
	nodeBounds rmath.BBox3,
	allPrimBounds []rmath.BBox3,
	primNums []int,
	depth int,
	edges [3][]boundEdge,
	prims0, prims1 []int,
	badRefines int,
) {
	for t.nextFreeNode <= nodeNum {
		t.allocNode()
	}

	nPrimitives := len(primNums)
	if nPrimitives <= t.maxPrims || depth == 0 {
		t.nodes[nodeNum].initLeaf(primNums, &t.primitiveIndices)
		return
	}

	// Choose the split axis and position via the SAH edge sweep.
	axis := nodeBounds.MaximumExtent()
	retries := 0
	var bestAxis, bestOffset int
	bestAxis = -1
	var bestCost = math.Inf(1)
	oldCost := isectCost * float64(nPrimitives)
	totalSA := nodeBounds.SurfaceArea()
	invTotalSA := 1.0
	if totalSA > 0 {
		invTotalSA = 1.0 / totalSA
	}
	d := nodeBounds.Diagonal()

	for retries <= 2 {
		for i, pn := range primNums {
			b := allPrimBounds[pn]
			edges[axis][2*i] = boundEdge{t: b.AxisMin(axis), primNum: pn, kind: edgeStart}
			edges[axis][2*i+1] = boundEdge{t: b.AxisMax(axis), primNum: pn, kind: edgeEnd}
		}
		edgeSlice := edges[axis][:2*nPrimitives]
		sort.SliceStable(edgeSlice, func(i, j int) bool {
			if edgeSlice[i].t == edgeSlice[j].t {
				return edgeSlice[i].kind < edgeSlice[j].kind
			}
			return edgeSlice[i].t < edgeSlice[j].t
		})

		otherAxis0 := (axis + 1) % 3
		otherAxis1 := (axis + 2) % 3
		d1 := d.Component(otherAxis0)
		d2 := d.Component(otherAxis1)

		nBelow, nAbove := 0, nPrimitives
		for i := 0; i < 2*nPrimitives; i++ {
			e := edgeSlice[i]
			if e.kind == edgeEnd {
				nAbove--
			}
			if e.t > nodeBounds.AxisMin(axis) && e.t < nodeBounds.AxisMax(axis) {
				belowSA := 2 * (d1*d2 + (e.t-nodeBounds.AxisMin(axis))*(d1+d2))
				aboveSA := 2 * (d1*d2 + (nodeBounds.AxisMax(axis)-e.t)*(d1+d2))
				pBelow := belowSA * invTotalSA
				pAbove := aboveSA * invTotalSA
				eb := 0.0
				if nAbove == 0 || nBelow == 0 {
					eb = emptyBonus
				}
				cost := travCost + isectCost*(1-eb)*(pBelow*float64(nBelow)+pAbove*float64(nAbove))
				if cost < bestCost {
					bestCost = cost
					bestAxis = axis
					bestOffset = i
				}
			}
			if e.kind == edgeStart {
				nBelow++
			}
		}

		if bestAxis != -1 {
			break
		}
		retries++
		axis = (axis + 1) % 3
	}

	if bestCost > oldCost {
		badRefines++
	}
	if (bestCost > 4*oldCost && nPrimitives < 16) || bestAxis == -1 || badRefines == 3 {
		t.nodes[nodeNum].initLeaf(primNums, &t.primitiveIndices)
		return
	}

	edgeSlice := edges[bestAxis][:2*nPrimitives]
	n0, n1 := 0, 0
	for i := 0; i < bestOffset; i++ {
		if edgeSlice[i].kind == edgeStart {
			prims0[n0] = edgeSlice[i].primNum
			n0++
		}
	}
	for i := bestOffset + 1; i < 2*nPrimitives; i++ {
		if edgeSlice[i].kind == edgeEnd {
			prims1[n1] = edgeSlice[i].primNum
			n1++
		}
	}

	tSplit := edgeSlice[bestOffset].t
	bounds0 := nodeBounds
	bounds1 := nodeBounds
	switch bestAxis {
	case 0:
		bounds0.Max.X = tSplit
		bounds1.Min.X = tSplit
	case 1:
		bounds0.Max.Y = tSplit
		bounds1.Min.Y = tSplit
	default:
		bounds0.Max.Z = tSplit
		bounds1.Min.Z = tSplit
	}

	below := append([]int(nil), prims0[:n0]...)
	above := append([]int(nil), prims1[:n1]...)

	t.buildTree(nodeNum+1, bounds0, allPrimBounds, below, depth-1, edges, prims0, prims1[nPrimitives:], badRefines)

	aboveChild := t.allocNode()
	t.nodes[nodeNum].initInterior(bestAxis, aboveChild, tSplit)
	t.buildTree(aboveChild, bounds1, allPrimBounds, above, depth-1, edges, prims0, prims1[nPrimitives:], badRefines)
}

type kdToDo struct {
	node       int
	tMin, tMax float64
}

// Hit performs closest-hit traversal and returns the nearest hit distance
// and its interaction; the caller's ray is not modified.
func (t *KdTree) Hit(ray rmath.Ray) (tHit float64, isect shape.SurfaceInteraction, ok bool) {
	if len(t.nodes) == 0 {
		return 0, shape.SurfaceInteraction{}, false
	}
	tMin, tMax, hitBounds := t.bounds.Hit(ray)
	if !hitBounds {
		return 0, shape.SurfaceInteraction{}, false
	}

	invDir := rmath.NewVec3(1/ray.Direction.X, 1/ray.Direction.Y, 1/ray.Direction.Z)

	var todo [maxTraversalStack]kdToDo
	todoPos := 0
	found := false
	var bestT float64
	var bestIsect shape.SurfaceInteraction

	nodeNum := 0
	workingRay := ray
	for nodeNum != -1 {
		if workingRay.TMax < tMin {
			break
		}
		node := &t.nodes[nodeNum]
		if !node.isLeaf() {
			axis := node.splitAxis()
			var tPlane float64
			if invDir.Component(axis) != 0 {
				tPlane = (node.splitPos - ray.Origin.Component(axis)) * invDir.Component(axis)
			} else {
				tPlane = math.Inf(1)
			}

			belowFirst := ray.Origin.Component(axis) < node.splitPos ||
				(ray.Origin.Component(axis) == node.splitPos && ray.Direction.Component(axis) <= 0)

			var firstChild, secondChild int
			if belowFirst {
				firstChild = nodeNum + 1
				secondChild = node.aboveChild
			} else {
				firstChild = node.aboveChild
				secondChild = nodeNum + 1
			}

			switch {
			case tPlane > tMax || tPlane <= 0:
				nodeNum = firstChild
			case tPlane < tMin:
				nodeNum = secondChild
			default:
				if todoPos < maxTraversalStack {
					todo[todoPos] = kdToDo{node: secondChild, tMin: tPlane, tMax: tMax}
					todoPos++
				} else {
					panic("accel: k-d tree traversal stack exceeded")
				}
				nodeNum = firstChild
				tMax = tPlane
			}
			continue
		}

		// Leaf: test primitives.
		nPrims := int(node.nPrims)
		if nPrims == 1 {
			p := t.primitives[node.onePrimitive]
			if th, is, hok := p.HitInteraction(workingRay); hok {
				found = true
				bestT = th
				bestIsect = is
				workingRay.TMax = th
			}
		} else {
			for i := 0; i < nPrims; i++ {
				primIdx := t.primitiveIndices[node.primsOffset+i]
				p := t.primitives[primIdx]
				if th, is, hok := p.HitInteraction(workingRay); hok {
					found = true
					bestT = th
					bestIsect = is
					workingRay.TMax = th
				}
			}
		}

		if todoPos > 0 {
			todoPos--
			nodeNum = todo[todoPos].node
			tMin = todo[todoPos].tMin
			tMax = todo[todoPos].tMax
		} else {
			break
		}
	}

	if !found {
		return 0, shape.SurfaceInteraction{}, false
	}
	return bestT, bestIsect, true
}

// HitAny performs shadow-ray (any-hit) traversal: returns true on the
// first confirmed intersection, without producing a SurfaceInteraction.
func (t *KdTree) HitAny(ray rmath.Ray) bool {
	if len(t.nodes) == 0 {
		return false
	}
	tMin, tMax, hitBounds := t.bounds.Hit(ray)
	if !hitBounds {
		return false
	}

	invDir := rmath.NewVec3(1/ray.Direction.X, 1/ray.Direction.Y, 1/ray.Direction.Z)

	var todo [maxTraversalStack]kdToDo
	todoPos := 0
	nodeNum := 0
	for nodeNum != -1 {
		if ray.TMax < tMin {
			break
		}
		node := &t.nodes[nodeNum]
		if !node.isLeaf() {
			axis := node.splitAxis()
			var tPlane float64
			if invDir.Component(axis) != 0 {
				tPlane = (node.splitPos - ray.Origin.Component(axis)) * invDir.Component(axis)
			} else {
				tPlane = math.Inf(1)
			}

			belowFirst := ray.Origin.Component(axis) < node.splitPos ||
				(ray.Origin.Component(axis) == node.splitPos && ray.Direction.Component(axis) <= 0)

			var firstChild, secondChild int
			if belowFirst {
				firstChild = nodeNum + 1
				secondChild = node.aboveChild
			} else {
				firstChild = node.aboveChild
				secondChild = nodeNum + 1
			}

			switch {
			case tPlane > tMax || tPlane <= 0:
				nodeNum = firstChild
			case tPlane < tMin:
				nodeNum = secondChild
			default:
				if todoPos < maxTraversalStack {
					todo[todoPos] = kdToDo{node: secondChild, tMin: tPlane, tMax: tMax}
					todoPos++
				} else {
					panic("accel: k-d tree traversal stack exceeded")
				}
				nodeNum = firstChild
				tMax = tPlane
			}
			continue
		}

		nPrims := int(node.nPrims)
		if nPrims == 1 {
			p := t.primitives[node.onePrimitive]
			if p.Hit(ray) {
				return true
			}
		} else {
			for i := 0; i < nPrims; i++ {
				primIdx := t.primitiveIndices[node.primsOffset+i]
				if t.primitives[primIdx].Hit(ray) {
					return true
				}
			}
		}

		if todoPos > 0 {
			todoPos--
			nodeNum = todo[todoPos].node
			tMin = todo[todoPos].tMin
			tMax = todo[todoPos].tMax
		} else {
			break
		}
	}
	return false
}

// WorldBound returns the bound over every primitive in the tree.
func (t *KdTree) WorldBound() rmath.BBox3 { return t.bounds }

// Depth returns the built tree's maximum recursion depth parameter
// (exposed for SAH depth-bound testing).
func (t *KdTree) Depth() int { return t.maxDepth }
