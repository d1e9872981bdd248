package accel

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/olekukonko/tablewriter"

	"github.com/lumenray/tracer/pkg/shape"
	rmath "github.com/lumenray/tracer/pkg/math"
)

// sphereAt builds a world-space sphere primitive via a translate
// transform, enough for intersection tests that don't probe Sample.
func sphereAt(center rmath.Vec3, radius float64) *shape.Sphere {
	toWorld := rmath.Translate(center)
	toObj := toWorld.Inverse()
	return shape.NewSphere(&toWorld, &toObj, radius)
}

func TestKdTreeHitFindsClosest(t *testing.T) {
	near := sphereAt(rmath.NewVec3(0, 0, 5), 1)
	far := sphereAt(rmath.NewVec3(0, 0, 10), 1)
	tree := NewKdTree([]Primitive{far, near})

	ray := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1))
	tHit, isect, ok := tree.Hit(ray)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(tHit-4) > 1e-6 {
		t.Errorf("expected closest hit at t=4, got %v", tHit)
	}
	if isect.P.Subtract(rmath.NewVec3(0, 0, 4)).Length() > 1e-6 {
		t.Errorf("unexpected hit point %v", isect.P)
	}
}

func TestKdTreeHitAnyShadowRay(t *testing.T) {
	s := sphereAt(rmath.NewVec3(0, 0, 5), 1)
	tree := NewKdTree([]Primitive{s})

	blocked := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1))
	if !tree.HitAny(blocked) {
		t.Error("expected shadow ray to report occlusion")
	}

	clear := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(1, 0, 0))
	if tree.HitAny(clear) {
		t.Error("expected shadow ray in empty direction to report no occlusion")
	}
}

func TestKdTreeMissesEmptyDirection(t *testing.T) {
	s := sphereAt(rmath.NewVec3(0, 0, 5), 1)
	tree := NewKdTree([]Primitive{s})

	ray := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(1, 0, 0))
	if _, _, ok := tree.Hit(ray); ok {
		t.Error("expected no hit")
	}
}

// aabbPrimitive wraps a bare BBox3 as a Primitive for SAH depth/leaf-count
// tests that don't need real geometry.
type aabbPrimitive struct {
	bounds rmath.BBox3
}

func (p *aabbPrimitive) WorldBound() rmath.BBox3 { return p.bounds }
func (p *aabbPrimitive) Hit(ray rmath.Ray) bool   { _, _, ok := p.bounds.Hit(ray); return ok }
func (p *aabbPrimitive) HitInteraction(ray rmath.Ray) (float64, shape.SurfaceInteraction, bool) {
	t0, _, ok := p.bounds.Hit(ray)
	if !ok {
		return 0, shape.SurfaceInteraction{}, false
	}
	return t0, shape.SurfaceInteraction{P: ray.At(t0)}, true
}

func TestKdTreeBuildDepthBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 2000
	prims := make([]Primitive, n)
	for i := 0; i < n; i++ {
		x, y, z := rng.Float64(), rng.Float64(), rng.Float64()
		const s = 0.01
		prims[i] = &aabbPrimitive{bounds: rmath.NewBBox3(
			rmath.NewVec3(x, y, z),
			rmath.NewVec3(x+s, y+s, z+s),
		)}
	}
	tree := NewKdTree(prims)
	maxDepth := int(math.Ceil(8 + 1.3*math.Log2(float64(n))))
	if tree.Depth() > maxDepth {
		t.Errorf("depth bound exceeded: got maxDepth param %d, want <= %d", tree.Depth(), maxDepth)
	}

	total := 0
	for i := range tree.nodes[:tree.nextFreeNode] {
		nd := &tree.nodes[i]
		if nd.isLeaf() {
			total += int(nd.nPrims)
		}
	}
	if total > 4*n {
		t.Errorf("total leaf primitive references = %d, want <= %d", total, 4*n)
	}
}

func TestKdTreeParityWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const numTris = 200
	identity := rmath.Identity()
	mesh := &shape.TriangleMesh{
		ObjectToWorld: &identity,
		WorldToObject: &identity,
	}

	var prims []Primitive
	for i := 0; i < numTris; i++ {
		base := rmath.NewVec3(rng.Float64()*10-5, rng.Float64()*10-5, rng.Float64()*10-5)
		mesh.P = append(mesh.P,
			base,
			base.Add(rmath.NewVec3(rng.Float64(), rng.Float64(), rng.Float64())),
			base.Add(rmath.NewVec3(rng.Float64(), rng.Float64(), rng.Float64())),
		)
		mesh.Indices = append(mesh.Indices, i*3, i*3+1, i*3+2)
		tri := shape.NewTriangle(mesh, i)
		prims = append(prims, tri)
	}
	tree := NewKdTree(prims)

	var mismatchRows []mismatchRow

	mismatches := 0
	const numRays = 2000
	for i := 0; i < numRays; i++ {
		origin := rmath.NewVec3(rng.Float64()*12-6, rng.Float64()*12-6, -10)
		dir := rmath.NewVec3(rng.Float64()*0.4-0.2, rng.Float64()*0.4-0.2, 1).Normalize()
		ray := rmath.NewRay(origin, dir)

		bruteT := math.Inf(1)
		bruteHit := false
		for _, p := range prims {
			if th, _, ok := p.HitInteraction(ray); ok && th < bruteT {
				bruteT = th
				bruteHit = true
			}
		}

		treeT, _, treeHit := tree.Hit(ray)
		mismatched := treeHit != bruteHit || (treeHit && math.Abs(treeT-bruteT) > 1e-6)
		if mismatched {
			mismatches++
			mismatchRows = append(mismatchRows, mismatchRow{i, treeHit, bruteHit, treeT, bruteT})
		}
	}
	if float64(mismatches)/float64(numRays) > 0.0001 {
		t.Errorf("kd-tree/brute-force mismatch rate too high: %d/%d\n%s", mismatches, numRays, mismatchTable(mismatchRows))
	}
}

type mismatchRow struct {
	ray               int
	treeHit, bruteHit bool
	treeT, bruteT     float64
}

// mismatchTable renders a parity-failure table so a failing run shows
// exactly which rays disagreed, instead of just a raw count.
func mismatchTable(rows []mismatchRow) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Ray", "Tree hit", "Brute hit", "Tree t", "Brute t"})
	for _, r := range rows {
		table.Append([]string{
			fmt.Sprintf("%d", r.ray),
			fmt.Sprintf("%t", r.treeHit),
			fmt.Sprintf("%t", r.bruteHit),
			fmt.Sprintf("%.6f", r.treeT),
			fmt.Sprintf("%.6f", r.bruteT),
		})
	}
	table.Render()
	return buf.String()
}
