package shape

import (
	"math"
	"testing"

	rmath "github.com/lumenray/tracer/pkg/math"
)

func unitSphereAt(center rmath.Vec3) *Sphere {
	toWorld := rmath.Translate(center)
	toObj := toWorld.Inverse()
	return NewSphere(&toWorld, &toObj, 1)
}

func TestSphereHitAndHitInteractionAgree(t *testing.T) {
	s := unitSphereAt(rmath.NewVec3(0, 0, 5))

	cases := []struct {
		name    string
		ray     rmath.Ray
		wantHit bool
	}{
		{"through center", rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1)), true},
		{"misses entirely", rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(1, 0, 0)), false},
		{"tangent graze", rmath.NewRay(rmath.NewVec3(0, 1, 0), rmath.NewVec3(0, 0, 1)), true},
		{"points away", rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, -1)), false},
	}
	for _, c := range cases {
		gotHit := s.Hit(c.ray)
		_, isect, gotHitInteraction := s.HitInteraction(c.ray)
		if gotHit != c.wantHit {
			t.Errorf("%s: Hit() = %v, want %v", c.name, gotHit, c.wantHit)
		}
		if gotHitInteraction != c.wantHit {
			t.Errorf("%s: HitInteraction() ok = %v, want %v", c.name, gotHitInteraction, c.wantHit)
		}
		if gotHit != gotHitInteraction {
			t.Errorf("%s: Hit() and HitInteraction() disagree (%v vs %v)", c.name, gotHit, gotHitInteraction)
		}
		if c.wantHit {
			if d := isect.P.Subtract(s.ObjectToWorld.Point(rmath.Vec3{})).Length(); math.Abs(d-1) > 1e-6 {
				t.Errorf("%s: hit point %v is not on the sphere surface (distance from center %v)", c.name, isect.P, d)
			}
		}
	}
}

func TestSphereHitRespectsTMax(t *testing.T) {
	s := unitSphereAt(rmath.NewVec3(0, 0, 5))
	ray := rmath.NewRayBounded(rmath.NewVec3(0, 0, 0), rmath.NewVec3(0, 0, 1), 3)
	if s.Hit(ray) {
		t.Error("expected no hit when the sphere lies beyond TMax")
	}
}

func TestSphereHitFromInside(t *testing.T) {
	s := unitSphereAt(rmath.NewVec3(0, 0, 0))
	ray := rmath.NewRay(rmath.NewVec3(0, 0, 0), rmath.NewVec3(1, 0, 0))
	tHit, isect, ok := s.HitInteraction(ray)
	if !ok {
		t.Fatal("expected a hit when the ray starts inside the sphere")
	}
	if math.Abs(tHit-1) > 1e-6 {
		t.Errorf("expected exit at t=1, got %v", tHit)
	}
	if isect.N.Dot(ray.Direction) > 0 {
		t.Errorf("expected the face-forwarded normal to oppose the incoming ray direction, got %v", isect.N)
	}
}
