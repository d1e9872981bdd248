package scene

import (
	"testing"

	rmath "github.com/lumenray/tracer/pkg/math"
)

func TestParseTransformTranslate(t *testing.T) {
	tr, err := parseTransform([]float64{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("parseTransform: %v", err)
	}
	got := tr.Point(rmath.NewVec3(0, 0, 0))
	want := rmath.NewVec3(1, 2, 3)
	if got.Subtract(want).Length() > 1e-9 {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseTransformScale(t *testing.T) {
	tr, err := parseTransform([]float64{1, 2, 2, 2})
	if err != nil {
		t.Fatalf("parseTransform: %v", err)
	}
	got := tr.Point(rmath.NewVec3(1, 1, 1))
	want := rmath.NewVec3(2, 2, 2)
	if got.Subtract(want).Length() > 1e-9 {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestParseTransformAppliesInReverseOrderOfAccumulation: translate then
// scale listed in that order means scale is applied to the point first
// (it's last in the stream), then translate.
func TestParseTransformAppliesInReverseOrderOfAccumulation(t *testing.T) {
	tr, err := parseTransform([]float64{0, 10, 0, 0, 1, 2, 2, 2})
	if err != nil {
		t.Fatalf("parseTransform: %v", err)
	}
	got := tr.Point(rmath.NewVec3(1, 0, 0))
	want := rmath.NewVec3(12, 0, 0) // scale to (2,0,0), then translate +10 in x
	if got.Subtract(want).Length() > 1e-9 {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseTransformRotate(t *testing.T) {
	tr, err := parseTransform([]float64{2, 0, 0, 1, 90})
	if err != nil {
		t.Fatalf("parseTransform: %v", err)
	}
	got := tr.Point(rmath.NewVec3(1, 0, 0))
	want := rmath.NewVec3(0, 1, 0)
	if got.Subtract(want).Length() > 1e-6 {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseTransformEmptyIsIdentity(t *testing.T) {
	tr, err := parseTransform(nil)
	if err != nil {
		t.Fatalf("parseTransform: %v", err)
	}
	p := rmath.NewVec3(3, 4, 5)
	if tr.Point(p).Subtract(p).Length() > 1e-9 {
		t.Errorf("expected identity for empty token stream")
	}
}

func TestParseTransformRejectsUnknownOpcode(t *testing.T) {
	if _, err := parseTransform([]float64{9, 1, 2, 3}); err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
}

func TestParseTransformRejectsTruncatedOpcode(t *testing.T) {
	if _, err := parseTransform([]float64{0, 1, 2}); err == nil {
		t.Fatal("expected an error for a truncated translate opcode")
	}
}
