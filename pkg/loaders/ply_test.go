package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	rmath "github.com/lumenray/tracer/pkg/math"
)

// writeTestPLY writes a square (two triangles, four vertices, optionally
// textured) binary_little_endian PLY file to filename.
func writeTestPLY(t *testing.T, filename string, includeUV bool) {
	t.Helper()
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeUV {
		buf.WriteString("property float u\n")
		buf.WriteString("property float v\n")
	}
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	verts := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, v := range verts {
		binary.Write(&buf, binary.LittleEndian, v[0])
		binary.Write(&buf, binary.LittleEndian, v[1])
		binary.Write(&buf, binary.LittleEndian, float32(0))
		if includeUV {
			binary.Write(&buf, binary.LittleEndian, v[0])
			binary.Write(&buf, binary.LittleEndian, v[1])
		}
	}

	faces := [][4]int32{{3, 0, 1, 2}, {3, 0, 2, 3}}
	for _, f := range faces {
		binary.Write(&buf, binary.LittleEndian, uint8(f[0]))
		binary.Write(&buf, binary.LittleEndian, f[1])
		binary.Write(&buf, binary.LittleEndian, f[2])
		binary.Write(&buf, binary.LittleEndian, f[3])
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test PLY: %v", err)
	}
}

func TestLoadTriangleMeshReadsVerticesAndFaces(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "square.ply")
	writeTestPLY(t, filename, false)

	identity := rmath.Identity()
	mesh, err := LoadTriangleMesh(filename, &identity, &identity)
	if err != nil {
		t.Fatalf("LoadTriangleMesh: %v", err)
	}

	if len(mesh.P) != 4 {
		t.Fatalf("got %d vertices, want 4", len(mesh.P))
	}
	if len(mesh.Indices) != 6 {
		t.Fatalf("got %d indices, want 6 (2 triangles)", len(mesh.Indices))
	}
	want := rmath.NewVec3(1, 1, 0)
	got := mesh.P[2]
	if got.Subtract(want).Length() > 1e-6 {
		t.Errorf("vertex 2 = %+v, want %+v", got, want)
	}
}

func TestLoadTriangleMeshReadsUV(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "textured.ply")
	writeTestPLY(t, filename, true)

	identity := rmath.Identity()
	mesh, err := LoadTriangleMesh(filename, &identity, &identity)
	if err != nil {
		t.Fatalf("LoadTriangleMesh: %v", err)
	}
	if mesh.UV == nil {
		t.Fatal("expected UV coordinates to be populated")
	}
	if mesh.UV[1].X != 1 || mesh.UV[1].Y != 0 {
		t.Errorf("UV[1] = %+v, want (1,0)", mesh.UV[1])
	}
}

func TestLoadTriangleMeshAppliesTransform(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "offset.ply")
	writeTestPLY(t, filename, false)

	toWorld := rmath.Translate(rmath.NewVec3(10, 0, 0))
	toObj := toWorld.Inverse()
	mesh, err := LoadTriangleMesh(filename, &toWorld, &toObj)
	if err != nil {
		t.Fatalf("LoadTriangleMesh: %v", err)
	}
	if mesh.P[0].X != 10 {
		t.Errorf("vertex 0 X = %v, want 10 after translate", mesh.P[0].X)
	}
}

func TestLoadTriangleMeshRejectsNonTriangularFaces(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "quad.ply")

	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")
	for i := 0; i < 4; i++ {
		binary.Write(&buf, binary.LittleEndian, float32(i))
		binary.Write(&buf, binary.LittleEndian, float32(i))
		binary.Write(&buf, binary.LittleEndian, float32(0))
	}
	binary.Write(&buf, binary.LittleEndian, uint8(4))
	for i := int32(0); i < 4; i++ {
		binary.Write(&buf, binary.LittleEndian, i)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test PLY: %v", err)
	}

	identity := rmath.Identity()
	if _, err := LoadTriangleMesh(filename, &identity, &identity); err == nil {
		t.Fatal("expected an error for a non-triangular face")
	}
}
