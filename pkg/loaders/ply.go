package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"strconv"
	"strings"

	rmath "github.com/lumenray/tracer/pkg/math"
	"github.com/lumenray/tracer/pkg/shape"
)

// plyHeader is the parsed header of a binary_little_endian PLY file: the
// per-element property lists needed to size and decode the vertex/face
// records that follow it.
type plyHeader struct {
	Format      string
	VertexCount int
	FaceCount   int
	VertexProps []plyProperty
	FaceProps   []plyProperty

	texCoordIndices [2]int
	hasTexCoords    bool
}

type plyProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string
	DataType string
}

// LoadTriangleMesh reads a binary_little_endian PLY file and builds a
// TriangleMesh in world space under objectToWorld. Only triangular faces
// are supported; vertex normals, colors, and other per-vertex properties
// beyond position and texture coordinates are ignored.
func LoadTriangleMesh(filename string, objectToWorld, worldToObject *rmath.Transform) (*shape.TriangleMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaders: open PLY file: %w", err)
	}
	defer file.Close()

	header, headerSize, err := parsePLYHeader(file)
	if err != nil {
		return nil, fmt.Errorf("loaders: parse PLY header: %w", err)
	}
	if header.Format != "binary_little_endian" {
		return nil, fmt.Errorf("loaders: unsupported PLY format %q (only binary_little_endian)", header.Format)
	}
	if _, err := file.Seek(int64(headerSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("loaders: seek to PLY binary data: %w", err)
	}

	localP, uv, err := readPLYVertices(file, header)
	if err != nil {
		return nil, fmt.Errorf("loaders: read PLY vertices: %w", err)
	}
	indices, err := readPLYFaces(file, header)
	if err != nil {
		return nil, fmt.Errorf("loaders: read PLY faces: %w", err)
	}

	worldP := make([]rmath.Vec3, len(localP))
	for i, p := range localP {
		worldP[i] = objectToWorld.Point(p)
	}

	return &shape.TriangleMesh{
		ObjectToWorld: objectToWorld,
		WorldToObject: worldToObject,
		Indices:       indices,
		P:             worldP,
		UV:            uv,
	}, nil
}

func parsePLYHeader(file *os.File) (*plyHeader, int, error) {
	header := &plyHeader{}
	scanner := bufio.NewScanner(file)
	var bytesRead int
	var currentElement string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		bytesRead += len(scanner.Bytes()) + 1

		if line == "end_header" {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 2 {
				header.Format = parts[1]
			}
		case "element":
			if len(parts) < 3 {
				continue
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, 0, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, 0, err
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				idx := len(header.VertexProps) - 1
				switch prop.Name {
				case "u", "s", "texture_u":
					header.hasTexCoords = true
					header.texCoordIndices[0] = idx
				case "v", "t", "texture_v":
					header.hasTexCoords = true
					header.texCoordIndices[1] = idx
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return header, bytesRead, nil
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) < 2 {
		return plyProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return plyProperty{}, fmt.Errorf("invalid list property definition")
		}
		return plyProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return plyProperty{Type: parts[0], Name: parts[1]}, nil
}

func plyTypeSize(t string) int {
	switch t {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

func readPLYFloat(data []byte, offset int, t string) float64 {
	switch t {
	case "float", "float32":
		return float64(stdmath.Float32frombits(binary.LittleEndian.Uint32(data[offset:])))
	case "double", "float64":
		return stdmath.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
	default:
		return 0
	}
}

// readPLYVertices parses the binary vertex block into object-space
// positions and, if present, per-vertex UVs.
func readPLYVertices(file *os.File, header *plyHeader) ([]rmath.Vec3, []rmath.Vec2, error) {
	vertexSize := 0
	offsets := make([]int, len(header.VertexProps))
	for i, p := range header.VertexProps {
		offsets[i] = vertexSize
		vertexSize += plyTypeSize(p.Type)
	}

	buf := make([]byte, vertexSize*header.VertexCount)
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, nil, err
	}

	p := make([]rmath.Vec3, header.VertexCount)
	var uv []rmath.Vec2
	if header.hasTexCoords {
		uv = make([]rmath.Vec2, header.VertexCount)
	}

	xIdx, yIdx, zIdx := -1, -1, -1
	for i, prop := range header.VertexProps {
		switch prop.Name {
		case "x":
			xIdx = i
		case "y":
			yIdx = i
		case "z":
			zIdx = i
		}
	}

	for i := 0; i < header.VertexCount; i++ {
		rec := buf[i*vertexSize : (i+1)*vertexSize]
		var x, y, z float64
		if xIdx >= 0 {
			x = readPLYFloat(rec, offsets[xIdx], header.VertexProps[xIdx].Type)
		}
		if yIdx >= 0 {
			y = readPLYFloat(rec, offsets[yIdx], header.VertexProps[yIdx].Type)
		}
		if zIdx >= 0 {
			z = readPLYFloat(rec, offsets[zIdx], header.VertexProps[zIdx].Type)
		}
		p[i] = rmath.NewVec3(x, y, z)

		if header.hasTexCoords {
			uProp := header.VertexProps[header.texCoordIndices[0]]
			vProp := header.VertexProps[header.texCoordIndices[1]]
			u := readPLYFloat(rec, offsets[header.texCoordIndices[0]], uProp.Type)
			v := readPLYFloat(rec, offsets[header.texCoordIndices[1]], vProp.Type)
			uv[i] = rmath.NewVec2(u, v)
		}
	}
	return p, uv, nil
}

// readPLYFaces parses the binary face block; only the vertex_indices list
// property is interpreted, other per-face properties are skipped.
func readPLYFaces(file *os.File, header *plyHeader) ([]int, error) {
	indices := make([]int, 0, header.FaceCount*3)
	r := bufio.NewReaderSize(file, 1<<20)

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if prop.IsList && prop.Name == "vertex_indices" {
				count, err := readPLYListCount(r, prop.ListType)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				if count != 3 {
					return nil, fmt.Errorf("face %d: only triangular faces supported, got %d vertices", i, count)
				}
				for j := 0; j < 3; j++ {
					idx, err := readPLYIndex(r, prop.DataType)
					if err != nil {
						return nil, fmt.Errorf("face %d: %w", i, err)
					}
					indices = append(indices, idx)
				}
			} else if err := skipPLYProperty(r, prop); err != nil {
				return nil, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
			}
		}
	}
	return indices, nil
}

func readPLYListCount(r *bufio.Reader, listType string) (int, error) {
	switch listType {
	case "uchar", "uint8":
		var c uint8
		err := binary.Read(r, binary.LittleEndian, &c)
		return int(c), err
	case "int", "int32":
		var c int32
		err := binary.Read(r, binary.LittleEndian, &c)
		return int(c), err
	default:
		return 0, fmt.Errorf("unsupported list count type: %s", listType)
	}
}

func readPLYIndex(r *bufio.Reader, dataType string) (int, error) {
	switch dataType {
	case "int", "int32":
		var v int32
		err := binary.Read(r, binary.LittleEndian, &v)
		return int(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(r, binary.LittleEndian, &v)
		return int(v), err
	default:
		return 0, fmt.Errorf("unsupported index type: %s", dataType)
	}
}

func skipPLYProperty(r *bufio.Reader, prop plyProperty) error {
	if !prop.IsList {
		_, err := r.Discard(plyTypeSize(prop.Type))
		return err
	}
	count, err := readPLYListCount(r, prop.ListType)
	if err != nil {
		return err
	}
	_, err = r.Discard(count * plyTypeSize(prop.DataType))
	return err
}
