package scene

import (
	"errors"
	"fmt"

	"deferred3d/internal/graphics"
	"deferred3d/internal/logging"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoGeometry is returned when a glTF document has no triangle primitives.
var ErrNoGeometry = errors.New("scene: no triangle geometry")

// ReadGLTF converts every triangle primitive in doc to mesh data. Node
// transforms are not applied. Missing normals are generated and texture
// coordinates are flipped to a bottom-left origin.
func ReadGLTF(doc *gltf.Document) ([]graphics.MeshData, error) {
	var out []graphics.MeshData
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				logging.Logger().Debug("gltf primitive skipped", "mesh", mi, "primitive", pi, "mode", prim.Mode)
				continue
			}
			data, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d (%s) primitive %d: %w", mi, m.Name, pi, err)
			}
			out = append(out, data)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoGeometry
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (graphics.MeshData, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return graphics.MeshData{}, errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return graphics.MeshData{}, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return graphics.MeshData{}, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return graphics.MeshData{}, fmt.Errorf("texture coordinates: %w", err)
		}
	}

	data := graphics.MeshData{Vertices: make([]graphics.Vertex, len(positions))}
	for i, p := range positions {
		v := graphics.Vertex{Position: mgl32.Vec3(p)}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
		data.Vertices[i] = v
	}

	if prim.Indices != nil {
		if data.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return graphics.MeshData{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		data.Indices = make([]uint32, len(positions)/3*3)
		for i := range data.Indices {
			data.Indices[i] = uint32(i)
		}
	}
	if len(data.Indices)%3 != 0 {
		return graphics.MeshData{}, fmt.Errorf("%d indices is not a whole number of triangles", len(data.Indices))
	}
	for _, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return graphics.MeshData{}, fmt.Errorf("index %d out of range of %d vertices", idx, len(data.Vertices))
		}
	}

	if len(normals) < len(positions) {
		SmoothNormals(data)
	}
	return data, nil
}

// LoadGLTFData reads a .gltf or .glb file.
func LoadGLTFData(path string) ([]graphics.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	data, err := ReadGLTF(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}
	return data, nil
}

// LoadGLTF reads a .gltf or .glb file and uploads each primitive as a mesh.
// Meshes already uploaded are released if a later one fails.
func LoadGLTF(dev graphics.Device, path string) ([]graphics.Mesh, error) {
	data, err := LoadGLTFData(path)
	if err != nil {
		return nil, err
	}
	meshes := make([]graphics.Mesh, 0, len(data))
	for i, d := range data {
		m, err := dev.NewMesh(d)
		if err != nil {
			for _, done := range meshes {
				done.Delete()
			}
			return nil, fmt.Errorf("gltf %q primitive %d: %w", path, i, err)
		}
		meshes = append(meshes, m)
	}
	logging.Logger().Debug("gltf loaded", "path", path, "primitives", len(meshes))
	return meshes, nil
}
