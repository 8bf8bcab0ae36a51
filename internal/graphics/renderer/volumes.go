package renderer

import (
	"math"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// sphereSubdivisions refines the light-volume icosphere to 320 faces.
const sphereSubdivisions = 2

// screenQuad covers clip space at z = 0, counter-clockwise.
func screenQuad() graphics.MeshData {
	n := mgl32.Vec3{0, 0, 1}
	return graphics.MeshData{
		Vertices: []graphics.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}, Normal: n, UV: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{1, -1, 0}, Normal: n, UV: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{1, 1, 0}, Normal: n, UV: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{-1, 1, 0}, Normal: n, UV: mgl32.Vec2{0, 1}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// icosphere returns a unit sphere whose faces wind counter-clockwise seen
// from outside. Vertices are scaled so the faces, not the vertices, enclose
// the unit sphere.
func icosphere(subdivisions int) graphics.MeshData {
	t := float32((1 + math.Sqrt(5)) / 2)
	positions := []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i, p := range positions {
		positions[i] = p.Normalize()
	}
	faces := [][3]uint32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		midpoints := make(map[[2]uint32]uint32)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if i, ok := midpoints[key]; ok {
				return i
			}
			positions = append(positions, positions[a].Add(positions[b]).Normalize())
			i := uint32(len(positions) - 1)
			midpoints[key] = i
			return i
		}

		next := make([][3]uint32, 0, len(faces)*4)
		for _, f := range faces {
			ab, bc, ca := midpoint(f[0], f[1]), midpoint(f[1], f[2]), midpoint(f[2], f[0])
			next = append(next,
				[3]uint32{f[0], ab, ca},
				[3]uint32{f[1], bc, ab},
				[3]uint32{f[2], ca, bc},
				[3]uint32{ab, bc, ca},
			)
		}
		faces = next
	}

	// Push vertices out so the nearest face plane touches the unit sphere.
	inset := float32(1)
	for _, f := range faces {
		a, b, c := positions[f[0]], positions[f[1]], positions[f[2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		inset = min(inset, n.Dot(a))
	}

	data := graphics.MeshData{
		Vertices: make([]graphics.Vertex, len(positions)),
		Indices:  make([]uint32, 0, len(faces)*3),
	}
	for i, p := range positions {
		data.Vertices[i] = graphics.Vertex{Position: p.Mul(1 / inset), Normal: p}
	}
	for _, f := range faces {
		data.Indices = append(data.Indices, f[0], f[1], f[2])
	}
	return data
}
