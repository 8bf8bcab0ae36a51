package scene

import (
	"math"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Every shape winds counter-clockwise seen from outside.

type boxFace struct{ n, u, v mgl32.Vec3 }

// u × v = n for every face
var boxFaces = [6]boxFace{
	{n: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
	{n: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
	{n: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{n: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Box returns an axis-aligned box centred on the origin with flat normals
func Box(size mgl32.Vec3) graphics.MeshData {
	half := size.Mul(0.5)
	data := graphics.MeshData{
		Vertices: make([]graphics.Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, f := range boxFaces {
		c, u, v := mulElem(f.n, half), mulElem(f.u, half), mulElem(f.v, half)
		base := uint32(len(data.Vertices))
		data.Vertices = append(data.Vertices,
			graphics.Vertex{Position: c.Sub(u).Sub(v), Normal: f.n, UV: mgl32.Vec2{0, 0}},
			graphics.Vertex{Position: c.Add(u).Sub(v), Normal: f.n, UV: mgl32.Vec2{1, 0}},
			graphics.Vertex{Position: c.Add(u).Add(v), Normal: f.n, UV: mgl32.Vec2{1, 1}},
			graphics.Vertex{Position: c.Sub(u).Add(v), Normal: f.n, UV: mgl32.Vec2{0, 1}},
		)
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return data
}

// Plane returns a square in the XZ plane facing +Y. The texture repeats
// tiles times along each side.
func Plane(size, tiles float32) graphics.MeshData {
	h := size / 2
	n := mgl32.Vec3{0, 1, 0}
	return graphics.MeshData{
		Vertices: []graphics.Vertex{
			{Position: mgl32.Vec3{-h, 0, h}, Normal: n, UV: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{h, 0, h}, Normal: n, UV: mgl32.Vec2{tiles, 0}},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: n, UV: mgl32.Vec2{tiles, tiles}},
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: n, UV: mgl32.Vec2{0, tiles}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Sphere returns a unit-radius UV sphere with smooth normals
func Sphere(rings, segments int) graphics.MeshData {
	rings, segments = max(rings, 2), max(segments, 3)
	var data graphics.MeshData

	for i := 0; i <= rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		for j := 0; j <= segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			p := mgl32.Vec3{
				float32(math.Sin(phi) * math.Sin(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Cos(theta)),
			}
			data.Vertices = append(data.Vertices, graphics.Vertex{
				Position: p,
				Normal:   p,
				UV:       mgl32.Vec2{float32(j) / float32(segments), 1 - float32(i)/float32(rings)},
			})
		}
	}

	stride := uint32(segments + 1)
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i)*stride + uint32(j)
			b, c, d := a+stride, a+stride+1, a+1
			// the rows touching the poles collapse one triangle of each quad
			if i != rings-1 {
				data.Indices = append(data.Indices, a, b, c)
			}
			if i != 0 {
				data.Indices = append(data.Indices, a, c, d)
			}
		}
	}
	return data
}

// SmoothNormals replaces every normal with the area-weighted average of the
// faces sharing the vertex
func SmoothNormals(data graphics.MeshData) {
	for i := range data.Vertices {
		data.Vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(data.Indices); i += 3 {
		a, b, c := data.Indices[i], data.Indices[i+1], data.Indices[i+2]
		pa, pb, pc := data.Vertices[a].Position, data.Vertices[b].Position, data.Vertices[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		for _, k := range [3]uint32{a, b, c} {
			data.Vertices[k].Normal = data.Vertices[k].Normal.Add(n)
		}
	}
	for i, v := range data.Vertices {
		if l := v.Normal.Len(); l > 0 {
			data.Vertices[i].Normal = v.Normal.Mul(1 / l)
		} else {
			data.Vertices[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

// Bounds returns the axis-aligned box enclosing every vertex
func Bounds(data graphics.MeshData) (lo, hi mgl32.Vec3) {
	if len(data.Vertices) == 0 {
		return lo, hi
	}
	lo, hi = data.Vertices[0].Position, data.Vertices[0].Position
	for _, v := range data.Vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	return lo, hi
}

// Normalise centres the mesh on the origin and scales its largest
// dimension to size
func Normalise(data graphics.MeshData, size float32) {
	lo, hi := Bounds(data)
	centre := lo.Add(hi).Mul(0.5)
	extent := hi.Sub(lo)
	largest := max(extent[0], extent[1], extent[2])
	scale := float32(1)
	if largest > 0 {
		scale = size / largest
	}
	for i, v := range data.Vertices {
		data.Vertices[i].Position = v.Position.Sub(centre).Mul(scale)
	}
}
