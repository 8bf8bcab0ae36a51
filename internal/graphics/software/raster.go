package software

import (
	"math"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

type clipVertex struct {
	pos mgl32.Vec4
	v   Varying
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	v       Varying
}

// rasterise draws count indices of the loaded mesh into the bound target and
// returns the number of fragments written.
func (d *Device) rasterise(count int32) int {
	m := d.mesh
	p := d.program
	n := min(int(count), len(m.indices))
	n -= n % 3

	clip := make([]clipVertex, len(m.vertices))
	shaded := make([]bool, len(m.vertices))
	vertex := func(i uint32) clipVertex {
		if !shaded[i] {
			pos, v := p.shader.Vertex(p.uniforms, m.vertices[i])
			clip[i] = clipVertex{pos: pos, v: v}
			shaded[i] = true
		}
		return clip[i]
	}

	written := 0
	for i := 0; i < n; i += 3 {
		poly := clipNear([]clipVertex{vertex(m.indices[i]), vertex(m.indices[i+1]), vertex(m.indices[i+2])})
		for k := 1; k+1 < len(poly); k++ {
			written += d.triangle(poly[0], poly[k], poly[k+1])
		}
	}
	return written
}

// clipNear clips a polygon against the near plane z = -w.
func clipNear(in []clipVertex) []clipVertex {
	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := a.pos[2]+a.pos[3], b.pos[2]+b.pos[3]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVertex{
				pos: a.pos.Mul(1 - t).Add(b.pos.Mul(t)),
				v:   lerpVarying(a.v, b.v, t),
			})
		}
	}
	return out
}

func (d *Device) toScreen(c clipVertex) (screenVertex, bool) {
	w := c.pos[3]
	if w <= 1e-7 {
		return screenVertex{}, false
	}
	vw, vh := float32(d.viewport[0]), float32(d.viewport[1])
	return screenVertex{
		x:    (c.pos[0]/w + 1) * 0.5 * vw,
		y:    (c.pos[1]/w + 1) * 0.5 * vh,
		z:    (c.pos[2]/w + 1) * 0.5,
		invW: 1 / w,
		v:    c.v,
	}, true
}

// edge is positive when p lies left of a->b with y pointing up.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// ownsEdge breaks ties for pixel centres exactly on an edge so triangles
// sharing it never both write the pixel.
func ownsEdge(a, b screenVertex) bool {
	dy := b.y - a.y
	return dy < 0 || (dy == 0 && b.x-a.x < 0)
}

func covers(w float32, a, b screenVertex) bool {
	return w > 0 || (w == 0 && ownsEdge(a, b))
}

func (d *Device) triangle(c0, c1, c2 clipVertex) int {
	s0, ok0 := d.toScreen(c0)
	s1, ok1 := d.toScreen(c1)
	s2, ok2 := d.toScreen(c2)
	if !ok0 || !ok1 || !ok2 {
		return 0
	}

	area := edge(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)
	if area == 0 || math.IsNaN(float64(area)) {
		return 0
	}
	ccw := area > 0
	front := ccw == (d.state.FrontFace == graphics.WindingCCW)
	switch d.state.Cull {
	case graphics.CullBack:
		if !front {
			return 0
		}
	case graphics.CullFront:
		if front {
			return 0
		}
	}
	if !ccw {
		s1, s2 = s2, s1
		area = -area
	}

	fb := d.current()
	maxX := min(d.viewport[0], fb.width) - 1
	maxY := min(d.viewport[1], fb.height) - 1
	minPx := clampInt(int(math.Floor(float64(min(s0.x, s1.x, s2.x)))), 0, maxX+1)
	maxPx := clampInt(int(math.Ceil(float64(max(s0.x, s1.x, s2.x)))), -1, maxX)
	minPy := clampInt(int(math.Floor(float64(min(s0.y, s1.y, s2.y)))), 0, maxY+1)
	maxPy := clampInt(int(math.Ceil(float64(max(s0.y, s1.y, s2.y)))), -1, maxY)

	p := d.program
	written := 0
	for y := minPy; y <= maxPy; y++ {
		for x := minPx; x <= maxPx; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5

			w0 := edge(s1.x, s1.y, s2.x, s2.y, px, py)
			w1 := edge(s2.x, s2.y, s0.x, s0.y, px, py)
			w2 := edge(s0.x, s0.y, s1.x, s1.y, px, py)
			if !covers(w0, s1, s2) || !covers(w1, s2, s0) || !covers(w2, s0, s1) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area

			z := l0*s0.z + l1*s1.z + l2*s2.z
			if z < 0 || z > 1 {
				continue
			}
			depthTest := d.state.DepthTest && fb.depth != nil
			if depthTest && z >= fb.depth.at(x, y)[0] {
				continue
			}

			// perspective-correct interpolation
			q0, q1, q2 := l0*s0.invW, l1*s1.invW, l2*s2.invW
			iw := q0 + q1 + q2
			in := s0.v.scale(q0 / iw).add(s1.v.scale(q1 / iw)).add(s2.v.scale(q2 / iw))

			frag := Fragment{Coord: mgl32.Vec2{px, py}, In: in, Uniforms: p.uniforms, dev: d}
			if !p.shader.Fragment(&frag) {
				continue
			}

			if depthTest && d.state.DepthWrite {
				fb.depth.set(x, y, mgl32.Vec4{z})
			}
			for i, t := range fb.colour {
				t.set(x, y, blend(d.state.Blend, frag.Out[i], t.at(x, y)))
			}
			written++
		}
	}
	return written
}

func blend(mode graphics.BlendMode, src, dst mgl32.Vec4) mgl32.Vec4 {
	switch mode {
	case graphics.BlendAdditive:
		return src.Add(dst)
	case graphics.BlendAlpha:
		a := src[3]
		return src.Mul(a).Add(dst.Mul(1 - a))
	}
	return src
}
