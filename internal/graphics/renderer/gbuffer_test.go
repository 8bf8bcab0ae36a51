package renderer

import (
	"errors"
	"testing"

	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/software"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewGBufferFormats(t *testing.T) {
	dev := software.NewDevice(4, 4)
	g, err := NewGBuffer(dev, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Destroy()

	want := map[string]struct {
		tex    graphics.Texture
		format graphics.Format
	}{
		"colour":   {g.Colour(), graphics.FormatRGBA8},
		"position": {g.Position(), graphics.FormatRGB32F},
		"normal":   {g.Normal(), graphics.FormatRGB32F},
		"lighting": {g.Lighting(), graphics.FormatRGB32F},
		"depth":    {g.Depth(), graphics.FormatDepth32F},
	}
	for name, w := range want {
		if w.tex.Format() != w.format {
			t.Errorf("%s format = %s, want %s", name, w.tex.Format(), w.format)
		}
		if w.tex.Width() != 7 || w.tex.Height() != 5 {
			t.Errorf("%s size = %dx%d", name, w.tex.Width(), w.tex.Height())
		}
	}
	if live := dev.Live(); live.Textures != 5 || live.Framebuffers != 1 {
		t.Errorf("live = %+v", live)
	}
}

func TestGBufferBindRead(t *testing.T) {
	dev := software.NewDevice(4, 4)
	g, err := NewGBuffer(dev, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Destroy()

	// a probe shader reads each sampler at a fixed uv
	var seen [4]mgl32.Vec4
	dev.RegisterShader("test.probe", software.Shader{
		Vertex: func(u *software.Uniforms, in graphics.Vertex) (mgl32.Vec4, software.Varying) {
			return in.Position.Vec4(1), software.Varying{}
		},
		Fragment: func(f *software.Fragment) bool {
			for i, name := range graphics.GBufferSamplers {
				seen[i] = f.Sample(name, mgl32.Vec2{0.5, 0.5})
			}
			return false
		},
	})
	p, err := dev.NewProgram(graphics.ProgramSource{Name: "test.probe"})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Delete()
	for slot, name := range graphics.GBufferSamplers {
		p.SetInt(name, int32(slot))
	}
	quad, err := dev.NewMesh(screenQuad())
	if err != nil {
		t.Fatal(err)
	}
	defer quad.Delete()

	g.BindWrite()
	dev.Clear(mgl32.Vec4{0.25, 0.5, 0.75, 1}, graphics.ClearColour)
	g.UnbindWrite()

	g.BindRead()
	p.Start()
	quad.Load()
	dev.DrawElements(quad.VertexCount())
	quad.Unload()
	p.Stop()
	g.UnbindRead()

	for i, v := range seen {
		if !nearVec3(v.Vec3(), mgl32.Vec3{0.25, 0.5, 0.75}, tolerance) {
			t.Errorf("sampler %d read %v", i, v)
		}
	}
}

func TestNewGBufferFailureReleases(t *testing.T) {
	for n := 0; n < 6; n++ {
		dev := software.NewDevice(4, 4)
		dev.FailAllocationAfter(n)
		g, err := NewGBuffer(dev, 4, 4)
		if !errors.Is(err, graphics.ErrDeviceAllocation) || g != nil {
			t.Fatalf("fail after %d: g=%v err=%v", n, g, err)
		}
		if live := dev.Live(); live != (software.Resources{}) {
			t.Errorf("fail after %d: leaked %+v", n, live)
		}
	}
}

func TestGBufferDestroyTwice(t *testing.T) {
	dev := software.NewDevice(4, 4)
	g, err := NewGBuffer(dev, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	g.Destroy()
	g.Destroy()
	if live := dev.Live(); live != (software.Resources{}) {
		t.Errorf("live = %+v", live)
	}
}

func TestIcosphereWindsOutward(t *testing.T) {
	data := icosphere(sphereSubdivisions)
	if len(data.Indices) != 320*3 {
		t.Fatalf("faces = %d, want 320", len(data.Indices)/3)
	}
	for i := 0; i < len(data.Indices); i += 3 {
		a := data.Vertices[data.Indices[i]].Position
		b := data.Vertices[data.Indices[i+1]].Position
		c := data.Vertices[data.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		if n.Dot(centroid) <= 0 {
			t.Fatalf("face %d winds inward", i/3)
		}
		// the face plane stays outside the unit sphere
		if d := n.Normalize().Dot(a); d < 1-1e-5 {
			t.Fatalf("face %d plane at %v, inside unit sphere", i/3, d)
		}
	}
}

func TestScreenQuadCoversViewport(t *testing.T) {
	dev := software.NewDevice(5, 3)
	r, err := dev.NewProgram(graphics.ProgramSource{Name: graphics.ProgramAmbientLight})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Delete()
	quad, err := dev.NewMesh(screenQuad())
	if err != nil {
		t.Fatal(err)
	}
	defer quad.Delete()

	r.SetMat4("transform", mgl32.Ident4())
	r.SetVec2("screenSize", mgl32.Vec2{5, 3})
	dev.Apply(graphics.LightingState)
	r.Start()
	quad.Load()
	dev.DrawElements(quad.VertexCount())

	draws := dev.Draws()
	if len(draws) != 1 || draws[0].Fragments != 15 {
		t.Errorf("draws = %+v, want one draw of 15 fragments", draws)
	}
}
