package software

import (
	"errors"
	"math"
	"testing"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

const flatProgram = "test.flat"

// flatShader writes the "colour" uniform to every output at the vertex's
// clip position.
var flatShader = Shader{
	Vertex: func(u *Uniforms, in graphics.Vertex) (mgl32.Vec4, Varying) {
		return in.Position.Vec4(1), Varying{}
	},
	Fragment: func(f *Fragment) bool {
		c := f.Uniforms.Vec3("colour").Vec4(f.Uniforms.Float("alpha"))
		for i := range f.Out {
			f.Out[i] = c
		}
		return true
	},
}

func quad(z float32) graphics.MeshData {
	return graphics.MeshData{
		Vertices: []graphics.Vertex{
			{Position: mgl32.Vec3{-1, -1, z}},
			{Position: mgl32.Vec3{1, -1, z}},
			{Position: mgl32.Vec3{1, 1, z}},
			{Position: mgl32.Vec3{-1, 1, z}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func newTarget(t *testing.T, d *Device, w, h int, formats ...graphics.Format) (graphics.Framebuffer, []graphics.Texture, graphics.Texture) {
	t.Helper()
	var colour []graphics.Texture
	for _, f := range formats {
		tex, err := d.NewTexture(w, h, f, nil)
		if err != nil {
			t.Fatalf("NewTexture(%s): %v", f, err)
		}
		colour = append(colour, tex)
	}
	depth, err := d.NewTexture(w, h, graphics.FormatDepth32F, nil)
	if err != nil {
		t.Fatalf("NewTexture(depth): %v", err)
	}
	fb, err := d.NewFramebuffer(colour, depth)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	return fb, colour, depth
}

func drawQuad(t *testing.T, d *Device, data graphics.MeshData, colour mgl32.Vec3, alpha float32) {
	t.Helper()
	prog, err := d.NewProgram(graphics.ProgramSource{Name: flatProgram})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	defer prog.Delete()
	m, err := d.NewMesh(data)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer m.Delete()

	prog.Start()
	prog.SetVec3("colour", colour)
	prog.SetFloat("alpha", alpha)
	m.Load()
	d.DrawElements(m.VertexCount())
	m.Unload()
	prog.Stop()
}

// near allows one 8-bit step per channel
func near(a, b mgl32.Vec4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1.0/255+1e-6 {
			return false
		}
	}
	return true
}

func TestQuadCoversEveryPixelOnce(t *testing.T) {
	d := NewDevice(4, 4)
	d.RegisterShader(flatProgram, flatShader)
	fb, colour, _ := newTarget(t, d, 4, 4, graphics.FormatRGB32F)

	d.BindFramebuffer(fb)
	d.SetViewport(4, 4)
	d.Apply(graphics.LightingState)
	drawQuad(t, d, quad(0), mgl32.Vec3{0.25, 0, 0}, 0)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := d.Pixel(colour[0], x, y); got[0] != 0.25 {
				t.Fatalf("pixel (%d,%d): got %v, want 0.25 written exactly once", x, y, got)
			}
		}
	}
	draws := d.Draws()
	if len(draws) != 1 || draws[0].Fragments != 16 || draws[0].Program != flatProgram {
		t.Fatalf("unexpected draw record: %+v", draws)
	}
}

func TestAdditiveAndAlphaBlend(t *testing.T) {
	d := NewDevice(2, 2)
	d.RegisterShader(flatProgram, flatShader)
	fb, colour, _ := newTarget(t, d, 2, 2, graphics.FormatRGBA8)
	d.BindFramebuffer(fb)
	d.SetViewport(2, 2)
	d.Clear(mgl32.Vec4{0, 0, 0, 0}, graphics.ClearColour|graphics.ClearDepth)

	d.Apply(graphics.LightingState)
	drawQuad(t, d, quad(0), mgl32.Vec3{0.3, 0, 0}, 0)
	drawQuad(t, d, quad(0), mgl32.Vec3{0, 0.3, 0}, 0)
	if got := d.Pixel(colour[0], 1, 1); !near(got, mgl32.Vec4{0.3, 0.3, 0, 0}) {
		t.Fatalf("additive: got %v, want (0.3, 0.3, 0, 0)", got)
	}

	d.Apply(graphics.OverlayState)
	drawQuad(t, d, quad(0), mgl32.Vec3{1, 1, 1}, 0.5)
	if got := d.Pixel(colour[0], 0, 0); !near(got, mgl32.Vec4{0.65, 0.65, 0.5, 0.25}) {
		t.Fatalf("alpha: got %v", got)
	}
}

func TestCullingFollowsWinding(t *testing.T) {
	cw := quad(0)
	cw.Indices = []uint32{0, 2, 1, 0, 3, 2}

	tests := []struct {
		name  string
		data  graphics.MeshData
		state graphics.State
		drawn bool
	}{
		{"ccw front culled back", quad(0), graphics.GeometryState, true},
		{"cw back culled", cw, graphics.GeometryState, false},
		{"cw front with reversed winding", cw, graphics.VolumeState, true},
		{"ccw back with reversed winding", quad(0), graphics.VolumeState, false},
		{"no culling", cw, graphics.LightingState, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDevice(2, 2)
			d.RegisterShader(flatProgram, flatShader)
			fb, _, _ := newTarget(t, d, 2, 2, graphics.FormatRGBA8)
			d.BindFramebuffer(fb)
			d.Clear(mgl32.Vec4{}, graphics.ClearColour|graphics.ClearDepth)
			d.Apply(tc.state)
			drawQuad(t, d, tc.data, mgl32.Vec3{1, 1, 1}, 1)
			if got := d.Draws()[0].Fragments > 0; got != tc.drawn {
				t.Fatalf("drawn = %t, want %t", got, tc.drawn)
			}
		})
	}
}

func TestDepthTestAndMultipleTargets(t *testing.T) {
	d := NewDevice(2, 2)
	d.RegisterShader(flatProgram, flatShader)
	fb, colour, depth := newTarget(t, d, 2, 2, graphics.FormatRGBA8, graphics.FormatRGB32F)
	d.BindFramebuffer(fb)
	d.Clear(mgl32.Vec4{}, graphics.ClearColour|graphics.ClearDepth)
	d.Apply(graphics.GeometryState)

	drawQuad(t, d, quad(-0.5), mgl32.Vec3{0, 0, 1}, 1)
	drawQuad(t, d, quad(0.5), mgl32.Vec3{1, 0, 0}, 1) // behind, rejected

	if got := d.Pixel(colour[0], 0, 0); !near(got, mgl32.Vec4{0, 0, 1, 1}) {
		t.Errorf("colour 0: got %v", got)
	}
	if got := d.Pixel(colour[1], 0, 0); !near(got, mgl32.Vec4{0, 0, 1, 1}) {
		t.Errorf("colour 1: got %v", got)
	}
	if got := d.Pixel(depth, 1, 1)[0]; math.Abs(float64(got-0.25)) > 1e-6 {
		t.Errorf("depth: got %v, want 0.25", got)
	}
}

func TestNearPlaneClipping(t *testing.T) {
	d := NewDevice(4, 4)
	d.RegisterShader(flatProgram, flatShader)
	fb, _, _ := newTarget(t, d, 4, 4, graphics.FormatRGBA8)
	d.BindFramebuffer(fb)
	d.Apply(graphics.LightingState)

	// One vertex sits behind the eye (w < 0); the visible part must still draw.
	data := graphics.MeshData{
		Vertices: []graphics.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}},
			{Position: mgl32.Vec3{1, -1, 0}},
			{Position: mgl32.Vec3{0, 1, -3}},
		},
		Indices: []uint32{0, 1, 2},
	}
	prog, _ := d.NewProgram(graphics.ProgramSource{Name: flatProgram})
	m, _ := d.NewMesh(data)
	prog.Start()
	m.Load()
	d.DrawElements(3)
	if d.Draws()[0].Fragments == 0 {
		t.Fatal("clipped triangle produced no fragments")
	}
}

func TestResourceLifecycle(t *testing.T) {
	d := NewDevice(2, 2)
	tex, err := d.NewTexture(2, 2, graphics.FormatRGBA8, []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	})
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	if got := d.Pixel(tex, 1, 1); got != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Errorf("uploaded pixel: %v", got)
	}
	img := d.Image(tex)
	if c := img.NRGBAAt(0, 0); c.R != 0 || c.B != 255 {
		t.Errorf("image not flipped to top-first: %v", c)
	}

	tex.Delete()
	tex.Delete()
	if live := d.Live(); live.Textures != 0 {
		t.Errorf("live textures after delete: %d", live.Textures)
	}

	d.FailAllocationAfter(1)
	if _, err := d.NewTexture(1, 1, graphics.FormatRGBA8, nil); err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	if _, err := d.NewTexture(1, 1, graphics.FormatRGBA8, nil); !errors.Is(err, graphics.ErrDeviceAllocation) {
		t.Fatalf("second allocation: got %v, want ErrDeviceAllocation", err)
	}
	if _, err := d.NewTexture(1, 1, graphics.FormatRGBA8, nil); err != nil {
		t.Fatalf("allocation after injected failure: %v", err)
	}

	if _, err := d.NewProgram(graphics.ProgramSource{Name: "missing"}); !errors.Is(err, graphics.ErrShaderCompile) {
		t.Errorf("unknown program: got %v, want ErrShaderCompile", err)
	}
	if _, err := d.NewMesh(graphics.MeshData{Indices: []uint32{0, 1, 2}}); !errors.Is(err, graphics.ErrDeviceAllocation) {
		t.Errorf("out of range indices: got %v", err)
	}
}

func TestLiveCountsEveryKind(t *testing.T) {
	d := NewDevice(4, 4)
	d.RegisterShader(flatProgram, flatShader)

	fb, colour, depth := newTarget(t, d, 2, 2, graphics.FormatRGBA8)
	prog, err := d.NewProgram(graphics.ProgramSource{Name: flatProgram})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	m, err := d.NewMesh(quad(0))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	if got, want := d.Live(), (Resources{Textures: 2, Framebuffers: 1, Programs: 1, Meshes: 1}); got != want {
		t.Fatalf("live after create = %+v, want %+v", got, want)
	}

	m.Delete()
	prog.Delete()
	fb.Delete()
	colour[0].Delete()
	depth.Delete()
	if got := d.Live(); got != (Resources{}) {
		t.Errorf("live after delete = %+v", got)
	}
}

func TestBlitAndInvalidDraws(t *testing.T) {
	d := NewDevice(2, 2)
	d.RegisterShader(flatProgram, flatShader)
	fb, _, _ := newTarget(t, d, 4, 4, graphics.FormatRGBA8)
	d.BindFramebuffer(fb)
	d.Clear(mgl32.Vec4{0, 1, 0, 1}, graphics.ClearColour)
	d.BindFramebuffer(nil)
	d.Blit(fb, 2, 2)
	if got := d.Pixel(d.Screen(), 1, 0); !near(got, mgl32.Vec4{0, 1, 0, 1}) {
		t.Errorf("blitted pixel: %v", got)
	}

	d.DrawElements(3)
	if d.InvalidDraws() != 1 || len(d.Draws()) != 0 {
		t.Errorf("draw without program: invalid=%d draws=%d", d.InvalidDraws(), len(d.Draws()))
	}
	d.ResetRecords()
	if d.InvalidDraws() != 0 {
		t.Errorf("ResetRecords kept invalid draws")
	}
}
