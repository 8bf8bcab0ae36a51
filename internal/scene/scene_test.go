package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"deferred3d/internal/config"
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/camera"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/graphics/renderer"
	"deferred3d/internal/graphics/software"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// checkOutward fails if any triangle of a closed shape centred on the
// origin faces inward.
func checkOutward(t *testing.T, name string, data graphics.MeshData) {
	t.Helper()
	for i := 0; i+2 < len(data.Indices); i += 3 {
		a := data.Vertices[data.Indices[i]].Position
		b := data.Vertices[data.Indices[i+1]].Position
		c := data.Vertices[data.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-9 {
			t.Fatalf("%s: degenerate triangle %d", name, i/3)
		}
		if n.Dot(a.Add(b).Add(c)) <= 0 {
			t.Fatalf("%s: triangle %d winds inward", name, i/3)
		}
	}
}

func vecNear(a, b mgl32.Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestShapesWindOutward(t *testing.T) {
	box := Box(mgl32.Vec3{2, 1, 3})
	if len(box.Vertices) != 24 || len(box.Indices) != 36 {
		t.Errorf("box has %d vertices, %d indices", len(box.Vertices), len(box.Indices))
	}
	checkOutward(t, "box", box)

	sphere := Sphere(8, 12)
	checkOutward(t, "sphere", sphere)
	for _, v := range sphere.Vertices {
		if math.Abs(float64(v.Position.Len()-1)) > 1e-5 {
			t.Fatalf("sphere vertex %v off the unit sphere", v.Position)
		}
	}

	plane := Plane(4, 2)
	n := plane.Vertices[1].Position.Sub(plane.Vertices[0].Position).
		Cross(plane.Vertices[2].Position.Sub(plane.Vertices[0].Position))
	if n[1] <= 0 {
		t.Errorf("plane faces %v, want +Y", n)
	}
}

func TestBoxBoundsAndNormalise(t *testing.T) {
	data := Box(mgl32.Vec3{2, 4, 1})
	lo, hi := Bounds(data)
	if lo != (mgl32.Vec3{-1, -2, -0.5}) || hi != (mgl32.Vec3{1, 2, 0.5}) {
		t.Errorf("bounds = %v %v", lo, hi)
	}

	for i := range data.Vertices {
		data.Vertices[i].Position = data.Vertices[i].Position.Add(mgl32.Vec3{5, 5, 5})
	}
	Normalise(data, 2)
	lo, hi = Bounds(data)
	if !vecNear(lo, mgl32.Vec3{-0.5, -1, -0.25}, 1e-5) || !vecNear(hi, mgl32.Vec3{0.5, 1, 0.25}, 1e-5) {
		t.Errorf("normalised bounds = %v %v", lo, hi)
	}
}

func TestSmoothNormals(t *testing.T) {
	data := Sphere(6, 8)
	SmoothNormals(data)
	for _, v := range data.Vertices {
		if math.Abs(float64(v.Normal.Len()-1)) > 1e-4 {
			t.Fatalf("normal %v not unit", v.Normal)
		}
	}
	// the equator sits between symmetric faces
	v := data.Vertices[3*9+2]
	if v.Normal.Dot(v.Position) < 0.95 {
		t.Errorf("equator normal %v far from radial %v", v.Normal, v.Position)
	}
}

func TestMaterialWithCopies(t *testing.T) {
	base := DefaultMaterial()
	red := base.WithColour(mgl32.Vec3{1, 0, 0}).WithSpecular(1, 16)
	if base.Colour != (mgl32.Vec3{1, 1, 1}) || base.Specular != 0.4 || base.Power != 5 || base.Diffuse != 1 {
		t.Errorf("default material changed: %+v", base)
	}
	if red.Colour != (mgl32.Vec3{1, 0, 0}) || red.Specular != 1 || red.Power != 16 {
		t.Errorf("derived material = %+v", red)
	}
}

func TestMeshObjectDraw(t *testing.T) {
	dev := software.NewDevice(8, 8)
	cam := camera.New(mgl32.Vec3{0, 0, 5})
	r, err := renderer.New(dev, cam, config.Renderer{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()

	mesh, err := dev.NewMesh(Box(mgl32.Vec3{1, 1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Delete()
	tex, err := NewImageTexture(dev, Checker(4, 2, color.NRGBA{255, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Delete()

	o := NewMeshObject(mesh)
	o.Material = o.Material.WithTexture(tex)
	o.Scale = mgl32.Vec3{2, 2, 2}

	if err := r.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawObjects(o); err != nil {
		t.Fatal(err)
	}
	// white × red texture
	if got := dev.Pixel(r.GBuffer().Colour(), 4, 4).Vec3(); got != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("albedo = %v, want red", got)
	}
	if got := dev.Pixel(r.GBuffer().Lighting(), 4, 4).Vec3(); !vecNear(got, mgl32.Vec3{1, 0.4, 5}, 1e-5) {
		t.Errorf("material = %v", got)
	}
	if got := dev.Pixel(r.GBuffer().Position(), 4, 4)[2]; math.Abs(float64(got-1)) > 1e-4 {
		t.Errorf("front face z = %v, want 1", got)
	}
}

func TestMeshObjectTransform(t *testing.T) {
	o := NewMeshObject(nil)
	o.Position = mgl32.Vec3{1, 2, 3}
	o.Rotation = mgl32.Vec3{0, mgl32.DegToRad(90), 0}
	o.Scale = mgl32.Vec3{2, 2, 2}
	got := o.Transform().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	if !vecNear(got, mgl32.Vec3{1, 2, 1}, 1e-5) {
		t.Errorf("transform = %v, want (1, 2, 1)", got)
	}
}

func TestLoadDescription(t *testing.T) {
	dev := software.NewDevice(4, 4)
	s, err := Load(dev, filepath.Join("testdata", "room.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(s.Objects) != 5 || len(s.Lights) != 4 {
		t.Fatalf("objects %d lights %d", len(s.Objects), len(s.Lights))
	}
	if live := dev.Live(); live.Meshes != 4 || live.Textures != 1 {
		t.Errorf("trim boxes should share a mesh: %+v", live)
	}

	trim := s.Objects[2].Material
	want := Material{Colour: mgl32.Vec3{0.9, 0.9, 0.8}, Diffuse: 0.8, Specular: 0.6, Power: 8}
	if trim != want {
		t.Errorf("trim = %+v, want %+v", trim, want)
	}
	if s.Objects[0].Material.Texture == nil {
		t.Error("floor texture not inherited from description")
	}
	if s.Objects[4].Material != DefaultMaterial() {
		t.Errorf("unnamed material = %+v", s.Objects[4].Material)
	}
	if s.Objects[2].Rotation[1] != mgl32.DegToRad(45) {
		t.Errorf("rotation not converted to radians: %v", s.Objects[2].Rotation)
	}
	if s.Objects[4].Scale != (mgl32.Vec3{1, 2, 1}) {
		t.Errorf("scale = %v", s.Objects[4].Scale)
	}

	point := s.Lights[2]
	if point.Kind != lighting.KindPoint || point.Attenuation[1] != 0 {
		t.Errorf("ranged point light = %+v", point)
	}
	r, err := point.VolumeRadius()
	if err != nil || math.Abs(float64(r-6*float32(lighting.VolumeSafetyFactor)*float32(math.Sqrt(float64(point.Intensity))))) > 0.05 {
		t.Errorf("volume radius = %v, %v", r, err)
	}
	if got := s.LightsOf(lighting.KindSpot); len(got) != 1 || got[0].Intensity != 2 {
		t.Errorf("spot lights = %+v", got)
	}
	if got := s.LightsOf(); len(got) != 4 {
		t.Errorf("LightsOf() = %d lights", len(got))
	}

	s.Release()
	s.Release()
	if live := dev.Live(); live != (software.Resources{}) {
		t.Errorf("live after Release = %+v", live)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		desc Description
		want error
	}{
		{"material cycle", Description{
			Materials: map[string]MaterialDescription{"a": {Parent: "b"}, "b": {Parent: "a"}},
			Objects:   []ObjectDescription{{Shape: "box", Material: "a"}},
		}, ErrInvalidDescription},
		{"unknown material", Description{
			Objects: []ObjectDescription{{Shape: "box", Material: "missing"}},
		}, ErrInvalidDescription},
		{"unknown shape", Description{
			Objects: []ObjectDescription{{Shape: "torus"}},
		}, ErrInvalidDescription},
		{"empty object", Description{
			Objects: []ObjectDescription{{}},
		}, ErrInvalidDescription},
		{"unknown light", Description{
			Objects: []ObjectDescription{{Shape: "box"}},
			Lights:  []LightDescription{{Kind: "area"}},
		}, lighting.ErrInvalidLight},
		{"zero direction", Description{
			Lights: []LightDescription{{Kind: "directional"}},
		}, lighting.ErrInvalidLight},
		{"singular range", Description{
			Lights: []LightDescription{{Kind: "point", Range: 4, HalfRange: 4}},
		}, lighting.ErrAttenuationSingular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := software.NewDevice(4, 4)
			s, err := Build(dev, &tt.desc, ".")
			if !errors.Is(err, tt.want) || s != nil {
				t.Errorf("Build = %v, %v; want %v", s, err, tt.want)
			}
			if live := dev.Live(); live != (software.Resources{}) {
				t.Errorf("leaked %+v", live)
			}
		})
	}
}

func TestDemoRenders(t *testing.T) {
	dev := software.NewDevice(32, 24)
	s, err := Demo(dev)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	defer s.Release()

	cam := camera.New(s.CameraPosition)
	cam.SetRotation(s.CameraRotation)
	r, err := renderer.New(dev, cam, config.Renderer{Width: 32, Height: 24, PrecompileLightShaders: true})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()

	if err := s.Render(r, s.Lights); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.Phase() != renderer.PhaseIdle {
		t.Errorf("phase after Render = %s", r.Phase())
	}
	var lit int
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			if c := dev.Pixel(dev.Screen(), x, y); c[0]+c[1]+c[2] > 0.05 {
				lit++
			}
		}
	}
	if lit < 32*24/2 {
		t.Errorf("only %d of %d pixels lit", lit, 32*24)
	}

	// a failing light still closes the frame
	bad := []lighting.Light{{Kind: lighting.Kind(7)}}
	if err := s.Render(r, bad); !errors.Is(err, lighting.ErrInvalidLight) {
		t.Errorf("bad light err = %v", err)
	}
	if r.Phase() != renderer.PhaseIdle {
		t.Errorf("phase after failed Render = %s", r.Phase())
	}
}

func TestRenderEachSkipsRejectedLights(t *testing.T) {
	dev := software.NewDevice(16, 12)
	s, err := Demo(dev)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	defer s.Release()

	r, err := renderer.New(dev, camera.New(s.CameraPosition), config.Renderer{Width: 16, Height: 12})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()

	good := lighting.Ambient(0.2, lighting.White)
	dev.ResetRecords()
	if err := s.Render(r, []lighting.Light{good, good}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := len(dev.Draws())

	bad := lighting.Light{Kind: lighting.Kind(7)}
	var skipped []error
	dev.ResetRecords()
	err = s.RenderEach(r, []lighting.Light{good, bad, good}, func(l lighting.Light, err error) {
		skipped = append(skipped, err)
	})
	if err != nil {
		t.Fatalf("RenderEach: %v", err)
	}
	if len(skipped) != 1 || !errors.Is(skipped[0], lighting.ErrInvalidLight) {
		t.Errorf("skipped = %v", skipped)
	}
	if got := len(dev.Draws()); got != want {
		t.Errorf("draws = %d, want %d", got, want)
	}
	if r.Phase() != renderer.PhaseIdle {
		t.Errorf("phase after RenderEach = %s", r.Phase())
	}

	if err := s.RenderEach(r, []lighting.Light{bad, good}, nil); !errors.Is(err, lighting.ErrInvalidLight) {
		t.Errorf("nil skipped err = %v", err)
	}
	if r.Phase() != renderer.PhaseIdle {
		t.Errorf("phase after failed RenderEach = %s", r.Phase())
	}
}

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	src.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})

	img, err := DecodeImage(encodePNG(t, src), 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("size = %v", img.Bounds())
	}

	// the bottom row uploads first
	pix := texturePixels(img)
	if pix[0] != 0 || pix[2] != 255 {
		t.Errorf("first pixel = %v, want blue", pix[:4])
	}
	if pix[16] != 255 || pix[18] != 0 {
		t.Errorf("first pixel of second row = %v, want red", pix[16:20])
	}

	big := Checker(64, 4, color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 255})
	wide := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	copy(wide.Pix, big.Pix[:len(wide.Pix)])
	small, err := DecodeImage(encodePNG(t, wide), 16)
	if err != nil {
		t.Fatal(err)
	}
	if small.Bounds().Dx() != 16 || small.Bounds().Dy() != 8 {
		t.Errorf("scaled size = %v, want 16x8", small.Bounds())
	}

	if _, err := DecodeImage(bytes.NewReader([]byte("not an image")), 0); err == nil {
		t.Error("garbage decoded")
	}
}

func TestChecker(t *testing.T) {
	a, b := color.NRGBA{1, 1, 1, 255}, color.NRGBA{2, 2, 2, 255}
	img := Checker(8, 4, a, b)
	if img.NRGBAAt(0, 0) != a || img.NRGBAAt(2, 0) != b || img.NRGBAAt(2, 2) != a {
		t.Error("checker pattern wrong")
	}
}

func triangleDocument(withNormals bool) *gltf.Document {
	doc := gltf.NewDocument()
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 0.25}}),
	}
	if withNormals {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "triangle",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 2})),
			Attributes: attrs,
		}},
	}}
	return doc
}

func TestReadGLTF(t *testing.T) {
	data, err := ReadGLTF(triangleDocument(false))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 {
		t.Fatalf("primitives = %d", len(data))
	}
	d := data[0]
	if len(d.Vertices) != 3 || len(d.Indices) != 3 {
		t.Fatalf("vertices %d indices %d", len(d.Vertices), len(d.Indices))
	}
	// generated normals follow the counter-clockwise winding
	if !vecNear(d.Vertices[0].Normal, mgl32.Vec3{0, 0, 1}, 1e-5) {
		t.Errorf("normal = %v", d.Vertices[0].Normal)
	}
	if d.Vertices[2].UV != (mgl32.Vec2{0, 0.75}) {
		t.Errorf("uv = %v, want v flipped", d.Vertices[2].UV)
	}

	if _, err := ReadGLTF(gltf.NewDocument()); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("empty document err = %v", err)
	}
}

func TestLoadGLTF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.glb")
	if err := gltf.SaveBinary(triangleDocument(true), path); err != nil {
		t.Fatal(err)
	}

	dev := software.NewDevice(4, 4)
	meshes, err := LoadGLTF(dev, path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if len(meshes) != 1 || meshes[0].VertexCount() != 3 {
		t.Fatalf("meshes = %v", meshes)
	}
	meshes[0].Delete()

	dev.FailAllocationAfter(0)
	if _, err := LoadGLTF(dev, path); !errors.Is(err, graphics.ErrDeviceAllocation) {
		t.Errorf("failed upload err = %v", err)
	}
	if _, err := LoadGLTF(dev, filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Error("missing file loaded")
	}
}
