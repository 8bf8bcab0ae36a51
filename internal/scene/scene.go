package scene

import (
	"fmt"
	"image/color"
	"path/filepath"

	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/graphics/renderer"
	"deferred3d/internal/logging"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	checkerTexture = "checker"
	maxTextureSize = 1024
	modelSize      = 2
	sphereRings    = 16
	sphereSegments = 32
)

var (
	checkerLight = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	checkerDark  = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
)

// Scene owns the meshes and textures of its objects and the lights drawn
// over them.
type Scene struct {
	Objects []*MeshObject
	Lights  []lighting.Light

	// CameraPosition and CameraRotation (radians) are the described viewpoint.
	CameraPosition mgl32.Vec3
	CameraRotation mgl32.Vec3

	meshes   []graphics.Mesh
	textures []graphics.Texture
}

// Build uploads everything d describes. Relative paths resolve against dir.
// Nothing stays allocated on failure.
func Build(dev graphics.Device, d *Description, dir string) (*Scene, error) {
	b := &builder{
		dev:       dev,
		dir:       dir,
		resolver:  newMaterialResolver(d.Materials),
		shapes:    make(map[string]graphics.Mesh),
		models:    make(map[string][]graphics.Mesh),
		textures:  make(map[string]graphics.Texture),
		materials: make(map[string]Material),
		scene: &Scene{
			CameraPosition: d.Camera.Position,
			CameraRotation: degrees(d.Camera.Rotation),
		},
	}
	if err := b.build(d); err != nil {
		b.scene.Release()
		return nil, err
	}
	logging.Logger().Debug("scene built",
		"objects", len(b.scene.Objects), "lights", len(b.scene.Lights), "meshes", len(b.scene.meshes))
	return b.scene, nil
}

// Load reads and builds the scene file at path
func Load(dev graphics.Device, path string) (*Scene, error) {
	d, err := ReadDescription(path)
	if err != nil {
		return nil, err
	}
	return Build(dev, d, filepath.Dir(path))
}

type builder struct {
	dev       graphics.Device
	dir       string
	resolver  *materialResolver
	shapes    map[string]graphics.Mesh
	models    map[string][]graphics.Mesh
	textures  map[string]graphics.Texture
	materials map[string]Material
	scene     *Scene
}

func (b *builder) build(d *Description) error {
	for i, od := range d.Objects {
		if err := b.object(od); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
	}
	for i, ld := range d.Lights {
		l, err := ld.Light()
		if err != nil {
			return fmt.Errorf("light %d: %w", i, err)
		}
		b.scene.Lights = append(b.scene.Lights, l)
	}
	return nil
}

func (b *builder) object(od ObjectDescription) error {
	material, err := b.material(od.Material)
	if err != nil {
		return err
	}

	var meshes []graphics.Mesh
	switch {
	case od.Model != "":
		if meshes, err = b.model(od.Model); err != nil {
			return err
		}
	case od.Shape != "":
		m, err := b.shape(od.Shape, od.Size)
		if err != nil {
			return err
		}
		meshes = []graphics.Mesh{m}
	default:
		return fmt.Errorf("%w: object needs a shape or a model", ErrInvalidDescription)
	}

	for _, m := range meshes {
		o := NewMeshObject(m)
		o.Material = material
		o.Position = od.Position
		o.Rotation = degrees(od.Rotation)
		if od.Scale != nil {
			o.Scale = *od.Scale
		}
		b.scene.Objects = append(b.scene.Objects, o)
	}
	return nil
}

func (b *builder) material(name string) (Material, error) {
	if name == "" {
		return DefaultMaterial(), nil
	}
	if m, ok := b.materials[name]; ok {
		return m, nil
	}
	desc, err := b.resolver.resolve(name)
	if err != nil {
		return Material{}, err
	}
	m := desc.apply(DefaultMaterial())
	if desc.Texture != "" {
		if m.Texture, err = b.texture(desc.Texture); err != nil {
			return Material{}, fmt.Errorf("material %q: %w", name, err)
		}
	}
	b.materials[name] = m
	return m, nil
}

func (b *builder) texture(name string) (graphics.Texture, error) {
	if t, ok := b.textures[name]; ok {
		return t, nil
	}
	var (
		t   graphics.Texture
		err error
	)
	if name == checkerTexture {
		t, err = NewImageTexture(b.dev, Checker(64, 8, checkerLight, checkerDark))
	} else {
		t, err = LoadTexture(b.dev, resolvePath(b.dir, name), maxTextureSize)
	}
	if err != nil {
		return nil, err
	}
	b.textures[name] = t
	b.scene.textures = append(b.scene.textures, t)
	return t, nil
}

func (b *builder) shape(name string, size *[3]float32) (graphics.Mesh, error) {
	s := mgl32.Vec3{1, 1, 1}
	if size != nil {
		s = *size
	}
	key := fmt.Sprintf("%s %v", name, s)
	if m, ok := b.shapes[key]; ok {
		return m, nil
	}

	var data graphics.MeshData
	switch name {
	case "box":
		data = Box(s)
	case "plane":
		data = Plane(s[0], max(1, s[0]/2))
	case "sphere":
		data = Sphere(sphereRings, sphereSegments)
		for i, v := range data.Vertices {
			data.Vertices[i].Position = mulElem(v.Position, s.Mul(0.5))
		}
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", ErrInvalidDescription, name)
	}

	m, err := b.dev.NewMesh(data)
	if err != nil {
		return nil, fmt.Errorf("%s mesh: %w", name, err)
	}
	b.shapes[key] = m
	b.scene.meshes = append(b.scene.meshes, m)
	return m, nil
}

func (b *builder) model(path string) ([]graphics.Mesh, error) {
	if ms, ok := b.models[path]; ok {
		return ms, nil
	}
	data, err := LoadGLTFData(resolvePath(b.dir, path))
	if err != nil {
		return nil, err
	}
	for _, d := range data {
		Normalise(d, modelSize)
	}
	var meshes []graphics.Mesh
	for i, d := range data {
		m, err := b.dev.NewMesh(d)
		if err != nil {
			return nil, fmt.Errorf("%s primitive %d: %w", path, i, err)
		}
		meshes = append(meshes, m)
		b.scene.meshes = append(b.scene.meshes, m)
	}
	b.models[path] = meshes
	return meshes, nil
}

// Render draws one frame: every object, then every light in ls. A frame
// that fails part way is still closed.
func (s *Scene) Render(r *renderer.Renderer, ls []lighting.Light) error {
	return s.RenderEach(r, ls, nil)
}

// RenderEach is Render, except a light the renderer rejects is handed to
// skipped and the remaining lights are still drawn. With a nil skipped the
// first rejected light ends the frame.
func (s *Scene) RenderEach(r *renderer.Renderer, ls []lighting.Light, skipped func(lighting.Light, error)) error {
	if err := r.Begin(); err != nil {
		return err
	}
	if err := s.draw(r, ls, skipped); err != nil {
		_ = r.Present()
		return err
	}
	return r.Present()
}

func (s *Scene) draw(r *renderer.Renderer, ls []lighting.Light, skipped func(lighting.Light, error)) error {
	objects := make([]renderer.Object, len(s.Objects))
	for i, o := range s.Objects {
		objects[i] = o
	}
	if err := r.DrawObjects(objects...); err != nil {
		return err
	}
	for _, l := range ls {
		if err := r.Light(l); err != nil {
			if skipped == nil {
				return err
			}
			skipped(l, err)
		}
	}
	return nil
}

// LightsOf returns the scene lights of the given kinds, every light when
// none are given
func (s *Scene) LightsOf(kinds ...lighting.Kind) []lighting.Light {
	if len(kinds) == 0 {
		return s.Lights
	}
	var out []lighting.Light
	for _, l := range s.Lights {
		for _, k := range kinds {
			if l.Kind == k {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// Release deletes every mesh and texture the scene uploaded. Safe to call twice.
func (s *Scene) Release() {
	for _, m := range s.meshes {
		m.Delete()
	}
	for _, t := range s.textures {
		t.Delete()
	}
	s.meshes, s.textures = nil, nil
	s.Objects = nil
}

func degrees(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{mgl32.DegToRad(v[0]), mgl32.DegToRad(v[1]), mgl32.DegToRad(v[2])}
}
