// Package renderer implements a deferred shading pipeline: objects are drawn
// into a G-buffer, then each light is accumulated additively into an output
// image by reading the G-buffer back.
//
// A frame is Begin, one or more DrawObjects, any number of Light calls and
// Present. Calls out of that order are rejected with an error.
package renderer

import (
	"fmt"

	"deferred3d/internal/config"
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/camera"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/logging"
	"deferred3d/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// Phase is the renderer's position within a frame.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCleared
	PhaseGeometry
	PhaseLighting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCleared:
		return "cleared"
	case PhaseGeometry:
		return "geometry"
	case PhaseLighting:
		return "lighting"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

var outputClearColour = mgl32.Vec4{0, 0, 0, 1}

// Renderer owns the G-buffer, the output image, the light volumes and the
// programs used to fill them. It is not safe for concurrent use.
type Renderer struct {
	dev    graphics.Device
	camera *camera.Camera
	width  int
	height int

	gbuffer  *GBuffer
	output   *surface
	quad     graphics.Mesh
	sphere   graphics.Mesh
	geometry graphics.Program
	lights   *shaderCache

	phase     Phase
	destroyed bool
}

var _ DrawContext = (*Renderer)(nil)

// New builds a renderer drawing through dev from cam's point of view. A
// camera without a projection is given the default perspective. Any
// failure releases everything built so far.
func New(dev graphics.Device, cam *camera.Camera, cfg config.Renderer) (*Renderer, error) {
	if cam == nil {
		return nil, ErrNoCamera
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := fitCamera(cam, cfg.Aspect()); err != nil {
		return nil, err
	}

	r := &Renderer{dev: dev, camera: cam, width: cfg.Width, height: cfg.Height, lights: newShaderCache(dev)}
	if err := r.build(cfg); err != nil {
		r.Destroy()
		return nil, err
	}

	logging.Logger().Debug("renderer created",
		"width", cfg.Width, "height", cfg.Height, "precompiled", r.lights.len())
	return r, nil
}

func (r *Renderer) build(cfg config.Renderer) error {
	var err error
	if r.gbuffer, r.output, err = allocateTargets(r.dev, cfg.Width, cfg.Height); err != nil {
		return err
	}
	if r.quad, err = r.dev.NewMesh(screenQuad()); err != nil {
		return fmt.Errorf("screen quad: %w", err)
	}
	if r.sphere, err = r.dev.NewMesh(icosphere(sphereSubdivisions)); err != nil {
		return fmt.Errorf("light sphere: %w", err)
	}
	if r.geometry, err = r.dev.NewProgram(geometryProgramSource()); err != nil {
		return fmt.Errorf("geometry program: %w", err)
	}
	if cfg.PrecompileLightShaders {
		if err := r.lights.warm(); err != nil {
			return err
		}
	}
	return nil
}

func allocateTargets(dev graphics.Device, width, height int) (*GBuffer, *surface, error) {
	g, err := NewGBuffer(dev, width, height)
	if err != nil {
		return nil, nil, err
	}
	out, err := newSurface(dev, width, height)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}
	return g, out, nil
}

func fitCamera(cam *camera.Camera, aspect float32) error {
	if !cam.HasProjection() {
		return cam.SetPerspectiveProjection(aspect)
	}
	return cam.SetAspect(aspect)
}

// Begin opens a frame and clears the G-buffer and the output image.
func (r *Renderer) Begin() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.phase != PhaseIdle {
		return fmt.Errorf("%w: begin during %s phase", ErrFrameInProgress, r.phase)
	}
	defer profiling.Track("renderer.Begin")()

	r.dev.SetViewport(r.width, r.height)

	r.gbuffer.BindWrite()
	r.dev.Clear(mgl32.Vec4{}, graphics.ClearColour|graphics.ClearDepth)
	r.gbuffer.UnbindWrite()

	r.dev.BindFramebuffer(r.output.fb)
	r.dev.Clear(outputClearColour, graphics.ClearColour|graphics.ClearDepth)
	r.dev.BindFramebuffer(nil)

	r.phase = PhaseCleared
	return nil
}

// DrawObjects draws objects into the G-buffer with the built-in geometry program.
func (r *Renderer) DrawObjects(objects ...Object) error {
	return r.DrawObjectsWith(r.geometry, objects...)
}

// DrawObjectsWith draws objects into the G-buffer with program, which must
// write the four G-buffer outputs. The camera's view, projection and the
// screen size are set once before the objects draw themselves.
func (r *Renderer) DrawObjectsWith(program graphics.Program, objects ...Object) error {
	if err := r.checkPhase(PhaseCleared, PhaseGeometry); err != nil {
		return err
	}
	defer profiling.Track("renderer.DrawObjects")()

	projection, err := r.camera.ProjectionMatrix()
	if err != nil {
		return err
	}

	r.gbuffer.BindWrite()
	r.dev.SetViewport(r.width, r.height)
	r.dev.Apply(graphics.GeometryState)

	program.Start()
	program.SetMat4("projectionTransform", projection)
	program.SetMat4("viewTransform", r.camera.ViewMatrix())
	program.SetVec2("screenSize", r.screenSize())
	for _, o := range objects {
		o.Draw(r, program)
	}
	program.Stop()

	r.gbuffer.UnbindWrite()
	r.phase = PhaseGeometry
	return nil
}

// Light accumulates one light into the output image. Depth testing and
// culling are off and blending is additive while it draws; alpha blending
// is left enabled afterwards for overlays.
func (r *Renderer) Light(l lighting.Light) error {
	if err := r.checkPhase(PhaseGeometry, PhaseLighting); err != nil {
		return err
	}
	if err := l.Validate(); err != nil {
		return err
	}
	defer profiling.Track("renderer.Light")()

	program, err := r.lights.get(l.Kind)
	if err != nil {
		return err
	}
	projection, err := r.camera.ProjectionMatrix()
	if err != nil {
		return err
	}

	var radius float32
	if l.Kind == lighting.KindPoint {
		if radius, err = l.VolumeRadius(); err != nil {
			return fmt.Errorf("point light at %v: %w", l.Position, err)
		}
	}

	r.phase = PhaseLighting
	defer r.dev.Apply(graphics.OverlayState)
	if l.Kind == lighting.KindPoint && radius == 0 {
		logging.Logger().Warn("point light has no visible volume, skipped",
			"position", l.Position, "intensity", l.Intensity)
		return nil
	}

	m := frameMatrices{
		view:       r.camera.ViewMatrix(),
		projection: projection,
		eye:        r.camera.Position(),
		screen:     r.screenSize(),
	}
	mesh, state := r.lightVolume(l.Kind)

	r.dev.BindFramebuffer(r.output.fb)
	r.gbuffer.BindRead()
	r.dev.SetViewport(r.width, r.height)
	r.dev.Apply(state)

	program.Start()
	bindLightUniforms(program, l, m)
	program.SetMat4("transform", lightTransform(l, m, radius))
	r.DrawIndexed(mesh)
	program.Stop()

	r.gbuffer.UnbindRead()
	r.dev.BindFramebuffer(nil)
	return nil
}

// AmbientLight draws an ambient light.
func (r *Renderer) AmbientLight(intensity float32, colour mgl32.Vec3) error {
	return r.Light(lighting.Ambient(intensity, colour))
}

// DirectionalLight draws a directional light travelling along direction.
func (r *Renderer) DirectionalLight(direction mgl32.Vec3, intensity float32, colour mgl32.Vec3) error {
	return r.Light(lighting.Directional(direction, intensity, colour))
}

// PointLight draws a point light bounded by its light volume.
func (r *Renderer) PointLight(position mgl32.Vec3, intensity float32, attenuation, colour mgl32.Vec3) error {
	return r.Light(lighting.Point(position, intensity, attenuation, colour))
}

// SpotLight draws a spot light; cutoff is the (outer, inner) cone cosines.
func (r *Renderer) SpotLight(position, direction mgl32.Vec3, cutoff mgl32.Vec2, intensity float32, attenuation, colour mgl32.Vec3) error {
	return r.Light(lighting.Spot(position, direction, cutoff, intensity, attenuation, colour))
}

// Present copies the output image to the default target and closes the frame.
func (r *Renderer) Present() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.phase == PhaseIdle {
		return ErrFrameNotBegun
	}
	defer profiling.Track("renderer.Present")()

	r.dev.BindFramebuffer(nil)
	r.dev.Blit(r.output.fb, r.width, r.height)
	r.phase = PhaseIdle
	return nil
}

// DrawIndexed draws every index of mesh into the bound target.
func (r *Renderer) DrawIndexed(mesh graphics.Mesh) {
	r.dev.SetViewport(r.width, r.height)
	mesh.Load()
	r.dev.DrawElements(mesh.VertexCount())
	mesh.Unload()
}

// BindTexture binds tex to a sampler slot.
func (r *Renderer) BindTexture(slot int, tex graphics.Texture) {
	r.dev.BindTexture(slot, tex)
}

// Resize rebuilds the G-buffer and output image for a new viewport and
// updates the camera's aspect ratio. The old targets are kept if the new
// ones cannot be allocated.
func (r *Renderer) Resize(width, height int) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.phase != PhaseIdle {
		return fmt.Errorf("%w: resize during %s phase", ErrFrameInProgress, r.phase)
	}
	cfg := config.Renderer{Width: width, Height: height}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, out, err := allocateTargets(r.dev, width, height)
	if err != nil {
		return err
	}
	if err := r.camera.SetAspect(cfg.Aspect()); err != nil {
		g.Destroy()
		out.destroy()
		return err
	}

	r.gbuffer.Destroy()
	r.output.destroy()
	r.gbuffer, r.output = g, out
	r.width, r.height = width, height

	logging.Logger().Debug("renderer resized", "width", width, "height", height)
	return nil
}

// Destroy releases every device resource the renderer owns. Safe to call twice.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.phase = PhaseIdle

	r.lights.destroy()
	if r.geometry != nil {
		r.geometry.Delete()
		r.geometry = nil
	}
	if r.sphere != nil {
		r.sphere.Delete()
		r.sphere = nil
	}
	if r.quad != nil {
		r.quad.Delete()
		r.quad = nil
	}
	if r.output != nil {
		r.output.destroy()
		r.output = nil
	}
	if r.gbuffer != nil {
		r.gbuffer.Destroy()
		r.gbuffer = nil
	}
}

func (r *Renderer) checkPhase(allowed ...Phase) error {
	if r.destroyed {
		return ErrDestroyed
	}
	for _, p := range allowed {
		if r.phase == p {
			return nil
		}
	}
	switch {
	case r.phase == PhaseIdle:
		return ErrFrameNotBegun
	case r.phase == PhaseLighting:
		return ErrGeometryAfterLighting
	case r.phase == PhaseCleared:
		return ErrLightingBeforeGeometry
	}
	return fmt.Errorf("renderer: operation not allowed during %s phase", r.phase)
}

func (r *Renderer) screenSize() mgl32.Vec2 {
	return mgl32.Vec2{float32(r.width), float32(r.height)}
}

func (r *Renderer) Phase() Phase              { return r.phase }
func (r *Renderer) Camera() *camera.Camera    { return r.camera }
func (r *Renderer) GBuffer() *GBuffer         { return r.gbuffer }
func (r *Renderer) Device() graphics.Device   { return r.dev }
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Output returns the lighting accumulation image.
func (r *Renderer) Output() graphics.Texture {
	if r.output == nil {
		return nil
	}
	return r.output.colour
}
