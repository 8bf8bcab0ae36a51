package renderer

import (
	"fmt"

	"deferred3d/internal/graphics"
	"deferred3d/internal/logging"
)

// G-buffer attachment indices, matching the sampler slots in graphics.
const (
	AttachmentColour   = graphics.SlotColour
	AttachmentPosition = graphics.SlotPosition
	AttachmentNormal   = graphics.SlotNormal
	AttachmentLighting = graphics.SlotLighting
)

var gbufferFormats = [4]graphics.Format{
	AttachmentColour:   graphics.FormatRGBA8,
	AttachmentPosition: graphics.FormatRGB32F,
	AttachmentNormal:   graphics.FormatRGB32F,
	AttachmentLighting: graphics.FormatRGB32F,
}

// GBuffer holds the per-pixel surface attributes written by the geometry
// pass: albedo, world position, world normal and material lighting
// parameters (diffuse, specular, specular power), plus a shared depth image.
// All attachments have the same size. A GBuffer is never resized; a new one
// is built instead.
type GBuffer struct {
	dev      graphics.Device
	width    int
	height   int
	textures [4]graphics.Texture
	depth    graphics.Texture
	fb       graphics.Framebuffer
}

// NewGBuffer allocates all five images and the framebuffer. On failure
// everything allocated so far is released and no GBuffer is returned.
func NewGBuffer(dev graphics.Device, width, height int) (*GBuffer, error) {
	g := &GBuffer{dev: dev, width: width, height: height}

	for i, f := range gbufferFormats {
		tex, err := dev.NewTexture(width, height, f, nil)
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("gbuffer attachment %d: %w", i, err)
		}
		g.textures[i] = tex
	}

	depth, err := dev.NewTexture(width, height, graphics.FormatDepth32F, nil)
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("gbuffer depth: %w", err)
	}
	g.depth = depth

	fb, err := dev.NewFramebuffer(g.textures[:], g.depth)
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("gbuffer framebuffer: %w", err)
	}
	g.fb = fb

	logging.Logger().Debug("gbuffer created", "width", width, "height", height)
	return g, nil
}

// BindWrite makes the four attachments and depth the draw target.
func (g *GBuffer) BindWrite() { g.dev.BindFramebuffer(g.fb) }

// UnbindWrite restores the default draw target.
func (g *GBuffer) UnbindWrite() { g.dev.BindFramebuffer(nil) }

// BindRead binds the four attachments to sampler slots 0-3.
func (g *GBuffer) BindRead() {
	for slot, tex := range g.textures {
		g.dev.BindTexture(slot, tex)
	}
}

// UnbindRead clears sampler slots 0-3.
func (g *GBuffer) UnbindRead() {
	for slot := range g.textures {
		g.dev.BindTexture(slot, nil)
	}
}

// Destroy releases every image and the framebuffer. Safe to call twice.
func (g *GBuffer) Destroy() {
	if g.fb != nil {
		g.fb.Delete()
		g.fb = nil
	}
	for i, tex := range g.textures {
		if tex != nil {
			tex.Delete()
			g.textures[i] = nil
		}
	}
	if g.depth != nil {
		g.depth.Delete()
		g.depth = nil
	}
}

func (g *GBuffer) Width() int                        { return g.width }
func (g *GBuffer) Height() int                       { return g.height }
func (g *GBuffer) Colour() graphics.Texture          { return g.textures[AttachmentColour] }
func (g *GBuffer) Position() graphics.Texture        { return g.textures[AttachmentPosition] }
func (g *GBuffer) Normal() graphics.Texture          { return g.textures[AttachmentNormal] }
func (g *GBuffer) Lighting() graphics.Texture        { return g.textures[AttachmentLighting] }
func (g *GBuffer) Depth() graphics.Texture           { return g.depth }
func (g *GBuffer) Framebuffer() graphics.Framebuffer { return g.fb }

// surface is the lighting accumulation target that Present copies to the screen.
type surface struct {
	colour graphics.Texture
	depth  graphics.Texture
	fb     graphics.Framebuffer
}

func newSurface(dev graphics.Device, width, height int) (*surface, error) {
	s := &surface{}
	var err error
	if s.colour, err = dev.NewTexture(width, height, graphics.FormatRGBA8, nil); err != nil {
		return nil, fmt.Errorf("output colour: %w", err)
	}
	if s.depth, err = dev.NewTexture(width, height, graphics.FormatDepth32F, nil); err != nil {
		s.destroy()
		return nil, fmt.Errorf("output depth: %w", err)
	}
	if s.fb, err = dev.NewFramebuffer([]graphics.Texture{s.colour}, s.depth); err != nil {
		s.destroy()
		return nil, fmt.Errorf("output framebuffer: %w", err)
	}
	return s, nil
}

func (s *surface) destroy() {
	if s.fb != nil {
		s.fb.Delete()
		s.fb = nil
	}
	if s.colour != nil {
		s.colour.Delete()
		s.colour = nil
	}
	if s.depth != nil {
		s.depth.Delete()
		s.depth = nil
	}
}
