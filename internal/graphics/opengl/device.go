// Package opengl implements graphics.Device on OpenGL 4.1 core through go-gl.
// All calls must happen on the goroutine that owns the GL context.
package opengl

import (
	"fmt"
	"image"
	"image/color"

	"deferred3d/internal/graphics"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Device issues OpenGL calls against the current context
type Device struct {
	state graphics.State
}

var _ graphics.Device = (*Device)(nil)

// NewDevice loads the OpenGL function pointers for the current context.
// A window with a current 4.1 core context must exist.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &Device{}
	d.Apply(graphics.OverlayState)
	return d, nil
}

// Version returns the GL version string of the current context
func (d *Device) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *Device) BindFramebuffer(fb graphics.Framebuffer) {
	if f, ok := fb.(*Framebuffer); ok && f != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, f.ID)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *Device) BindTexture(slot int, tex graphics.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	if t, ok := tex.(*Texture); ok && t != nil {
		gl.BindTexture(gl.TEXTURE_2D, t.ID)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func (d *Device) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func setCapability(capability uint32, enabled bool) {
	if enabled {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// Apply sets depth, culling, winding and blending in one step
func (d *Device) Apply(s graphics.State) {
	setCapability(gl.DEPTH_TEST, s.DepthTest)
	gl.DepthMask(s.DepthWrite)

	switch s.Cull {
	case graphics.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case graphics.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}

	if s.FrontFace == graphics.WindingCW {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}

	switch s.Blend {
	case graphics.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	case graphics.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
	}

	d.state = s
}

func (d *Device) Clear(colour mgl32.Vec4, mask graphics.ClearMask) {
	var bits uint32
	if mask&graphics.ClearColour != 0 {
		gl.ClearColor(colour[0], colour[1], colour[2], colour[3])
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&graphics.ClearDepth != 0 {
		// glClear honours the depth mask
		gl.DepthMask(true)
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
	gl.DepthMask(d.state.DepthWrite)
}

func (d *Device) DrawElements(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil)
}

func (d *Device) Blit(fb graphics.Framebuffer, width, height int) {
	f, ok := fb.(*Framebuffer)
	if !ok || f == nil {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, f.ID)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, int32(f.width), int32(f.height), 0, 0, int32(width), int32(height),
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadScreen reads the default framebuffer into an image with the top row first
func (d *Device) ReadScreen(width, height int) *image.NRGBA {
	buf := make([]byte, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := buf[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			img.SetNRGBA(x, height-1-y, color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255})
		}
	}
	return img
}
