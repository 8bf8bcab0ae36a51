package opengl

import (
	"fmt"

	"deferred3d/internal/graphics"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Framebuffer is an OpenGL framebuffer object with its draw buffers fixed
// at creation
type Framebuffer struct {
	ID     uint32
	width  int
	height int
}

var _ graphics.Framebuffer = (*Framebuffer)(nil)

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }

// Delete releases the framebuffer; attachments stay owned by the caller
func (f *Framebuffer) Delete() {
	if f.ID != 0 {
		gl.DeleteFramebuffers(1, &f.ID)
		f.ID = 0
	}
}

func (d *Device) NewFramebuffer(colour []graphics.Texture, depth graphics.Texture) (graphics.Framebuffer, error) {
	if len(colour) == 0 {
		return nil, fmt.Errorf("%w: framebuffer without colour attachments", graphics.ErrDeviceAllocation)
	}
	fb := &Framebuffer{width: colour[0].Width(), height: colour[0].Height()}

	gl.GenFramebuffers(1, &fb.ID)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.ID)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	buffers := make([]uint32, len(colour))
	for i, c := range colour {
		t, ok := c.(*Texture)
		if !ok {
			fb.Delete()
			return nil, fmt.Errorf("%w: colour attachment %d is not an OpenGL texture", graphics.ErrDeviceAllocation, i)
		}
		buffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, buffers[i], gl.TEXTURE_2D, t.ID, 0)
	}
	if depth != nil {
		t, ok := depth.(*Texture)
		if !ok {
			fb.Delete()
			return nil, fmt.Errorf("%w: depth attachment is not an OpenGL texture", graphics.ErrDeviceAllocation)
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.ID, 0)
	}
	gl.DrawBuffers(int32(len(buffers)), &buffers[0])

	if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
		fb.Delete()
		return nil, fmt.Errorf("%w: framebuffer incomplete (0x%X)", graphics.ErrDeviceAllocation, s)
	}
	return fb, nil
}
