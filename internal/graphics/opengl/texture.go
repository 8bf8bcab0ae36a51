package opengl

import (
	"fmt"
	"unsafe"

	"deferred3d/internal/graphics"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Texture is a 2D OpenGL texture
type Texture struct {
	ID     uint32
	width  int
	height int
	format graphics.Format
}

var _ graphics.Texture = (*Texture)(nil)

func (t *Texture) Width() int              { return t.width }
func (t *Texture) Height() int             { return t.height }
func (t *Texture) Format() graphics.Format { return t.format }

func (t *Texture) Delete() {
	if t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}

// glFormat returns internal format, pixel format and pixel type
func glFormat(f graphics.Format) (int32, uint32, uint32, error) {
	switch f {
	case graphics.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case graphics.FormatRGB32F:
		return gl.RGB32F, gl.RGB, gl.FLOAT, nil
	case graphics.FormatDepth32F:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: unsupported format %s", graphics.ErrDeviceAllocation, f)
}

func (d *Device) NewTexture(width, height int, format graphics.Format, pixels []byte) (graphics.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s texture %dx%d", graphics.ErrDeviceAllocation, format, width, height)
	}
	internal, pixFormat, pixType, err := glFormat(format)
	if err != nil {
		return nil, err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, pixFormat, pixType, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return nil, fmt.Errorf("%w: %s texture %dx%d (0x%X)", graphics.ErrDeviceAllocation, format, width, height, e)
	}
	return &Texture{ID: id, width: width, height: height, format: format}, nil
}
