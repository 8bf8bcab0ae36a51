package software

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// texture stores every format as float RGBA. RGBA8 values are quantised to
// 8 bits on write; RGB formats keep alpha at 1; depth lives in the red channel.
type texture struct {
	width, height int
	format        graphics.Format
	pix           []mgl32.Vec4
	dev           *Device
	deleted       bool
}

var _ graphics.Texture = (*texture)(nil)

func (t *texture) Width() int              { return t.width }
func (t *texture) Height() int             { return t.height }
func (t *texture) Format() graphics.Format { return t.format }

func (t *texture) Delete() {
	if t.deleted {
		return
	}
	t.deleted = true
	t.pix = nil
	t.dev.live.Textures--
	for i, s := range t.dev.slots {
		if s == t {
			t.dev.slots[i] = nil
		}
	}
}

func (t *texture) at(x, y int) mgl32.Vec4 {
	return t.pix[y*t.width+x]
}

func (t *texture) set(x, y int, v mgl32.Vec4) {
	t.pix[y*t.width+x] = t.store(v)
}

func (t *texture) store(v mgl32.Vec4) mgl32.Vec4 {
	switch t.format {
	case graphics.FormatRGBA8:
		for i := range v {
			v[i] = quantise(v[i])
		}
	case graphics.FormatRGB32F:
		v[3] = 1
	case graphics.FormatDepth32F:
		v = mgl32.Vec4{v[0], 0, 0, 1}
	}
	return v
}

func (t *texture) fill(v mgl32.Vec4) {
	v = t.store(v)
	for i := range t.pix {
		t.pix[i] = v
	}
}

func (t *texture) sample(uv mgl32.Vec2) mgl32.Vec4 {
	x := clampInt(int(math.Floor(float64(uv[0]*float32(t.width)))), 0, t.width-1)
	y := clampInt(int(math.Floor(float64(uv[1]*float32(t.height)))), 0, t.height-1)
	return t.at(x, y)
}

func quantise(v float32) float32 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return float32(math.Round(float64(v)*255)) / 255
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewTexture accepts 8-bit RGBA bytes for RGBA8, little-endian float32
// triples for RGB32F and single float32 values for Depth32F. nil pixels
// leave the texture zeroed.
func (d *Device) NewTexture(width, height int, format graphics.Format, pixels []byte) (graphics.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s texture %dx%d", graphics.ErrDeviceAllocation, format, width, height)
	}
	if err := d.allocate("texture " + format.String()); err != nil {
		return nil, err
	}

	t := &texture{width: width, height: height, format: format, pix: make([]mgl32.Vec4, width*height), dev: d}
	t.fill(mgl32.Vec4{})
	if pixels != nil {
		if err := t.upload(pixels); err != nil {
			return nil, err
		}
	}
	d.live.Textures++
	return t, nil
}

func (t *texture) upload(pixels []byte) error {
	n := t.width * t.height
	var stride int
	switch t.format {
	case graphics.FormatRGBA8:
		stride = 4
	case graphics.FormatRGB32F:
		stride = 12
	case graphics.FormatDepth32F:
		stride = 4
	}
	if len(pixels) != n*stride {
		return fmt.Errorf("%w: %s upload of %d bytes, want %d", graphics.ErrDeviceAllocation, t.format, len(pixels), n*stride)
	}

	le := binary.LittleEndian
	f32 := func(b []byte) float32 { return math.Float32frombits(le.Uint32(b)) }
	for i := 0; i < n; i++ {
		p := pixels[i*stride : (i+1)*stride]
		var v mgl32.Vec4
		switch t.format {
		case graphics.FormatRGBA8:
			v = mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
		case graphics.FormatRGB32F:
			v = mgl32.Vec4{f32(p[0:4]), f32(p[4:8]), f32(p[8:12]), 1}
		case graphics.FormatDepth32F:
			v = mgl32.Vec4{f32(p), 0, 0, 1}
		}
		t.pix[i] = t.store(v)
	}
	return nil
}

// framebuffer is a set of attachments sharing one size.
type framebuffer struct {
	width, height int
	colour        []*texture
	depth         *texture
	dev           *Device
	deleted       bool
}

var _ graphics.Framebuffer = (*framebuffer)(nil)

func (f *framebuffer) Width() int  { return f.width }
func (f *framebuffer) Height() int { return f.height }

// Delete releases the framebuffer; attachments stay owned by the caller.
func (f *framebuffer) Delete() {
	if f.deleted {
		return
	}
	f.deleted = true
	f.dev.live.Framebuffers--
	if f.dev.target == f {
		f.dev.target = nil
	}
}

func (d *Device) NewFramebuffer(colour []graphics.Texture, depth graphics.Texture) (graphics.Framebuffer, error) {
	if len(colour) == 0 || len(colour) > MaxOutputs {
		return nil, fmt.Errorf("%w: framebuffer with %d colour attachments", graphics.ErrDeviceAllocation, len(colour))
	}

	fb := &framebuffer{dev: d}
	for i, c := range colour {
		t, ok := c.(*texture)
		if !ok || t == nil || t.deleted {
			return nil, fmt.Errorf("%w: colour attachment %d is not a live software texture", graphics.ErrDeviceAllocation, i)
		}
		if t.format.IsDepth() {
			return nil, fmt.Errorf("%w: colour attachment %d has depth format", graphics.ErrDeviceAllocation, i)
		}
		if i == 0 {
			fb.width, fb.height = t.width, t.height
		} else if t.width != fb.width || t.height != fb.height {
			return nil, fmt.Errorf("%w: attachment %d is %dx%d, want %dx%d",
				graphics.ErrDeviceAllocation, i, t.width, t.height, fb.width, fb.height)
		}
		fb.colour = append(fb.colour, t)
	}
	if depth != nil {
		t, ok := depth.(*texture)
		if !ok || t == nil || t.deleted || !t.format.IsDepth() {
			return nil, fmt.Errorf("%w: invalid depth attachment", graphics.ErrDeviceAllocation)
		}
		if t.width != fb.width || t.height != fb.height {
			return nil, fmt.Errorf("%w: depth attachment is %dx%d, want %dx%d",
				graphics.ErrDeviceAllocation, t.width, t.height, fb.width, fb.height)
		}
		fb.depth = t
	}

	if err := d.allocate("framebuffer"); err != nil {
		return nil, err
	}
	d.live.Framebuffers++
	return fb, nil
}

// Pixel reads one texel. y counts from the bottom row.
func (d *Device) Pixel(tex graphics.Texture, x, y int) mgl32.Vec4 {
	t, ok := tex.(*texture)
	if !ok || t.deleted || x < 0 || y < 0 || x >= t.width || y >= t.height {
		return mgl32.Vec4{}
	}
	return t.at(x, y)
}

// Image converts a colour texture into an image with the top row first.
func (d *Device) Image(tex graphics.Texture) *image.NRGBA {
	t, ok := tex.(*texture)
	if !ok || t.deleted {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			v := t.at(x, y)
			img.SetNRGBA(x, t.height-1-y, color.NRGBA{
				R: toByte(v[0]),
				G: toByte(v[1]),
				B: toByte(v[2]),
				A: toByte(v[3]),
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	return uint8(quantise(v)*255 + 0.5)
}
