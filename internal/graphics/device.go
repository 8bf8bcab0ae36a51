// Package graphics defines the device surface the deferred renderer draws
// through. Two implementations exist: opengl (go-gl, OpenGL 4.1 core) and
// software (CPU rasteriser used for headless rendering and tests).
package graphics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDeviceAllocation is returned when a device cannot create a resource.
var ErrDeviceAllocation = errors.New("graphics: device allocation failed")

// ErrShaderCompile is returned when a program fails to compile or link.
var ErrShaderCompile = errors.New("graphics: shader compilation failed")

// Format is the storage format of a texture.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatRGB32F
	FormatDepth32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGB32F:
		return "RGB32F"
	case FormatDepth32F:
		return "Depth32F"
	}
	return "Format(?)"
}

// IsDepth reports whether the format is usable as a depth attachment.
func (f Format) IsDepth() bool { return f == FormatDepth32F }

// ClearMask selects which attachments Clear touches.
type ClearMask uint8

const (
	ClearColour ClearMask = 1 << iota
	ClearDepth
)

// Texture is a GPU-side image.
type Texture interface {
	Width() int
	Height() int
	Format() Format
	Delete()
}

// Framebuffer is a render target made of colour attachments plus an optional
// depth attachment. The draw-buffer configuration is fixed at creation.
type Framebuffer interface {
	Width() int
	Height() int
	Delete()
}

// Program is a compiled shader program. Uniform setters apply to the
// program regardless of whether it is started.
type Program interface {
	Start()
	Stop()
	SetBool(name string, value bool)
	SetInt(name string, value int32)
	SetFloat(name string, value float32)
	SetVec2(name string, value mgl32.Vec2)
	SetVec3(name string, value mgl32.Vec3)
	SetMat4(name string, value mgl32.Mat4)
	Delete()
}

// Mesh is indexed triangle data resident on the device.
type Mesh interface {
	VertexCount() int32
	Load()
	Unload()
	Delete()
}

// ProgramSource describes a program. Name identifies the program to devices
// that do not compile GLSL.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// Vertex is the interleaved vertex layout every mesh uses:
// location 0 position, 1 normal, 2 uv.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// MeshData is CPU-side indexed triangle data ready for upload.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Device creates resources and issues draws. All calls are synchronous on
// the calling goroutine. Binding and fixed-function state are global to the
// device, so callers establish a known State at each phase boundary.
type Device interface {
	NewTexture(width, height int, format Format, pixels []byte) (Texture, error)
	NewFramebuffer(colour []Texture, depth Texture) (Framebuffer, error)
	NewProgram(src ProgramSource) (Program, error)
	NewMesh(data MeshData) (Mesh, error)

	// BindFramebuffer binds fb for drawing; nil binds the default target.
	BindFramebuffer(fb Framebuffer)
	// BindTexture binds tex to sampler slot; nil unbinds the slot.
	BindTexture(slot int, tex Texture)
	SetViewport(width, height int)
	Apply(state State)
	Clear(colour mgl32.Vec4, mask ClearMask)
	// DrawElements draws count indices of the currently loaded mesh.
	DrawElements(count int32)
	// Blit copies the first colour attachment of fb to the default target.
	Blit(fb Framebuffer, width, height int)
}
