package opengl

import (
	"fmt"
	"unsafe"

	"deferred3d/internal/graphics"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const vertexStride = int32(unsafe.Sizeof(graphics.Vertex{}))

// Mesh is an indexed triangle list in a VAO with its own vertex and index buffers
type Mesh struct {
	VAO   uint32
	VBO   uint32
	EBO   uint32
	count int32
}

var _ graphics.Mesh = (*Mesh)(nil)

func (d *Device) NewMesh(data graphics.MeshData) (graphics.Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", graphics.ErrDeviceAllocation)
	}
	m := &Mesh{count: int32(len(data.Indices))}

	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*int(vertexStride), gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	// location 0 position, 1 normal, 2 uv
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(0))
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(12))
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(24))

	gl.BindVertexArray(0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		m.Delete()
		return nil, fmt.Errorf("%w: mesh upload (0x%X)", graphics.ErrDeviceAllocation, e)
	}
	return m, nil
}

func (m *Mesh) VertexCount() int32 { return m.count }

// Load binds the VAO and enables its attributes
func (m *Mesh) Load() {
	gl.BindVertexArray(m.VAO)
	gl.EnableVertexAttribArray(0)
	gl.EnableVertexAttribArray(1)
	gl.EnableVertexAttribArray(2)
}

func (m *Mesh) Unload() {
	gl.DisableVertexAttribArray(0)
	gl.DisableVertexAttribArray(1)
	gl.DisableVertexAttribArray(2)
	gl.BindVertexArray(0)
}

func (m *Mesh) Delete() {
	if m.VBO != 0 {
		gl.DeleteBuffers(1, &m.VBO)
		m.VBO = 0
	}
	if m.EBO != 0 {
		gl.DeleteBuffers(1, &m.EBO)
		m.EBO = 0
	}
	if m.VAO != 0 {
		gl.DeleteVertexArrays(1, &m.VAO)
		m.VAO = 0
	}
}
