package software

import (
	"fmt"

	"deferred3d/internal/graphics"
)

type mesh struct {
	vertices []graphics.Vertex
	indices  []uint32
	dev      *Device
	deleted  bool
}

var _ graphics.Mesh = (*mesh)(nil)

func (m *mesh) VertexCount() int32 { return int32(len(m.indices)) }

func (m *mesh) Load() { m.dev.mesh = m }

func (m *mesh) Unload() {
	if m.dev.mesh == m {
		m.dev.mesh = nil
	}
}

func (m *mesh) Delete() {
	if m.deleted {
		return
	}
	m.deleted = true
	m.Unload()
	m.dev.live.Meshes--
}

func (d *Device) NewMesh(data graphics.MeshData) (graphics.Mesh, error) {
	if len(data.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", graphics.ErrDeviceAllocation, len(data.Indices))
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return nil, fmt.Errorf("%w: index %d out of range of %d vertices",
				graphics.ErrDeviceAllocation, i, len(data.Vertices))
		}
	}
	if err := d.allocate("mesh"); err != nil {
		return nil, err
	}
	d.live.Meshes++
	return &mesh{
		vertices: append([]graphics.Vertex(nil), data.Vertices...),
		indices:  append([]uint32(nil), data.Indices...),
		dev:      d,
	}, nil
}
