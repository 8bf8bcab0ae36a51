package scene

import (
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// textureSlot is the sampler slot object textures bind to during the
// geometry pass. The lighting pass rebinds every G-buffer slot itself.
const textureSlot = 0

// MeshObject is a mesh placed in the world with a material. Rotation is in
// radians, applied yaw (Y), then pitch (X), then roll (Z), like the camera.
type MeshObject struct {
	Mesh     graphics.Mesh
	Material Material
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

var _ renderer.Object = (*MeshObject)(nil)

// NewMeshObject places mesh at the origin with unit scale and the default material
func NewMeshObject(mesh graphics.Mesh) *MeshObject {
	return &MeshObject{Mesh: mesh, Material: DefaultMaterial(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Transform returns the model matrix T·R·S
func (o *MeshObject) Transform() mgl32.Mat4 {
	p, r, s := o.Position, o.Rotation, o.Scale
	return mgl32.Translate3D(p[0], p[1], p[2]).
		Mul4(mgl32.HomogRotate3DY(r[1])).
		Mul4(mgl32.HomogRotate3DX(r[0])).
		Mul4(mgl32.HomogRotate3DZ(r[2])).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func (o *MeshObject) Draw(ctx renderer.DrawContext, program graphics.Program) {
	if o.Mesh == nil {
		return
	}
	program.SetMat4("transform", o.Transform())
	o.Material.bind(program)

	if o.Material.Texture != nil {
		ctx.BindTexture(textureSlot, o.Material.Texture)
		defer ctx.BindTexture(textureSlot, nil)
	}
	ctx.DrawIndexed(o.Mesh)
}
