package renderer

import (
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/lighting"

	"github.com/go-gl/mathgl/mgl32"
)

// frameMatrices are the camera values shared by every light in a pass.
type frameMatrices struct {
	view       mgl32.Mat4
	projection mgl32.Mat4
	eye        mgl32.Vec3
	screen     mgl32.Vec2
}

// bindLightUniforms sets the uniforms read by the light's program.
func bindLightUniforms(p graphics.Program, l lighting.Light, m frameMatrices) {
	p.SetVec3("lightColour", l.Colour)
	p.SetFloat("lightIntensity", l.Intensity)

	switch l.Kind {
	case lighting.KindDirectional:
		p.SetVec3("lightDirection", l.Direction)
	case lighting.KindPoint:
		p.SetVec3("lightPosition", l.Position)
		p.SetVec3("lightAttenuation", l.Attenuation)
	case lighting.KindSpot:
		p.SetVec3("lightDirection", l.Direction)
		p.SetVec3("lightPosition", l.Position)
		p.SetVec3("lightAttenuation", l.Attenuation)
		p.SetVec2("lightCutoff", l.Cutoff)
	}

	p.SetMat4("viewTransform", m.view)
	p.SetMat4("projectionTransform", m.projection)
	p.SetVec3("cameraPosition", m.eye)
	p.SetVec2("screenSize", m.screen)
}

// lightTransform maps the light's volume mesh to clip space. Screen-space
// lights draw the quad untransformed; point lights scale the unit sphere to
// the volume radius around the light.
func lightTransform(l lighting.Light, m frameMatrices, radius float32) mgl32.Mat4 {
	if l.Kind != lighting.KindPoint {
		return mgl32.Ident4()
	}
	p := l.Position
	return m.projection.Mul4(m.view).
		Mul4(mgl32.Translate3D(p[0], p[1], p[2])).
		Mul4(mgl32.Scale3D(radius, radius, radius))
}

// lightVolume returns the mesh a light is drawn with and the state to draw
// it under. The sphere is drawn with reversed winding so its far side is
// rasterised even when the camera is inside it.
func (r *Renderer) lightVolume(kind lighting.Kind) (graphics.Mesh, graphics.State) {
	if kind == lighting.KindPoint {
		return r.sphere, graphics.VolumeState
	}
	return r.quad, graphics.LightingState
}
