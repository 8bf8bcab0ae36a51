// Package scene provides the objects drawn by the deferred renderer: meshes
// with a transform and material, procedural shapes, glTF and image loading,
// and JSON scene descriptions.
package scene

import (
	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is what the geometry pass writes to the G-buffer for a surface
type Material struct {
	Colour mgl32.Vec3
	// Diffuse scales the diffuse response of every light.
	Diffuse float32
	// Specular scales the specular highlight; Power is its exponent.
	Specular float32
	Power    float32
	// Texture, when set, multiplies Colour.
	Texture graphics.Texture
}

// DefaultMaterial is white, fully diffuse, with a soft highlight
func DefaultMaterial() Material {
	return Material{Colour: mgl32.Vec3{1, 1, 1}, Diffuse: 1, Specular: 0.4, Power: 5}
}

func (m Material) WithColour(c mgl32.Vec3) Material        { m.Colour = c; return m }
func (m Material) WithDiffuse(d float32) Material          { m.Diffuse = d; return m }
func (m Material) WithSpecular(s, power float32) Material  { m.Specular, m.Power = s, power; return m }
func (m Material) WithTexture(t graphics.Texture) Material { m.Texture = t; return m }

// bind sets the material uniforms of the geometry program
func (m Material) bind(p graphics.Program) {
	p.SetVec3("colour", m.Colour)
	p.SetFloat("diffuseLightingIntensity", m.Diffuse)
	p.SetFloat("specularLightingIntensity", m.Specular)
	p.SetFloat("specularLightingPower", m.Power)
	p.SetBool("useTexture", m.Texture != nil)
	p.SetInt("textureSampler", textureSlot)
}
