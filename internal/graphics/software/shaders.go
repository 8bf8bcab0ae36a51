package software

import (
	"math"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// registerBuiltins installs Go equivalents of the renderer's GLSL programs.
func registerBuiltins(d *Device) {
	d.RegisterShader(graphics.ProgramGeometry, Shader{Vertex: geometryVertex, Fragment: geometryFragment})
	d.RegisterShader(graphics.ProgramAmbientLight, Shader{Vertex: passThroughVertex, Fragment: ambientFragment})
	d.RegisterShader(graphics.ProgramDirectionalLight, Shader{Vertex: passThroughVertex, Fragment: directionalFragment})
	d.RegisterShader(graphics.ProgramPointLight, Shader{Vertex: passThroughVertex, Fragment: pointFragment})
	d.RegisterShader(graphics.ProgramSpotLight, Shader{Vertex: passThroughVertex, Fragment: spotFragment})
}

func geometryVertex(u *Uniforms, in graphics.Vertex) (mgl32.Vec4, Varying) {
	model := u.Mat4("transform")
	world := model.Mul4x1(in.Position.Vec4(1))
	normal := model.Inv().Transpose().Mat3().Mul3x1(in.Normal)
	clip := u.Mat4("projectionTransform").Mul4(u.Mat4("viewTransform")).Mul4x1(world)
	return clip, Varying{Position: world.Vec3(), Normal: normal, UV: in.UV}
}

func geometryFragment(f *Fragment) bool {
	u := f.Uniforms
	colour := u.Vec3("colour").Vec4(1)
	if u.Bool("useTexture") {
		colour = mulElem4(colour, f.Sample("textureSampler", f.In.UV))
	}
	f.Out[0] = colour
	f.Out[1] = f.In.Position.Vec4(1)
	f.Out[2] = normalize(f.In.Normal).Vec4(1)
	f.Out[3] = mgl32.Vec4{
		u.Float("diffuseLightingIntensity"),
		u.Float("specularLightingIntensity"),
		u.Float("specularLightingPower"),
		1,
	}
	return true
}

func passThroughVertex(u *Uniforms, in graphics.Vertex) (mgl32.Vec4, Varying) {
	return u.Mat4("transform").Mul4x1(in.Position.Vec4(1)), Varying{}
}

// surface is the G-buffer content under a lighting fragment.
type surface struct {
	albedo   mgl32.Vec3
	position mgl32.Vec3
	normal   mgl32.Vec3
	material mgl32.Vec3 // diffuse, specular, specular power
}

func readSurface(f *Fragment) (surface, bool) {
	size := f.Uniforms.Vec2("screenSize")
	if size[0] <= 0 || size[1] <= 0 {
		return surface{}, false
	}
	uv := mgl32.Vec2{f.Coord[0] / size[0], f.Coord[1] / size[1]}
	s := surface{
		albedo:   f.Sample("colourMap", uv).Vec3(),
		position: f.Sample("positionMap", uv).Vec3(),
		normal:   f.Sample("normalMap", uv).Vec3(),
		material: f.Sample("lightingMap", uv).Vec3(),
	}
	// background pixels carry no normal
	return s, s.normal.Dot(s.normal) >= 0.5
}

// reflectance returns the diffuse and specular response for light arriving
// from unit direction toLight.
func (s surface) reflectance(toLight, camera mgl32.Vec3) mgl32.Vec3 {
	diffuse := max(s.normal.Dot(toLight), 0) * s.material[0]
	view := normalize(camera.Sub(s.position))
	r := reflect(toLight.Mul(-1), s.normal)
	specular := float32(math.Pow(float64(max(view.Dot(r), 0)), float64(s.material[2]))) * s.material[1]
	if diffuse == 0 {
		specular = 0
	}
	return s.albedo.Mul(diffuse).Add(mgl32.Vec3{specular, specular, specular})
}

func emit(f *Fragment, light mgl32.Vec3) {
	u := f.Uniforms
	c := mulElem3(light, u.Vec3("lightColour")).Mul(u.Float("lightIntensity"))
	f.Out[0] = c.Vec4(0)
}

func ambientFragment(f *Fragment) bool {
	size := f.Uniforms.Vec2("screenSize")
	if size[0] <= 0 || size[1] <= 0 {
		return false
	}
	uv := mgl32.Vec2{f.Coord[0] / size[0], f.Coord[1] / size[1]}
	emit(f, f.Sample("colourMap", uv).Vec3())
	return true
}

func directionalFragment(f *Fragment) bool {
	s, ok := readSurface(f)
	if !ok {
		return false
	}
	toLight := f.Uniforms.Vec3("lightDirection").Mul(-1)
	emit(f, s.reflectance(toLight, f.Uniforms.Vec3("cameraPosition")))
	return true
}

// pointLighting returns the attenuated response and the unit vector from
// the surface toward the light.
func pointLighting(f *Fragment, s surface) (mgl32.Vec3, mgl32.Vec3) {
	u := f.Uniforms
	delta := u.Vec3("lightPosition").Sub(s.position)
	d := delta.Len()
	toLight := normalize(delta)
	a := u.Vec3("lightAttenuation")
	attenuation := 1 / (a[0] + d*a[1] + d*d*a[2])
	return s.reflectance(toLight, u.Vec3("cameraPosition")).Mul(attenuation), toLight
}

func pointFragment(f *Fragment) bool {
	s, ok := readSurface(f)
	if !ok {
		return false
	}
	light, _ := pointLighting(f, s)
	emit(f, light)
	return true
}

func spotFragment(f *Fragment) bool {
	s, ok := readSurface(f)
	if !ok {
		return false
	}
	light, toLight := pointLighting(f, s)
	cutoff := f.Uniforms.Vec2("lightCutoff")
	theta := toLight.Mul(-1).Dot(f.Uniforms.Vec3("lightDirection"))
	emit(f, light.Mul(smoothstep(cutoff[0], cutoff[1], theta)))
	return true
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}

func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := min(max((x-edge0)/(edge1-edge0), 0), 1)
	return t * t * (3 - 2*t)
}

func mulElem3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func mulElem4(a, b mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}
