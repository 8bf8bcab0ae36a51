package software

import (
	"fmt"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxOutputs is the number of colour outputs a fragment can write.
const MaxOutputs = 4

// Varying holds the per-vertex values interpolated across a triangle.
type Varying struct {
	Position mgl32.Vec3 // world space
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

func (v Varying) scale(s float32) Varying {
	return Varying{Position: v.Position.Mul(s), Normal: v.Normal.Mul(s), UV: v.UV.Mul(s)}
}

func (v Varying) add(o Varying) Varying {
	return Varying{Position: v.Position.Add(o.Position), Normal: v.Normal.Add(o.Normal), UV: v.UV.Add(o.UV)}
}

func lerpVarying(a, b Varying, t float32) Varying {
	return a.scale(1 - t).add(b.scale(t))
}

// VertexFunc transforms one vertex into clip space.
type VertexFunc func(u *Uniforms, in graphics.Vertex) (mgl32.Vec4, Varying)

// FragmentFunc shades one fragment by writing f.Out. Returning false
// discards the fragment.
type FragmentFunc func(f *Fragment) bool

// Shader is a program implemented in Go.
type Shader struct {
	Vertex   VertexFunc
	Fragment FragmentFunc
}

// Fragment is the input and output of a FragmentFunc.
type Fragment struct {
	// Coord is the window-space pixel centre, origin bottom-left.
	Coord    mgl32.Vec2
	In       Varying
	Uniforms *Uniforms
	Out      [MaxOutputs]mgl32.Vec4

	dev *Device
}

// Sample reads the texture bound to the slot named by the sampler uniform,
// nearest-neighbour with clamped coordinates.
func (f *Fragment) Sample(sampler string, uv mgl32.Vec2) mgl32.Vec4 {
	slot := int(f.Uniforms.Int(sampler))
	if slot < 0 || slot >= len(f.dev.slots) {
		return mgl32.Vec4{}
	}
	tex := f.dev.slots[slot]
	if tex == nil {
		return mgl32.Vec4{}
	}
	return tex.sample(uv)
}

// Uniforms stores program uniform values by type. Unset values read as zero.
type Uniforms struct {
	bools  map[string]bool
	ints   map[string]int32
	floats map[string]float32
	vec2s  map[string]mgl32.Vec2
	vec3s  map[string]mgl32.Vec3
	mat4s  map[string]mgl32.Mat4
	writes map[string]int
}

func newUniforms() *Uniforms {
	return &Uniforms{
		bools:  map[string]bool{},
		ints:   map[string]int32{},
		floats: map[string]float32{},
		vec2s:  map[string]mgl32.Vec2{},
		vec3s:  map[string]mgl32.Vec3{},
		mat4s:  map[string]mgl32.Mat4{},
		writes: map[string]int{},
	}
}

func (u *Uniforms) Bool(name string) bool       { return u.bools[name] }
func (u *Uniforms) Int(name string) int32       { return u.ints[name] }
func (u *Uniforms) Float(name string) float32   { return u.floats[name] }
func (u *Uniforms) Vec2(name string) mgl32.Vec2 { return u.vec2s[name] }
func (u *Uniforms) Vec3(name string) mgl32.Vec3 { return u.vec3s[name] }
func (u *Uniforms) Mat4(name string) mgl32.Mat4 { return u.mat4s[name] }
func (u *Uniforms) Writes(name string) int      { return u.writes[name] }

// Program is a software graphics.Program.
type Program struct {
	name     string
	shader   Shader
	uniforms *Uniforms
	dev      *Device
	deleted  bool
}

var _ graphics.Program = (*Program)(nil)

// Name returns the name the program was created with.
func (p *Program) Name() string { return p.name }

// Uniforms exposes the program's current uniform values.
func (p *Program) Uniforms() *Uniforms { return p.uniforms }

// Deleted reports whether Delete has been called.
func (p *Program) Deleted() bool { return p.deleted }

func (p *Program) Start() { p.dev.program = p }

func (p *Program) Stop() {
	if p.dev.program == p {
		p.dev.program = nil
	}
}

func (p *Program) SetBool(name string, value bool) {
	p.uniforms.bools[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) SetInt(name string, value int32) {
	p.uniforms.ints[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) SetFloat(name string, value float32) {
	p.uniforms.floats[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) SetVec2(name string, value mgl32.Vec2) {
	p.uniforms.vec2s[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) SetVec3(name string, value mgl32.Vec3) {
	p.uniforms.vec3s[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) SetMat4(name string, value mgl32.Mat4) {
	p.uniforms.mat4s[name] = value
	p.uniforms.writes[name]++
}

func (p *Program) Delete() {
	if p.deleted {
		return
	}
	p.deleted = true
	p.Stop()
	p.dev.live.Programs--
}

// RegisterShader makes a Go shader available to NewProgram under name,
// replacing any earlier registration.
func (d *Device) RegisterShader(name string, s Shader) {
	d.shaders[name] = s
}

func (d *Device) NewProgram(src graphics.ProgramSource) (graphics.Program, error) {
	s, ok := d.shaders[src.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no software shader named %q", graphics.ErrShaderCompile, src.Name)
	}
	if err := d.allocate("program " + src.Name); err != nil {
		return nil, err
	}
	d.live.Programs++
	return &Program{name: src.Name, shader: s, uniforms: newUniforms(), dev: d}, nil
}
