package opengl

import (
	"fmt"
	"strings"

	"deferred3d/internal/graphics"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Program is a linked OpenGL shader program
type Program struct {
	ID   uint32
	Name string

	locations map[string]int32
}

var _ graphics.Program = (*Program)(nil)

func (d *Device) NewProgram(src graphics.ProgramSource) (graphics.Program, error) {
	id, err := compileProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", graphics.ErrShaderCompile, src.Name, err)
	}
	return &Program{ID: id, Name: src.Name, locations: make(map[string]int32)}, nil
}

// Start activates the shader program
func (p *Program) Start() {
	gl.UseProgram(p.ID)
}

// Stop deactivates any program
func (p *Program) Stop() {
	gl.UseProgram(0)
}

// location caches uniform lookups; uniforms are set with the program bound
func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

// SetBool sets a boolean uniform
func (p *Program) SetBool(name string, value bool) {
	var intValue int32
	if value {
		intValue = 1
	}
	gl.ProgramUniform1i(p.ID, p.location(name), intValue)
}

// SetInt sets an integer uniform
func (p *Program) SetInt(name string, value int32) {
	gl.ProgramUniform1i(p.ID, p.location(name), value)
}

// SetFloat sets a float uniform
func (p *Program) SetFloat(name string, value float32) {
	gl.ProgramUniform1f(p.ID, p.location(name), value)
}

// SetVec2 sets a vector2 uniform
func (p *Program) SetVec2(name string, value mgl32.Vec2) {
	gl.ProgramUniform2f(p.ID, p.location(name), value[0], value[1])
}

// SetVec3 sets a vector3 uniform
func (p *Program) SetVec3(name string, value mgl32.Vec3) {
	gl.ProgramUniform3f(p.ID, p.location(name), value[0], value[1], value[2])
}

// SetMat4 sets a 4x4 matrix uniform
func (p *Program) SetMat4(name string, value mgl32.Mat4) {
	gl.ProgramUniformMatrix4fv(p.ID, p.location(name), 1, false, &value[0])
}

func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// Helper functions
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}
