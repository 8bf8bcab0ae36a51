package renderer

import (
	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/camera"
)

// DrawContext is what scene objects draw through during the geometry pass.
type DrawContext interface {
	// DrawIndexed draws every index of mesh into the bound target.
	DrawIndexed(mesh graphics.Mesh)
	// BindTexture binds tex to a sampler slot for the next draw.
	BindTexture(slot int, tex graphics.Texture)
	Camera() *camera.Camera
}

// Object is anything drawn into the G-buffer. Draw sets the object's own
// transform and material uniforms on program, then calls ctx.DrawIndexed.
type Object interface {
	Draw(ctx DrawContext, program graphics.Program)
}

// ObjectFunc adapts a function to Object.
type ObjectFunc func(ctx DrawContext, program graphics.Program)

func (f ObjectFunc) Draw(ctx DrawContext, program graphics.Program) { f(ctx, program) }
