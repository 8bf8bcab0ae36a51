// Package camera provides projection models and a Euler-angle camera
// producing the view and projection matrices the renderer draws with.
package camera

import (
	"errors"
	"fmt"

	"deferred3d/internal/config"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoProjection is returned when a projection is requested before one is set.
var ErrNoProjection = errors.New("camera: no projection set")

const flatEpsilon = 1e-6

var (
	baseForward = mgl32.Vec3{0, 0, -1}
	baseRight   = mgl32.Vec3{1, 0, 0}
	baseUp      = mgl32.Vec3{0, 1, 0}
)

// Camera holds a position, a rotation in radians and an optional projection.
// Rotation is applied yaw (Y), then pitch (X), then roll (Z).
type Camera struct {
	position   mgl32.Vec3
	rotation   mgl32.Vec3
	projection Projection
}

// New creates a camera at position looking down -Z with no projection.
func New(position mgl32.Vec3) *Camera {
	return &Camera{position: position}
}

func (c *Camera) Position() mgl32.Vec3      { return c.position }
func (c *Camera) SetPosition(p mgl32.Vec3)  { c.position = p }
func (c *Camera) MoveBy(delta mgl32.Vec3)   { c.position = c.position.Add(delta) }
func (c *Camera) Rotation() mgl32.Vec3      { return c.rotation }
func (c *Camera) SetRotation(r mgl32.Vec3)  { c.rotation = r }
func (c *Camera) RotateBy(delta mgl32.Vec3) { c.rotation = c.rotation.Add(delta) }

// SetProjection replaces the projection.
func (c *Camera) SetProjection(p Projection) { c.projection = p }

// HasProjection reports whether a projection has been set.
func (c *Camera) HasProjection() bool { return !c.projection.IsZero() }

func (c *Camera) rotation3() (x, y, z float32) {
	return c.rotation[0], c.rotation[1], c.rotation[2]
}

func (c *Camera) yaw() mgl32.Mat3 { return mgl32.Rotate3DY(c.rotation[1]) }

func (c *Camera) rotate(v mgl32.Vec3) mgl32.Vec3 { return c.rotationMat3().Mul3x1(v) }

func (c *Camera) rotationMat3() mgl32.Mat3 {
	x, y, z := c.rotation3()
	return mgl32.Rotate3DY(y).Mul3(mgl32.Rotate3DX(x)).Mul3(mgl32.Rotate3DZ(z))
}

// RotationMatrix returns the camera's orientation as Ry·Rx·Rz.
func (c *Camera) RotationMatrix() mgl32.Mat4 {
	x, y, z := c.rotation3()
	return mgl32.HomogRotate3DY(y).Mul4(mgl32.HomogRotate3DX(x)).Mul4(mgl32.HomogRotate3DZ(z))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 { return c.rotate(baseForward) }

// Right returns the unit right vector.
func (c *Camera) Right() mgl32.Vec3 { return c.rotate(baseRight) }

// Up returns the unit up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.rotate(baseUp) }

// FlatForward returns Forward projected onto the horizontal plane. When the
// camera looks straight up or down the yaw-only heading is used instead.
func (c *Camera) FlatForward() mgl32.Vec3 {
	return c.flatten(c.Forward(), baseForward)
}

// FlatRight returns Right projected onto the horizontal plane, falling back
// to the yaw-only right vector when the projection degenerates.
func (c *Camera) FlatRight() mgl32.Vec3 {
	return c.flatten(c.Right(), baseRight)
}

// FlatUp is always world up.
func (c *Camera) FlatUp() mgl32.Vec3 { return baseUp }

func (c *Camera) flatten(v, base mgl32.Vec3) mgl32.Vec3 {
	h := mgl32.Vec3{v[0], 0, v[2]}
	if h.Len() < flatEpsilon {
		h = c.yaw().Mul3x1(base)
		h[1] = 0
	}
	return h.Normalize()
}

// ViewMatrix returns Rz(-z)·Rx(-x)·Ry(-y)·T(-position), the exact inverse of
// the camera's model transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	x, y, z := c.rotation3()
	p := c.position
	return mgl32.HomogRotate3DZ(-z).
		Mul4(mgl32.HomogRotate3DX(-x)).
		Mul4(mgl32.HomogRotate3DY(-y)).
		Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
}

// Projection returns the current projection or ErrNoProjection.
func (c *Camera) Projection() (Projection, error) {
	if c.projection.IsZero() {
		return Projection{}, ErrNoProjection
	}
	return c.projection, nil
}

// ProjectionMatrix returns the current projection matrix or ErrNoProjection.
func (c *Camera) ProjectionMatrix() (mgl32.Mat4, error) {
	p, err := c.Projection()
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return p.Matrix(), nil
}

// SetPerspectiveProjection sets a perspective projection using the configured
// field of view and the default clip planes.
func (c *Camera) SetPerspectiveProjection(aspect float32) error {
	p, err := NewPerspective(aspect, config.GetFOV(), config.DefaultNear, config.DefaultFar)
	if err != nil {
		return err
	}
	c.projection = p
	return nil
}

// SetOrthographicProjection sets an orthographic projection using the default
// clip planes.
func (c *Camera) SetOrthographicProjection(aspect float32) error {
	p, err := NewOrthographic(aspect, config.DefaultNear, config.DefaultFar)
	if err != nil {
		return err
	}
	c.projection = p
	return nil
}

// SetAspect rebuilds the current projection for a new viewport aspect.
func (c *Camera) SetAspect(aspect float32) error {
	if c.projection.IsZero() {
		return ErrNoProjection
	}
	p, err := c.projection.WithAspect(aspect)
	if err != nil {
		return fmt.Errorf("set aspect: %w", err)
	}
	c.projection = p
	return nil
}
