package input

import (
	"deferred3d/internal/config"
	"deferred3d/internal/graphics/camera"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	maxPitch        = 89.0
	sprintFactor    = 3
	lookFrequency   = 12.0
	lookDamping     = 1.0
	defaultLookRate = 60
)

// lookAxis eases one rotation angle toward its target, in degrees
type lookAxis struct {
	spring   harmonica.Spring
	angle    float64
	velocity float64
	target   float64
}

func newLookAxis(fps int) lookAxis {
	// critically damped: no overshoot past the mouse
	return lookAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), lookFrequency, lookDamping)}
}

func (a *lookAxis) step() {
	a.angle, a.velocity = a.spring.Update(a.angle, a.velocity, a.target)
}

// FlyCamera drives a camera from a Manager: mouse look eased by springs
// and free movement on the horizontal plane plus world up.
type FlyCamera struct {
	cam   *camera.Camera
	yaw   lookAxis
	pitch lookAxis
}

// NewFlyCamera attaches to cam, starting from its current rotation. Springs
// step at the configured frame limit, or 60 Hz when unlimited.
func NewFlyCamera(cam *camera.Camera) *FlyCamera {
	fps := config.GetFPSLimit()
	if fps <= 0 {
		fps = defaultLookRate
	}
	f := &FlyCamera{cam: cam, yaw: newLookAxis(fps), pitch: newLookAxis(fps)}

	r := cam.Rotation()
	f.pitch.angle = float64(mgl32.RadToDeg(r[0]))
	f.yaw.angle = -float64(mgl32.RadToDeg(r[1]))
	f.pitch.target, f.yaw.target = f.pitch.angle, f.yaw.angle
	return f
}

// Look adds a mouse movement in pixels, scaled by the mouse sensitivity.
// Positive dx turns right, positive dy looks up.
func (f *FlyCamera) Look(dx, dy float64) {
	s := float64(config.GetMouseSensitivity())
	f.yaw.target += dx * s
	f.pitch.target = max(-maxPitch, min(maxPitch, f.pitch.target+dy*s))
}

// Update applies one frame of input. dt is the frame time in seconds.
func (f *FlyCamera) Update(m *Manager, dt float32) {
	f.Look(m.TakeLook())
	f.yaw.step()
	f.pitch.step()

	r := f.cam.Rotation()
	f.cam.SetRotation(mgl32.Vec3{
		mgl32.DegToRad(float32(f.pitch.angle)),
		-mgl32.DegToRad(float32(f.yaw.angle)),
		r[2],
	})

	var dir mgl32.Vec3
	add := func(a Action, v mgl32.Vec3) {
		if m.IsActive(a) {
			dir = dir.Add(v)
		}
	}
	add(ActionMoveForward, f.cam.FlatForward())
	add(ActionMoveBackward, f.cam.FlatForward().Mul(-1))
	add(ActionMoveRight, f.cam.FlatRight())
	add(ActionMoveLeft, f.cam.FlatRight().Mul(-1))
	add(ActionMoveUp, f.cam.FlatUp())
	add(ActionMoveDown, f.cam.FlatUp().Mul(-1))
	if dir.Len() < 1e-6 {
		return
	}

	speed := config.GetMoveSpeed()
	if m.IsActive(ActionSprint) {
		speed *= sprintFactor
	}
	f.cam.MoveBy(dir.Normalize().Mul(speed * dt))
}

// Angles returns the eased yaw and pitch in degrees
func (f *FlyCamera) Angles() (yaw, pitch float64) { return f.yaw.angle, f.pitch.angle }
