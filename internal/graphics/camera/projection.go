package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidProjection is returned for degenerate projection parameters.
var ErrInvalidProjection = errors.New("camera: invalid projection")

// ProjectionKind distinguishes the projection models.
type ProjectionKind int

const (
	Perspective ProjectionKind = iota + 1
	Orthographic
)

func (k ProjectionKind) String() string {
	switch k {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	}
	return "none"
}

// Projection is an immutable projection model with its precomputed matrix.
// The zero value is not a usable projection.
type Projection struct {
	kind   ProjectionKind
	aspect float32
	fov    float32
	near   float32
	far    float32
	matrix mgl32.Mat4
}

// NewPerspective builds a perspective projection. fovDegrees is the full
// vertical field of view.
func NewPerspective(aspect, fovDegrees, near, far float32) (Projection, error) {
	if !finite(aspect, fovDegrees, near, far) {
		return Projection{}, fmt.Errorf("%w: non-finite perspective parameters", ErrInvalidProjection)
	}
	if aspect <= 0 {
		return Projection{}, fmt.Errorf("%w: aspect %v must be positive", ErrInvalidProjection, aspect)
	}
	if fovDegrees <= 0 || fovDegrees >= 180 {
		return Projection{}, fmt.Errorf("%w: field of view %v outside (0, 180)", ErrInvalidProjection, fovDegrees)
	}
	if near <= 0 || far <= near {
		return Projection{}, fmt.Errorf("%w: need 0 < near < far, got near=%v far=%v", ErrInvalidProjection, near, far)
	}

	s := float32(1 / math.Tan(float64(fovDegrees)*math.Pi/360))
	m := mgl32.Mat4FromRows(
		mgl32.Vec4{s / aspect, 0, 0, 0},
		mgl32.Vec4{0, s, 0, 0},
		mgl32.Vec4{0, 0, -(far + near) / (far - near), -2 * far * near / (far - near)},
		mgl32.Vec4{0, 0, -1, 0},
	)

	return Projection{kind: Perspective, aspect: aspect, fov: fovDegrees, near: near, far: far, matrix: m}, nil
}

// NewOrthographic builds an orthographic projection spanning [-aspect, aspect]
// horizontally and [-1, 1] vertically. Its depth row (-1/(far-near), near)
// does not follow the perspective mapping and is kept as-is.
func NewOrthographic(aspect, near, far float32) (Projection, error) {
	if !finite(aspect, near, far) {
		return Projection{}, fmt.Errorf("%w: non-finite orthographic parameters", ErrInvalidProjection)
	}
	if aspect <= 0 {
		return Projection{}, fmt.Errorf("%w: aspect %v must be positive", ErrInvalidProjection, aspect)
	}
	if far <= near {
		return Projection{}, fmt.Errorf("%w: need near < far, got near=%v far=%v", ErrInvalidProjection, near, far)
	}

	m := mgl32.Mat4FromRows(
		mgl32.Vec4{1 / aspect, 0, 0, 0},
		mgl32.Vec4{0, 1, 0, 0},
		mgl32.Vec4{0, 0, -1 / (far - near), near},
		mgl32.Vec4{0, 0, 0, 1},
	)

	return Projection{kind: Orthographic, aspect: aspect, near: near, far: far, matrix: m}, nil
}

// WithAspect rebuilds the projection for a new viewport aspect ratio.
func (p Projection) WithAspect(aspect float32) (Projection, error) {
	switch p.kind {
	case Perspective:
		return NewPerspective(aspect, p.fov, p.near, p.far)
	case Orthographic:
		return NewOrthographic(aspect, p.near, p.far)
	}
	return Projection{}, fmt.Errorf("%w: zero projection", ErrInvalidProjection)
}

func (p Projection) Kind() ProjectionKind { return p.kind }
func (p Projection) Matrix() mgl32.Mat4   { return p.matrix }
func (p Projection) Aspect() float32      { return p.aspect }
func (p Projection) Near() float32        { return p.near }
func (p Projection) Far() float32         { return p.far }

// FOV returns the vertical field of view in degrees; zero for orthographic.
func (p Projection) FOV() float32 { return p.fov }

// IsZero reports whether p was never constructed.
func (p Projection) IsZero() bool { return p.kind == 0 }

func finite(values ...float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
