package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

// vecNear and matNear compare each component absolutely. mgl32's threshold
// helpers are relative and reject float noise next to an exact zero.
func vecNear(a, b mgl32.Vec3) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func matNear(a, b mgl32.Mat4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestNearToleratesNoiseAtZero(t *testing.T) {
	if !vecNear(mgl32.Vec3{-1, 0, 4.371139e-08}, mgl32.Vec3{-1, 0, 0}) {
		t.Error("vecNear rejected float noise next to zero")
	}
	noisy := mgl32.Ident4()
	noisy[1], noisy[12] = 1.2e-7, -1.2e-7
	if !matNear(noisy, mgl32.Ident4()) {
		t.Error("matNear rejected float noise next to zero")
	}
	if vecNear(mgl32.Vec3{0, 0, 1e-3}, mgl32.Vec3{}) || matNear(mgl32.Scale3D(2, 1, 1), mgl32.Ident4()) {
		t.Error("near helpers accepted a real difference")
	}
}

func hasNaN(v mgl32.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return true
		}
	}
	return false
}

func TestPerspectiveMatrix(t *testing.T) {
	p, err := NewPerspective(1.5, 60, 0.1, 1000)
	if err != nil {
		t.Fatalf("NewPerspective: %v", err)
	}
	m := p.Matrix()
	if got := m.Row(3); got != (mgl32.Vec4{0, 0, -1, 0}) {
		t.Errorf("bottom row: got %v, want [0 0 -1 0]", got)
	}
	for i, v := range m {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("entry %d not finite: %v", i, v)
		}
	}
	s := float32(1 / math.Tan(math.Pi/6))
	if d := m.At(1, 1) - s; d > eps || d < -eps {
		t.Errorf("S: got %v, want %v", m.At(1, 1), s)
	}
	if d := m.At(0, 0) - s/1.5; d > eps || d < -eps {
		t.Errorf("S/aspect: got %v, want %v", m.At(0, 0), s/1.5)
	}

	// A point on the near plane maps to NDC z = -1, far plane to +1.
	near := m.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	if z := near.Z() / near.W(); math.Abs(float64(z+1)) > 1e-3 {
		t.Errorf("near plane depth: got %v, want -1", z)
	}
	far := m.Mul4x1(mgl32.Vec4{0, 0, -1000, 1})
	if z := far.Z() / far.W(); math.Abs(float64(z-1)) > 1e-3 {
		t.Errorf("far plane depth: got %v, want 1", z)
	}
}

func TestOrthographicMatrix(t *testing.T) {
	p, err := NewOrthographic(2, 0.5, 10.5)
	if err != nil {
		t.Fatalf("NewOrthographic: %v", err)
	}
	want := mgl32.Mat4FromRows(
		mgl32.Vec4{0.5, 0, 0, 0},
		mgl32.Vec4{0, 1, 0, 0},
		mgl32.Vec4{0, 0, -0.1, 0.5},
		mgl32.Vec4{0, 0, 0, 1},
	)
	if !matNear(p.Matrix(), want) {
		t.Errorf("orthographic matrix:\n got %v\nwant %v", p.Matrix(), want)
	}
	if p.Kind() != Orthographic || p.FOV() != 0 {
		t.Errorf("unexpected kind/fov: %v %v", p.Kind(), p.FOV())
	}
}

func TestProjectionErrors(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		make func() (Projection, error)
	}{
		{"zero aspect", func() (Projection, error) { return NewPerspective(0, 60, 0.1, 100) }},
		{"zero fov", func() (Projection, error) { return NewPerspective(1, 0, 0.1, 100) }},
		{"straight fov", func() (Projection, error) { return NewPerspective(1, 180, 0.1, 100) }},
		{"zero near", func() (Projection, error) { return NewPerspective(1, 60, 0, 100) }},
		{"far before near", func() (Projection, error) { return NewPerspective(1, 60, 10, 1) }},
		{"nan", func() (Projection, error) { return NewPerspective(1, nan, 0.1, 100) }},
		{"ortho aspect", func() (Projection, error) { return NewOrthographic(-1, 0.1, 100) }},
		{"ortho planes", func() (Projection, error) { return NewOrthographic(1, 5, 5) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.make(); !errors.Is(err, ErrInvalidProjection) {
				t.Fatalf("got %v, want ErrInvalidProjection", err)
			}
		})
	}
}

func TestWithAspect(t *testing.T) {
	p, _ := NewPerspective(1, 45, 1, 50)
	q, err := p.WithAspect(2)
	if err != nil {
		t.Fatalf("WithAspect: %v", err)
	}
	if q.Kind() != Perspective || q.FOV() != 45 || q.Near() != 1 || q.Far() != 50 || q.Aspect() != 2 {
		t.Errorf("parameters not carried over: %+v", q)
	}
	if _, err := (Projection{}).WithAspect(1); !errors.Is(err, ErrInvalidProjection) {
		t.Errorf("zero projection: got %v", err)
	}
}

func TestBasisAtRest(t *testing.T) {
	c := New(mgl32.Vec3{})
	if !vecNear(c.Forward(), mgl32.Vec3{0, 0, -1}) {
		t.Errorf("forward: %v", c.Forward())
	}
	if !vecNear(c.Right(), mgl32.Vec3{1, 0, 0}) {
		t.Errorf("right: %v", c.Right())
	}
	if !vecNear(c.Up(), mgl32.Vec3{0, 1, 0}) {
		t.Errorf("up: %v", c.Up())
	}

	c.SetRotation(mgl32.Vec3{0, mgl32.DegToRad(90), 0})
	if !vecNear(c.Forward(), mgl32.Vec3{-1, 0, 0}) {
		t.Errorf("yaw 90 forward: %v", c.Forward())
	}
}

func TestViewMatrixMovesCameraToOrigin(t *testing.T) {
	rotations := []mgl32.Vec3{
		{},
		{0.3, -1.2, 0.1},
		{-1.5, 2.8, -0.7},
		{math.Pi / 2, 0, 0},
	}
	for _, r := range rotations {
		c := New(mgl32.Vec3{3, -7, 12.5})
		c.SetRotation(r)
		got := c.ViewMatrix().Mul4x1(c.Position().Vec4(1)).Vec3()
		if !vecNear(got, mgl32.Vec3{}) {
			t.Errorf("rotation %v: view·position = %v, want origin", r, got)
		}

		model := mgl32.Translate3D(3, -7, 12.5).Mul4(c.RotationMatrix())
		if !matNear(c.ViewMatrix().Mul4(model), mgl32.Ident4()) {
			t.Errorf("rotation %v: view is not the inverse of the model transform", r)
		}

		// The view maps the forward vector onto -Z.
		f := c.ViewMatrix().Mul4x1(c.Position().Add(c.Forward()).Vec4(1)).Vec3()
		if !vecNear(f, mgl32.Vec3{0, 0, -1}) {
			t.Errorf("rotation %v: forward in view space = %v", r, f)
		}
	}
}

func TestFlatVectors(t *testing.T) {
	c := New(mgl32.Vec3{})
	for _, pitch := range []float32{0, 0.7, -1.2, math.Pi / 2, -math.Pi / 2} {
		for _, yaw := range []float32{0, 1, -2.5} {
			c.SetRotation(mgl32.Vec3{pitch, yaw, 0})
			for name, v := range map[string]mgl32.Vec3{"forward": c.FlatForward(), "right": c.FlatRight()} {
				if hasNaN(v) {
					t.Fatalf("pitch %v yaw %v: flat %s is not finite: %v", pitch, yaw, name, v)
				}
				if v.Y() != 0 {
					t.Errorf("pitch %v yaw %v: flat %s has height %v", pitch, yaw, name, v.Y())
				}
				if l := v.Len(); math.Abs(float64(l-1)) > eps {
					t.Errorf("pitch %v yaw %v: flat %s length %v", pitch, yaw, name, l)
				}
			}
		}
	}

	// Looking straight down the heading still follows yaw.
	c.SetRotation(mgl32.Vec3{-math.Pi / 2, math.Pi / 2, 0})
	if !vecNear(c.FlatForward(), mgl32.Vec3{-1, 0, 0}) {
		t.Errorf("straight down flat forward: %v", c.FlatForward())
	}
	if c.FlatUp() != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("flat up: %v", c.FlatUp())
	}
}

func TestCameraProjection(t *testing.T) {
	c := New(mgl32.Vec3{})
	if _, err := c.ProjectionMatrix(); !errors.Is(err, ErrNoProjection) {
		t.Fatalf("unset projection: got %v", err)
	}
	if err := c.SetAspect(2); !errors.Is(err, ErrNoProjection) {
		t.Fatalf("SetAspect without projection: got %v", err)
	}
	if err := c.SetPerspectiveProjection(1.5); err != nil {
		t.Fatalf("SetPerspectiveProjection: %v", err)
	}
	if err := c.SetAspect(0.5); err != nil {
		t.Fatalf("SetAspect: %v", err)
	}
	p, _ := c.Projection()
	if p.Aspect() != 0.5 || p.Kind() != Perspective {
		t.Errorf("projection after SetAspect: %+v", p)
	}
	if err := c.SetAspect(-1); !errors.Is(err, ErrInvalidProjection) {
		t.Errorf("negative aspect: got %v", err)
	}
	if err := c.SetOrthographicProjection(1); err != nil || !c.HasProjection() {
		t.Errorf("SetOrthographicProjection: %v", err)
	}
}
