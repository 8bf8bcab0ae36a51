package config

import (
	"errors"
	"testing"
)

func TestSettersClamp(t *testing.T) {
	defer SetFOV(GetFOV())
	defer SetMoveSpeed(GetMoveSpeed())
	defer SetMouseSensitivity(GetMouseSensitivity())
	defer SetFPSLimit(GetFPSLimit())

	SetFOV(10)
	if got := GetFOV(); got != 30 {
		t.Errorf("SetFOV(10): got %v, want 30", got)
	}
	SetFOV(200)
	if got := GetFOV(); got != 110 {
		t.Errorf("SetFOV(200): got %v, want 110", got)
	}
	SetMoveSpeed(0)
	if got := GetMoveSpeed(); got != 0.5 {
		t.Errorf("SetMoveSpeed(0): got %v, want 0.5", got)
	}
	SetMouseSensitivity(5)
	if got := GetMouseSensitivity(); got != 1 {
		t.Errorf("SetMouseSensitivity(5): got %v, want 1", got)
	}

	for _, tc := range []struct{ in, want int }{{-5, 0}, {0, 0}, {10, 30}, {60, 60}, {5000, 1000}} {
		SetFPSLimit(tc.in)
		if got := GetFPSLimit(); got != tc.want {
			t.Errorf("SetFPSLimit(%d): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDefaultRenderer(t *testing.T) {
	r := DefaultRenderer()
	if r.Width != 900 || r.Height != 600 || !r.PrecompileLightShaders {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if got := r.Aspect(); got != 1.5 {
		t.Errorf("aspect: got %v, want 1.5", got)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
	if err := (Renderer{Width: 0, Height: 10}).Validate(); !errors.Is(err, ErrInvalidRenderer) {
		t.Errorf("zero width: got %v, want ErrInvalidRenderer", err)
	}
}
