package renderer

import "errors"

var (
	// ErrFrameNotBegun is returned by frame operations called before Begin.
	ErrFrameNotBegun = errors.New("renderer: frame not begun")
	// ErrFrameInProgress is returned by Begin and Resize while a frame is open.
	ErrFrameInProgress = errors.New("renderer: frame already in progress")
	// ErrGeometryAfterLighting is returned when objects are drawn after a
	// light in the same frame.
	ErrGeometryAfterLighting = errors.New("renderer: geometry drawn after lighting")
	// ErrLightingBeforeGeometry is returned when a light is drawn before any
	// objects in the frame.
	ErrLightingBeforeGeometry = errors.New("renderer: lighting before geometry")
	// ErrDestroyed is returned by every operation after Destroy.
	ErrDestroyed = errors.New("renderer: destroyed")
	// ErrNoCamera is returned when New is given a nil camera.
	ErrNoCamera = errors.New("renderer: nil camera")
)
