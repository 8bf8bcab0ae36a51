package config

import "sync"

// Projection defaults used when a camera is given a projection without
// explicit parameters.
const (
	DefaultFOV  float32 = 60
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 1000
)

// ViewSettings holds interactive view configuration
type ViewSettings struct {
	mu               sync.RWMutex
	fov              float32 // vertical, degrees
	mouseSensitivity float32
	moveSpeed        float32 // units per second
	fpsLimit         int     // 0 means unlimited
}

var globalViewSettings = &ViewSettings{
	fov:              DefaultFOV,
	mouseSensitivity: 0.1,
	moveSpeed:        5,
	fpsLimit:         144,
}

// GetFOV returns the vertical field of view in degrees
func GetFOV() float32 {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.fov
}

// SetFOV sets the vertical field of view in degrees
func SetFOV(fov float32) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()

	// Clamp to reasonable values
	if fov < 30 {
		fov = 30
	}
	if fov > 110 {
		fov = 110
	}

	globalViewSettings.fov = fov
}

// GetMouseSensitivity returns degrees of rotation per pixel of mouse travel
func GetMouseSensitivity() float32 {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.mouseSensitivity
}

// SetMouseSensitivity sets degrees of rotation per pixel of mouse travel
func SetMouseSensitivity(s float32) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()

	if s < 0.01 {
		s = 0.01
	}
	if s > 1 {
		s = 1
	}

	globalViewSettings.mouseSensitivity = s
}

// GetMoveSpeed returns the fly camera speed in units per second
func GetMoveSpeed() float32 {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.moveSpeed
}

// SetMoveSpeed sets the fly camera speed in units per second
func SetMoveSpeed(speed float32) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()

	if speed < 0.5 {
		speed = 0.5
	}
	if speed > 100 {
		speed = 100
	}

	globalViewSettings.moveSpeed = speed
}

// GetFPSLimit returns the frame rate cap; 0 means unlimited
func GetFPSLimit() int {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.fpsLimit
}

// SetFPSLimit sets the frame rate cap; values <= 0 disable it
func SetFPSLimit(limit int) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()

	if limit <= 0 {
		limit = 0
	} else if limit < 30 {
		limit = 30
	} else if limit > 1000 {
		limit = 1000
	}

	globalViewSettings.fpsLimit = limit
}
