package config

import (
	"errors"
	"fmt"
)

// ErrInvalidRenderer is returned for unusable renderer settings.
var ErrInvalidRenderer = errors.New("config: invalid renderer settings")

// Renderer holds the values a deferred renderer is constructed with.
type Renderer struct {
	Width  int
	Height int
	// PrecompileLightShaders compiles every light program at construction
	// instead of on first use.
	PrecompileLightShaders bool
}

// DefaultRenderer returns a 900x600 target with light programs precompiled.
func DefaultRenderer() Renderer {
	return Renderer{Width: 900, Height: 600, PrecompileLightShaders: true}
}

// Aspect returns width over height.
func (r Renderer) Aspect() float32 {
	if r.Height == 0 {
		return 0
	}
	return float32(r.Width) / float32(r.Height)
}

// Validate reports whether the dimensions are usable.
func (r Renderer) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidRenderer, r.Width, r.Height)
	}
	return nil
}
