package graphics

import "fmt"

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Winding is the vertex order that defines a front face.
type Winding int

const (
	WindingCCW Winding = iota
	WindingCW
)

// BlendMode selects how fragment outputs combine with the target.
type BlendMode int

const (
	// BlendNone overwrites the target.
	BlendNone BlendMode = iota
	// BlendAdditive computes dst = src + dst.
	BlendAdditive
	// BlendAlpha computes dst = src*alpha + dst*(1-alpha).
	BlendAlpha
)

// State is the fixed-function state of one render phase. Devices apply it
// as a whole so every phase transition is a single, inspectable value.
type State struct {
	DepthTest  bool
	DepthWrite bool
	Cull       CullMode
	FrontFace  Winding
	Blend      BlendMode
}

func (s State) String() string {
	return fmt.Sprintf("State{depth:%t write:%t cull:%d front:%d blend:%d}",
		s.DepthTest, s.DepthWrite, s.Cull, s.FrontFace, s.Blend)
}

var (
	// GeometryState writes the G-buffer: depth tested, back faces culled, no blending.
	GeometryState = State{DepthTest: true, DepthWrite: true, Cull: CullBack, FrontFace: WindingCCW, Blend: BlendNone}

	// LightingState accumulates screen-space lights additively.
	LightingState = State{Cull: CullNone, FrontFace: WindingCCW, Blend: BlendAdditive}

	// VolumeState accumulates a light volume that the camera may sit inside:
	// winding is reversed so only the interior surface survives culling.
	VolumeState = State{Cull: CullBack, FrontFace: WindingCW, Blend: BlendAdditive}

	// OverlayState is left behind after lighting so 2D overlays composite
	// with standard alpha blending.
	OverlayState = State{Cull: CullNone, FrontFace: WindingCCW, Blend: BlendAlpha}
)
