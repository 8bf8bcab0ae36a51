// Package software implements graphics.Device on the CPU. Programs are Go
// functions registered by name in place of GLSL. Every applied state and
// every draw is recorded so callers can audit the exact device usage.
package software

import (
	"fmt"

	"deferred3d/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

const maxSlots = 16

// Draw records one DrawElements call.
type Draw struct {
	Program string
	State   graphics.State
	// Target is the bound framebuffer, nil for the default target.
	Target graphics.Framebuffer
	Count  int32
	// Fragments is the number of fragments that reached the target.
	Fragments int
}

// Resources counts live device objects.
type Resources struct {
	Textures     int
	Framebuffers int
	Programs     int
	Meshes       int
}

// Device is a software graphics.Device. It is not safe for concurrent use.
type Device struct {
	shaders map[string]Shader

	screen   *framebuffer
	target   *framebuffer
	slots    [maxSlots]*texture
	viewport [2]int
	state    graphics.State
	program  *Program
	mesh     *mesh

	states       []graphics.State
	draws        []Draw
	invalidDraws int
	live         Resources
	failAfter    int
}

var _ graphics.Device = (*Device)(nil)

// NewDevice creates a device whose default target is width x height, with
// the built-in renderer programs registered.
func NewDevice(width, height int) *Device {
	d := &Device{shaders: map[string]Shader{}, failAfter: -1}
	d.screen = d.newScreen(width, height)
	d.viewport = [2]int{width, height}
	registerBuiltins(d)
	return d
}

func (d *Device) newScreen(width, height int) *framebuffer {
	colour := &texture{width: width, height: height, format: graphics.FormatRGBA8, pix: make([]mgl32.Vec4, width*height), dev: d}
	depth := &texture{width: width, height: height, format: graphics.FormatDepth32F, pix: make([]mgl32.Vec4, width*height), dev: d}
	depth.fill(mgl32.Vec4{1})
	return &framebuffer{width: width, height: height, colour: []*texture{colour}, depth: depth, dev: d}
}

// ResizeScreen replaces the default target with one of the given size.
func (d *Device) ResizeScreen(width, height int) {
	d.screen = d.newScreen(width, height)
}

// Screen returns the default target's colour image.
func (d *Device) Screen() graphics.Texture { return d.screen.colour[0] }

// FailAllocationAfter lets the next n allocations succeed and fails the one
// after with graphics.ErrDeviceAllocation. A negative n disables it.
func (d *Device) FailAllocationAfter(n int) { d.failAfter = n }

func (d *Device) allocate(what string) error {
	switch {
	case d.failAfter < 0:
		return nil
	case d.failAfter == 0:
		d.failAfter = -1
		return fmt.Errorf("%w: %s", graphics.ErrDeviceAllocation, what)
	}
	d.failAfter--
	return nil
}

// States returns every state applied since the last ResetRecords.
func (d *Device) States() []graphics.State { return append([]graphics.State(nil), d.states...) }

// Draws returns every draw issued since the last ResetRecords.
func (d *Device) Draws() []Draw { return append([]Draw(nil), d.draws...) }

// InvalidDraws counts draws issued without a started program or loaded mesh.
func (d *Device) InvalidDraws() int { return d.invalidDraws }

// State returns the state currently applied.
func (d *Device) State() graphics.State { return d.state }

// Live returns the number of live resources created through the Device interface.
func (d *Device) Live() Resources { return d.live }

// ResetRecords clears the recorded states and draws.
func (d *Device) ResetRecords() {
	d.states = nil
	d.draws = nil
	d.invalidDraws = 0
}

func (d *Device) current() *framebuffer {
	if d.target == nil {
		return d.screen
	}
	return d.target
}

func (d *Device) BindFramebuffer(fb graphics.Framebuffer) {
	if fb == nil {
		d.target = nil
		return
	}
	f, ok := fb.(*framebuffer)
	if !ok || f.deleted {
		d.target = nil
		return
	}
	d.target = f
}

func (d *Device) BindTexture(slot int, tex graphics.Texture) {
	if slot < 0 || slot >= maxSlots {
		return
	}
	if tex == nil {
		d.slots[slot] = nil
		return
	}
	t, ok := tex.(*texture)
	if !ok || t.deleted {
		d.slots[slot] = nil
		return
	}
	d.slots[slot] = t
}

func (d *Device) SetViewport(width, height int) {
	d.viewport = [2]int{width, height}
}

func (d *Device) Apply(state graphics.State) {
	d.state = state
	d.states = append(d.states, state)
}

// Clear fills every colour attachment of the bound target and resets depth
// to the far plane.
func (d *Device) Clear(colour mgl32.Vec4, mask graphics.ClearMask) {
	fb := d.current()
	if mask&graphics.ClearColour != 0 {
		for _, t := range fb.colour {
			t.fill(colour)
		}
	}
	if mask&graphics.ClearDepth != 0 && fb.depth != nil {
		fb.depth.fill(mgl32.Vec4{1})
	}
}

func (d *Device) DrawElements(count int32) {
	if d.program == nil || d.mesh == nil || d.program.deleted || d.mesh.deleted {
		d.invalidDraws++
		return
	}
	draw := Draw{Program: d.program.name, State: d.state, Count: count}
	if d.target != nil {
		draw.Target = d.target
	}
	draw.Fragments = d.rasterise(count)
	d.draws = append(d.draws, draw)
}

// Blit copies fb's first colour attachment onto the default target,
// stretched to width x height.
func (d *Device) Blit(fb graphics.Framebuffer, width, height int) {
	f, ok := fb.(*framebuffer)
	if !ok || f.deleted || width <= 0 || height <= 0 {
		return
	}
	src := f.colour[0]
	dst := d.screen.colour[0]
	for y := 0; y < min(height, dst.height); y++ {
		sy := y * src.height / height
		for x := 0; x < min(width, dst.width); x++ {
			sx := x * src.width / width
			dst.set(x, y, src.at(sx, sy))
		}
	}
}
