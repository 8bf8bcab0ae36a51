// Package input maps GLFW keys and mouse buttons to demo actions and turns
// them into fly-camera motion.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical control, not a physical key
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionSprint
	ActionReleaseCursor
	ActionCaptureCursor
	ActionNextLightSet
	ActionToggleProfiling
	ActionScreenshot
	ActionQuit
	ActionCount // sentinel for array sizing
)

// Manager tracks held actions and per-frame edges, plus the mouse movement
// accumulated since the last TakeLook.
type Manager struct {
	mu sync.RWMutex

	keys    map[glfw.Key][]Action
	buttons map[glfw.MouseButton][]Action

	held         [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	haveCursor   bool
	lastX, lastY float64
	lookX, lookY float64
}

// NewManager returns a Manager with the default WASD bindings
func NewManager() *Manager {
	m := &Manager{
		keys:    make(map[glfw.Key][]Action),
		buttons: make(map[glfw.MouseButton][]Action),
	}

	m.BindKey(glfw.KeyW, ActionMoveForward)
	m.BindKey(glfw.KeyUp, ActionMoveForward)
	m.BindKey(glfw.KeyS, ActionMoveBackward)
	m.BindKey(glfw.KeyDown, ActionMoveBackward)
	m.BindKey(glfw.KeyA, ActionMoveLeft)
	m.BindKey(glfw.KeyLeft, ActionMoveLeft)
	m.BindKey(glfw.KeyD, ActionMoveRight)
	m.BindKey(glfw.KeyRight, ActionMoveRight)
	m.BindKey(glfw.KeySpace, ActionMoveUp)
	m.BindKey(glfw.KeyLeftShift, ActionMoveDown)
	m.BindKey(glfw.KeyLeftControl, ActionSprint)
	m.BindKey(glfw.KeyEscape, ActionReleaseCursor)
	m.BindKey(glfw.KeyL, ActionNextLightSet)
	m.BindKey(glfw.KeyV, ActionToggleProfiling)
	m.BindKey(glfw.KeyF12, ActionScreenshot)
	m.BindKey(glfw.KeyQ, ActionQuit)

	m.BindMouseButton(glfw.MouseButtonLeft, ActionCaptureCursor)
	return m
}

func validAction(a Action) bool { return a >= 0 && a < ActionCount }

// BindKey adds action to key. A key may drive several actions and several
// keys may drive one action.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if !validAction(action) {
		return
	}
	m.mu.Lock()
	m.keys[key] = append(m.keys[key], action)
	m.mu.Unlock()
}

// UnbindKey removes every action bound to key
func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
}

func (m *Manager) BindMouseButton(button glfw.MouseButton, action Action) {
	if !validAction(action) {
		return
	}
	m.mu.Lock()
	m.buttons[button] = append(m.buttons[button], action)
	m.mu.Unlock()
}

// HandleKeyEvent updates state from a GLFW key callback. Repeat counts as held.
func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.keys[key], action == glfw.Press || action == glfw.Repeat)
}

// HandleMouseButtonEvent updates state from a GLFW mouse button callback
func (m *Manager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.buttons[button], action == glfw.Press)
}

// apply records edges as events arrive so a press and release within one
// frame are both seen. Caller holds mu.
func (m *Manager) apply(actions []Action, pressed bool) {
	for _, a := range actions {
		if pressed && !m.held[a] {
			m.justPressed[a] = true
		}
		if !pressed && m.held[a] {
			m.justReleased[a] = true
		}
		m.held[a] = pressed
	}
}

// HandleCursor accumulates cursor movement. The first position after
// ResetCursor only establishes the origin. Y grows upward in the result.
func (m *Manager) HandleCursor(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveCursor {
		m.lookX += x - m.lastX
		m.lookY += m.lastY - y
	}
	m.lastX, m.lastY = x, y
	m.haveCursor = true
}

// ResetCursor forgets the last cursor position, e.g. after recapturing it
func (m *Manager) ResetCursor() {
	m.mu.Lock()
	m.haveCursor = false
	m.lookX, m.lookY = 0, 0
	m.mu.Unlock()
}

// TakeLook returns and clears the accumulated cursor movement
func (m *Manager) TakeLook() (dx, dy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dx, dy = m.lookX, m.lookY
	m.lookX, m.lookY = 0, 0
	return dx, dy
}

// Attach installs key, button and cursor callbacks on window
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		m.HandleMouseButtonEvent(button, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		m.HandleCursor(x, y)
	})
}

// PostUpdate clears the per-frame edges. Call once at the end of each frame.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.justPressed[:])
	clear(m.justReleased[:])
}

// IsActive reports whether action is held
func (m *Manager) IsActive(action Action) bool {
	if !validAction(action) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.held[action]
}

// JustPressed reports whether action went down this frame
func (m *Manager) JustPressed(action Action) bool {
	if !validAction(action) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

// JustReleased reports whether action went up this frame
func (m *Manager) JustReleased(action Action) bool {
	if !validAction(action) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}
