// Command deferred-demo renders a scene with the deferred renderer in an
// OpenGL window and flies a camera through it.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"
	"time"

	"deferred3d/internal/config"
	"deferred3d/internal/graphics/camera"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/graphics/opengl"
	"deferred3d/internal/graphics/renderer"
	"deferred3d/internal/input"
	"deferred3d/internal/logging"
	"deferred3d/internal/profiling"
	"deferred3d/internal/scene"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

// lightSets are cycled with ActionNextLightSet; nil means every light
var lightSets = [][]lighting.Kind{
	nil,
	{lighting.KindAmbient},
	{lighting.KindAmbient, lighting.KindDirectional},
	{lighting.KindAmbient, lighting.KindPoint},
	{lighting.KindAmbient, lighting.KindSpot},
}

type options struct {
	width, height int
	scenePath     string
	fps           int
	precompile    bool
	verbose       bool
}

func main() {
	var o options
	flag.IntVar(&o.width, "width", config.DefaultRenderer().Width, "window width")
	flag.IntVar(&o.height, "height", config.DefaultRenderer().Height, "window height")
	flag.StringVar(&o.scenePath, "scene", "", "scene description (JSON); the built-in demo when empty")
	flag.IntVar(&o.fps, "fps", config.GetFPSLimit(), "frame rate cap, 0 for unlimited")
	flag.BoolVar(&o.precompile, "precompile", true, "compile every light shader at startup")
	flag.BoolVar(&o.verbose, "v", false, "log renderer activity")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, "deferred-demo:", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	config.SetFPSLimit(o.fps)

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(o.width, o.height)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}
	logging.Logger().Info("opengl ready", "version", dev.Version())

	var s *scene.Scene
	if o.scenePath != "" {
		s, err = scene.Load(dev, o.scenePath)
	} else {
		s, err = scene.Demo(dev)
	}
	if err != nil {
		return err
	}
	defer s.Release()

	cam := camera.New(s.CameraPosition)
	cam.SetRotation(s.CameraRotation)

	fbW, fbH := window.GetFramebufferSize()
	r, err := renderer.New(dev, cam, config.Renderer{Width: fbW, Height: fbH, PrecompileLightShaders: o.precompile})
	if err != nil {
		return err
	}
	defer r.Destroy()

	pendingW, pendingH := fbW, fbH
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		pendingW, pendingH = width, height
	})

	in := input.NewManager()
	in.Attach(window)
	fly := input.NewFlyCamera(cam)

	app := &app{
		window:   window,
		dev:      dev,
		renderer: r,
		scene:    s,
		input:    in,
		fly:      fly,
	}
	for !window.ShouldClose() {
		if w, h := r.Size(); (pendingW != w || pendingH != h) && pendingW > 0 && pendingH > 0 {
			if err := r.Resize(pendingW, pendingH); err != nil {
				return err
			}
		}
		if err := app.frame(); err != nil {
			return err
		}
	}
	return nil
}

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "deferred-demo", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

type app struct {
	window   *glfw.Window
	dev      *opengl.Device
	renderer *renderer.Renderer
	scene    *scene.Scene
	input    *input.Manager
	fly      *input.FlyCamera

	limiter   fpsLimiter
	lastTime  time.Time
	lightSet  int
	profiling bool
	frames    int
	fpsSince  time.Time
}

// skipLight logs a light the renderer rejected; the frame continues without it.
func skipLight(l lighting.Light, err error) {
	logging.Logger().Warn("light skipped", "kind", l.Kind, "position", l.Position, "error", err)
}

func (a *app) frame() error {
	profiling.ResetFrame()
	now := time.Now()
	if a.lastTime.IsZero() {
		a.lastTime, a.fpsSince = now, now
	}
	dt := float32(now.Sub(a.lastTime).Seconds())
	a.lastTime = now

	a.handleActions()
	if a.window.GetInputMode(glfw.CursorMode) == glfw.CursorDisabled {
		a.fly.Look(a.input.TakeLook())
	} else {
		a.input.TakeLook()
	}
	a.fly.Update(a.input, dt)

	lights := a.scene.LightsOf(lightSets[a.lightSet]...)
	if err := a.scene.RenderEach(a.renderer, lights, skipLight); err != nil {
		return err
	}
	if a.input.JustPressed(input.ActionScreenshot) {
		if err := a.screenshot(); err != nil {
			logging.Logger().Warn("screenshot failed", "error", err)
		}
	}

	func() { defer profiling.Track("glfw.SwapBuffers")(); a.window.SwapBuffers() }()
	a.input.PostUpdate()
	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	a.frames++
	if time.Since(a.fpsSince) >= time.Second {
		if a.profiling {
			fmt.Printf("FPS: %d  %s\n", a.frames, profiling.TopN(6))
		}
		a.frames, a.fpsSince = 0, time.Now()
	}
	if total := time.Since(now); config.GetFPSLimit() > 0 && total > 2*time.Second/time.Duration(config.GetFPSLimit()) {
		logging.Logger().Warn("slow frame", "duration", total, "breakdown", profiling.TopN(4))
	}

	a.limiter.Wait()
	return nil
}

func (a *app) handleActions() {
	in := a.input
	switch {
	case in.JustPressed(input.ActionQuit):
		a.window.SetShouldClose(true)
	case in.JustPressed(input.ActionReleaseCursor):
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	case in.JustPressed(input.ActionCaptureCursor):
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		in.ResetCursor()
	}
	if in.JustPressed(input.ActionNextLightSet) {
		a.lightSet = (a.lightSet + 1) % len(lightSets)
		logging.Logger().Info("light set", "kinds", lightSets[a.lightSet])
	}
	if in.JustPressed(input.ActionToggleProfiling) {
		a.profiling = !a.profiling
	}
}

func (a *app) screenshot() error {
	w, h := a.renderer.Size()
	img := a.dev.ReadScreen(w, h)

	name := fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	logging.Logger().Info("screenshot saved", "path", name, "camera", a.renderer.Camera().Position())
	return f.Close()
}
