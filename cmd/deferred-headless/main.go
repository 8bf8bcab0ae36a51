// Command deferred-headless renders one frame with the software device and
// writes it as a PNG, optionally previewing it in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"deferred3d/internal/config"
	"deferred3d/internal/graphics/camera"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/graphics/renderer"
	"deferred3d/internal/graphics/software"
	"deferred3d/internal/logging"
	"deferred3d/internal/profiling"
	"deferred3d/internal/scene"

	"github.com/xlab/closer"
)

type options struct {
	width, height int
	scenePath     string
	out           string
	lights        string
	label         bool
	fontPath      string
	term          bool
	verbose       bool
}

func main() {
	var o options
	flag.IntVar(&o.width, "width", 320, "image width")
	flag.IntVar(&o.height, "height", 240, "image height")
	flag.StringVar(&o.scenePath, "scene", "", "scene description (JSON); the built-in demo when empty")
	flag.StringVar(&o.out, "out", "render.png", "output PNG, empty to skip")
	flag.StringVar(&o.lights, "lights", "", "comma-separated light kinds to draw; every light when empty")
	flag.BoolVar(&o.label, "label", false, "stamp frame statistics onto the image")
	flag.StringVar(&o.fontPath, "font", "", "TrueType font for -label; Go Regular when empty")
	flag.BoolVar(&o.term, "term", false, "preview the frame in the terminal")
	flag.BoolVar(&o.verbose, "v", false, "log renderer activity")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	if err := run(ctx, o); err != nil {
		closer.Fatalln("deferred-headless:", err)
	}
	closer.Close()
}

func parseKinds(s string) ([]lighting.Kind, error) {
	var kinds []lighting.Kind
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		k, err := lighting.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func run(ctx context.Context, o options) error {
	if o.verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	kinds, err := parseKinds(o.lights)
	if err != nil {
		return err
	}

	dev := software.NewDevice(o.width, o.height)
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
	r, err := renderer.New(dev, cam, config.Renderer{Width: o.width, Height: o.height})
	if err != nil {
		return err
	}
	defer r.Destroy()

	lights := s.LightsOf(kinds...)
	profiling.ResetFrame()
	start := time.Now()
	if err := s.Render(r, lights); err != nil {
		return err
	}
	elapsed := time.Since(start)
	logging.Logger().Info("frame rendered", "duration", elapsed, "lights", len(lights), "breakdown", profiling.TopN(4))

	img := dev.Image(dev.Screen())
	if o.label {
		face, err := loadFace(o.fontPath, 12)
		if err != nil {
			return err
		}
		defer face.Close()
		stampLabel(img, face, fmt.Sprintf("%dx%d  %d objects  %d lights  %s",
			o.width, o.height, len(s.Objects), len(lights), elapsed.Round(time.Millisecond)))
	}

	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logging.Logger().Info("image written", "path", o.out)
	}

	if o.term {
		return preview(ctx, img)
	}
	return nil
}
