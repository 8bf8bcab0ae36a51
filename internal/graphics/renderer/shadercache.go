package renderer

import (
	"fmt"

	"deferred3d/internal/graphics"
	"deferred3d/internal/graphics/lighting"
	"deferred3d/internal/logging"
)

// shaderCache holds one compiled program per light kind. Programs are
// compiled on first use and live until destroy.
type shaderCache struct {
	dev      graphics.Device
	programs map[lighting.Kind]graphics.Program
}

func newShaderCache(dev graphics.Device) *shaderCache {
	return &shaderCache{dev: dev, programs: make(map[lighting.Kind]graphics.Program, len(lighting.Kinds))}
}

// get returns the program for kind, compiling it and binding the G-buffer
// samplers on first request.
func (c *shaderCache) get(kind lighting.Kind) (graphics.Program, error) {
	if p, ok := c.programs[kind]; ok {
		return p, nil
	}

	src := lightProgramSource(kind)
	if src.Fragment == "" {
		return nil, fmt.Errorf("%w: no program for %s light", lighting.ErrInvalidLight, kind)
	}
	p, err := c.dev.NewProgram(src)
	if err != nil {
		return nil, fmt.Errorf("%s light program: %w", kind, err)
	}

	p.Start()
	for slot, name := range graphics.GBufferSamplers {
		p.SetInt(name, int32(slot))
	}
	p.Stop()

	c.programs[kind] = p
	logging.Logger().Debug("light program compiled", "kind", kind.String())
	return p, nil
}

// warm compiles every light program up front.
func (c *shaderCache) warm() error {
	for _, kind := range lighting.Kinds {
		if _, err := c.get(kind); err != nil {
			return err
		}
	}
	return nil
}

func (c *shaderCache) len() int { return len(c.programs) }

func (c *shaderCache) destroy() {
	for kind, p := range c.programs {
		p.Delete()
		delete(c.programs, kind)
	}
}
