package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"deferred3d/internal/graphics/lighting"
)

// ErrInvalidDescription is returned for scene files that cannot be built.
var ErrInvalidDescription = errors.New("scene: invalid description")

// Description is the JSON form of a scene. Angles are in degrees.
type Description struct {
	Camera    CameraDescription              `json:"camera"`
	Materials map[string]MaterialDescription `json:"materials"`
	Objects   []ObjectDescription            `json:"objects"`
	Lights    []LightDescription             `json:"lights"`
}

type CameraDescription struct {
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation"`
}

// MaterialDescription fields left out are inherited from Parent, and from
// DefaultMaterial at the root.
type MaterialDescription struct {
	Parent   string      `json:"parent"`
	Colour   *[3]float32 `json:"colour"`
	Diffuse  *float32    `json:"diffuse"`
	Specular *float32    `json:"specular"`
	Power    *float32    `json:"power"`
	// Texture is an image path relative to the scene file, or "checker".
	Texture string `json:"texture"`
}

// ObjectDescription places either a built-in Shape ("box", "plane",
// "sphere") or a glTF Model.
type ObjectDescription struct {
	Shape    string      `json:"shape"`
	Model    string      `json:"model"`
	Size     *[3]float32 `json:"size"`
	Position [3]float32  `json:"position"`
	Rotation [3]float32  `json:"rotation"`
	Scale    *[3]float32 `json:"scale"`
	Material string      `json:"material"`
}

// LightDescription fields follow lighting.Light. Range, when set, replaces
// Attenuation with a falloff reaching the cutoff brightness at that distance;
// HalfRange additionally places half brightness.
type LightDescription struct {
	Kind        string      `json:"kind"`
	Intensity   *float32    `json:"intensity"`
	Colour      *[3]float32 `json:"colour"`
	Position    [3]float32  `json:"position"`
	Direction   [3]float32  `json:"direction"`
	Attenuation *[3]float32 `json:"attenuation"`
	Range       float32     `json:"range"`
	HalfRange   float32     `json:"halfRange"`
	Cutoff      *[2]float32 `json:"cutoff"`
}

// ReadDescription parses the scene file at path
func ReadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read scene file: %w", err)
	}
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("could not unmarshal scene json: %w", err)
	}
	return &d, nil
}

// materialResolver flattens the material parent chains, caching each result
type materialResolver struct {
	defs     map[string]MaterialDescription
	resolved map[string]MaterialDescription
	visiting map[string]bool
}

func newMaterialResolver(defs map[string]MaterialDescription) *materialResolver {
	return &materialResolver{
		defs:     defs,
		resolved: make(map[string]MaterialDescription),
		visiting: make(map[string]bool),
	}
}

func (r *materialResolver) resolve(name string) (MaterialDescription, error) {
	if m, ok := r.resolved[name]; ok {
		return m, nil
	}
	m, ok := r.defs[name]
	if !ok {
		return MaterialDescription{}, fmt.Errorf("%w: unknown material %q", ErrInvalidDescription, name)
	}
	if r.visiting[name] {
		return MaterialDescription{}, fmt.Errorf("%w: material %q inherits from itself", ErrInvalidDescription, name)
	}

	if m.Parent != "" {
		r.visiting[name] = true
		parent, err := r.resolve(m.Parent)
		delete(r.visiting, name)
		if err != nil {
			return MaterialDescription{}, fmt.Errorf("could not load parent material '%s': %w", m.Parent, err)
		}
		if m.Colour == nil {
			m.Colour = parent.Colour
		}
		if m.Diffuse == nil {
			m.Diffuse = parent.Diffuse
		}
		if m.Specular == nil {
			m.Specular = parent.Specular
		}
		if m.Power == nil {
			m.Power = parent.Power
		}
		if m.Texture == "" {
			m.Texture = parent.Texture
		}
	}

	r.resolved[name] = m
	return m, nil
}

// apply overlays the set fields on base
func (m MaterialDescription) apply(base Material) Material {
	if m.Colour != nil {
		base.Colour = *m.Colour
	}
	if m.Diffuse != nil {
		base.Diffuse = *m.Diffuse
	}
	if m.Specular != nil {
		base.Specular = *m.Specular
	}
	if m.Power != nil {
		base.Power = *m.Power
	}
	return base
}

// Light builds and validates the described light
func (d LightDescription) Light() (lighting.Light, error) {
	kind, err := lighting.ParseKind(d.Kind)
	if err != nil {
		return lighting.Light{}, err
	}

	colour := lighting.White
	if d.Colour != nil {
		colour = *d.Colour
	}
	attenuation := lighting.DefaultAttenuation
	if d.Attenuation != nil {
		attenuation = *d.Attenuation
	}
	switch {
	case d.Range > 0 && d.HalfRange > 0:
		attenuation, err = lighting.AttenuationForHalfBrightness(d.Range, d.HalfRange)
	case d.Range > 0:
		attenuation, err = lighting.AttenuationForDistance(d.Range)
	}
	if err != nil {
		return lighting.Light{}, err
	}

	var l lighting.Light
	switch kind {
	case lighting.KindAmbient:
		l = lighting.Ambient(lighting.DefaultAmbientIntensity, colour)
	case lighting.KindDirectional:
		l = lighting.Directional(d.Direction, lighting.DefaultDirectionalIntensity, colour)
	case lighting.KindPoint:
		l = lighting.Point(d.Position, lighting.DefaultPointIntensity, attenuation, colour)
	case lighting.KindSpot:
		cutoff := lighting.DefaultCutoff
		if d.Cutoff != nil {
			cutoff = *d.Cutoff
		}
		l = lighting.Spot(d.Position, d.Direction, cutoff, lighting.DefaultSpotIntensity, attenuation, colour)
	}
	if d.Intensity != nil {
		l.Intensity = *d.Intensity
	}
	if err := l.Validate(); err != nil {
		return lighting.Light{}, err
	}
	return l, nil
}

// resolvePath makes p relative to dir unless it is absolute
func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
