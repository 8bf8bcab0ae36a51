package lighting

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidLight is returned for lights with unusable parameters.
var ErrInvalidLight = errors.New("lighting: invalid light")

// Kind tags the variant of a Light.
type Kind int

const (
	KindAmbient Kind = iota
	KindDirectional
	KindPoint
	KindSpot
)

// Kinds lists every light kind in declaration order.
var Kinds = [...]Kind{KindAmbient, KindDirectional, KindPoint, KindSpot}

func (k Kind) String() string {
	switch k {
	case KindAmbient:
		return "ambient"
	case KindDirectional:
		return "directional"
	case KindPoint:
		return "point"
	case KindSpot:
		return "spot"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the kind named by s, as printed by String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidLight, s)
}

// Default parameters for the convenience constructors.
const (
	DefaultAmbientIntensity     float32 = 0.1
	DefaultDirectionalIntensity float32 = 0.4
	DefaultPointIntensity       float32 = 4
	DefaultSpotIntensity        float32 = 4
)

var (
	// White is the default light colour.
	White = mgl32.Vec3{1, 1, 1}
	// DefaultCutoff is the default spot cone as (outer, inner) cosines.
	DefaultCutoff = mgl32.Vec2{0.5, 0.6}
)

// Light is a closed union over the four light kinds. Fields not used by a
// kind are ignored.
type Light struct {
	Kind      Kind
	Intensity float32
	Colour    mgl32.Vec3

	// Position is used by point and spot lights.
	Position mgl32.Vec3
	// Direction is the unit direction light travels, used by directional
	// and spot lights.
	Direction mgl32.Vec3
	// Attenuation is (Lx, Ly, Lz), used by point and spot lights.
	Attenuation mgl32.Vec3
	// Cutoff is the spot cone as cosines of the angle from Direction:
	// full brightness above Cutoff[1], none below Cutoff[0], smooth between.
	Cutoff mgl32.Vec2
}

// Ambient returns a light that adds colour·intensity to every lit pixel.
func Ambient(intensity float32, colour mgl32.Vec3) Light {
	return Light{Kind: KindAmbient, Intensity: intensity, Colour: colour}
}

// Directional returns a light with parallel rays travelling along direction.
func Directional(direction mgl32.Vec3, intensity float32, colour mgl32.Vec3) Light {
	return Light{Kind: KindDirectional, Intensity: intensity, Colour: colour, Direction: normalize(direction)}
}

// Point returns an omnidirectional light at position.
func Point(position mgl32.Vec3, intensity float32, attenuation, colour mgl32.Vec3) Light {
	return Light{Kind: KindPoint, Intensity: intensity, Colour: colour, Position: position, Attenuation: attenuation}
}

// Spot returns a cone light at position pointing along direction.
func Spot(position, direction mgl32.Vec3, cutoff mgl32.Vec2, intensity float32, attenuation, colour mgl32.Vec3) Light {
	return Light{
		Kind:        KindSpot,
		Intensity:   intensity,
		Colour:      colour,
		Position:    position,
		Direction:   normalize(direction),
		Attenuation: attenuation,
		Cutoff:      cutoff,
	}
}

// Validate checks the parameters used by the light's kind.
func (l Light) Validate() error {
	if l.Kind < KindAmbient || l.Kind > KindSpot {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidLight, int(l.Kind))
	}
	if !finite32(l.Intensity) || l.Intensity < 0 {
		return fmt.Errorf("%w: %s intensity %v", ErrInvalidLight, l.Kind, l.Intensity)
	}
	if !finite32(l.Colour[:]...) {
		return fmt.Errorf("%w: %s colour %v", ErrInvalidLight, l.Kind, l.Colour)
	}

	if l.Kind == KindDirectional || l.Kind == KindSpot {
		if !finite32(l.Direction[:]...) || math.Abs(float64(l.Direction.Len())-1) > 1e-3 {
			return fmt.Errorf("%w: %s direction %v is not a unit vector", ErrInvalidLight, l.Kind, l.Direction)
		}
	}
	if l.Kind == KindPoint || l.Kind == KindSpot {
		if !finite32(l.Position[:]...) {
			return fmt.Errorf("%w: %s position %v", ErrInvalidLight, l.Kind, l.Position)
		}
		if err := ValidateAttenuation(l.Attenuation); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidLight, l.Kind, err)
		}
	}
	if l.Kind == KindSpot {
		outer, inner := l.Cutoff[0], l.Cutoff[1]
		if !finite32(outer, inner) || outer < -1 || inner > 1 || outer >= inner {
			return fmt.Errorf("%w: spot cutoff %v must satisfy -1 <= outer < inner <= 1", ErrInvalidLight, l.Cutoff)
		}
	}
	return nil
}

// VolumeRadius returns the bounding sphere radius of a point light.
func (l Light) VolumeRadius() (float32, error) {
	return LightVolumeRadius(l.Intensity, l.Attenuation)
}

// normalize leaves near-zero vectors untouched so Validate can reject them.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-6 {
		return v
	}
	return v.Normalize()
}

func finite32(values ...float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
