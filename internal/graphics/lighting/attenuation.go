// Package lighting holds the light model: the tagged Light union and the
// inverse-quadratic attenuation math used to size light volumes.
//
// Brightness at distance d is 1/(Lx + d·Ly + d²·Lz). A light stops
// contributing once its brightness falls below 1/256 of one 8-bit step.
package lighting

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrAttenuationSingular is returned when the brightness constraints
	// have no unique solution.
	ErrAttenuationSingular = errors.New("lighting: singular attenuation constraints")
	// ErrInvalidAttenuation is returned for coefficients whose falloff
	// denominator is not strictly positive for every d >= 0.
	ErrInvalidAttenuation = errors.New("lighting: invalid attenuation")
	// ErrUnboundedLightVolume is returned when a light never becomes
	// negligible within a finite radius.
	ErrUnboundedLightVolume = errors.New("lighting: unbounded light volume")
)

// VolumeSafetyFactor pads the cutoff distance when sizing light volumes.
const VolumeSafetyFactor = 1.1

// CutoffBrightness is the brightness below which a light is ignored.
const CutoffBrightness = 1.0 / 256

// DefaultAttenuation is the falloff used by point and spot lights when none is given.
var DefaultAttenuation = mgl32.Vec3{1, 0.09, 0.032}

// AttenuationForHalfBrightness returns (Lx, Ly, Lz) such that brightness is 1
// at d=1, 1/2 at d=halfDistance and 1/256 at d=distance.
func AttenuationForHalfBrightness(distance, halfDistance float32) (mgl32.Vec3, error) {
	d, dh := float64(distance), float64(halfDistance)
	if !finite64(d, dh) || d <= 0 || dh <= 0 {
		return mgl32.Vec3{}, fmt.Errorf("%w: distances (%v, %v) must be finite and positive",
			ErrAttenuationSingular, distance, halfDistance)
	}
	if d == 1 || dh == 1 || d == dh {
		return mgl32.Vec3{}, fmt.Errorf("%w: distance=%v half=%v", ErrAttenuationSingular, distance, halfDistance)
	}

	lz := (255 - (d-1)/(dh-1)) / ((d - 1) * (d - dh))
	ly := (1 - (dh*dh-1)*lz) / (dh - 1)
	lx := 1 - ly - lz

	a := mgl32.Vec3{float32(lx), float32(ly), float32(lz)}
	if err := ValidateAttenuation(a); err != nil {
		return mgl32.Vec3{}, fmt.Errorf("half brightness (%v, %v): %w", distance, halfDistance, err)
	}
	return a, nil
}

// AttenuationForDistance returns a purely quadratic falloff reaching 1/256 at distance.
func AttenuationForDistance(distance float32) (mgl32.Vec3, error) {
	d := float64(distance)
	if !finite64(d) || d <= 0 {
		return mgl32.Vec3{}, fmt.Errorf("%w: distance %v must be finite and positive", ErrAttenuationSingular, distance)
	}
	return mgl32.Vec3{1, 0, float32(255 / (d * d))}, nil
}

// ValidateAttenuation checks that Lx + d·Ly + d²·Lz > 0 for all d >= 0.
func ValidateAttenuation(a mgl32.Vec3) error {
	lx, ly, lz := float64(a[0]), float64(a[1]), float64(a[2])
	if !finite64(lx, ly, lz) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidAttenuation, a)
	}
	if lx <= 0 {
		return fmt.Errorf("%w: %v is not positive at d=0", ErrInvalidAttenuation, a)
	}
	switch {
	case lz < 0:
		return fmt.Errorf("%w: %v turns negative for large d", ErrInvalidAttenuation, a)
	case lz == 0:
		if ly < 0 {
			return fmt.Errorf("%w: %v turns negative for large d", ErrInvalidAttenuation, a)
		}
	case ly < 0:
		// Minimum of the parabola lies at d = -Ly/(2Lz) > 0.
		if lx-ly*ly/(4*lz) <= 0 {
			return fmt.Errorf("%w: %v reaches zero at d=%v", ErrInvalidAttenuation, a, -ly/(2*lz))
		}
	}
	return nil
}

// Falloff returns the brightness factor 1/(Lx + d·Ly + d²·Lz).
func Falloff(a mgl32.Vec3, d float32) float32 {
	return 1 / (a[0] + d*a[1] + d*d*a[2])
}

// CutoffDistance returns the distance at which intensity·Falloff reaches
// CutoffBrightness. A light too dim to ever reach it has distance 0. Only a
// falloff that never decreases has no cutoff.
func CutoffDistance(intensity float32, a mgl32.Vec3) (float32, error) {
	i := float64(intensity)
	if !finite64(i) || i < 0 {
		return 0, fmt.Errorf("%w: intensity %v", ErrInvalidLight, intensity)
	}
	if err := ValidateAttenuation(a); err != nil {
		return 0, err
	}

	lx, ly, lz := float64(a[0]), float64(a[1]), float64(a[2])
	target := i / CutoffBrightness

	// Below the threshold at the source and never brighter further out.
	if target <= lx && ly >= 0 {
		return 0, nil
	}

	var r float64
	if lz != 0 {
		disc := ly*ly - 4*lz*(lx-target)
		if disc < 0 {
			// the denominator stays above target at every distance
			return 0, nil
		}
		r = (-ly + math.Sqrt(disc)) / (2 * lz)
	} else {
		if ly == 0 {
			return 0, fmt.Errorf("%w: constant attenuation %v", ErrUnboundedLightVolume, a)
		}
		r = (target - lx) / ly
	}

	if r < 0 {
		r = 0
	}
	return float32(r), nil
}

// LightVolumeRadius returns the radius of the bounding sphere for a light:
// the cutoff distance padded by VolumeSafetyFactor.
func LightVolumeRadius(intensity float32, a mgl32.Vec3) (float32, error) {
	r, err := CutoffDistance(intensity, a)
	if err != nil {
		return 0, err
	}
	return r * VolumeSafetyFactor, nil
}

func finite64(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
