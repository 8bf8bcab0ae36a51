package scene

import "deferred3d/internal/graphics"

func ptr[T any](v T) *T { return &v }

// DemoDescription is a checkered floor with a few boxes and spheres, lit by
// one light of every kind plus three coloured point lights.
func DemoDescription() *Description {
	return &Description{
		Camera: CameraDescription{Position: [3]float32{0, 3, 9}, Rotation: [3]float32{-15, 0, 0}},
		Materials: map[string]MaterialDescription{
			"floor":  {Texture: checkerTexture, Specular: ptr[float32](0.1), Power: ptr[float32](2)},
			"matte":  {Specular: ptr[float32](0)},
			"shiny":  {Specular: ptr[float32](1), Power: ptr[float32](32)},
			"red":    {Parent: "matte", Colour: &[3]float32{0.9, 0.2, 0.2}},
			"green":  {Parent: "shiny", Colour: &[3]float32{0.2, 0.8, 0.3}},
			"blue":   {Parent: "shiny", Colour: &[3]float32{0.2, 0.3, 0.9}},
			"marble": {Parent: "shiny", Colour: &[3]float32{0.95, 0.95, 0.9}},
		},
		Objects: []ObjectDescription{
			{Shape: "plane", Size: &[3]float32{40, 0, 40}, Material: "floor"},
			{Shape: "box", Position: [3]float32{-3, 1, 0}, Size: &[3]float32{2, 2, 2}, Rotation: [3]float32{0, 30, 0}, Material: "red"},
			{Shape: "box", Position: [3]float32{3, 0.75, -1}, Size: &[3]float32{1.5, 1.5, 1.5}, Rotation: [3]float32{0, -20, 0}, Material: "blue"},
			{Shape: "box", Position: [3]float32{0, 2.5, -6}, Size: &[3]float32{8, 5, 0.5}, Material: "matte"},
			{Shape: "sphere", Position: [3]float32{0, 1, 1}, Size: &[3]float32{2, 2, 2}, Material: "marble"},
			{Shape: "sphere", Position: [3]float32{1.5, 0.5, 3}, Material: "green"},
		},
		Lights: []LightDescription{
			{Kind: "ambient", Intensity: ptr[float32](0.1)},
			{Kind: "directional", Direction: [3]float32{-0.4, -1, -0.3}, Intensity: ptr[float32](0.3)},
			{Kind: "point", Position: [3]float32{-2, 2.5, 2.5}, Range: 10, HalfRange: 2, Colour: &[3]float32{1, 0.4, 0.3}},
			{Kind: "point", Position: [3]float32{2.5, 1.5, 1.5}, Range: 8, Colour: &[3]float32{0.3, 0.5, 1}},
			{Kind: "point", Position: [3]float32{0, 4, -3}, Intensity: ptr[float32](2), Colour: &[3]float32{1, 0.9, 0.6}},
			{Kind: "spot", Position: [3]float32{0, 6, 2}, Direction: [3]float32{0, -1, -0.2}, Cutoff: &[2]float32{0.85, 0.92}},
		},
	}
}

// Demo builds DemoDescription on dev
func Demo(dev graphics.Device) (*Scene, error) {
	return Build(dev, DemoDescription(), ".")
}
