package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const labelPadding = 4

// loadFace parses the TrueType font at path, or Go Regular when path is empty
func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// stampLabel writes text in the bottom-left corner of img over a dimmed strip
func stampLabel(img draw.Image, face font.Face, text string) {
	if text == "" {
		return
	}
	m := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := (m.Ascent + m.Descent).Ceil()

	b := img.Bounds()
	strip := image.Rect(b.Min.X, b.Max.Y-height-2*labelPadding, b.Min.X+width+2*labelPadding, b.Max.Y).Intersect(b)
	draw.Draw(img, strip, image.NewUniform(color.NRGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(strip.Min.X+labelPadding, strip.Max.Y-labelPadding-m.Descent.Ceil()),
	}
	d.DrawString(text)
}
