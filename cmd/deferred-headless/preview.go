package main

import (
	"context"
	"fmt"
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// fitPreview scales img into cols x 2·rows pixels, keeping its aspect ratio
// for terminal cells twice as tall as they are wide
func fitPreview(img image.Image, cols, rows int) *image.NRGBA {
	b := img.Bounds()
	w, h := cols, rows*2
	if b.Dx()*h > b.Dy()*w {
		h = max(2, b.Dy()*w/b.Dx())
	} else {
		w = max(1, b.Dx()*h/b.Dy())
	}
	h += h % 2

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// drawHalfBlocks puts two pixel rows in each cell: the upper half block in
// the foreground colour over the lower pixel as background
func drawHalfBlocks(scr uv.Screen, img *image.NRGBA) {
	b := img.Bounds()
	for row := 0; row < b.Dy()/2; row++ {
		for col := 0; col < b.Dx(); col++ {
			top := img.NRGBAAt(col, row*2)
			bottom := img.NRGBAAt(col, row*2+1)
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: color.RGBA{R: top.R, G: top.G, B: top.B, A: 255},
					Bg: color.RGBA{R: bottom.R, G: bottom.G, B: bottom.B, A: 255},
				},
			})
		}
	}
}

// preview shows img in the alternate screen until a key is pressed or ctx
// is cancelled, redrawing when the terminal is resized
func preview(ctx context.Context, img image.Image) error {
	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}()

	term.EnterAltScreen()
	term.HideCursor()

	show := func() error {
		term.Resize(width, height)
		drawHalfBlocks(term, fitPreview(img, width, height))
		return term.Display()
	}
	if err := show(); err != nil {
		return err
	}

	events := term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				if err := show(); err != nil {
					return err
				}
			case uv.KeyPressEvent:
				return nil
			}
		}
	}
}
