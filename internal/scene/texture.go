package scene

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"deferred3d/internal/graphics"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a PNG, JPEG, BMP, TIFF or WebP image. Images larger
// than maxSize on either side are scaled down to fit, keeping the aspect
// ratio; maxSize <= 0 keeps the original size.
func DecodeImage(r io.Reader, maxSize int) (*image.NRGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			w, h = maxSize, max(1, h*maxSize/w)
		} else {
			w, h = max(1, w*maxSize/h), maxSize
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	return dst, nil
}

// texturePixels returns img's rows bottom first, the order textures are
// uploaded in
func texturePixels(img *image.NRGBA) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]byte, 0, w*h*4)
	for y := h - 1; y >= 0; y-- {
		start := y * img.Stride
		out = append(out, img.Pix[start:start+w*4]...)
	}
	return out
}

// NewImageTexture uploads img as an RGBA8 texture
func NewImageTexture(dev graphics.Device, img *image.NRGBA) (graphics.Texture, error) {
	b := img.Bounds()
	return dev.NewTexture(b.Dx(), b.Dy(), graphics.FormatRGBA8, texturePixels(img))
}

// LoadTexture decodes the image at path and uploads it as an RGBA8 texture
func LoadTexture(dev graphics.Device, path string, maxSize int) (graphics.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tex, err := NewImageTexture(dev, img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tex, nil
}

// Checker returns a size x size checkerboard of cells x cells squares
func Checker(size, cells int, a, b color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	cell := max(1, size/max(cells, 1))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
