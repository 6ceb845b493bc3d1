package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// NamedPalette is a selectable color scheme.
type NamedPalette struct {
	Name string
	Palette
}

// Palettes lists the built-in color schemes, DefaultPalette first.
var Palettes = []NamedPalette{
	{"classic", DefaultPalette},
	{"green", Palette{Off: color.RGBA{15, 56, 15, 255}, On: color.RGBA{155, 188, 15, 255}}},
	{"amber", Palette{Off: color.RGBA{20, 12, 0, 255}, On: color.RGBA{255, 176, 0, 255}}},
	{"paper", Palette{Off: color.RGBA{240, 240, 232, 255}, On: color.RGBA{32, 32, 32, 255}}},
}

// PaletteByName returns the built-in palette with the given name.
func PaletteByName(name string) (Palette, bool) {
	for _, p := range Palettes {
		if p.Name == name {
			return p.Palette, true
		}
	}
	return Palette{}, false
}

// Image renders the bitmap into a new RGBA image, each pixel scaled to a
// scale x scale block.
func (b *Bitmap) Image(pal Palette, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := &image.RGBA{
		Pix:    b.RGBA(nil, pal),
		Stride: 4 * Width,
		Rect:   image.Rect(0, 0, Width, Height),
	}
	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes the scaled bitmap as PNG.
func (b *Bitmap) WritePNG(w io.Writer, pal Palette, scale int) error {
	if err := png.Encode(w, b.Image(pal, scale)); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
