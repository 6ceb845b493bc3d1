package display

import (
	"image"
	"io"
)

// View is read access to a Bitmap. The only state a holder can change is the
// dirty flag, which hosts lower once they have consumed a frame.
type View struct {
	b *Bitmap
}

// View returns a read-only handle on b.
func (b *Bitmap) View() View { return View{b: b} }

func (v View) Pixel(x, y int) byte { return v.b.Pixel(x, y) }

// Pixels returns a copy of the grid.
func (v View) Pixels() []byte {
	out := make([]byte, len(v.b.pix))
	copy(out, v.b.pix[:])
	return out
}

func (v View) Dirty() bool { return v.b.dirty }

func (v View) ClearDirty() { v.b.dirty = false }

func (v View) Checksum() uint32 { return v.b.Checksum() }

func (v View) RGBA(dst []byte, pal Palette) []byte { return v.b.RGBA(dst, pal) }

func (v View) Image(pal Palette, scale int) *image.RGBA { return v.b.Image(pal, scale) }

func (v View) WritePNG(w io.Writer, pal Palette, scale int) error {
	return v.b.WritePNG(w, pal, scale)
}
