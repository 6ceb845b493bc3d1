// Package display holds the monochrome CHIP-8 bitmap.
package display

import (
	"hash/crc32"
	"image/color"
)

const (
	Width  = 64
	Height = 32
)

// Bitmap is a 64x32 row-major grid with one byte (0 or 1) per pixel.
// The dirty flag is raised by Clear and DrawSprite and lowered by the host
// once it has consumed a frame.
type Bitmap struct {
	pix   [Width * Height]byte
	dirty bool
}

// Clear zeroes every pixel.
func (b *Bitmap) Clear() {
	b.pix = [Width * Height]byte{}
	b.dirty = true
}

// DrawSprite XORs an 8-pixel-wide sprite onto the bitmap at (x, y). Each pixel
// position wraps independently on both axes. It reports whether any set pixel
// of the sprite landed on a pixel that was already set.
func (b *Bitmap) DrawSprite(x, y byte, sprite []byte) (collision bool) {
	for row, bits := range sprite {
		py := (int(y) + row) % Height
		for bit := 0; bit < 8; bit++ {
			if bits&(0x80>>bit) == 0 {
				continue
			}
			px := (int(x) + bit) % Width
			idx := py*Width + px
			if b.pix[idx] != 0 {
				collision = true
			}
			b.pix[idx] ^= 1
		}
	}
	b.dirty = true
	return collision
}

// Pixel returns 1 if the pixel at (x, y) is set. Coordinates wrap.
func (b *Bitmap) Pixel(x, y int) byte {
	x = ((x % Width) + Width) % Width
	y = ((y % Height) + Height) % Height
	return b.pix[y*Width+x]
}

// Pixels exposes the raw grid. Callers must not modify it.
func (b *Bitmap) Pixels() []byte { return b.pix[:] }

func (b *Bitmap) Dirty() bool { return b.dirty }

func (b *Bitmap) ClearDirty() { b.dirty = false }

// Checksum is the CRC32 (IEEE) of the pixel grid, used by headless runs to
// assert on a frame.
func (b *Bitmap) Checksum() uint32 { return crc32.ChecksumIEEE(b.pix[:]) }

// Palette maps unset and set pixels to colors.
type Palette struct {
	Off, On color.RGBA
}

// DefaultPalette matches the classic near-black background with white pixels.
var DefaultPalette = Palette{
	Off: color.RGBA{10, 10, 10, 255},
	On:  color.RGBA{255, 255, 255, 255},
}

// RGBA writes the bitmap as RGBA bytes into dst, which must hold Width*Height*4
// bytes. A nil or short dst is replaced by a new slice.
func (b *Bitmap) RGBA(dst []byte, pal Palette) []byte {
	if len(dst) < Width*Height*4 {
		dst = make([]byte, Width*Height*4)
	}
	for i, p := range b.pix {
		c := pal.Off
		if p != 0 {
			c = pal.On
		}
		o := i * 4
		dst[o+0] = c.R
		dst[o+1] = c.G
		dst[o+2] = c.B
		dst[o+3] = c.A
	}
	return dst
}
