package termui

import (
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
)

// halfBlocks is indexed by top | bottom<<1.
var halfBlocks = [4]string{" ", "▀", "▄", "█"}

// Render draws the bitmap using half-block characters, two pixel rows per
// text row. Lines end in CRLF since the terminal is in raw mode.
func Render(b display.View) string {
	var sb strings.Builder
	sb.Grow(len(cursorHome) + display.Height/2*(display.Width*3+2))
	sb.WriteString(cursorHome)
	for y := 0; y < display.Height; y += 2 {
		for x := 0; x < display.Width; x++ {
			sb.WriteString(halfBlocks[b.Pixel(x, y)|b.Pixel(x, y+1)<<1])
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}
