package bus

import (
	"errors"
	"fmt"
)

const (
	MemorySize   = 0x1000 // 4 KiB address space
	ProgramStart = 0x200  // first byte of a loaded program
	FontStart    = 0x050  // base of the resident hex font
	FontGlyphLen = 5      // bytes per font glyph

	// MaxProgramSize is the largest image that fits above the reserved area.
	MaxProgramSize = MemorySize - ProgramStart

	// AddrMask wraps an address into the 12-bit space.
	AddrMask = MemorySize - 1
)

// ErrProgramTooLarge is returned by LoadProgram for images above MaxProgramSize.
var ErrProgramTooLarge = errors.New("program too large")

// font is the 0-F hex digit set, 4x5 pixels per glyph.
var font = [16 * FontGlyphLen]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Bus is the flat CHIP-8 memory. Every address is wrapped into the 4 KiB space,
// so a wild index register can never reach outside of ram.
type Bus struct {
	ram [MemorySize]byte
}

// New returns a bus with the font resident at FontStart.
func New() *Bus {
	b := &Bus{}
	b.Reset()
	return b
}

// Reset zeroes memory and reinstalls the font.
func (b *Bus) Reset() {
	b.ram = [MemorySize]byte{}
	copy(b.ram[FontStart:], font[:])
}

func (b *Bus) Read(addr uint16) byte { return b.ram[addr&AddrMask] }

func (b *Bus) Write(addr uint16, value byte) { b.ram[addr&AddrMask] = value }

// Read16 returns the big-endian word at addr.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr))<<8 | uint16(b.Read(addr+1))
}

// FontAddr returns FontStart + digit*5. Values above 0xF point past the font
// and are not masked; the result never exceeds 0x54B.
func FontAddr(digit byte) uint16 {
	return FontStart + uint16(digit)*FontGlyphLen
}

// LoadProgram copies program to ProgramStart and clears the rest of the program
// area. Memory is left untouched when the image does not fit.
func (b *Bus) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes (max is %d)", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	area := b.ram[ProgramStart:]
	n := copy(area, program)
	clear(area[n:])
	return nil
}

// Slice returns a copy of n bytes starting at addr, wrapping at the end of memory.
func (b *Bus) Slice(addr uint16, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b.Read(addr + uint16(i))
	}
	return out
}
