// Package keypad models the 16-key hex keypad.
package keypad

import "unicode"

const NumKeys = 16

// Keypad holds one down flag per logical key 0x0-0xF.
type Keypad struct {
	down [NumKeys]bool
}

// Set records key k (low nibble) as pressed or released.
func (p *Keypad) Set(k byte, down bool) { p.down[k&0x0F] = down }

// SetAll replaces every flag at once.
func (p *Keypad) SetAll(keys [NumKeys]bool) { p.down = keys }

// Down reports whether key k (low nibble) is pressed.
func (p *Keypad) Down(k byte) bool { return p.down[k&0x0F] }

// FirstDown returns the lowest-numbered pressed key.
func (p *Keypad) FirstDown() (byte, bool) {
	for k := range p.down {
		if p.down[k] {
			return byte(k), true
		}
	}
	return 0, false
}

// State returns a copy of all flags.
func (p *Keypad) State() [NumKeys]bool { return p.down }

// Reset releases every key.
func (p *Keypad) Reset() { p.down = [NumKeys]bool{} }

// Layout maps the left-hand 4x4 block of a QWERTY keyboard onto the keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var Layout = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// KeyForRune looks up r in Layout, ignoring case.
func KeyForRune(r rune) (byte, bool) {
	k, ok := Layout[unicode.ToLower(r)]
	return k, ok
}
