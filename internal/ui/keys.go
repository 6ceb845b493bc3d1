package ui

import (
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
)

// hostKeys maps the keypad.Layout runes to ebiten keys.
var hostKeys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// pollKeypad samples the keyboard into the 16 keypad flags.
func pollKeypad() [keypad.NumKeys]bool {
	var keys [keypad.NumKeys]bool
	for r, k := range keypad.Layout {
		if ebiten.IsKeyPressed(hostKeys[r]) {
			keys[k] = true
		}
	}
	return keys
}
