package termui

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
)

// keyLatch turns key presses into held keys. A terminal reports no release
// events, so a key counts as down until hold has passed without a repeat.
type keyLatch struct {
	hold time.Duration
	last [keypad.NumKeys]time.Time
}

func (l *keyLatch) press(k byte, now time.Time) {
	l.last[k&0x0F] = now
}

func (l *keyLatch) state(now time.Time) [keypad.NumKeys]bool {
	var keys [keypad.NumKeys]bool
	for k, t := range l.last {
		keys[k] = !t.IsZero() && now.Sub(t) < l.hold
	}
	return keys
}
