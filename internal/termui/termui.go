// Package termui runs the machine inside a text terminal: the screen is drawn
// with block characters and keys are read from stdin in raw mode.
package termui

import (
	"context"
	"io"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/beep"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
)

// Config contains terminal front end settings.
type Config struct {
	KeyHold     time.Duration // how long a key stays down after its last byte
	FrameTime   time.Duration // wall time per 60 Hz frame
	Muted       bool          // no audio device is opened when set
	AudioBuffer time.Duration
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.KeyHold <= 0 {
		// long enough to bridge the keyboard auto-repeat delay
		c.KeyHold = 150 * time.Millisecond
	}
	if c.FrameTime <= 0 {
		c.FrameTime = time.Second / emu.TimerHz
	}
	if c.AudioBuffer <= 0 {
		c.AudioBuffer = 50 * time.Millisecond
	}
}

// Runner drives a Machine from a terminal.
type Runner struct {
	cfg    Config
	m      *emu.Machine
	logger *log.Logger
	in     io.Reader
	out    io.Writer
	fd     int // terminal put into raw mode, -1 for none
	latch  keyLatch
	tone   *beep.Tone
}

// New creates a runner reading keys from in and drawing to out. If fd refers
// to a terminal it is switched to raw mode while Run is active.
func New(cfg Config, m *emu.Machine, logger *log.Logger, in io.Reader, out io.Writer, fd int) *Runner {
	cfg.Defaults()
	return &Runner{
		cfg:    cfg,
		m:      m,
		logger: logger,
		in:     in,
		out:    out,
		fd:     fd,
		latch:  keyLatch{hold: cfg.KeyHold},
		tone:   beep.NewTone(1),
	}
}

// Run emulates frames until ctx is canceled, the user presses Esc or Ctrl-C,
// or the machine faults. The fault is returned.
func (r *Runner) Run(ctx context.Context) error {
	if r.fd >= 0 && term.IsTerminal(r.fd) {
		if w, h, err := term.GetSize(r.fd); err == nil && (w < display.Width || h < display.Height/2) {
			r.logger.Warn("Terminal is smaller than the screen",
				log.Int("columns", w), log.Int("rows", h))
		}
		state, err := term.MakeRaw(r.fd)
		if err != nil {
			return err
		}
		defer func() { _ = term.Restore(r.fd, state) }()
	}

	if !r.cfg.Muted {
		b, err := newOtoBeeper(r.tone, r.cfg.AudioBuffer)
		if err != nil {
			r.logger.Error("Audio disabled", log.Err(err))
		} else {
			defer b.Close()
		}
	}

	_, _ = io.WriteString(r.out, hideCursor+clearScreen)
	defer func() { _, _ = io.WriteString(r.out, showCursor+"\r\n") }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	input := r.readInput(ctx)

	ticker := time.NewTicker(r.cfg.FrameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := time.Now()
		if quit := r.drainInput(input, now); quit {
			return nil
		}
		r.m.SetKeys(r.latch.state(now))

		err := r.m.StepFrame()
		r.tone.SetActive(err == nil && r.m.SoundActive())
		r.draw()
		if err != nil {
			return err
		}
	}
}

// readInput forwards bytes from the input reader until it fails or ctx ends.
// The goroutine may stay blocked in Read after ctx is canceled; it exits with
// the process.
func (r *Runner) readInput(ctx context.Context) <-chan byte {
	ch := make(chan byte, 64)
	go func() {
		defer close(ch)
		buf := make([]byte, 16)
		for {
			n, err := r.in.Read(buf)
			for _, b := range buf[:n] {
				select {
				case ch <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// drainInput applies all pending key bytes and reports whether a quit key
// was seen.
func (r *Runner) drainInput(input <-chan byte, now time.Time) bool {
	for {
		select {
		case b, ok := <-input:
			if !ok {
				return false
			}
			if b == keyCtrlC || b == keyEsc {
				return true
			}
			if k, ok := keypad.KeyForRune(rune(b)); ok {
				r.latch.press(k, now)
			}
		default:
			return false
		}
	}
}

func (r *Runner) draw() {
	d := r.m.Display()
	if !d.Dirty() {
		return
	}
	_, _ = io.WriteString(r.out, Render(d))
	d.ClearDirty()
}
