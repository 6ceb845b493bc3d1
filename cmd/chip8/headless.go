package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/beep"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/retroenv/retrogolib/log"
)

type headlessOptions struct {
	Frames   int
	PNGPath  string
	PNGScale int
	Palette  display.Palette
	Expect   string // expected bitmap CRC32 (hex)
	WAVPath  string
}

// runHeadless runs a fixed number of frames without any device output and
// checks or stores the final screen.
func runHeadless(ctx context.Context, m *emu.Machine, opts headlessOptions, logger *log.Logger) (err error) {
	if opts.Frames <= 0 {
		opts.Frames = 1
	}

	var rec *beep.Recorder
	if opts.WAVPath != "" {
		f, cerr := os.Create(opts.WAVPath)
		if cerr != nil {
			return fmt.Errorf("creating WAV file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing WAV file: %w", cerr)
			}
		}()
		rec = beep.NewRecorder(f)
	}

	start := time.Now()
	frames := 0
	var runErr error
	for ; frames < opts.Frames && runErr == nil; frames++ {
		if ctx.Err() != nil {
			logger.Info("Interrupted", log.Int("frame", frames))
			break
		}
		runErr = m.StepFrame()
		if rec != nil {
			if err := rec.Tick(m.SoundActive()); err != nil {
				return err
			}
		}
	}
	logStats(logger, m.Stats(), time.Since(start))

	if rec != nil {
		if err := rec.Close(); err != nil {
			return err
		}
		logger.Info("Wrote audio", log.String("path", opts.WAVPath), log.Int("samples", rec.Samples()))
	}

	d := m.Display()
	crc := d.Checksum()
	logger.Info("Headless run finished",
		log.Int("frames", frames),
		log.String("crc32", fmt.Sprintf("%08x", crc)))

	if opts.PNGPath != "" {
		if err := writePNG(d, opts.PNGPath, opts.Palette, opts.PNGScale); err != nil {
			return err
		}
		logger.Info("Wrote screen", log.String("path", opts.PNGPath))
	}

	if runErr != nil {
		return runErr
	}

	if opts.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(opts.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func writePNG(d display.View, path string, pal display.Palette, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PNG file: %w", err)
	}
	if err := d.WritePNG(f, pal, scale); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// logStats reports throughput of a finished run.
func logStats(logger *log.Logger, st emu.Stats, elapsed time.Duration) {
	secs := elapsed.Seconds()
	if secs <= 0 {
		secs = 1e-9
	}
	logger.Info("Run statistics",
		log.String("elapsed", elapsed.Truncate(time.Millisecond).String()),
		log.Int("instructions", int(st.Instructions)),
		log.Int("ticks", int(st.Ticks)),
		log.String("ips", fmt.Sprintf("%.0f", float64(st.Instructions)/secs)),
		log.String("tick_hz", fmt.Sprintf("%.1f", float64(st.Ticks)/secs)))
}
