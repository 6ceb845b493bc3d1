// Package main implements a CHIP-8 emulator with window, terminal and
// headless front ends.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/termui"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type CLIFlags struct {
	ROMPath string
	ROMsDir string
	Scale   int
	Title   string
	Palette string
	IPF     int // instructions per 60 Hz frame
	Seed    uint64
	Mute    bool

	Trace bool
	Debug bool
	Quiet bool

	QuirkLoadStore bool
	QuirkSub       bool

	Terminal bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected bitmap CRC32 hex (e.g., "1a2b3c4d")
	WAVOut   string
}

func parseFlags(args []string) (CLIFlags, error) {
	var f CLIFlags
	flags := flag.NewFlagSet("chip8", flag.ContinueOnError)
	flags.StringVar(&f.ROMPath, "rom", "", "path to program image (.ch8)")
	flags.StringVar(&f.ROMsDir, "roms", "roms", "directory listed by the window's ROM menu")
	flags.IntVar(&f.Scale, "scale", 10, "window and PNG scale")
	flags.StringVar(&f.Title, "title", "chip8", "window title")
	flags.StringVar(&f.Palette, "palette", "classic", "color palette: "+paletteNames())
	flags.IntVar(&f.IPF, "ipf", emu.DefaultCyclesPerTick, "instructions executed per 60 Hz frame")
	flags.Uint64Var(&f.Seed, "seed", cpu.DefaultSeed, "random number generator seed")
	flags.BoolVar(&f.Mute, "mute", false, "disable the beeper")

	flags.BoolVar(&f.Trace, "trace", false, "log every executed instruction (implies -debug)")
	flags.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&f.Quiet, "quiet", false, "only log errors")

	flags.BoolVar(&f.QuirkLoadStore, "quirk-loadstore", false, "Fx55/Fx65 advance I past the last register")
	flags.BoolVar(&f.QuirkSub, "quirk-sub", false, "SUB/SUBN clear VF when the operands are equal")

	flags.BoolVar(&f.Terminal, "term", false, "render in the terminal instead of a window")

	// headless options
	flags.BoolVar(&f.Headless, "headless", false, "run without a window")
	flags.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flags.StringVar(&f.PNGOut, "outpng", "", "write last screen to PNG at path")
	flags.StringVar(&f.Expect, "expect", "", "assert screen CRC32 (hex)")
	flags.StringVar(&f.WAVOut, "wav", "", "record the beeper to a WAV file in headless mode")

	if err := flags.Parse(args); err != nil {
		return f, err
	}
	if f.ROMPath == "" && flags.NArg() > 0 {
		f.ROMPath = flags.Arg(0)
	}
	if (f.Headless || f.Terminal) && f.ROMPath == "" {
		return f, errors.New("a ROM is required for terminal and headless modes")
	}
	if f.Headless && f.Terminal {
		return f, errors.New("-headless and -term are mutually exclusive")
	}
	if _, ok := display.PaletteByName(f.Palette); !ok {
		return f, fmt.Errorf("unknown palette %q", f.Palette)
	}
	return f, nil
}

func paletteNames() string {
	names := make([]string, 0, len(display.Palettes))
	for _, p := range display.Palettes {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func createLogger(f CLIFlags) *log.Logger {
	cfg := log.DefaultConfig()
	if f.Debug || f.Trace {
		cfg.Level = log.DebugLevel
	} else if f.Quiet {
		cfg.Level = log.ErrorLevel
	}
	cfg.Output = logOutput(f)
	return log.NewWithConfig(cfg)
}

// logOutput keeps log lines off stdout while the terminal front end draws
// the screen there.
func logOutput(f CLIFlags) io.Writer {
	if f.Terminal {
		return os.Stderr
	}
	return os.Stdout
}

func printBanner(f CLIFlags) {
	if f.Quiet || f.Terminal {
		return
	}
	fmt.Println("[-------------------------]")
	fmt.Println("[ chip8 - CHIP-8 emulator ]")
	fmt.Printf("[-------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printBanner(f)
	logger := createLogger(f)

	if err := run(f, logger); err != nil {
		os.Exit(1)
	}
}

func run(f CLIFlags, logger *log.Logger) error {
	pal, _ := display.PaletteByName(f.Palette)
	m := emu.New(emu.Config{
		CyclesPerTick: f.IPF,
		Quirks: cpu.Quirks{
			LoadStoreIncrementsI: f.QuirkLoadStore,
			StrictSubBorrow:      f.QuirkSub,
		},
		Seed:   &f.Seed,
		Trace:  f.Trace,
		Logger: logger,
	})
	m.SetPalette(pal)

	if f.ROMPath != "" {
		if err := m.LoadROMFromFile(f.ROMPath); err != nil {
			logger.Error("Loading ROM failed", log.Err(err))
			return err
		}
		logger.Info("ROM loaded", log.String("path", f.ROMPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var err error
	switch {
	case f.Headless:
		err = runHeadless(ctx, m, headlessOptions{
			Frames:   f.Frames,
			PNGPath:  f.PNGOut,
			PNGScale: f.Scale,
			Palette:  pal,
			Expect:   f.Expect,
			WAVPath:  f.WAVOut,
		}, logger)

	case f.Terminal:
		r := termui.New(termui.Config{Muted: f.Mute}, m, logger, os.Stdin, os.Stdout, int(os.Stdin.Fd()))
		err = r.Run(ctx)
		logStats(logger, m.Stats(), time.Since(start))

	default:
		app := ui.NewApp(ui.Config{
			Title:   f.Title,
			Scale:   f.Scale,
			Palette: f.Palette,
			Muted:   f.Mute,
			ROMsDir: f.ROMsDir,
		}, m, logger)
		if err = app.Run(); err == nil {
			err = app.Fault()
		}
		logStats(logger, m.Stats(), time.Since(start))
	}

	if err != nil {
		reportError(logger, m, err)
	}
	return err
}

// reportError logs err; for CPU faults the register state is dumped to stderr.
func reportError(logger *log.Logger, m *emu.Machine, err error) {
	var fault *cpu.Fault
	if !errors.As(err, &fault) {
		logger.Error("Emulation failed", log.Err(err))
		return
	}
	logger.Error("CPU fault",
		log.Hex("pc", fault.PC),
		log.Hex("opcode", fault.Word),
		log.Err(fault.Err))
	_ = m.CPU().Dump(os.Stderr)
}
