package emu

import (
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/retroenv/retrogolib/log"
)

// Stats counts work done since the last program load.
type Stats struct {
	Instructions uint64
	Ticks        uint64
}

// Machine wires the CPU to the host scheduling contract: one timer tick
// followed by CyclesPerTick instructions per 60 Hz frame.
type Machine struct {
	cfg     Config
	cpu     *cpu.CPU
	rom     []byte
	romPath string
	fb      []byte // RGBA 64x32*4
	palette display.Palette
	ticks   uint64
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg:     cfg,
		fb:      make([]byte, display.Width*display.Height*4),
		palette: display.DefaultPalette,
	}
	m.cpu = cpu.New(m.cpuConfig())
	return m
}

func (m *Machine) cpuConfig() cpu.Config {
	return cpu.Config{
		Quirks: m.cfg.Quirks,
		Seed:   m.cfg.Seed,
		Trace:  m.cfg.Trace,
		Logger: m.cfg.Logger,
	}
}

// LoadProgram starts a fresh CPU running rom. On error the current program
// keeps running untouched.
func (m *Machine) LoadProgram(rom []byte) error {
	c := cpu.New(m.cpuConfig())
	if err := c.LoadProgram(rom); err != nil {
		return err
	}
	m.cpu = c
	m.rom = append(m.rom[:0], rom...)
	m.ticks = 0
	if m.cfg.Logger != nil {
		m.cfg.Logger.Debug("Program loaded", log.Int("size", len(rom)))
	}
	return nil
}

// LoadROMFromFile reads a raw program image from disk and loads it.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	if err := m.LoadProgram(data); err != nil {
		return fmt.Errorf("loading ROM %s: %w", path, err)
	}
	m.romPath = path
	return nil
}

// ROMPath returns the currently loaded ROM file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Reset restarts the loaded program from power-on state. The image was
// accepted by LoadProgram before, so an error here means the stored copy is
// corrupt; the running CPU is kept in that case.
func (m *Machine) Reset() error {
	c := cpu.New(m.cpuConfig())
	if err := c.LoadProgram(m.rom); err != nil {
		return fmt.Errorf("reloading program: %w", err)
	}
	m.cpu = c
	m.ticks = 0
	return nil
}

// StepFrame runs one 60 Hz frame: the timers tick once, then up to
// CyclesPerTick instructions execute. It stops at the first fault.
func (m *Machine) StepFrame() error {
	m.cpu.TickTimers()
	m.ticks++
	for i := 0; i < m.cfg.CyclesPerTick; i++ {
		if err := m.cpu.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Halted returns the fault that stopped the CPU, or nil.
func (m *Machine) Halted() *cpu.Fault { return m.cpu.Fault() }

// SetCyclesPerTick changes the instruction rate; values below 1 are ignored.
func (m *Machine) SetCyclesPerTick(n int) {
	if n > 0 {
		m.cfg.CyclesPerTick = n
	}
}

func (m *Machine) CyclesPerTick() int { return m.cfg.CyclesPerTick }

func (m *Machine) SetKeys(keys [keypad.NumKeys]bool) { m.cpu.SetKeys(keys) }

func (m *Machine) SetKey(k byte, down bool) { m.cpu.SetKey(k, down) }

// SoundActive reports whether the beeper should sound for this frame.
func (m *Machine) SoundActive() bool { return m.cpu.SoundActive() }

// Display gives read access to the bitmap.
func (m *Machine) Display() display.View { return m.cpu.Display() }

// FrameReady reports whether the bitmap changed since the last Framebuffer call.
func (m *Machine) FrameReady() bool { return m.cpu.Display().Dirty() }

// Framebuffer returns the bitmap as RGBA and marks the frame consumed.
func (m *Machine) Framebuffer() []byte {
	d := m.cpu.Display()
	m.fb = d.RGBA(m.fb, m.palette)
	d.ClearDirty()
	return m.fb
}

// SetPalette changes the colors used by Framebuffer.
func (m *Machine) SetPalette(p display.Palette) { m.palette = p }

// CPU exposes the core for tools and tests.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

func (m *Machine) Stats() Stats {
	return Stats{Instructions: m.cpu.Cycles(), Ticks: m.ticks}
}
