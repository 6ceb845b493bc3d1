package emu

import (
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/retroenv/retrogolib/log"
)

const (
	// TimerHz is the rate at which the host must call StepFrame.
	TimerHz = 60
	// DefaultCyclesPerTick gives roughly 600 instructions per second.
	DefaultCyclesPerTick = 10
)

// Config contains settings that affect emulation behavior.
type Config struct {
	CyclesPerTick int        // instructions executed per 60 Hz timer tick
	Quirks        cpu.Quirks // compatibility toggles for Fx55/Fx65 and SUB/SUBN
	Seed          *uint64    // RND seed, cpu.DefaultSeed when nil
	Trace         bool       // log CPU instructions
	Logger        *log.Logger
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.CyclesPerTick <= 0 {
		c.CyclesPerTick = DefaultCyclesPerTick
	}
}
