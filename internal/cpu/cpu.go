package cpu

import (
	"math/rand/v2"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/retroenv/retrogolib/log"
)

const (
	StackDepth = 16
	NumRegs    = 16

	// DefaultSeed keeps RND reproducible between runs unless a seed is given.
	DefaultSeed = 42

	noKey = -1
)

// RandSource yields uniformly distributed 32-bit values. *rand.Rand satisfies it.
type RandSource interface {
	Uint32() uint32
}

// Quirks select between behaviours that differ across interpreters.
// The zero value is the reference behaviour.
type Quirks struct {
	LoadStoreIncrementsI bool // Fx55/Fx65 leave I at I+x+1
	StrictSubBorrow      bool // SUB/SUBN set VF only when the minuend is strictly greater
}

// Config contains settings that affect CPU behaviour.
type Config struct {
	Quirks Quirks
	Seed   *uint64    // RND seed, DefaultSeed when nil
	Rand   RandSource // overrides Seed when set
	Logger *log.Logger
	Trace  bool // log every executed instruction at debug level
}

// CPU is the complete virtual machine state: memory, registers, stack, timers,
// display and keypad. It is not safe for concurrent use.
type CPU struct {
	v  [NumRegs]byte
	i  uint16
	pc uint16
	sp uint16

	stack [StackDepth]uint16

	dt, st byte

	bus     *bus.Bus
	screen  display.Bitmap
	keys    keypad.Keypad
	waitKey int // key captured by Fx0A, noKey while idle

	rng    RandSource
	cfg    Config
	logger *log.Logger

	fault  *Fault
	cycles uint64
}

// New creates a CPU in power-on state with the font resident.
func New(cfg Config) *CPU {
	c := &CPU{
		bus:    bus.New(),
		cfg:    cfg,
		logger: cfg.Logger,
		rng:    cfg.Rand,
	}
	if c.rng == nil {
		seed := uint64(DefaultSeed)
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		c.rng = rand.New(rand.NewPCG(seed, seed))
	}
	c.Reset()
	return c
}

// Reset restores power-on state. Memory is cleared and the font reinstalled,
// so a program has to be loaded again.
func (c *CPU) Reset() {
	c.v = [NumRegs]byte{}
	c.i = 0
	c.pc = bus.ProgramStart
	c.sp = 0
	c.stack = [StackDepth]uint16{}
	c.dt, c.st = 0, 0
	c.bus.Reset()
	c.screen.Clear()
	c.keys.Reset()
	c.waitKey = noKey
	c.fault = nil
	c.cycles = 0
}

// LoadProgram copies program into memory at 0x200. Images larger than
// 3584 bytes fail with ErrProgramTooLarge and leave the CPU untouched.
func (c *CPU) LoadProgram(program []byte) error {
	return c.bus.LoadProgram(program)
}

// Fetch returns the instruction word at PC without changing any state.
func (c *CPU) Fetch() uint16 { return c.bus.Read16(c.pc) }

// Step fetches, advances PC by 2, decodes and executes one instruction.
// A fatal condition is returned as *Fault; after that the CPU stays halted
// and every further Step returns the same fault.
func (c *CPU) Step() error {
	if c.fault != nil {
		return c.fault
	}

	pc := c.pc
	word := c.Fetch()
	c.pc = (c.pc + 2) & bus.AddrMask

	ins, err := Decode(word)
	if err == nil {
		if c.cfg.Trace && c.logger != nil {
			c.logger.Debug("Execute",
				log.Hex("pc", pc),
				log.Hex("opcode", word),
				log.String("instruction", ins.String()))
		}
		err = c.Execute(ins)
	}
	if err != nil {
		c.fault = &Fault{PC: pc, Word: word, Err: err}
		if c.logger != nil {
			c.logger.Error("CPU halted",
				log.Hex("pc", pc),
				log.Hex("opcode", word),
				log.Err(err))
		}
		return c.fault
	}

	c.cycles++
	return nil
}

// TickTimers decrements the delay and sound timers, each stopping at zero.
// The host calls it at 60 Hz; Step never does.
func (c *CPU) TickTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

// Display gives hosts read access to the bitmap. Acknowledging a frame with
// ClearDirty is the only change they can make.
func (c *CPU) Display() display.View { return c.screen.View() }

// SoundActive reports whether the tone should be audible.
func (c *CPU) SoundActive() bool { return c.st > 0 }

// SetKey records logical key k (0x0-0xF) as pressed or released.
func (c *CPU) SetKey(k byte, down bool) { c.keys.Set(k, down) }

// SetKeys replaces the whole keypad state.
func (c *CPU) SetKeys(keys [keypad.NumKeys]bool) { c.keys.SetAll(keys) }

// Keys returns the current keypad state.
func (c *CPU) Keys() [keypad.NumKeys]bool { return c.keys.State() }

func (c *CPU) PC() uint16 { return c.pc }

// SetPC allows tests or tools to start execution elsewhere.
func (c *CPU) SetPC(pc uint16) { c.pc = pc & bus.AddrMask }

func (c *CPU) I() uint16                { return c.i }
func (c *CPU) SP() uint16               { return c.sp }
func (c *CPU) Registers() [NumRegs]byte { return c.v }
func (c *CPU) DelayTimer() byte         { return c.dt }
func (c *CPU) SoundTimer() byte         { return c.st }

// Stack returns the live part of the call stack, oldest entry first.
func (c *CPU) Stack() []uint16 {
	out := make([]uint16, c.sp)
	copy(out, c.stack[:c.sp])
	return out
}

// WaitingForKey reports whether Fx0A has captured a key and waits for its release.
func (c *CPU) WaitingForKey() (key byte, captured bool) {
	if c.waitKey == noKey {
		return 0, false
	}
	return byte(c.waitKey), true
}

// Fault returns the fault that halted the CPU, or nil.
func (c *CPU) Fault() *Fault { return c.fault }

// Cycles is the number of instructions completed since the last reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// ReadMemory returns the byte at addr, wrapped into the address space.
func (c *CPU) ReadMemory(addr uint16) byte { return c.bus.Read(addr) }
