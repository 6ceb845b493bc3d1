package cpu

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// program encodes instruction words big-endian.
func program(words ...uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

func newCPUWithProgram(t *testing.T, cfg Config, words ...uint16) *CPU {
	t.Helper()
	c := New(cfg)
	assert.NoError(t, c.LoadProgram(program(words...)))
	return c
}

func stepN(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assert.NoError(t, c.Step())
	}
}

func TestCPU_PowerOnState(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, uint16(0x200), c.PC())
	assert.Equal(t, uint16(0), c.SP())
	assert.Equal(t, uint16(0), c.I())
	assert.Equal(t, byte(0xF0), c.bus.Read(0x050))
	assert.False(t, c.SoundActive())
	_, waiting := c.WaitingForKey()
	assert.False(t, waiting)
}

func TestCPU_FetchIsPure(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6A12)
	assert.Equal(t, uint16(0x6A12), c.Fetch())
	assert.Equal(t, uint16(0x200), c.PC())
	assert.Equal(t, byte(0), c.Registers()[0xA])
}

func TestCPU_StepAdvancesPC(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6A12, 0x0000)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, byte(0x12), c.Registers()[0xA])
	stepN(t, c, 1) // SYS is a no-op
	assert.Equal(t, uint16(0x204), c.PC())
	assert.Equal(t, uint64(2), c.Cycles())
}

func TestCPU_JumpIsExact(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x1ABC)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0xABC), c.PC())
}

func TestCPU_JumpWithOffset(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6010, 0xB300)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x310), c.PC())
}

func TestCPU_ProgramCounterWraps(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x60FF, 0xBFFF)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x0FE), c.PC())

	c.SetPC(0xFFE)
	c.bus.Write(0xFFE, 0x00)
	c.bus.Write(0xFFF, 0xE0)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x000), c.PC())
}

func TestCPU_CallReturn(t *testing.T) {
	// 200: CALL 206; 202: LD V0,1; 204: JP 204; 206: RET
	c := newCPUWithProgram(t, Config{}, 0x2206, 0x6001, 0x1204, 0x00EE)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC())
	assert.Equal(t, uint16(1), c.SP())
	assert.Equal(t, []uint16{0x202}, c.Stack())

	stepN(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, uint16(0), c.SP())
}

func TestCPU_StackOverflow(t *testing.T) {
	// 200: CALL 200 recurses until the stack is full
	c := newCPUWithProgram(t, Config{}, 0x2200)
	stepN(t, c, StackDepth)
	assert.Equal(t, uint16(StackDepth), c.SP())

	err := c.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	var fault *Fault
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x200), fault.PC)
	assert.Equal(t, uint16(0x2200), fault.Word)
	assert.Equal(t, uint16(StackDepth), c.SP())
}

func TestCPU_StackUnderflow(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x00EE)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.NotNil(t, c.Fault())
}

func TestCPU_FaultIsSticky(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0xFFFF, 0x6001)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrInvalidOpcode))
	pc := c.PC()

	again := c.Step()
	assert.True(t, errors.Is(again, ErrInvalidOpcode))
	assert.Equal(t, pc, c.PC())
	assert.Equal(t, byte(0), c.Registers()[0])

	c.Reset()
	assert.True(t, c.Fault() == nil)
}

func TestCPU_Skips(t *testing.T) {
	tests := []struct {
		name  string
		words []uint16
		pc    uint16
	}{
		{"se imm taken", []uint16{0x6105, 0x3105}, 0x206},
		{"se imm not taken", []uint16{0x6105, 0x3106}, 0x204},
		{"sne imm taken", []uint16{0x6105, 0x4106}, 0x206},
		{"sne imm not taken", []uint16{0x6105, 0x4105}, 0x204},
		{"se reg taken", []uint16{0x6105, 0x6205, 0x5120}, 0x208},
		{"se reg not taken", []uint16{0x6105, 0x6206, 0x5120}, 0x206},
		{"sne reg taken", []uint16{0x6105, 0x6206, 0x9120}, 0x208},
		{"sne reg not taken", []uint16{0x6105, 0x6205, 0x9120}, 0x206},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCPUWithProgram(t, Config{}, tt.words...)
			stepN(t, c, len(tt.words))
			assert.Equal(t, tt.pc, c.PC())
		})
	}
}

func TestCPU_AddImmediateWrapsWithoutFlag(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6FAA, 0x61FF, 0x7102)
	stepN(t, c, 3)
	v := c.Registers()
	assert.Equal(t, byte(0x01), v[1])
	assert.Equal(t, byte(0xAA), v[0xF])
}

func TestCPU_LogicOps(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x61F0, 0x623C,
		0x8310, 0x8321, // V3 = F0 | 3C
		0x8410, 0x8422, // V4 = F0 & 3C
		0x8510, 0x8523, // V5 = F0 ^ 3C
	)
	stepN(t, c, 8)
	v := c.Registers()
	assert.Equal(t, byte(0xFC), v[3])
	assert.Equal(t, byte(0x30), v[4])
	assert.Equal(t, byte(0xCC), v[5])
}

func TestCPU_AddSubRoundTrip(t *testing.T) {
	values := []byte{0x00, 0x01, 0x7F, 0x80, 0xC8, 0xFF}
	for x := byte(0); x < 0xF; x++ {
		for y := byte(0); y < 0xF; y++ {
			if x == y {
				continue
			}
			for _, a := range values {
				for _, b := range values {
					add := 0x8004 | uint16(x)<<8 | uint16(y)<<4
					sub := 0x8005 | uint16(x)<<8 | uint16(y)<<4
					c := newCPUWithProgram(t, Config{}, add, sub)
					c.v[x], c.v[y] = a, b

					stepN(t, c, 1)
					assert.Equal(t, byte(a+b), c.v[x])
					assert.Equal(t, flag(int(a)+int(b) > 0xFF), c.v[0xF])

					preSub := c.v[x]
					stepN(t, c, 1)
					assert.Equal(t, a, c.v[x])
					assert.Equal(t, flag(preSub >= b), c.v[0xF])
				}
			}
		}
	}
}

func TestCPU_SubnAndBorrow(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6105, 0x6203, 0x8127)
	stepN(t, c, 3)
	assert.Equal(t, byte(0xFE), c.v[1])
	assert.Equal(t, byte(0), c.v[0xF])

	c = newCPUWithProgram(t, Config{}, 0x6103, 0x6205, 0x8127)
	stepN(t, c, 3)
	assert.Equal(t, byte(0x02), c.v[1])
	assert.Equal(t, byte(1), c.v[0xF])
}

func TestCPU_SubEqualOperands(t *testing.T) {
	prog := []uint16{0x6107, 0x6207, 0x8125}

	c := newCPUWithProgram(t, Config{}, prog...)
	stepN(t, c, 3)
	assert.Equal(t, byte(0), c.v[1])
	assert.Equal(t, byte(1), c.v[0xF])

	strict := newCPUWithProgram(t, Config{Quirks: Quirks{StrictSubBorrow: true}}, prog...)
	stepN(t, strict, 3)
	assert.Equal(t, byte(0), strict.v[0xF])
}

func TestCPU_Shifts(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6181, 0x8106, 0x6281, 0x820E)
	stepN(t, c, 2)
	assert.Equal(t, byte(0x40), c.v[1])
	assert.Equal(t, byte(1), c.v[0xF])
	stepN(t, c, 2)
	assert.Equal(t, byte(0x02), c.v[2])
	assert.Equal(t, byte(1), c.v[0xF])

	c = newCPUWithProgram(t, Config{}, 0x6102, 0x8106, 0x8116)
	stepN(t, c, 2)
	assert.Equal(t, byte(0), c.v[0xF])
	stepN(t, c, 1)
	assert.Equal(t, byte(0), c.v[1])
	assert.Equal(t, byte(1), c.v[0xF])
}

func TestCPU_FlagRegisterAsDestination(t *testing.T) {
	// ADD VF, V1 overflows to 0x04 but VF ends up holding the carry
	c := newCPUWithProgram(t, Config{}, 0x6FFF, 0x6105, 0x8F14)
	stepN(t, c, 3)
	assert.Equal(t, byte(1), c.v[0xF])
}

func TestCPU_Random(t *testing.T) {
	c := newCPUWithProgram(t, Config{Rand: fixedRand(0xDEADBEEF)}, 0xC30F, 0xC3FF)
	stepN(t, c, 1)
	assert.Equal(t, byte(0x0F), c.v[3])
	stepN(t, c, 1)
	assert.Equal(t, byte(0xEF), c.v[3])

	// the default seed makes runs reproducible
	a := newCPUWithProgram(t, Config{}, 0xC0FF, 0xC1FF, 0xC2FF)
	b := newCPUWithProgram(t, Config{}, 0xC0FF, 0xC1FF, 0xC2FF)
	stepN(t, a, 3)
	stepN(t, b, 3)
	assert.Equal(t, a.Registers(), b.Registers())
}

func TestCPU_SeedZeroIsUsed(t *testing.T) {
	var zero uint64
	c := newCPUWithProgram(t, Config{Seed: &zero}, 0xC0FF)
	stepN(t, c, 1)
	want := byte(rand.New(rand.NewPCG(0, 0)).Uint32())
	assert.Equal(t, want, c.v[0])

	d := newCPUWithProgram(t, Config{}, 0xC0FF)
	stepN(t, d, 1)
	want = byte(rand.New(rand.NewPCG(DefaultSeed, DefaultSeed)).Uint32())
	assert.Equal(t, want, d.v[0])
}

type fixedRand uint32

func (r fixedRand) Uint32() uint32 { return uint32(r) }

func TestCPU_DrawTwiceIsSelfInverse(t *testing.T) {
	// CLS; V0=62; V1=30; I=font "8"; DRW V0,V1,5 twice
	c := newCPUWithProgram(t, Config{}, 0x00E0, 0x603E, 0x611E, 0x6208, 0xF229, 0xD015, 0xD015)
	stepN(t, c, 6)
	assert.Equal(t, byte(0), c.v[0xF])
	assert.True(t, c.Display().Dirty())
	// glyph wraps around both edges
	assert.Equal(t, byte(1), c.Display().Pixel(62, 30))
	assert.Equal(t, byte(1), c.Display().Pixel(1, 30))
	assert.Equal(t, byte(1), c.Display().Pixel(62, 0))

	c.Display().ClearDirty()
	stepN(t, c, 1)
	assert.Equal(t, byte(1), c.v[0xF])
	assert.True(t, c.Display().Dirty())
	for _, p := range c.Display().Pixels() {
		assert.Equal(t, byte(0), p)
	}
}

func TestCPU_ClearDisplay(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0xA050, 0xD001, 0x00E0)
	stepN(t, c, 2)
	assert.Equal(t, byte(1), c.Display().Pixel(0, 0))
	c.Display().ClearDirty()
	stepN(t, c, 1)
	assert.Equal(t, byte(0), c.Display().Pixel(0, 0))
	assert.True(t, c.Display().Dirty())
}

func TestCPU_KeySkips(t *testing.T) {
	// V1 = 0x1A selects key A (low nibble)
	prog := []uint16{0x611A, 0xE19E}

	c := newCPUWithProgram(t, Config{}, prog...)
	c.SetKey(0xA, true)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x206), c.PC())

	c = newCPUWithProgram(t, Config{}, prog...)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x204), c.PC())

	c = newCPUWithProgram(t, Config{}, 0x611A, 0xE1A1)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x206), c.PC())

	c = newCPUWithProgram(t, Config{}, 0x611A, 0xE1A1)
	var keys [16]bool
	keys[0xA] = true
	c.SetKeys(keys)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x204), c.PC())
}

func TestCPU_WaitForKey(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6577, 0xF50A, 0x6101)
	stepN(t, c, 1)

	// nothing pressed: the instruction keeps re-executing
	stepN(t, c, 25)
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, byte(0x77), c.v[5])

	// press: the key is captured but not committed
	c.SetKey(0x9, true)
	c.SetKey(0xC, true)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, byte(0x77), c.v[5])
	k, captured := c.WaitingForKey()
	assert.True(t, captured)
	assert.Equal(t, byte(0x9), k)

	// holding it keeps waiting
	stepN(t, c, 3)
	assert.Equal(t, uint16(0x202), c.PC())

	// releasing a different key changes nothing
	c.SetKey(0xC, false)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())

	// release commits the captured key and moves on
	c.SetKey(0x9, false)
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x204), c.PC())
	assert.Equal(t, byte(0x9), c.v[5])
	_, captured = c.WaitingForKey()
	assert.False(t, captured)

	stepN(t, c, 1)
	assert.Equal(t, byte(0x01), c.v[1])
}

func TestCPU_Timers(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6102, 0xF115, 0xF118, 0xF207)
	stepN(t, c, 3)
	assert.Equal(t, byte(2), c.DelayTimer())
	assert.Equal(t, byte(2), c.SoundTimer())
	assert.True(t, c.SoundActive())

	// Step never touches the timers
	stepN(t, c, 1)
	assert.Equal(t, byte(2), c.v[2])
	assert.Equal(t, byte(2), c.DelayTimer())

	c.TickTimers()
	c.TickTimers()
	assert.Equal(t, byte(0), c.DelayTimer())
	assert.False(t, c.SoundActive())

	c.TickTimers()
	assert.Equal(t, byte(0), c.DelayTimer())
	assert.Equal(t, byte(0), c.SoundTimer())
}

func TestCPU_IndexOps(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0xA300, 0x6110, 0xF11E, 0x620B, 0xF229)
	stepN(t, c, 3)
	assert.Equal(t, uint16(0x310), c.I())
	stepN(t, c, 2)
	assert.Equal(t, bus.FontAddr(0xB), c.I())
	assert.Equal(t, uint16(0x050+0xB*5), c.I())
}

func TestCPU_FontAddressUsesWholeRegister(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6010, 0xF029)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x0A0), c.I())
}

func TestCPU_BCD(t *testing.T) {
	tests := []struct {
		value byte
		want  []byte
	}{
		{234, []byte{2, 3, 4}},
		{7, []byte{0, 0, 7}},
		{100, []byte{1, 0, 0}},
		{255, []byte{2, 5, 5}},
	}
	for _, tt := range tests {
		c := newCPUWithProgram(t, Config{}, 0xA400, 0x6000|uint16(tt.value), 0xF033)
		stepN(t, c, 3)
		assert.Equal(t, tt.want, c.bus.Slice(0x400, 3))
		assert.Equal(t, uint16(0x400), c.I())
	}
}

func TestCPU_RegisterDumpLoad(t *testing.T) {
	// I=0x500; dump V0..V4; zero V0..VE; load V0..V4
	words := []uint16{0xA500, 0xF455}
	for r := uint16(0); r < 0xF; r++ {
		words = append(words, 0x6000|r<<8)
	}
	words = append(words, 0xF465)

	c := newCPUWithProgram(t, Config{}, words...)
	for r := range c.v {
		c.v[r] = byte(0x10 + r)
	}
	orig := c.Registers()

	stepN(t, c, 2)
	assert.Equal(t, uint16(0x500), c.I())
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x00}, c.bus.Slice(0x500, 6))

	stepN(t, c, 0xF+1)
	got := c.Registers()
	for r := 0; r <= 4; r++ {
		assert.Equal(t, orig[r], got[r])
	}
	for r := 5; r < 0xF; r++ {
		assert.Equal(t, byte(0), got[r])
	}
	assert.Equal(t, uint16(0x500), c.I())
}

func TestCPU_LoadStoreIncrementQuirk(t *testing.T) {
	cfg := Config{Quirks: Quirks{LoadStoreIncrementsI: true}}
	c := newCPUWithProgram(t, cfg, 0xA500, 0xF255, 0xF165)
	stepN(t, c, 2)
	assert.Equal(t, uint16(0x503), c.I())
	stepN(t, c, 1)
	assert.Equal(t, uint16(0x505), c.I())
}

func TestCPU_LoadProgramBoundary(t *testing.T) {
	c := New(Config{})
	assert.NoError(t, c.LoadProgram(make([]byte, 3584)))

	c = newCPUWithProgram(t, Config{}, 0x6001)
	before := c.bus.Slice(0, bus.MemorySize)
	err := c.LoadProgram(make([]byte, 3585))
	assert.True(t, errors.Is(err, ErrProgramTooLarge))
	assert.Equal(t, before, c.bus.Slice(0, bus.MemorySize))
	assert.Equal(t, uint16(0x200), c.PC())
}

func TestCPU_TraceLogging(t *testing.T) {
	c := newCPUWithProgram(t, Config{Logger: log.NewTestLogger(t), Trace: true}, 0x6001, 0x0FFF, 0xFFFF)
	stepN(t, c, 2)
	assert.Error(t, c.Step())
}

func TestCPU_HostAccessIsReadOnly(t *testing.T) {
	c := newCPUWithProgram(t, Config{}, 0x6000, 0xF029, 0xD005)
	stepN(t, c, 3)
	before := c.Display().Checksum()

	pix := c.Display().Pixels()
	for i := range pix {
		pix[i] ^= 1
	}
	assert.Equal(t, before, c.Display().Checksum())
	assert.Equal(t, byte(0xF0), c.ReadMemory(0x050))
	assert.Equal(t, byte(0x60), c.ReadMemory(0x1200)) // wraps to 0x200
}
