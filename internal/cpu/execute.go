package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
)

// Execute runs a decoded instruction. PC must already point past it.
func (c *CPU) Execute(ins Instruction) error {
	x, y := ins.X, ins.Y

	switch ins.Op {
	case OpSys:
		// legacy machine-code call, ignored

	case OpCls:
		c.screen.Clear()

	case OpRet:
		if c.sp == 0 {
			return ErrStackUnderflow
		}
		c.sp--
		c.pc = c.stack[c.sp]

	case OpJp:
		c.pc = ins.NNN

	case OpCall:
		if c.sp >= StackDepth {
			return ErrStackOverflow
		}
		c.stack[c.sp] = c.pc
		c.sp++
		c.pc = ins.NNN

	case OpSeImm:
		c.skipIf(c.v[x] == ins.KK)
	case OpSneImm:
		c.skipIf(c.v[x] != ins.KK)
	case OpSeReg:
		c.skipIf(c.v[x] == c.v[y])
	case OpSneReg:
		c.skipIf(c.v[x] != c.v[y])

	case OpLdImm:
		c.v[x] = ins.KK
	case OpAddImm:
		c.v[x] += ins.KK

	case OpLdReg:
		c.v[x] = c.v[y]
	case OpOr:
		c.v[x] |= c.v[y]
	case OpAnd:
		c.v[x] &= c.v[y]
	case OpXor:
		c.v[x] ^= c.v[y]

	// The flag is written after the result so that VF as destination ends up
	// holding the flag.
	case OpAddReg:
		sum := uint16(c.v[x]) + uint16(c.v[y])
		c.v[x] = byte(sum)
		c.v[0xF] = flag(sum > 0xFF)
	case OpSub:
		a, b := c.v[x], c.v[y]
		c.v[x] = a - b
		c.v[0xF] = c.noBorrow(a, b)
	case OpSubn:
		a, b := c.v[x], c.v[y]
		c.v[x] = b - a
		c.v[0xF] = c.noBorrow(b, a)
	case OpShr:
		a := c.v[x]
		c.v[x] = a >> 1
		c.v[0xF] = a & 0x01
	case OpShl:
		a := c.v[x]
		c.v[x] = a << 1
		c.v[0xF] = a >> 7

	case OpLdI:
		c.i = ins.NNN
	case OpJpV0:
		c.pc = (uint16(c.v[0]) + ins.NNN) & bus.AddrMask
	case OpRnd:
		c.v[x] = byte(c.rng.Uint32()) & ins.KK

	case OpDrw:
		sprite := c.bus.Slice(c.i, int(ins.N))
		c.v[0xF] = flag(c.screen.DrawSprite(c.v[x], c.v[y], sprite))

	case OpSkp:
		c.skipIf(c.keys.Down(c.v[x]))
	case OpSknp:
		c.skipIf(!c.keys.Down(c.v[x]))

	case OpLdVxDT:
		c.v[x] = c.dt
	case OpLdDTVx:
		c.dt = c.v[x]
	case OpLdSTVx:
		c.st = c.v[x]

	case OpLdVxK:
		c.waitForKey(x)

	case OpAddIVx:
		c.i += uint16(c.v[x])
	case OpLdFVx:
		c.i = bus.FontAddr(c.v[x])
	case OpLdBVx:
		val := c.v[x]
		c.bus.Write(c.i, val/100)
		c.bus.Write(c.i+1, (val/10)%10)
		c.bus.Write(c.i+2, val%10)

	case OpStoreRegs:
		for r := uint16(0); r <= uint16(x); r++ {
			c.bus.Write(c.i+r, c.v[r])
		}
		if c.cfg.Quirks.LoadStoreIncrementsI {
			c.i += uint16(x) + 1
		}
	case OpLoadRegs:
		for r := uint16(0); r <= uint16(x); r++ {
			c.v[r] = c.bus.Read(c.i + r)
		}
		if c.cfg.Quirks.LoadStoreIncrementsI {
			c.i += uint16(x) + 1
		}

	default:
		return fmt.Errorf("%w: %04X", ErrInvalidOpcode, ins.Word)
	}
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.pc = (c.pc + 2) & bus.AddrMask
	}
}

// noBorrow is the VF value of minuend-subtrahend.
func (c *CPU) noBorrow(minuend, subtrahend byte) byte {
	if c.cfg.Quirks.StrictSubBorrow {
		return flag(minuend > subtrahend)
	}
	return flag(minuend >= subtrahend)
}

// waitForKey implements Fx0A. While idle it captures the lowest pressed key;
// a captured key is committed to Vx only once it is seen released. Until then
// PC is rewound so the instruction runs again on the next step.
func (c *CPU) waitForKey(x byte) {
	if c.waitKey == noKey {
		if k, ok := c.keys.FirstDown(); ok {
			c.waitKey = int(k)
		}
	}
	if c.waitKey != noKey && !c.keys.Down(byte(c.waitKey)) {
		c.v[x] = byte(c.waitKey)
		c.waitKey = noKey
		return
	}
	c.pc = (c.pc - 2) & bus.AddrMask
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
