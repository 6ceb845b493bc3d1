package cpu

import (
	"fmt"
)

// Op identifies one semantic operation of the instruction set.
type Op uint8

const (
	OpInvalid Op = iota
	OpSys        // 0nnn
	OpCls        // 00E0
	OpRet        // 00EE
	OpJp         // 1nnn
	OpCall       // 2nnn
	OpSeImm      // 3xkk
	OpSneImm     // 4xkk
	OpSeReg      // 5xy0
	OpLdImm      // 6xkk
	OpAddImm     // 7xkk
	OpLdReg      // 8xy0
	OpOr         // 8xy1
	OpAnd        // 8xy2
	OpXor        // 8xy3
	OpAddReg     // 8xy4
	OpSub        // 8xy5
	OpShr        // 8xy6
	OpSubn       // 8xy7
	OpShl        // 8xyE
	OpSneReg     // 9xy0
	OpLdI        // Annn
	OpJpV0       // Bnnn
	OpRnd        // Cxkk
	OpDrw        // Dxyn
	OpSkp        // Ex9E
	OpSknp       // ExA1
	OpLdVxDT     // Fx07
	OpLdVxK      // Fx0A
	OpLdDTVx     // Fx15
	OpLdSTVx     // Fx18
	OpAddIVx     // Fx1E
	OpLdFVx      // Fx29
	OpLdBVx      // Fx33
	OpStoreRegs  // Fx55
	OpLoadRegs   // Fx65
)

var opNames = [...]string{
	OpInvalid:   "invalid",
	OpSys:       "sys",
	OpCls:       "cls",
	OpRet:       "ret",
	OpJp:        "jp",
	OpCall:      "call",
	OpSeImm:     "se",
	OpSneImm:    "sne",
	OpSeReg:     "se",
	OpLdImm:     "ld",
	OpAddImm:    "add",
	OpLdReg:     "ld",
	OpOr:        "or",
	OpAnd:       "and",
	OpXor:       "xor",
	OpAddReg:    "add",
	OpSub:       "sub",
	OpShr:       "shr",
	OpSubn:      "subn",
	OpShl:       "shl",
	OpSneReg:    "sne",
	OpLdI:       "ld",
	OpJpV0:      "jp",
	OpRnd:       "rnd",
	OpDrw:       "drw",
	OpSkp:       "skp",
	OpSknp:      "sknp",
	OpLdVxDT:    "ld",
	OpLdVxK:     "ld",
	OpLdDTVx:    "ld",
	OpLdSTVx:    "ld",
	OpAddIVx:    "add",
	OpLdFVx:     "ld",
	OpLdBVx:     "ld",
	OpStoreRegs: "ld",
	OpLoadRegs:  "ld",
}

// Name returns the assembler mnemonic of the operation.
func (o Op) Name() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpInvalid]
}

// Instruction is a decoded instruction word. All operand fields are always
// extracted; which of them are meaningful depends on Op.
type Instruction struct {
	Op   Op
	Word uint16
	X    byte   // register selector, bits 8-11
	Y    byte   // register selector, bits 4-7
	N    byte   // low nibble
	KK   byte   // low byte
	NNN  uint16 // low 12 bits
}

// Decode maps an instruction word onto its operation. The match is keyed by
// the high nibble and then, per family, by the low nibble or the low byte, so
// no two patterns overlap. Unknown words return ErrInvalidOpcode.
func Decode(word uint16) (Instruction, error) {
	ins := Instruction{
		Word: word,
		X:    byte(word>>8) & 0x0F,
		Y:    byte(word>>4) & 0x0F,
		N:    byte(word) & 0x0F,
		KK:   byte(word),
		NNN:  word & 0x0FFF,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			ins.Op = OpCls
		case 0x00EE:
			ins.Op = OpRet
		default:
			ins.Op = OpSys
		}
	case 0x1:
		ins.Op = OpJp
	case 0x2:
		ins.Op = OpCall
	case 0x3:
		ins.Op = OpSeImm
	case 0x4:
		ins.Op = OpSneImm
	case 0x5:
		if ins.N == 0x0 {
			ins.Op = OpSeReg
		}
	case 0x6:
		ins.Op = OpLdImm
	case 0x7:
		ins.Op = OpAddImm
	case 0x8:
		ins.Op = decodeALU(ins.N)
	case 0x9:
		if ins.N == 0x0 {
			ins.Op = OpSneReg
		}
	case 0xA:
		ins.Op = OpLdI
	case 0xB:
		ins.Op = OpJpV0
	case 0xC:
		ins.Op = OpRnd
	case 0xD:
		ins.Op = OpDrw
	case 0xE:
		switch ins.KK {
		case 0x9E:
			ins.Op = OpSkp
		case 0xA1:
			ins.Op = OpSknp
		}
	case 0xF:
		ins.Op = decodeMisc(ins.KK)
	}

	if ins.Op == OpInvalid {
		return ins, fmt.Errorf("%w: %04X", ErrInvalidOpcode, word)
	}
	return ins, nil
}

func decodeALU(n byte) Op {
	switch n {
	case 0x0:
		return OpLdReg
	case 0x1:
		return OpOr
	case 0x2:
		return OpAnd
	case 0x3:
		return OpXor
	case 0x4:
		return OpAddReg
	case 0x5:
		return OpSub
	case 0x6:
		return OpShr
	case 0x7:
		return OpSubn
	case 0xE:
		return OpShl
	}
	return OpInvalid
}

func decodeMisc(kk byte) Op {
	switch kk {
	case 0x07:
		return OpLdVxDT
	case 0x0A:
		return OpLdVxK
	case 0x15:
		return OpLdDTVx
	case 0x18:
		return OpLdSTVx
	case 0x1E:
		return OpAddIVx
	case 0x29:
		return OpLdFVx
	case 0x33:
		return OpLdBVx
	case 0x55:
		return OpStoreRegs
	case 0x65:
		return OpLoadRegs
	}
	return OpInvalid
}

// String formats the instruction in assembler syntax, e.g. "ld V2, $34".
func (i Instruction) String() string {
	name := i.Op.Name()
	if params := i.params(); params != "" {
		return name + " " + params
	}
	return name
}

func (i Instruction) params() string {
	switch i.Op {
	case OpCls, OpRet:
		return ""
	case OpSys, OpJp, OpCall:
		return fmt.Sprintf("$%03X", i.NNN)
	case OpSeImm, OpSneImm, OpLdImm, OpAddImm, OpRnd:
		return fmt.Sprintf("V%X, $%02X", i.X, i.KK)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("V%X, V%X", i.X, i.Y)
	case OpShr, OpShl, OpSkp, OpSknp:
		return fmt.Sprintf("V%X", i.X)
	case OpLdI:
		return fmt.Sprintf("I, $%03X", i.NNN)
	case OpJpV0:
		return fmt.Sprintf("V0, $%03X", i.NNN)
	case OpDrw:
		return fmt.Sprintf("V%X, V%X, $%X", i.X, i.Y, i.N)
	case OpLdVxDT:
		return fmt.Sprintf("V%X, DT", i.X)
	case OpLdVxK:
		return fmt.Sprintf("V%X, K", i.X)
	case OpLdDTVx:
		return fmt.Sprintf("DT, V%X", i.X)
	case OpLdSTVx:
		return fmt.Sprintf("ST, V%X", i.X)
	case OpAddIVx:
		return fmt.Sprintf("I, V%X", i.X)
	case OpLdFVx:
		return fmt.Sprintf("F, V%X", i.X)
	case OpLdBVx:
		return fmt.Sprintf("B, V%X", i.X)
	case OpStoreRegs:
		return fmt.Sprintf("[I], V%X", i.X)
	case OpLoadRegs:
		return fmt.Sprintf("V%X, [I]", i.X)
	}
	return fmt.Sprintf("$%04X", i.Word)
}

// IsSkip reports whether the instruction conditionally skips the next one.
func (i Instruction) IsSkip() bool {
	switch i.Op {
	case OpSeImm, OpSneImm, OpSeReg, OpSneReg, OpSkp, OpSknp:
		return true
	}
	return false
}
