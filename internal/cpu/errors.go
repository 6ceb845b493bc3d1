package cpu

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
)

var (
	// ErrProgramTooLarge is the load error; the CPU state is left untouched.
	ErrProgramTooLarge = bus.ErrProgramTooLarge

	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrInvalidOpcode  = errors.New("invalid opcode")
)

// Fault is returned by Step when execution cannot continue. The CPU stays
// halted on the fault until Reset.
type Fault struct {
	PC   uint16 // address of the faulting instruction
	Word uint16
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at %#04x (opcode %04X): %v", f.PC, f.Word, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }
