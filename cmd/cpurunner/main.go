// Package main implements a bare CPU stepping harness: it runs a program for
// a number of instructions without any front end, optionally tracing or
// disassembling it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
)

type traceEntry struct {
	pc   uint16
	word uint16
	regs [cpu.NumRegs]byte
	i    uint16
	sp   uint16
}

func (te traceEntry) String() string {
	text := "???"
	if ins, err := cpu.Decode(te.word); err == nil {
		text = ins.String()
	}
	return fmt.Sprintf("PC=%04X OP=%04X %-16s I=%04X SP=%X V=% X", te.pc, te.word, text, te.i, te.sp, te.regs[:])
}

// traceRing keeps the most recent n trace entries.
type traceRing struct {
	entries []traceEntry
	idx     int
	fill    int
}

func newTraceRing(n int) *traceRing {
	if n < 1 {
		n = 1
	}
	return &traceRing{entries: make([]traceEntry, n)}
}

func (r *traceRing) add(te traceEntry) {
	r.entries[r.idx] = te
	r.idx = (r.idx + 1) % len(r.entries)
	if r.fill < len(r.entries) {
		r.fill++
	}
}

// each visits the entries in chronological order.
func (r *traceRing) each(fn func(traceEntry)) {
	start := (r.idx - r.fill + len(r.entries)) % len(r.entries)
	for j := 0; j < r.fill; j++ {
		fn(r.entries[(start+j)%len(r.entries)])
	}
}

// disassemble writes one line per instruction word of rom, addressed from base.
func disassemble(w io.Writer, rom []byte, base uint16) error {
	for off := 0; off < len(rom); off += 2 {
		addr := base + uint16(off)
		if off+1 >= len(rom) {
			_, err := fmt.Fprintf(w, "%04X: %02X    db $%02X\n", addr, rom[off], rom[off])
			return err
		}
		word := uint16(rom[off])<<8 | uint16(rom[off+1])
		text := fmt.Sprintf("db $%02X, $%02X", rom[off], rom[off+1])
		if ins, err := cpu.Decode(word); err == nil {
			text = ins.String()
		}
		if _, err := fmt.Fprintf(w, "%04X: %04X  %s\n", addr, word, text); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	romPath := flag.String("rom", "", "path to program image (.ch8)")
	steps := flag.Int("steps", 1_000_000, "max CPU steps to run")
	startPC := flag.Int("pc", bus.ProgramStart, "initial PC value")
	ipf := flag.Int("ipf", emu.DefaultCyclesPerTick, "steps between timer ticks; 0 disables the timers")
	seed := flag.Uint64("seed", cpu.DefaultSeed, "random number generator seed")
	trace := flag.Bool("trace", false, "print PC/opcodes")
	disasm := flag.Bool("disasm", false, "print a disassembly listing of the ROM and exit")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "on a fault, print a recent trace window (slows down)")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in 'traceOnFail' dump")
	quirkLoadStore := flag.Bool("quirk-loadstore", false, "Fx55/Fx65 advance I past the last register")
	quirkSub := flag.Bool("quirk-sub", false, "SUB/SUBN clear VF when the operands are equal")
	flag.Parse()

	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}
	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "-rom is required")
		os.Exit(2)
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read rom: %v\n", err)
		os.Exit(2)
	}

	if *disasm {
		if err := disassemble(os.Stdout, rom, bus.ProgramStart); err != nil {
			fmt.Fprintf(os.Stderr, "disassemble: %v\n", err)
			os.Exit(1)
		}
		return
	}

	c := cpu.New(cpu.Config{
		Quirks: cpu.Quirks{LoadStoreIncrementsI: *quirkLoadStore, StrictSubBorrow: *quirkSub},
		Seed:   seed,
	})
	if err := c.LoadProgram(rom); err != nil {
		fmt.Fprintf(os.Stderr, "load rom: %v\n", err)
		os.Exit(2)
	}
	c.SetPC(uint16(*startPC))

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	ring := newTraceRing(*traceWindow)

	for i := 0; i < *steps; i++ {
		if *ipf > 0 && i%*ipf == 0 {
			c.TickTimers()
		}
		var te traceEntry
		if *trace || *traceOnFail {
			te = traceEntry{pc: c.PC(), word: c.Fetch(), regs: c.Registers(), i: c.I(), sp: c.SP()}
			if *trace {
				fmt.Println(te)
			}
			if *traceOnFail {
				ring.add(te)
			}
		}

		if err := c.Step(); err != nil {
			var fault *cpu.Fault
			if errors.As(err, &fault) {
				fmt.Printf("\nFault: %v\n", fault)
			}
			if *traceOnFail && ring.fill > 0 {
				fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ring.fill)
				ring.each(func(te traceEntry) { fmt.Println(te) })
				fmt.Printf("--- end trace ---\n")
			}
			fmt.Println()
			_ = c.Dump(os.Stdout)
			fmt.Printf("\nDone: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
			os.Exit(1)
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			fmt.Printf("\nDone: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}
	dur := time.Since(start)
	fmt.Println()
	_ = c.Dump(os.Stdout)
	fmt.Printf("\nDone: steps=%d elapsed=%s screen_crc32=%08x\n", *steps, dur.Truncate(time.Millisecond), c.Display().Checksum())
}
