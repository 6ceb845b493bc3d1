package cpu

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human readable register, timer and stack listing to w.
func (c *CPU) Dump(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PC=%04X I=%04X SP=%X DT=%02X ST=%02X\n", c.pc, c.i, c.sp, c.dt, c.st)
	for r := 0; r < NumRegs; r++ {
		if r%8 != 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "V%X=%02X", r, c.v[r])
		if r%8 == 7 {
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("stack:")
	if c.sp == 0 {
		sb.WriteString(" empty")
	}
	for _, addr := range c.stack[:c.sp] {
		fmt.Fprintf(&sb, " %04X", addr)
	}
	sb.WriteByte('\n')
	if c.fault != nil {
		fmt.Fprintf(&sb, "halted: %v\n", c.fault)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
