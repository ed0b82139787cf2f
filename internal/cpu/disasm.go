package cpu

import (
	"fmt"
	"strings"
)

// Disassemble renders the instruction at address and returns its text and
// encoded length. Undocumented opcodes render as a DB directive.
func Disassemble(memory Memory, address uint16) (string, int) {
	opcode := memory.Read(address)
	instruction := instructions[opcode]
	if instruction == nil {
		return fmt.Sprintf("DB $%02X", opcode), 1
	}

	separator := " "
	if strings.Contains(instruction.Name, " ") {
		separator = ","
	}

	switch instruction.Bytes {
	case 2:
		operand := memory.Read(address + 1)
		return fmt.Sprintf("%s%s#$%02X", instruction.Name, separator, operand), 2
	case 3:
		operand := uint16(memory.Read(address+2))<<8 | uint16(memory.Read(address+1))
		prefix := "$"
		if strings.HasPrefix(instruction.Name, "LXI") {
			prefix = "#$"
		}
		return fmt.Sprintf("%s%s%s%04X", instruction.Name, separator, prefix, operand), 3
	}
	return instruction.Name, 1
}

// DisassembleRange renders count instructions starting at address, one
// "AAAA  BB BB BB  TEXT" line each
func DisassembleRange(memory Memory, address uint16, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		text, size := Disassemble(memory, address)
		raw := make([]string, size)
		for j := 0; j < size; j++ {
			raw[j] = fmt.Sprintf("%02X", memory.Read(address+uint16(j)))
		}
		lines = append(lines, fmt.Sprintf("%04X  %-8s  %s", address, strings.Join(raw, " "), text))
		address += uint16(size)
	}
	return lines
}
