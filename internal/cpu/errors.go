package cpu

import "fmt"

// UnimplementedOpcodeError is returned when the dispatcher has no handler
// for an opcode. PC still addresses the offending byte.
type UnimplementedOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode 0x%02X at $%04X", e.Opcode, e.PC)
}

// InvalidVectorError is returned for an interrupt vector outside 0-7
type InvalidVectorError struct {
	Vector uint8
}

func (e *InvalidVectorError) Error() string {
	return fmt.Sprintf("cpu: invalid interrupt vector %d (want 0-7)", e.Vector)
}
