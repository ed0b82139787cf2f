package cpu

// Interrupt delivers an RST-style interrupt. With interrupts disabled the
// request is dropped. Otherwise PC is pushed, control moves to 8*vector and
// interrupts are disabled until the program executes EI again.
//
// Delivery leaves Halted alone.
func (cpu *CPU) Interrupt(vector uint8) error {
	if vector > 7 {
		return &InvalidVectorError{Vector: vector}
	}
	if !cpu.InterruptEnable {
		return nil
	}

	cpu.push(cpu.PC)
	cpu.PC = uint16(vector) * 8
	cpu.InterruptEnable = false
	return nil
}
