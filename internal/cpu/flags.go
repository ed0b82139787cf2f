package cpu

import "math/bits"

// Flag bit masks in the PSW low byte
const (
	FlagCarry    uint8 = 0x01
	FlagParity   uint8 = 0x04
	FlagAuxCarry uint8 = 0x10
	FlagZero     uint8 = 0x40
	FlagSign     uint8 = 0x80

	// Bit 1 always reads as 1; bits 3 and 5 always read as 0
	flagAlwaysOne uint8 = 0x02
	definedFlags        = FlagSign | FlagZero | FlagAuxCarry | FlagParity | FlagCarry
)

func (cpu *CPU) setFlag(mask uint8, on bool) {
	if on {
		cpu.F |= mask
	} else {
		cpu.F &^= mask
	}
}

func (cpu *CPU) setZero(value uint8) {
	cpu.setFlag(FlagZero, value == 0)
}

func (cpu *CPU) setSign(value uint8) {
	cpu.setFlag(FlagSign, value&0x80 != 0)
}

func (cpu *CPU) setParity(value uint8) {
	cpu.setFlag(FlagParity, parity(value))
}

func (cpu *CPU) setCarry(on bool) {
	cpu.setFlag(FlagCarry, on)
}

func (cpu *CPU) setAuxCarry(on bool) {
	cpu.setFlag(FlagAuxCarry, on)
}

// setZSP updates zero, sign and parity from a result
func (cpu *CPU) setZSP(value uint8) {
	cpu.setZero(value)
	cpu.setSign(value)
	cpu.setParity(value)
}

// parity reports even parity (an even count of set bits)
func parity(value uint8) bool {
	return bits.OnesCount8(value)%2 == 0
}

// auxCarry reports a carry out of bit 3 when adding a, b and carryIn.
// Subtraction is expressed as a + ^b + (1 - borrow).
func auxCarry(a, b, carryIn uint8) bool {
	return (a&0x0F)+(b&0x0F)+carryIn > 0x0F
}

// Zero reports the Z flag
func (cpu *CPU) Zero() bool { return cpu.F&FlagZero != 0 }

// Sign reports the S flag
func (cpu *CPU) Sign() bool { return cpu.F&FlagSign != 0 }

// Parity reports the P flag
func (cpu *CPU) Parity() bool { return cpu.F&FlagParity != 0 }

// AuxCarry reports the AC flag
func (cpu *CPU) AuxCarry() bool { return cpu.F&FlagAuxCarry != 0 }

// Carry reports the CY flag
func (cpu *CPU) Carry() bool { return cpu.F&FlagCarry != 0 }

// condition evaluates the 3-bit condition field of Jcc, Ccc and Rcc
func (cpu *CPU) condition(code uint8) bool {
	switch code & 7 {
	case 0:
		return !cpu.Zero()
	case 1:
		return cpu.Zero()
	case 2:
		return !cpu.Carry()
	case 3:
		return cpu.Carry()
	case 4:
		return !cpu.Parity()
	case 5:
		return cpu.Parity()
	case 6:
		return !cpu.Sign()
	default:
		return cpu.Sign()
	}
}

// flagsString returns the flags as "SZ-A-P-C" with clear flags as dots
func (cpu *CPU) flagsString() string {
	out := []byte("........")
	if cpu.Sign() {
		out[0] = 'S'
	}
	if cpu.Zero() {
		out[1] = 'Z'
	}
	if cpu.AuxCarry() {
		out[3] = 'A'
	}
	if cpu.Parity() {
		out[5] = 'P'
	}
	out[6] = '1'
	if cpu.Carry() {
		out[7] = 'C'
	}
	return string(out)
}
