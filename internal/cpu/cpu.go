// Package cpu implements the Intel 8080 CPU emulation for the arcade board.
package cpu

import (
	"fmt"
	"log"
)

// Pair identifies a 16-bit register view
type Pair uint8

const (
	BC Pair = iota
	DE
	HL
	SP
	PSW
	PC
)

var pairNames = [...]string{"BC", "DE", "HL", "SP", "PSW", "PC"}

func (p Pair) String() string {
	if int(p) < len(pairNames) {
		return pairNames[p]
	}
	return fmt.Sprintf("Pair(%d)", uint8(p))
}

// Memory defines the interface for CPU memory access
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// IO defines the interface for the IN and OUT instructions
type IO interface {
	In(port uint8) uint8
	Out(port uint8, value uint8)
}

// CPU represents the 8080 processor
type CPU struct {
	// Registers
	A, B, C, D, E, H, L uint8
	F                   uint8 // Flags: S Z 0 AC 0 P 1 CY
	SP                  uint16
	PC                  uint16

	// InterruptEnable is set by EI and cleared by DI or an accepted interrupt
	InterruptEnable bool
	// Halted is set by HLT. Nothing inside the CPU clears it.
	Halted bool

	memory Memory
	io     IO

	// Cycle counter
	cycles uint64

	// Debug switches
	enableDebugLogging bool
	enableTrace        bool
}

// New creates a new CPU instance wired to memory and the port bus
func New(memory Memory, io IO) *CPU {
	cpu := &CPU{
		memory: memory,
		io:     io,
	}
	cpu.Reset()
	return cpu
}

// Reset clears every register and flag. Memory is not touched.
func (cpu *CPU) Reset() {
	cpu.A, cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L = 0, 0, 0, 0, 0, 0, 0
	cpu.F = 0
	cpu.SP = 0
	cpu.PC = 0
	cpu.InterruptEnable = false
	cpu.Halted = false
	cpu.cycles = 0
}

// Step fetches the opcode at PC and executes it
func (cpu *CPU) Step() (int, error) {
	return cpu.Execute(cpu.memory.Read(cpu.PC))
}

// Execute runs one instruction whose opcode has already been fetched from
// memory[PC]. It returns the machine cycles consumed. PC either advances past
// the instruction or is set by the handler.
func (cpu *CPU) Execute(opcode uint8) (int, error) {
	instruction := instructions[opcode]
	if instruction == nil {
		return 0, &UnimplementedOpcodeError{Opcode: opcode, PC: cpu.PC}
	}

	pc := cpu.PC
	if cpu.enableTrace {
		text, _ := Disassemble(cpu.memory, pc)
		log.Printf("[CPU_TRACE] %04X: %s", pc, text)
	}
	if cpu.enableDebugLogging {
		cpu.logState("PRE ", pc, instruction)
	}

	cycles := int(instruction.Cycles)
	if instruction.exec(cpu, opcode) {
		if instruction.TakenCycles != 0 {
			cycles = int(instruction.TakenCycles)
		}
	} else {
		cpu.PC += uint16(instruction.Bytes)
	}
	cpu.cycles += uint64(cycles)

	if cpu.enableDebugLogging {
		cpu.logState("POST", pc, instruction)
	}
	return cycles, nil
}

// Pair returns the 16-bit value of a register pair
func (cpu *CPU) Pair(p Pair) uint16 {
	switch p {
	case BC:
		return uint16(cpu.B)<<8 | uint16(cpu.C)
	case DE:
		return uint16(cpu.D)<<8 | uint16(cpu.E)
	case HL:
		return uint16(cpu.H)<<8 | uint16(cpu.L)
	case SP:
		return cpu.SP
	case PSW:
		return uint16(cpu.A)<<8 | uint16(cpu.F&definedFlags|flagAlwaysOne)
	case PC:
		return cpu.PC
	}
	return 0
}

// SetPair writes a 16-bit value into a register pair, high byte first
func (cpu *CPU) SetPair(p Pair, value uint16) {
	high, low := uint8(value>>8), uint8(value)
	switch p {
	case BC:
		cpu.B, cpu.C = high, low
	case DE:
		cpu.D, cpu.E = high, low
	case HL:
		cpu.H, cpu.L = high, low
	case SP:
		cpu.SP = value
	case PSW:
		cpu.A, cpu.F = high, low&definedFlags
	case PC:
		cpu.PC = value
	}
}

// GetCycles returns the total cycles executed since reset
func (cpu *CPU) GetCycles() uint64 {
	return cpu.cycles
}

// reg reads a register by its 3-bit encoding. Index 6 is the byte at (HL).
func (cpu *CPU) reg(index uint8) uint8 {
	switch index & 7 {
	case 0:
		return cpu.B
	case 1:
		return cpu.C
	case 2:
		return cpu.D
	case 3:
		return cpu.E
	case 4:
		return cpu.H
	case 5:
		return cpu.L
	case 6:
		return cpu.memory.Read(cpu.Pair(HL))
	default:
		return cpu.A
	}
}

func (cpu *CPU) setReg(index uint8, value uint8) {
	switch index & 7 {
	case 0:
		cpu.B = value
	case 1:
		cpu.C = value
	case 2:
		cpu.D = value
	case 3:
		cpu.E = value
	case 4:
		cpu.H = value
	case 5:
		cpu.L = value
	case 6:
		cpu.memory.Write(cpu.Pair(HL), value)
	default:
		cpu.A = value
	}
}

// imm8 returns the byte following the opcode
func (cpu *CPU) imm8() uint8 {
	return cpu.memory.Read(cpu.PC + 1)
}

// imm16 returns the little-endian word following the opcode
func (cpu *CPU) imm16() uint16 {
	low := uint16(cpu.memory.Read(cpu.PC + 1))
	high := uint16(cpu.memory.Read(cpu.PC + 2))
	return high<<8 | low
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

func (cpu *CPU) writeWord(address uint16, value uint16) {
	cpu.memory.Write(address, uint8(value))
	cpu.memory.Write(address+1, uint8(value>>8))
}

// push stores a word on the stack: high byte at SP-1, low byte at SP-2
func (cpu *CPU) push(value uint16) {
	cpu.memory.Write(cpu.SP-1, uint8(value>>8))
	cpu.memory.Write(cpu.SP-2, uint8(value))
	cpu.SP -= 2
}

// pop reads a word from the stack: low byte at SP, high byte at SP+1
func (cpu *CPU) pop() uint16 {
	value := cpu.readWord(cpu.SP)
	cpu.SP += 2
	return value
}

// EnableDebugLogging enables/disables register dumps around every instruction
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableTrace enables/disables disassembly of every executed instruction
func (cpu *CPU) EnableTrace(enable bool) {
	cpu.enableTrace = enable
}

// logState logs the register file around an instruction
func (cpu *CPU) logState(stage string, pc uint16, instruction *Instruction) {
	log.Printf("[CPU_DEBUG] %s PC=$%04X %-10s | A=$%02X BC=$%04X DE=$%04X HL=$%04X SP=$%04X | %s INTE=%t",
		stage, pc, instruction.Name, cpu.A, cpu.Pair(BC), cpu.Pair(DE), cpu.Pair(HL), cpu.SP,
		cpu.flagsString(), cpu.InterruptEnable)
}

// String returns a one-line register summary
func (cpu *CPU) String() string {
	return fmt.Sprintf("PC=$%04X SP=$%04X A=$%02X B=$%02X C=$%02X D=$%02X E=$%02X H=$%02X L=$%02X F=%s",
		cpu.PC, cpu.SP, cpu.A, cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L, cpu.flagsString())
}
