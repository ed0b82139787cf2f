package cpu

import "fmt"

// Instruction represents one 8080 opcode
type Instruction struct {
	Name   string
	Opcode uint8
	Bytes  uint8
	// Cycles is the cost when the instruction falls through
	Cycles uint8
	// TakenCycles is the cost when the handler transfers control.
	// Zero means the same as Cycles.
	TakenCycles uint8

	exec func(cpu *CPU, op uint8) bool
}

// registerPairs is the rp field of LXI, INX, DCX, DAD, LDAX and STAX
var registerPairs = [4]Pair{BC, DE, HL, SP}

// stackPairs is the rp field of PUSH and POP
var stackPairs = [4]Pair{BC, DE, HL, PSW}

var (
	regNames    = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}
	pairLabels  = [4]string{"B", "D", "H", "SP"}
	stackNames  = [4]string{"B", "D", "H", "PSW"}
	condNames   = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	aluNames    = [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
	aluImmNames = [8]string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}
)

// instructions is the dispatch table. Undocumented opcodes stay nil.
var instructions [256]*Instruction

func define(opcode uint8, name string, bytes, cycles, taken uint8, exec func(*CPU, uint8) bool) {
	if instructions[opcode] != nil {
		panic(fmt.Sprintf("cpu: opcode 0x%02X defined twice", opcode))
	}
	instructions[opcode] = &Instruction{
		Name:        name,
		Opcode:      opcode,
		Bytes:       bytes,
		Cycles:      cycles,
		TakenCycles: taken,
		exec:        exec,
	}
}

func init() {
	initInstructions()
}

// initInstructions fills the dispatch table
func initInstructions() {
	define(0x00, "NOP", 1, 4, 0, opNOP)

	// Register pair group: LXI, INX, DCX, DAD
	for rp := uint8(0); rp < 4; rp++ {
		define(rp<<4|0x01, "LXI "+pairLabels[rp], 3, 10, 0, opLXI)
		define(rp<<4|0x03, "INX "+pairLabels[rp], 1, 5, 0, opINX)
		define(rp<<4|0x09, "DAD "+pairLabels[rp], 1, 10, 0, opDAD)
		define(rp<<4|0x0B, "DCX "+pairLabels[rp], 1, 5, 0, opDCX)
	}

	define(0x02, "STAX B", 1, 7, 0, opSTAX)
	define(0x12, "STAX D", 1, 7, 0, opSTAX)
	define(0x0A, "LDAX B", 1, 7, 0, opLDAX)
	define(0x1A, "LDAX D", 1, 7, 0, opLDAX)
	define(0x22, "SHLD", 3, 16, 0, opSHLD)
	define(0x2A, "LHLD", 3, 16, 0, opLHLD)
	define(0x32, "STA", 3, 13, 0, opSTA)
	define(0x3A, "LDA", 3, 13, 0, opLDA)

	// INR, DCR, MVI
	for r := uint8(0); r < 8; r++ {
		var step, load uint8 = 5, 7
		if r == 6 {
			step, load = 10, 10
		}
		define(r<<3|0x04, "INR "+regNames[r], 1, step, 0, opINR)
		define(r<<3|0x05, "DCR "+regNames[r], 1, step, 0, opDCR)
		define(r<<3|0x06, "MVI "+regNames[r], 2, load, 0, opMVI)
	}

	define(0x07, "RLC", 1, 4, 0, opRLC)
	define(0x0F, "RRC", 1, 4, 0, opRRC)
	define(0x17, "RAL", 1, 4, 0, opRAL)
	define(0x1F, "RAR", 1, 4, 0, opRAR)
	define(0x27, "DAA", 1, 4, 0, opDAA)
	define(0x2F, "CMA", 1, 4, 0, opCMA)
	define(0x37, "STC", 1, 4, 0, opSTC)
	define(0x3F, "CMC", 1, 4, 0, opCMC)

	// MOV block; 0x76 (MOV M,M) is HLT
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			opcode := 0x40 | dst<<3 | src
			if opcode == 0x76 {
				continue
			}
			var cycles uint8 = 5
			if dst == 6 || src == 6 {
				cycles = 7
			}
			define(opcode, "MOV "+regNames[dst]+","+regNames[src], 1, cycles, 0, opMOV)
		}
	}
	define(0x76, "HLT", 1, 7, 0, opHLT)

	// Accumulator ALU block and its immediate forms
	for op := uint8(0); op < 8; op++ {
		for src := uint8(0); src < 8; src++ {
			var cycles uint8 = 4
			if src == 6 {
				cycles = 7
			}
			define(0x80|op<<3|src, aluNames[op]+" "+regNames[src], 1, cycles, 0, opALU)
		}
		define(0xC6|op<<3, aluImmNames[op], 2, 7, 0, opALUImmediate)
	}

	// Conditional branches and restarts
	for cc := uint8(0); cc < 8; cc++ {
		define(0xC0|cc<<3, "R"+condNames[cc], 1, 5, 11, opRcc)
		define(0xC2|cc<<3, "J"+condNames[cc], 3, 10, 10, opJcc)
		define(0xC4|cc<<3, "C"+condNames[cc], 3, 11, 17, opCcc)
		define(0xC7|cc<<3, fmt.Sprintf("RST %d", cc), 1, 11, 11, opRST)
	}

	for rp := uint8(0); rp < 4; rp++ {
		define(0xC1|rp<<4, "POP "+stackNames[rp], 1, 10, 0, opPOP)
		define(0xC5|rp<<4, "PUSH "+stackNames[rp], 1, 11, 0, opPUSH)
	}

	define(0xC3, "JMP", 3, 10, 10, opJMP)
	define(0xC9, "RET", 1, 10, 10, opRET)
	define(0xCD, "CALL", 3, 17, 17, opCALL)
	define(0xD3, "OUT", 2, 10, 0, opOUT)
	define(0xDB, "IN", 2, 10, 0, opIN)
	define(0xE3, "XTHL", 1, 18, 0, opXTHL)
	define(0xE9, "PCHL", 1, 5, 5, opPCHL)
	define(0xEB, "XCHG", 1, 4, 0, opXCHG)
	define(0xF3, "DI", 1, 4, 0, opDI)
	define(0xF9, "SPHL", 1, 5, 0, opSPHL)
	define(0xFB, "EI", 1, 4, 0, opEI)
}

// Lookup returns the table entry for opcode, or nil when the opcode is
// not part of the documented instruction set
func Lookup(opcode uint8) *Instruction {
	return instructions[opcode]
}
