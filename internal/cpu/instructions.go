package cpu

// Handlers return true when they set PC themselves. The dispatcher then
// skips the default PC increment and charges the taken cost.

// Arithmetic and logic primitives

func (cpu *CPU) add(value, carry uint8) {
	sum := uint16(cpu.A) + uint16(value) + uint16(carry)
	cpu.setAuxCarry(auxCarry(cpu.A, value, carry))
	cpu.setCarry(sum > 0xFF)
	cpu.A = uint8(sum)
	cpu.setZSP(cpu.A)
}

// subtract computes A - value - borrow as A + ^value + (1 - borrow).
// It returns the result without storing it so CMP can share it.
func (cpu *CPU) subtract(value, borrow uint8) uint8 {
	carryIn := 1 - borrow
	sum := uint16(cpu.A) + uint16(^value) + uint16(carryIn)
	cpu.setAuxCarry(auxCarry(cpu.A, ^value, carryIn))
	// No carry out of bit 7 means a borrow happened
	cpu.setCarry(sum <= 0xFF)
	result := uint8(sum)
	cpu.setZSP(result)
	return result
}

func (cpu *CPU) and(value uint8) {
	before := cpu.A
	cpu.A &= value
	cpu.setCarry(false)
	cpu.setAuxCarry(auxCarry(before, cpu.A, 0))
	cpu.setZSP(cpu.A)
}

func (cpu *CPU) xor(value uint8) {
	cpu.A ^= value
	cpu.setCarry(false)
	cpu.setAuxCarry(false)
	cpu.setZSP(cpu.A)
}

func (cpu *CPU) or(value uint8) {
	cpu.A |= value
	cpu.setCarry(false)
	cpu.setAuxCarry(false)
	cpu.setZSP(cpu.A)
}

func (cpu *CPU) compare(value uint8) {
	cpu.subtract(value, 0)
}

// alu dispatches the 3-bit operation field shared by the register and
// immediate forms: ADD ADC SUB SBB ANA XRA ORA CMP
func (cpu *CPU) alu(operation, value uint8) {
	switch operation & 7 {
	case 0:
		cpu.add(value, 0)
	case 1:
		cpu.add(value, cpu.F&FlagCarry)
	case 2:
		cpu.A = cpu.subtract(value, 0)
	case 3:
		cpu.A = cpu.subtract(value, cpu.F&FlagCarry)
	case 4:
		cpu.and(value)
	case 5:
		cpu.xor(value)
	case 6:
		cpu.or(value)
	case 7:
		cpu.compare(value)
	}
}

func (cpu *CPU) increment(value uint8) uint8 {
	result := value + 1
	cpu.setAuxCarry(auxCarry(value, 1, 0))
	cpu.setZSP(result)
	return result
}

func (cpu *CPU) decrement(value uint8) uint8 {
	result := value - 1
	cpu.setAuxCarry(auxCarry(value, 0xFF, 0))
	cpu.setZSP(result)
	return result
}

// decimalAdjust corrects A after a BCD addition. The high nibble is
// examined after the low-nibble correction, carry out included.
func (cpu *CPU) decimalAdjust() {
	value := uint16(cpu.A)
	if value&0x0F > 9 || cpu.AuxCarry() {
		value += 0x06
		cpu.setAuxCarry(true)
	} else {
		cpu.setAuxCarry(false)
	}
	if value>>4 > 9 || cpu.Carry() {
		value += 0x60
		cpu.setCarry(true)
	}
	cpu.A = uint8(value)
	cpu.setZSP(cpu.A)
}

// Data transfer

func opMOV(cpu *CPU, op uint8) bool {
	cpu.setReg(op>>3, cpu.reg(op))
	return false
}

func opMVI(cpu *CPU, op uint8) bool {
	cpu.setReg(op>>3, cpu.imm8())
	return false
}

func opLXI(cpu *CPU, op uint8) bool {
	cpu.SetPair(registerPairs[op>>4&3], cpu.imm16())
	return false
}

func opLDA(cpu *CPU, _ uint8) bool {
	cpu.A = cpu.memory.Read(cpu.imm16())
	return false
}

func opSTA(cpu *CPU, _ uint8) bool {
	cpu.memory.Write(cpu.imm16(), cpu.A)
	return false
}

func opLDAX(cpu *CPU, op uint8) bool {
	cpu.A = cpu.memory.Read(cpu.Pair(registerPairs[op>>4&1]))
	return false
}

func opSTAX(cpu *CPU, op uint8) bool {
	cpu.memory.Write(cpu.Pair(registerPairs[op>>4&1]), cpu.A)
	return false
}

func opLHLD(cpu *CPU, _ uint8) bool {
	cpu.SetPair(HL, cpu.readWord(cpu.imm16()))
	return false
}

func opSHLD(cpu *CPU, _ uint8) bool {
	cpu.writeWord(cpu.imm16(), cpu.Pair(HL))
	return false
}

func opXCHG(cpu *CPU, _ uint8) bool {
	cpu.H, cpu.D = cpu.D, cpu.H
	cpu.L, cpu.E = cpu.E, cpu.L
	return false
}

func opXTHL(cpu *CPU, _ uint8) bool {
	top := cpu.readWord(cpu.SP)
	cpu.writeWord(cpu.SP, cpu.Pair(HL))
	cpu.SetPair(HL, top)
	return false
}

func opSPHL(cpu *CPU, _ uint8) bool {
	cpu.SP = cpu.Pair(HL)
	return false
}

// Arithmetic

func opALU(cpu *CPU, op uint8) bool {
	cpu.alu(op>>3, cpu.reg(op))
	return false
}

func opALUImmediate(cpu *CPU, op uint8) bool {
	cpu.alu(op>>3, cpu.imm8())
	return false
}

func opINR(cpu *CPU, op uint8) bool {
	cpu.setReg(op>>3, cpu.increment(cpu.reg(op>>3)))
	return false
}

func opDCR(cpu *CPU, op uint8) bool {
	cpu.setReg(op>>3, cpu.decrement(cpu.reg(op>>3)))
	return false
}

func opINX(cpu *CPU, op uint8) bool {
	p := registerPairs[op>>4&3]
	cpu.SetPair(p, cpu.Pair(p)+1)
	return false
}

func opDCX(cpu *CPU, op uint8) bool {
	p := registerPairs[op>>4&3]
	cpu.SetPair(p, cpu.Pair(p)-1)
	return false
}

func opDAD(cpu *CPU, op uint8) bool {
	sum := uint32(cpu.Pair(HL)) + uint32(cpu.Pair(registerPairs[op>>4&3]))
	cpu.setCarry(sum > 0xFFFF)
	cpu.SetPair(HL, uint16(sum))
	return false
}

func opDAA(cpu *CPU, _ uint8) bool {
	cpu.decimalAdjust()
	return false
}

// Rotates touch only the carry flag

func opRLC(cpu *CPU, _ uint8) bool {
	out := cpu.A >> 7
	cpu.A = cpu.A<<1 | out
	cpu.setCarry(out == 1)
	return false
}

func opRRC(cpu *CPU, _ uint8) bool {
	out := cpu.A & 1
	cpu.A = cpu.A>>1 | out<<7
	cpu.setCarry(out == 1)
	return false
}

func opRAL(cpu *CPU, _ uint8) bool {
	out := cpu.A >> 7
	cpu.A = cpu.A<<1 | cpu.F&FlagCarry
	cpu.setCarry(out == 1)
	return false
}

func opRAR(cpu *CPU, _ uint8) bool {
	out := cpu.A & 1
	cpu.A = cpu.A>>1 | (cpu.F&FlagCarry)<<7
	cpu.setCarry(out == 1)
	return false
}

// Accumulator and carry specials

func opCMA(cpu *CPU, _ uint8) bool {
	cpu.A = ^cpu.A
	return false
}

func opSTC(cpu *CPU, _ uint8) bool {
	cpu.setCarry(true)
	return false
}

func opCMC(cpu *CPU, _ uint8) bool {
	cpu.setCarry(!cpu.Carry())
	return false
}

// Branches

func opJMP(cpu *CPU, _ uint8) bool {
	cpu.PC = cpu.imm16()
	return true
}

func opJcc(cpu *CPU, op uint8) bool {
	if !cpu.condition(op >> 3) {
		return false
	}
	return opJMP(cpu, op)
}

func opCALL(cpu *CPU, _ uint8) bool {
	target := cpu.imm16()
	cpu.push(cpu.PC + 3)
	cpu.PC = target
	return true
}

func opCcc(cpu *CPU, op uint8) bool {
	if !cpu.condition(op >> 3) {
		return false
	}
	return opCALL(cpu, op)
}

func opRET(cpu *CPU, _ uint8) bool {
	cpu.PC = cpu.pop()
	return true
}

func opRcc(cpu *CPU, op uint8) bool {
	if !cpu.condition(op >> 3) {
		return false
	}
	return opRET(cpu, op)
}

func opRST(cpu *CPU, op uint8) bool {
	cpu.push(cpu.PC + 1)
	cpu.PC = uint16(op & 0x38)
	return true
}

func opPCHL(cpu *CPU, _ uint8) bool {
	cpu.PC = cpu.Pair(HL)
	return true
}

// Stack

func opPUSH(cpu *CPU, op uint8) bool {
	cpu.push(cpu.Pair(stackPairs[op>>4&3]))
	return false
}

func opPOP(cpu *CPU, op uint8) bool {
	cpu.SetPair(stackPairs[op>>4&3], cpu.pop())
	return false
}

// I/O and control

func opIN(cpu *CPU, _ uint8) bool {
	if cpu.io != nil {
		cpu.A = cpu.io.In(cpu.imm8())
	} else {
		cpu.A = 0
	}
	return false
}

func opOUT(cpu *CPU, _ uint8) bool {
	if cpu.io != nil {
		cpu.io.Out(cpu.imm8(), cpu.A)
	}
	return false
}

func opEI(cpu *CPU, _ uint8) bool {
	cpu.InterruptEnable = true
	return false
}

func opDI(cpu *CPU, _ uint8) bool {
	cpu.InterruptEnable = false
	return false
}

func opHLT(cpu *CPU, _ uint8) bool {
	cpu.Halted = true
	return false
}

func opNOP(*CPU, uint8) bool {
	return false
}
