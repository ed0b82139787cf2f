package cpu

import "testing"

func TestParity(t *testing.T) {
	testCases := []struct {
		value    uint8
		expected bool
	}{
		{0x00, true},
		{0x01, false},
		{0x03, true},
		{0x78, true},
		{0x80, false},
		{0xFE, false},
		{0xFF, true},
	}

	for _, tc := range testCases {
		if got := parity(tc.value); got != tc.expected {
			t.Errorf("parity(0x%02X): Expected %t, got %t", tc.value, tc.expected, got)
		}
	}
}

func TestAuxCarry(t *testing.T) {
	testCases := []struct {
		name     string
		a, b, c  uint8
		expected bool
	}{
		{"no carry", 0x50, 0x28, 0, false},
		{"nibble overflow", 0x0F, 0x01, 0, true},
		{"carry in tips it", 0x08, 0x07, 1, true},
		{"exactly 0x0F", 0x08, 0x07, 0, false},
		{"high nibbles ignored", 0xF0, 0xF0, 0, false},
	}

	for _, tc := range testCases {
		if got := auxCarry(tc.a, tc.b, tc.c); got != tc.expected {
			t.Errorf("%s: Expected %t, got %t", tc.name, tc.expected, got)
		}
	}
}

func TestFlagPrimitivesAreIndependent(t *testing.T) {
	helper := NewCPUTestHelper()
	cpu := helper.CPU

	cpu.setCarry(true)
	cpu.setAuxCarry(true)
	cpu.setZSP(0x00)
	if cpu.F != FlagCarry|FlagAuxCarry|FlagZero|FlagParity {
		t.Errorf("Expected CY AC Z P, got 0x%02X", cpu.F)
	}

	cpu.setZero(0x01)
	if cpu.Zero() || !cpu.Carry() || !cpu.AuxCarry() || !cpu.Parity() {
		t.Errorf("setZero touched other flags: 0x%02X", cpu.F)
	}

	cpu.setSign(0x80)
	if !cpu.Sign() || cpu.F != FlagSign|FlagCarry|FlagAuxCarry|FlagParity {
		t.Errorf("setSign touched other flags: 0x%02X", cpu.F)
	}

	cpu.setParity(0x01)
	cpu.setCarry(false)
	cpu.setAuxCarry(false)
	if cpu.F != FlagSign {
		t.Errorf("Expected only S left, got 0x%02X", cpu.F)
	}
}

func TestConditions(t *testing.T) {
	testCases := []struct {
		code     uint8
		flags    uint8
		expected bool
	}{
		{0, 0, true},          // NZ
		{0, FlagZero, false},  // NZ
		{1, FlagZero, true},   // Z
		{2, FlagCarry, false}, // NC
		{3, FlagCarry, true},  // C
		{4, FlagParity, false},
		{5, FlagParity, true},
		{6, FlagSign, false},
		{7, FlagSign, true},
	}

	for _, tc := range testCases {
		helper := NewCPUTestHelper()
		helper.CPU.F = tc.flags
		if got := helper.CPU.condition(tc.code); got != tc.expected {
			t.Errorf("Condition %s with F=0x%02X: Expected %t, got %t", condNames[tc.code], tc.flags, tc.expected, got)
		}
	}
}

func TestFlagsString(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.CPU.F = FlagSign | FlagAuxCarry | FlagCarry
	if got := helper.CPU.flagsString(); got != "S..A..1C" {
		t.Errorf("Expected S..A..1C, got %s", got)
	}
}
