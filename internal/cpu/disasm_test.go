package cpu

import "testing"

func TestDisassemble(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []uint8
		expected string
		size     int
	}{
		{"implied", []uint8{0x00}, "NOP", 1},
		{"register", []uint8{0x41}, "MOV B,C", 1},
		{"immediate", []uint8{0xC6, 0x28}, "ADI #$28", 2},
		{"register immediate", []uint8{0x06, 0x7F}, "MVI B,#$7F", 2},
		{"pair immediate", []uint8{0x01, 0xFF, 0x12}, "LXI B,#$12FF", 3},
		{"absolute", []uint8{0xC3, 0xD4, 0x18}, "JMP $18D4", 3},
		{"port", []uint8{0xD3, 0x06}, "OUT #$06", 2},
		{"restart", []uint8{0xCF}, "RST 1", 1},
		{"undocumented", []uint8{0xDD}, "DB $DD", 1},
	}

	for _, tc := range testCases {
		memory := NewMockMemory()
		memory.SetBytes(0x0100, tc.bytes...)

		text, size := Disassemble(memory, 0x0100)
		if text != tc.expected {
			t.Errorf("%s: Expected %q, got %q", tc.name, tc.expected, text)
		}
		if size != tc.size {
			t.Errorf("%s: Expected size %d, got %d", tc.name, tc.size, size)
		}
	}
}

func TestDisassembleRange(t *testing.T) {
	memory := NewMockMemory()
	memory.SetBytes(0x0000, 0x00, 0x00, 0x00, 0xC3, 0xD4, 0x18)

	lines := DisassembleRange(memory, 0x0000, 4)
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d", len(lines))
	}
	if lines[3] != "0003  C3 D4 18  JMP $18D4" {
		t.Errorf("Unexpected line %q", lines[3])
	}
}
