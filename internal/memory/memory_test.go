package memory

import (
	"errors"
	"testing"
)

func TestReadWrite(t *testing.T) {
	mem := New()

	testCases := []struct {
		name    string
		address uint16
		value   uint8
	}{
		{"ROM start", 0x0000, 0x31},
		{"Work RAM", 0x2000, 0x42},
		{"VRAM start", 0x2400, 0xFF},
		{"VRAM end", 0x3FFF, 0x80},
		{"Top of address space", 0xFFFF, 0x7E},
	}

	for _, tc := range testCases {
		mem.Write(tc.address, tc.value)
		if got := mem.Read(tc.address); got != tc.value {
			t.Errorf("%s: Expected 0x%02X at $%04X, got 0x%02X", tc.name, tc.value, tc.address, got)
		}
	}
}

func TestNewIsZeroFilled(t *testing.T) {
	mem := New()
	for addr := 0; addr < Size; addr++ {
		if mem.Read(uint16(addr)) != 0 {
			t.Fatalf("Expected zero at $%04X", addr)
		}
	}
}

func TestLoad(t *testing.T) {
	mem := New()
	image := []byte{0x00, 0x00, 0x00, 0xC3, 0xD4, 0x18}

	if err := mem.Load(0x0000, image); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i, b := range image {
		if got := mem.Read(uint16(i)); got != b {
			t.Errorf("Expected 0x%02X at $%04X, got 0x%02X", b, i, got)
		}
	}

	// An image ending exactly at 0xFFFF fits
	if err := mem.Load(0xFFFE, []byte{0xAA, 0xBB}); err != nil {
		t.Errorf("Expected image ending at $FFFF to load, got %v", err)
	}
	if mem.Read(0xFFFF) != 0xBB {
		t.Errorf("Expected 0xBB at $FFFF, got 0x%02X", mem.Read(0xFFFF))
	}
}

func TestLoadOverrunLeavesMemoryUntouched(t *testing.T) {
	mem := New()
	mem.Write(0xFFF0, 0x11)

	image := make([]byte, 0x20)
	for i := range image {
		image[i] = 0xEE
	}

	err := mem.Load(0xFFF0, image)
	if err == nil {
		t.Fatal("Expected error for image overrunning address space")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *LoadError, got %T", err)
	}
	if loadErr.Base != 0xFFF0 || loadErr.Length != 0x20 {
		t.Errorf("Unexpected error fields: base=$%04X length=%d", loadErr.Base, loadErr.Length)
	}

	if mem.Read(0xFFF0) != 0x11 {
		t.Errorf("Expected memory untouched after failed load, got 0x%02X", mem.Read(0xFFF0))
	}
	for addr := 0xFFF1; addr <= 0xFFFF; addr++ {
		if mem.Read(uint16(addr)) != 0 {
			t.Errorf("Expected $%04X untouched after failed load", addr)
		}
	}
}

func TestVRAMWindow(t *testing.T) {
	mem := New()
	mem.Write(VRAMStart, 0x01)
	mem.Write(VRAMEnd, 0x80)

	vram := mem.VRAM()
	if len(vram) != 7168 {
		t.Fatalf("Expected 7168 VRAM bytes, got %d", len(vram))
	}
	if vram[0] != 0x01 || vram[len(vram)-1] != 0x80 {
		t.Errorf("VRAM window does not alias memory: first=0x%02X last=0x%02X", vram[0], vram[len(vram)-1])
	}
}

func TestSnapshotRestore(t *testing.T) {
	mem := New()
	mem.Write(0x1234, 0x56)

	snap := mem.Snapshot()
	mem.Write(0x1234, 0x00)

	if err := mem.Restore(snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if mem.Read(0x1234) != 0x56 {
		t.Errorf("Expected 0x56 after restore, got 0x%02X", mem.Read(0x1234))
	}

	if err := mem.Restore(snap[:100]); err == nil {
		t.Error("Expected error restoring a short snapshot")
	}
}

func TestReset(t *testing.T) {
	mem := New()
	mem.Write(0x2000, 0xFF)
	mem.Reset()
	if mem.Read(0x2000) != 0 {
		t.Errorf("Expected zero after reset, got 0x%02X", mem.Read(0x2000))
	}
}
