// Package memory implements the flat 64KB address space of the arcade board.
package memory

import "fmt"

const (
	// Size is the number of addressable bytes
	Size = 0x10000

	// Space Invaders memory map
	ROMStart  = 0x0000
	ROMEnd    = 0x1FFF
	WorkRAM   = 0x2000
	VRAMStart = 0x2400
	VRAMEnd   = 0x3FFF
	VRAMSize  = VRAMEnd - VRAMStart + 1
)

// Memory represents the CPU address space. Every address is readable and
// writable; there is no banking and no protected region.
type Memory struct {
	data [Size]uint8
}

// LoadError reports an image that does not fit at the requested base.
type LoadError struct {
	Base   uint16
	Length int
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("memory: image of %d bytes at $%04X overruns the 64KB address space", e.Length, e.Base)
}

// New creates a zero-filled Memory instance
func New() *Memory {
	return &Memory{}
}

// Reset zeroes the whole address space
func (m *Memory) Reset() {
	m.data = [Size]uint8{}
}

// Read returns the byte at address
func (m *Memory) Read(address uint16) uint8 {
	return m.data[address]
}

// Write stores value at address
func (m *Memory) Write(address uint16, value uint8) {
	m.data[address] = value
}

// Load copies data into memory starting at base. An image that would run
// past 0xFFFF is rejected before any byte is written.
func (m *Memory) Load(base uint16, data []byte) error {
	if int(base)+len(data) > Size {
		return &LoadError{Base: base, Length: len(data)}
	}
	copy(m.data[base:], data)
	return nil
}

// Slice returns length bytes starting at start. The slice aliases memory
// and must be treated as read-only by callers.
func (m *Memory) Slice(start uint16, length int) []byte {
	end := int(start) + length
	if end > Size {
		end = Size
	}
	return m.data[start:end]
}

// VRAM returns the 7KB bitmap at 0x2400-0x3FFF
func (m *Memory) VRAM() []byte {
	return m.Slice(VRAMStart, VRAMSize)
}

// Snapshot returns a copy of the full address space
func (m *Memory) Snapshot() []byte {
	out := make([]byte, Size)
	copy(out, m.data[:])
	return out
}

// Restore replaces the full address space with image
func (m *Memory) Restore(image []byte) error {
	if len(image) != Size {
		return fmt.Errorf("memory: snapshot is %d bytes, want %d", len(image), Size)
	}
	copy(m.data[:], image)
	return nil
}
