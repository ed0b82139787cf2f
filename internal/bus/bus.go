// Package bus implements the system bus tying the 8080 to memory, the port
// bus and the cabinet controls.
package bus

import (
	"goinvaders/internal/cpu"
	"goinvaders/internal/input"
	"goinvaders/internal/memory"
	"goinvaders/internal/ports"
)

// Bus connects all board components together
type Bus struct {
	// Core components
	CPU    *cpu.CPU
	Memory *memory.Memory
	Ports  *ports.Ports
	Input  *input.Controller

	// Timing
	clock     Clock
	overshoot int

	// System state
	totalCycles uint64
	frameCount  uint64

	// Execution logging for testing
	executionLog   []ExecutionEvent
	loggingEnabled bool
}

// New creates a new system bus with all components at the standard clock
func New() *Bus {
	return NewWithClock(DefaultClock())
}

// NewWithClock creates a new system bus driven by clock
func NewWithClock(clock Clock) *Bus {
	bus := &Bus{
		Memory: memory.New(),
		Ports:  ports.New(),
		Input:  input.New(),
		clock:  clock,
	}

	// CPU needs memory and the port bus
	bus.CPU = cpu.New(bus.Memory, bus.Ports)

	bus.Reset()
	return bus
}

// Reset resets the CPU, ports and timing. Memory, and with it a loaded ROM,
// is kept.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.Ports.Reset()
	b.Input.Reset()

	b.overshoot = 0
	b.totalCycles = 0
	b.frameCount = 0

	b.executionLog = make([]ExecutionEvent, 0)
}

// LoadROM copies a program image into memory at base. Nothing is written
// when the image does not fit.
func (b *Bus) LoadROM(base uint16, data []byte) error {
	return b.Memory.Load(base, data)
}

// SetSoundSink registers the receiver of sound edges
func (b *Bus) SetSoundSink(sink ports.SoundSink) {
	b.Ports.SetSoundSink(sink)
}

// SetButton forwards a control change to the cabinet panel
func (b *Bus) SetButton(button input.Button, pressed bool) {
	b.Input.SetButton(button, pressed)
}

// syncInputs copies the panel state into the IN 1 / IN 2 latches
func (b *Bus) syncInputs() {
	b.Ports.SetInputs(b.Input.Port1(), b.Input.Port2())
}

// Step executes one CPU instruction
func (b *Bus) Step() (int, error) {
	cycles, err := b.CPU.Step()
	b.totalCycles += uint64(cycles)
	return cycles, err
}

// VRAM returns the video bitmap
func (b *Bus) VRAM() []byte {
	return b.Memory.VRAM()
}

// Clock returns the timing the scheduler runs with
func (b *Bus) Clock() Clock {
	return b.clock
}

// GetCycleCount returns total CPU cycles executed
func (b *Bus) GetCycleCount() uint64 {
	return b.totalCycles
}

// GetFrameCount returns the number of completed frames
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// GetOvershoot returns the cycles the last half frame ran past its budget
func (b *Bus) GetOvershoot() int {
	return b.overshoot
}

// RestoreTiming sets the frame counter and carried overshoot, used when a
// snapshot is loaded between frames
func (b *Bus) RestoreTiming(frameCount uint64, overshoot int) {
	b.frameCount = frameCount
	b.overshoot = overshoot
}

// IsHalted reports whether the CPU has executed HLT
func (b *Bus) IsHalted() bool {
	return b.CPU.Halted
}

// EnableCPUDebug enables register dumps around every instruction
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableDebugLogging(enable)
}

// EnableCPUTrace enables disassembly of every executed instruction
func (b *Bus) EnableCPUTrace(enable bool) {
	b.CPU.EnableTrace(enable)
}

// EnableExecutionLogging enables execution logging for testing
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging disables execution logging
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// GetExecutionLog returns execution log for integration testing
func (b *Bus) GetExecutionLog() []ExecutionEvent {
	return b.executionLog
}

// ClearExecutionLog clears the execution log
func (b *Bus) ClearExecutionLog() {
	b.executionLog = make([]ExecutionEvent, 0)
}

// EventKind classifies an execution log entry
type EventKind int

const (
	EventRun EventKind = iota
	EventInterrupt
)

// ExecutionEvent represents one scheduler action for testing
type ExecutionEvent struct {
	Kind       EventKind
	FrameCount uint64
	// Budget and Cycles are set for EventRun
	Budget int
	Cycles int
	// Vector is set for EventInterrupt
	Vector uint8
	PC     uint16
}

func (b *Bus) logEvent(event ExecutionEvent) {
	if !b.loggingEnabled {
		return
	}
	event.FrameCount = b.frameCount
	event.PC = b.CPU.PC
	b.executionLog = append(b.executionLog, event)
}

// GetCPUState returns the current CPU state
func (b *Bus) GetCPUState() CPUState {
	c := b.CPU
	return CPUState{
		A: c.A, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		Flags:           c.F,
		SP:              c.SP,
		PC:              c.PC,
		InterruptEnable: c.InterruptEnable,
		Halted:          c.Halted,
		Cycles:          b.totalCycles,
	}
}

// SetCPUState restores the CPU registers from a snapshot
func (b *Bus) SetCPUState(s CPUState) {
	c := b.CPU
	c.A, c.B, c.C, c.D, c.E, c.H, c.L = s.A, s.B, s.C, s.D, s.E, s.H, s.L
	c.SetPair(cpu.PSW, uint16(s.A)<<8|uint16(s.Flags))
	c.SP = s.SP
	c.PC = s.PC
	c.InterruptEnable = s.InterruptEnable
	c.Halted = s.Halted
	b.totalCycles = s.Cycles
}

// CPUState represents a CPU state snapshot
type CPUState struct {
	A, B, C, D, E, H, L uint8
	Flags               uint8
	SP, PC              uint16
	InterruptEnable     bool
	Halted              bool
	Cycles              uint64
}
