// Package app provides emulator integration for the main application.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"goinvaders/internal/bus"
	"goinvaders/internal/graphics"
)

// Emulator manages the emulation loop and timing
type Emulator struct {
	bus    *bus.Bus
	config *Config

	// Timing control
	targetFrameTime time.Duration
	cyclesPerFrame  int

	// Frame management
	frame   graphics.Frame
	overlay bool

	// Performance monitoring
	actualFrameTime time.Duration
	emulationTime   time.Duration
	cycleCount      uint64
	frameCount      uint64
	timingBuffer    *CircularTimingBuffer

	// State tracking
	isRunning     bool
	halted        bool
	lastResetTime time.Time
}

// EmulatorStats is a snapshot of emulation performance
type EmulatorStats struct {
	FrameCount       uint64
	CycleCount       uint64
	EmulationTime    time.Duration
	ActualFrameTime  time.Duration
	AverageFrameTime time.Duration
	FrameJitter      time.Duration
	TargetFrameTime  time.Duration
	EmulationSpeed   float64
	Uptime           time.Duration
	IsRunning        bool
	Halted           bool
}

// NewEmulator creates a new emulator driving bus with the configured clock
func NewEmulator(bus *bus.Bus, config *Config) *Emulator {
	emulator := &Emulator{
		bus:            bus,
		config:         config,
		cyclesPerFrame: bus.Clock().CyclesPerFrame(),
		overlay:        config.Video.ColorOverlay,
		timingBuffer:   NewCircularTimingBuffer(180), // 3 seconds at 60 FPS
		lastResetTime:  time.Now(),
	}
	emulator.SetTargetFrameRate(bus.Clock().FrameRate)

	emulator.Reset()
	return emulator
}

// Reset clears the emulator statistics
func (e *Emulator) Reset() {
	e.actualFrameTime = 0
	e.emulationTime = 0
	e.cycleCount = 0
	e.frameCount = 0
	e.halted = false
	e.lastResetTime = time.Now()
	e.timingBuffer.Reset()
	e.frame = graphics.Frame{}
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs one frame when the emulator is running. Once the CPU has
// halted the emulator stops itself.
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	frameStartTime := time.Now()

	if err := e.StepFrame(); err != nil {
		e.isRunning = false
		return errors.Wrap(err, "frame execution error")
	}

	if e.bus.IsHalted() {
		e.halted = true
		e.isRunning = false
		log.Printf("[EMULATOR] CPU halted at PC=$%04X after %d frames, stopping", e.bus.CPU.PC, e.frameCount)
	}

	e.actualFrameTime = time.Since(frameStartTime)
	e.timingBuffer.Add(e.actualFrameTime)
	return nil
}

// StepFrame executes exactly one frame of emulation and redraws the screen
func (e *Emulator) StepFrame() error {
	if e.bus == nil {
		return errors.New("bus not initialized")
	}

	emulationStart := time.Now()

	if err := e.bus.Frame(); err != nil {
		return err
	}
	e.frameCount++

	graphics.Rasterize(e.bus.VRAM(), e.overlay, &e.frame)

	e.emulationTime = time.Since(emulationStart)
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

// SyncWithBus takes the frame and cycle counters and the halt state from the
// bus and redraws the screen. Used after the machine state is replaced.
func (e *Emulator) SyncWithBus() {
	e.frameCount = e.bus.GetFrameCount()
	e.cycleCount = e.bus.GetCycleCount()
	e.halted = e.bus.IsHalted()
	graphics.Rasterize(e.bus.VRAM(), e.overlay, &e.frame)
}

// StepInstruction executes one CPU instruction
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return errors.New("bus not initialized")
	}

	if _, err := e.bus.Step(); err != nil {
		return err
	}
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

// GetFrame returns the screen drawn after the last frame
func (e *Emulator) GetFrame() *graphics.Frame {
	return &e.frame
}

// SetOverlay enables/disables the colour overlay
func (e *Emulator) SetOverlay(enabled bool) {
	e.overlay = enabled
}

// GetFrameCount returns the frames run since reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns total CPU cycles
func (e *Emulator) GetCycleCount() uint64 {
	return e.cycleCount
}

// GetCyclesPerFrame returns the cycle budget of one frame
func (e *Emulator) GetCyclesPerFrame() int {
	return e.cyclesPerFrame
}

// GetTargetFrameTime returns the wall time one frame should take
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// SetTargetFrameRate sets the target frame rate
func (e *Emulator) SetTargetFrameRate(fps int) {
	if fps > 0 {
		e.targetFrameTime = time.Second / time.Duration(fps)
	}
}

// GetEmulationSpeed returns how many times faster than real time the last
// frame was emulated
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.emulationTime <= 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(e.emulationTime)
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// IsHalted reports whether the emulator stopped because of HLT
func (e *Emulator) IsHalted() bool {
	return e.halted
}

// GetUptime returns the time since the last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// GetCPUState returns the current CPU state for debugging
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPerformanceStats returns performance statistics
func (e *Emulator) GetPerformanceStats() EmulatorStats {
	return EmulatorStats{
		FrameCount:       e.frameCount,
		CycleCount:       e.cycleCount,
		EmulationTime:    e.emulationTime,
		ActualFrameTime:  e.actualFrameTime,
		AverageFrameTime: e.timingBuffer.GetAverage(),
		FrameJitter:      e.timingBuffer.GetVariance(),
		TargetFrameTime:  e.targetFrameTime,
		EmulationSpeed:   e.GetEmulationSpeed(),
		Uptime:           e.GetUptime(),
		IsRunning:        e.isRunning,
		Halted:           e.halted,
	}
}

// CircularTimingBuffer keeps the most recent frame times
type CircularTimingBuffer struct {
	buffer   []time.Duration
	capacity int
	index    int
	size     int
	mu       sync.RWMutex
}

// NewCircularTimingBuffer creates a buffer holding capacity durations
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add records a duration, overwriting the oldest when full
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()

	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity
	if ctb.size < ctb.capacity {
		ctb.size++
	}
}

// GetAverage returns the mean of the recorded durations
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()

	if ctb.size == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		total += ctb.buffer[i]
	}
	return total / time.Duration(ctb.size)
}

// GetVariance returns the mean absolute deviation from the average
func (ctb *CircularTimingBuffer) GetVariance() time.Duration {
	avg := ctb.GetAverage()

	ctb.mu.RLock()
	defer ctb.mu.RUnlock()

	if ctb.size < 2 {
		return 0
	}

	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		diff := ctb.buffer[i] - avg
		if diff < 0 {
			diff = -diff
		}
		total += diff
	}
	return total / time.Duration(ctb.size)
}

// Reset clears the buffer
func (ctb *CircularTimingBuffer) Reset() {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()

	ctb.index = 0
	ctb.size = 0
}
