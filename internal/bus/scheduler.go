package bus

import (
	"fmt"
	"log"
)

// Interrupt vectors raised by the video hardware
const (
	MidFrameVector uint8 = 1 // beam reaches the middle of the screen
	VBlankVector   uint8 = 2 // beam reaches the bottom
)

// Clock describes how many CPU cycles make up a frame
type Clock struct {
	// CPU frequency in Hz
	Rate int
	// Frames per second, each frame carrying two interrupts
	FrameRate int
}

// DefaultClock returns the 2 MHz / 60 Hz timing of the arcade board
func DefaultClock() Clock {
	return Clock{Rate: 2000000, FrameRate: 60}
}

// CyclesPerFrame returns the whole cycles available in one frame
func (c Clock) CyclesPerFrame() int {
	return c.Rate / c.FrameRate
}

// HalfBudgets splits a frame at the mid-screen interrupt. The second half
// takes the odd cycle.
func (c Clock) HalfBudgets() (first, second int) {
	total := c.CyclesPerFrame()
	first = total / 2
	return first, total - first
}

// Validate reports clocks that cannot drive the scheduler
func (c Clock) Validate() error {
	if c.Rate <= 0 || c.FrameRate <= 0 {
		return fmt.Errorf("clock rate and frame rate must be positive (rate=%d, frame rate=%d)", c.Rate, c.FrameRate)
	}
	if c.CyclesPerFrame() < 2 {
		return fmt.Errorf("clock rate %d Hz is too slow for %d frames per second", c.Rate, c.FrameRate)
	}
	return nil
}

// RunForBudget executes whole instructions until at least budget cycles
// have been consumed and returns the overshoot. A halted CPU idles away the
// remaining budget with no overshoot. Execution errors stop the run
// immediately.
func (b *Bus) RunForBudget(budget int) (int, error) {
	consumed := 0
	for consumed < budget {
		if b.CPU.Halted {
			consumed = budget
			break
		}
		cycles, err := b.Step()
		if err != nil {
			b.logEvent(ExecutionEvent{Kind: EventRun, Budget: budget, Cycles: consumed})
			return 0, err
		}
		consumed += cycles
	}
	b.logEvent(ExecutionEvent{Kind: EventRun, Budget: budget, Cycles: consumed})
	return consumed - budget, nil
}

// Interrupt delivers an interrupt to the CPU
func (b *Bus) Interrupt(vector uint8) error {
	b.logEvent(ExecutionEvent{Kind: EventInterrupt, Vector: vector})
	return b.CPU.Interrupt(vector)
}

// Frame runs one video frame: half a frame of code, the mid-screen
// interrupt, the other half, then the vblank interrupt. The overshoot of
// each half is taken off the next one so the long-run rate does not drift.
func (b *Bus) Frame() error {
	b.syncInputs()

	first, second := b.clock.HalfBudgets()

	if err := b.runHalf(first); err != nil {
		return err
	}
	if err := b.Interrupt(MidFrameVector); err != nil {
		return err
	}
	if err := b.runHalf(second); err != nil {
		return err
	}
	if err := b.Interrupt(VBlankVector); err != nil {
		return err
	}

	b.frameCount++
	return nil
}

func (b *Bus) runHalf(budget int) error {
	overshoot, err := b.RunForBudget(budget - b.overshoot)
	if err != nil {
		log.Printf("[BUS_ERROR] Frame %d stopped at PC=$%04X: %v", b.frameCount, b.CPU.PC, err)
		return err
	}
	b.overshoot = overshoot
	return nil
}

// Run executes the given number of frames
func (b *Bus) Run(frames int) error {
	for i := 0; i < frames; i++ {
		if err := b.Frame(); err != nil {
			return err
		}
	}
	return nil
}
