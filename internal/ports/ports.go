// Package ports implements the I/O port bus of the Space Invaders board:
// input latches, the external hardware shift register and sound triggers.
package ports

import "log"

// Port numbers used by the board
const (
	PortInput0      uint8 = 0
	PortInput1      uint8 = 1
	PortInput2      uint8 = 2
	PortShiftResult uint8 = 3 // IN
	PortShiftOffset uint8 = 2 // OUT
	PortSound1      uint8 = 3 // OUT
	PortShiftData   uint8 = 4 // OUT
	PortSound2      uint8 = 5 // OUT
	PortWatchdog    uint8 = 6 // OUT
)

// SoundEvent reports one sound bit that went from 0 to 1
type SoundEvent struct {
	Port uint8
	Bit  uint8
}

// SoundSink receives sound trigger edges
type SoundSink interface {
	TriggerSound(event SoundEvent)
}

// SoundSinkFunc adapts a function to SoundSink
type SoundSinkFunc func(event SoundEvent)

// TriggerSound calls f(event)
func (f SoundSinkFunc) TriggerSound(event SoundEvent) {
	f(event)
}

// Ports holds the state behind IN and OUT
type Ports struct {
	// Input latches mirrored from the cabinet controls
	input1 uint8
	input2 uint8

	// Shift register: OUT 4 moves msb into lsb and loads msb
	shiftMSB    uint8
	shiftLSB    uint8
	shiftOffset uint8

	// Last bytes written to the sound ports, for edge detection
	lastSound1 uint8
	lastSound2 uint8

	sink SoundSink

	enableDebugLogging bool
}

// New creates a port bus with cleared latches
func New() *Ports {
	return &Ports{}
}

// Reset clears the shift register and latches. The sound sink is kept.
func (p *Ports) Reset() {
	sink := p.sink
	debug := p.enableDebugLogging
	*p = Ports{sink: sink, enableDebugLogging: debug}
}

// SetSoundSink registers the receiver of sound edges
func (p *Ports) SetSoundSink(sink SoundSink) {
	p.sink = sink
}

// SetInputs updates the read-only latches behind IN 1 and IN 2
func (p *Ports) SetInputs(port1, port2 uint8) {
	p.input1 = port1
	p.input2 = port2
}

// In returns the byte the CPU reads from port
func (p *Ports) In(port uint8) uint8 {
	switch port {
	case PortInput1:
		return p.input1
	case PortInput2:
		return p.input2
	case PortShiftResult:
		return p.ShiftResult()
	}
	if p.enableDebugLogging {
		log.Printf("[PORTS_DEBUG] IN from unmapped port %d", port)
	}
	return 0
}

// Out handles a byte the CPU writes to port
func (p *Ports) Out(port uint8, value uint8) {
	switch port {
	case PortShiftOffset:
		p.shiftOffset = value & 0x07
	case PortShiftData:
		p.shiftLSB = p.shiftMSB
		p.shiftMSB = value
	case PortSound1:
		p.lastSound1 = p.emitEdges(PortSound1, p.lastSound1, value)
	case PortSound2:
		p.lastSound2 = p.emitEdges(PortSound2, p.lastSound2, value)
	case PortWatchdog:
	default:
		if p.enableDebugLogging {
			log.Printf("[PORTS_DEBUG] OUT 0x%02X to unmapped port %d", value, port)
		}
	}
}

// ShiftResult returns the 8-bit window of the 16-bit shift register
// selected by the current offset
func (p *Ports) ShiftResult() uint8 {
	word := uint16(p.shiftMSB)<<8 | uint16(p.shiftLSB)
	return uint8(word >> (8 - p.shiftOffset))
}

// emitEdges reports every bit that is set in value but clear in previous
// and returns value as the new latch
func (p *Ports) emitEdges(port, previous, value uint8) uint8 {
	rising := value &^ previous
	if rising != 0 && p.sink != nil {
		for bit := uint8(0); bit < 8; bit++ {
			if rising&(1<<bit) != 0 {
				p.sink.TriggerSound(SoundEvent{Port: port, Bit: bit})
			}
		}
	}
	return value
}

// EnableDebugLogging enables/disables logging of unmapped port access
func (p *Ports) EnableDebugLogging(enable bool) {
	p.enableDebugLogging = enable
}

// State is a snapshot of the port latches
type State struct {
	Input1      uint8 `json:"input1"`
	Input2      uint8 `json:"input2"`
	ShiftMSB    uint8 `json:"shift_msb"`
	ShiftLSB    uint8 `json:"shift_lsb"`
	ShiftOffset uint8 `json:"shift_offset"`
	LastSound1  uint8 `json:"last_sound1"`
	LastSound2  uint8 `json:"last_sound2"`
}

// GetState returns the current latches
func (p *Ports) GetState() State {
	return State{
		Input1:      p.input1,
		Input2:      p.input2,
		ShiftMSB:    p.shiftMSB,
		ShiftLSB:    p.shiftLSB,
		ShiftOffset: p.shiftOffset,
		LastSound1:  p.lastSound1,
		LastSound2:  p.lastSound2,
	}
}

// SetState restores latches from a snapshot without emitting sounds
func (p *Ports) SetState(s State) {
	p.input1 = s.Input1
	p.input2 = s.Input2
	p.shiftMSB = s.ShiftMSB
	p.shiftLSB = s.ShiftLSB
	p.shiftOffset = s.ShiftOffset & 0x07
	p.lastSound1 = s.LastSound1
	p.lastSound2 = s.LastSound2
}
