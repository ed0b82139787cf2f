package ports

import "testing"

// recordingSink collects sound events
type recordingSink struct {
	events []SoundEvent
}

func (r *recordingSink) TriggerSound(event SoundEvent) {
	r.events = append(r.events, event)
}

func TestShiftRegister(t *testing.T) {
	p := New()

	p.Out(PortShiftData, 0xAA)
	p.Out(PortShiftData, 0x55)
	p.Out(PortShiftOffset, 3)

	state := p.GetState()
	if state.ShiftMSB != 0x55 || state.ShiftLSB != 0xAA {
		t.Fatalf("Expected msb=0x55 lsb=0xAA, got msb=0x%02X lsb=0x%02X", state.ShiftMSB, state.ShiftLSB)
	}

	// (0x55AA >> 5) & 0xFF
	if got := p.In(PortShiftResult); got != 0xAD {
		t.Errorf("Expected 0xAD, got 0x%02X", got)
	}
}

func TestShiftOffsets(t *testing.T) {
	p := New()
	p.Out(PortShiftData, 0x0F)
	p.Out(PortShiftData, 0xF0) // msb=0xF0 lsb=0x0F

	testCases := []struct {
		offset   uint8
		expected uint8
	}{
		{0, 0xF0},
		{1, 0xE0},
		{4, 0x00},
		{7, 0x07},
		{0x09, 0xE0}, // only the low three bits count
	}

	for _, tc := range testCases {
		p.Out(PortShiftOffset, tc.offset)
		if got := p.In(PortShiftResult); got != tc.expected {
			t.Errorf("Offset %d: Expected 0x%02X, got 0x%02X", tc.offset, tc.expected, got)
		}
	}
}

func TestInputLatches(t *testing.T) {
	p := New()
	p.SetInputs(0x09, 0x83)

	if got := p.In(PortInput1); got != 0x09 {
		t.Errorf("Port 1: Expected 0x09, got 0x%02X", got)
	}
	if got := p.In(PortInput2); got != 0x83 {
		t.Errorf("Port 2: Expected 0x83, got 0x%02X", got)
	}
	if got := p.In(7); got != 0 {
		t.Errorf("Unmapped port: Expected 0, got 0x%02X", got)
	}

	// Writing port 2 sets the shift offset, not the input latch
	p.Out(PortShiftOffset, 0xFF)
	if got := p.In(PortInput2); got != 0x83 {
		t.Errorf("Port 2 after OUT: Expected 0x83, got 0x%02X", got)
	}
}

func TestSoundEdges(t *testing.T) {
	sink := &recordingSink{}
	p := New()
	p.SetSoundSink(sink)

	p.Out(PortSound1, 0x01)
	p.Out(PortSound1, 0x01) // held, no new edge
	p.Out(PortSound1, 0x03) // bit 1 rises
	p.Out(PortSound1, 0x00)
	p.Out(PortSound1, 0x01) // bit 0 rises again
	p.Out(PortSound2, 0x11)

	expected := []SoundEvent{
		{Port: 3, Bit: 0},
		{Port: 3, Bit: 1},
		{Port: 3, Bit: 0},
		{Port: 5, Bit: 0},
		{Port: 5, Bit: 4},
	}

	if len(sink.events) != len(expected) {
		t.Fatalf("Expected %d events, got %d: %+v", len(expected), len(sink.events), sink.events)
	}
	for i, ev := range expected {
		if sink.events[i] != ev {
			t.Errorf("Event %d: Expected %+v, got %+v", i, ev, sink.events[i])
		}
	}

	state := p.GetState()
	if state.LastSound1 != 0x01 || state.LastSound2 != 0x11 {
		t.Errorf("Expected latches 0x01/0x11, got 0x%02X/0x%02X", state.LastSound1, state.LastSound2)
	}
}

func TestSoundPortsAreIndependent(t *testing.T) {
	sink := &recordingSink{}
	p := New()
	p.SetSoundSink(sink)

	p.Out(PortSound1, 0x04)
	p.Out(PortSound2, 0x04)

	if len(sink.events) != 2 || sink.events[0].Port != 3 || sink.events[1].Port != 5 {
		t.Errorf("Expected one edge per port, got %+v", sink.events)
	}
}

func TestSoundWithoutSink(t *testing.T) {
	p := New()
	p.Out(PortSound1, 0xFF)
	if p.GetState().LastSound1 != 0xFF {
		t.Error("Expected latch stored without a sink")
	}
}

func TestSoundSinkFunc(t *testing.T) {
	var got []SoundEvent
	p := New()
	p.SetSoundSink(SoundSinkFunc(func(ev SoundEvent) { got = append(got, ev) }))

	p.Out(PortSound2, 0x02)
	if len(got) != 1 || got[0] != (SoundEvent{Port: 5, Bit: 1}) {
		t.Errorf("Unexpected events %+v", got)
	}
}

func TestStateRestoreDoesNotEmit(t *testing.T) {
	sink := &recordingSink{}
	p := New()
	p.SetSoundSink(sink)

	p.SetState(State{ShiftMSB: 0x12, ShiftLSB: 0x34, ShiftOffset: 0x0C, LastSound1: 0x01})
	if len(sink.events) != 0 {
		t.Errorf("Expected no events on restore, got %+v", sink.events)
	}
	if p.GetState().ShiftOffset != 0x04 {
		t.Errorf("Expected offset masked to 4, got %d", p.GetState().ShiftOffset)
	}

	// Bit 0 is already latched so only bit 1 fires
	p.Out(PortSound1, 0x03)
	if len(sink.events) != 1 || sink.events[0].Bit != 1 {
		t.Errorf("Unexpected events %+v", sink.events)
	}
}

func TestReset(t *testing.T) {
	sink := &recordingSink{}
	p := New()
	p.SetSoundSink(sink)
	p.Out(PortShiftData, 0xFF)
	p.Out(PortSound1, 0x01)

	p.Reset()

	if p.GetState() != (State{}) {
		t.Errorf("Expected cleared state, got %+v", p.GetState())
	}
	p.Out(PortSound1, 0x01)
	if len(sink.events) != 2 {
		t.Errorf("Expected sink kept across reset, got %d events", len(sink.events))
	}
}
