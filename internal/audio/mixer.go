package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// voice is a sample being played
type voice struct {
	data []float32
	pos  int
}

// Mixer sums the playing samples into a float32 little endian mono stream.
// Read is called from the audio device goroutine while Trigger is called
// from the emulation loop.
type Mixer struct {
	mu     sync.Mutex
	bank   *SampleBank
	voices [NumSamples]*voice
	volume float32
}

// NewMixer creates a mixer over bank
func NewMixer(bank *SampleBank, volume float32) *Mixer {
	return &Mixer{
		bank:   bank,
		volume: volume,
	}
}

// Trigger starts sample index from the beginning, restarting it if it is
// already playing
func (m *Mixer) Trigger(index int) {
	sample := m.bank.Get(index)
	if sample == nil || len(sample.Data) == 0 {
		return
	}

	m.mu.Lock()
	m.voices[index] = &voice{data: sample.Data}
	m.mu.Unlock()
}

// Stop silences every voice
func (m *Mixer) Stop() {
	m.mu.Lock()
	m.voices = [NumSamples]*voice{}
	m.mu.Unlock()
}

// Active reports whether sample index is playing
func (m *Mixer) Active(index int) bool {
	if index < 0 || index >= NumSamples {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voices[index] != nil
}

// SetVolume sets the master volume
func (m *Mixer) SetVolume(volume float32) {
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
}

// Read fills p with whole float32 samples. Silence is produced when
// nothing is playing, so the stream never ends.
func (m *Mixer) Read(p []byte) (int, error) {
	n := len(p) / 4

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < n; i++ {
		var sum float32
		for index, v := range m.voices {
			if v == nil {
				continue
			}
			sum += v.data[v.pos]
			v.pos++
			if v.pos >= len(v.data) {
				m.voices[index] = nil
			}
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(clip(sum*m.volume)))
	}
	return n * 4, nil
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
