package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"goinvaders/internal/ports"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	enc := wav.NewEncoder(file, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func readFloats(t *testing.T, m *Mixer, n int) []float32 {
	t.Helper()

	buf := make([]byte, n*4)
	read, err := m.Read(buf)
	if err != nil || read != len(buf) {
		t.Fatalf("Read returned %d, %v", read, err)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func TestLoadSampleBank(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "1.wav"), 22050, 2, []int{16384, 0, -16384, -16384})

	bank, err := LoadSampleBank(dir, 22050)
	if err != nil {
		t.Fatalf("LoadSampleBank failed: %v", err)
	}

	shot := bank.Get(SampleShot)
	if shot == nil {
		t.Fatal("Expected shot sample to be loaded")
	}
	expected := []float32{0.25, -0.5}
	if len(shot.Data) != len(expected) {
		t.Fatalf("Expected %d frames, got %d", len(expected), len(shot.Data))
	}
	for i, want := range expected {
		if shot.Data[i] != want {
			t.Errorf("Frame %d: Expected %f, got %f", i, want, shot.Data[i])
		}
	}

	for i := 0; i < NumSamples; i++ {
		if i != SampleShot && bank.Get(i) != nil {
			t.Errorf("Expected sample %d to be missing", i)
		}
	}
}

func TestLoadSampleBankRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0.wav"), []byte("not a wav file"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSampleBank(dir, 44100); err == nil {
		t.Error("Expected error for corrupt sample")
	}
}

func TestResample(t *testing.T) {
	data := []float32{0, 1, 0, -1}

	same := resample(data, 100, 100)
	if len(same) != 4 {
		t.Errorf("Expected unchanged length, got %d", len(same))
	}

	up := resample(data, 100, 200)
	if len(up) != 8 {
		t.Fatalf("Expected 8 frames, got %d", len(up))
	}
	if up[1] != 0.5 || up[2] != 1 {
		t.Errorf("Expected interpolated values 0.5 and 1, got %f and %f", up[1], up[2])
	}

	down := resample(data, 200, 100)
	if len(down) != 2 || down[0] != 0 || down[1] != 0 {
		t.Errorf("Expected [0 0], got %v", down)
	}
}

func TestSoundForEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  ports.SoundEvent
		sample int
		ok     bool
	}{
		{"ufo", ports.SoundEvent{Port: 3, Bit: 0}, SampleUFO, true},
		{"shot", ports.SoundEvent{Port: 3, Bit: 1}, SampleShot, true},
		{"player death", ports.SoundEvent{Port: 3, Bit: 2}, SamplePlayerDeath, true},
		{"invader death", ports.SoundEvent{Port: 3, Bit: 3}, SampleInvaderDeath, true},
		{"extended play", ports.SoundEvent{Port: 3, Bit: 4}, 0, false},
		{"amplifier", ports.SoundEvent{Port: 3, Bit: 5}, 0, false},
		{"fleet 1", ports.SoundEvent{Port: 5, Bit: 0}, SampleFleet1, true},
		{"fleet 4", ports.SoundEvent{Port: 5, Bit: 3}, SampleFleet4, true},
		{"ufo hit", ports.SoundEvent{Port: 5, Bit: 4}, SampleUFOHit, true},
		{"cocktail flip", ports.SoundEvent{Port: 5, Bit: 5}, 0, false},
		{"other port", ports.SoundEvent{Port: 6, Bit: 0}, 0, false},
	}

	for _, test := range tests {
		sample, ok := SoundForEvent(test.event)
		if ok != test.ok || sample != test.sample {
			t.Errorf("%s: Expected (%d, %t), got (%d, %t)", test.name, test.sample, test.ok, sample, ok)
		}
	}
}

func TestMixer(t *testing.T) {
	bank := NewSampleBank(100)
	bank.Set(SampleShot, "shot", []float32{0.5, 0.25}, 100)
	bank.Set(SampleUFOHit, "hit", []float32{0.75, 0.75, 0.75}, 100)

	m := NewMixer(bank, 1.0)

	silence := readFloats(t, m, 2)
	if silence[0] != 0 || silence[1] != 0 {
		t.Errorf("Expected silence, got %v", silence)
	}

	m.Trigger(SampleShot)
	m.Trigger(SampleUFOHit)
	m.Trigger(SampleFleet1) // not loaded
	if !m.Active(SampleShot) || m.Active(SampleFleet1) {
		t.Error("Expected only loaded samples to become active")
	}

	out := readFloats(t, m, 4)
	expected := []float32{1.0, 1.0, 0.75, 0}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("Frame %d: Expected %f, got %f", i, want, out[i])
		}
	}

	if m.Active(SampleShot) || m.Active(SampleUFOHit) {
		t.Error("Expected voices to finish")
	}
}

func TestMixerVolumeAndStop(t *testing.T) {
	bank := NewSampleBank(100)
	bank.Set(SampleUFO, "ufo", []float32{1, 1, 1, 1}, 100)

	m := NewMixer(bank, 0.5)
	m.Trigger(SampleUFO)
	if out := readFloats(t, m, 1); out[0] != 0.5 {
		t.Errorf("Expected volume scaled 0.5, got %f", out[0])
	}

	m.Stop()
	if out := readFloats(t, m, 1); out[0] != 0 {
		t.Errorf("Expected silence after Stop, got %f", out[0])
	}
}

func TestMixerPartialBuffer(t *testing.T) {
	m := NewMixer(NewSampleBank(100), 1.0)

	n, err := m.Read(make([]byte, 7))
	if err != nil || n != 4 {
		t.Errorf("Expected one whole sample (4 bytes), got %d, %v", n, err)
	}
}

func TestPlayerTriggersFromPorts(t *testing.T) {
	bank := NewSampleBank(100)
	bank.Set(SampleShot, "shot", []float32{0.5}, 100)

	player := NewPlayerWithBank(bank, Config{SampleRate: 100, Volume: 1.0})

	p := ports.New()
	p.SetSoundSink(player)
	p.Out(ports.PortSound1, 0x02)

	if !player.Mixer().Active(SampleShot) {
		t.Error("Expected shot to play after OUT 3 bit 1")
	}

	player.Silence()
	if player.Mixer().Active(SampleShot) {
		t.Error("Expected Silence to stop playback")
	}

	if err := player.Close(); err != nil {
		t.Errorf("Close without device failed: %v", err)
	}
}

func TestNewPlayerRejectsBadRate(t *testing.T) {
	if _, err := NewPlayer(Config{SampleRate: 0}); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
