package audio

import (
	"log"

	"github.com/pkg/errors"

	"goinvaders/internal/ports"
)

// Config contains audio settings
type Config struct {
	SampleRate int
	Volume     float32
	SamplesDir string
	Debug      bool
}

// output is an audio device pulling from the mixer
type output interface {
	Start() error
	Close() error
}

// Player turns sound edges from the port bus into sample playback
type Player struct {
	mixer  *Mixer
	out    output
	config Config
}

// NewPlayer loads the samples and opens the audio device
func NewPlayer(config Config) (*Player, error) {
	if config.SampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate %d", config.SampleRate)
	}

	bank, err := LoadSampleBank(config.SamplesDir, config.SampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load samples")
	}

	p := NewPlayerWithBank(bank, config)
	p.out, err = newOutput(p.mixer, config.SampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio device")
	}
	if err := p.out.Start(); err != nil {
		p.out.Close()
		return nil, errors.Wrap(err, "failed to start audio device")
	}

	log.Printf("[AUDIO] Output started at %d Hz", config.SampleRate)
	return p, nil
}

// NewPlayerWithBank creates a player without an audio device; the mixer
// can be read directly
func NewPlayerWithBank(bank *SampleBank, config Config) *Player {
	return &Player{
		mixer:  NewMixer(bank, config.Volume),
		config: config,
	}
}

// TriggerSound implements ports.SoundSink
func (p *Player) TriggerSound(event ports.SoundEvent) {
	index, ok := SoundForEvent(event)
	if !ok {
		return
	}
	if p.config.Debug {
		log.Printf("[AUDIO] Port %d bit %d -> %s", event.Port, event.Bit, SampleNames[index])
	}
	p.mixer.Trigger(index)
}

// Mixer returns the sample mixer
func (p *Player) Mixer() *Mixer {
	return p.mixer
}

// Silence stops every playing sample
func (p *Player) Silence() {
	p.mixer.Stop()
}

// Close stops playback and releases the audio device
func (p *Player) Close() error {
	p.mixer.Stop()
	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out = nil
	return err
}
