package audio

import "goinvaders/internal/ports"

// Sample numbers
const (
	SampleUFO = iota
	SampleShot
	SamplePlayerDeath
	SampleInvaderDeath
	SampleFleet1
	SampleFleet2
	SampleFleet3
	SampleFleet4
	SampleUFOHit
)

// SampleNames describes each sample number
var SampleNames = [NumSamples]string{
	"ufo",
	"shot",
	"player death",
	"invader death",
	"fleet 1",
	"fleet 2",
	"fleet 3",
	"fleet 4",
	"ufo hit",
}

// SoundForEvent returns the sample fired by a sound edge. Bits wired to the
// amplifier enable or the cocktail flip have no sample.
func SoundForEvent(event ports.SoundEvent) (int, bool) {
	switch event.Port {
	case ports.PortSound1:
		if event.Bit <= 3 {
			return SampleUFO + int(event.Bit), true
		}
	case ports.PortSound2:
		if event.Bit <= 4 {
			return SampleFleet1 + int(event.Bit), true
		}
	}
	return 0, false
}
