//go:build !headless
// +build !headless

package audio

import (
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// otoOutput plays the mixer through the system audio device
type otoOutput struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex
}

// otoContext is shared; oto allows only one context per process
var (
	otoContext     *oto.Context
	otoContextRate int
	otoContextErr  error
	otoContextOnce sync.Once
)

func newOutput(source io.Reader, sampleRate int) (output, error) {
	otoContextOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
		otoContextRate = sampleRate
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoContextRate != sampleRate {
		return nil, errors.Errorf("audio device already open at %d Hz", otoContextRate)
	}

	return &otoOutput{
		ctx:    otoContext,
		player: otoContext.NewPlayer(source),
	}, nil
}

func (o *otoOutput) Start() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
	return nil
}

func (o *otoOutput) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.started = false
	return err
}
