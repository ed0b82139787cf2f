//go:build headless
// +build headless

package audio

import "io"

// nullOutput discards audio in headless builds
type nullOutput struct{}

func newOutput(source io.Reader, sampleRate int) (output, error) {
	return nullOutput{}, nil
}

func (nullOutput) Start() error { return nil }
func (nullOutput) Close() error { return nil }
