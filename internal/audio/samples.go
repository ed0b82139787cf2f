// Package audio plays the board's sound effects from recorded samples.
//
// The arcade board has no sound chip the CPU programs; each bit of output
// ports 3 and 5 fires a discrete analog circuit. Those circuits are
// reproduced here as sample playback triggered by the port bus.
package audio

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// NumSamples is the number of sound effects on the board
const NumSamples = 9

// sampleExtensions are tried in order for every sample number
var sampleExtensions = []string{".wav", ".mp3"}

// Sample is one decoded sound effect as mono PCM in [-1, 1]
type Sample struct {
	Name string
	Data []float32
}

// SampleBank holds the sound effects resampled to the output rate
type SampleBank struct {
	rate    int
	samples [NumSamples]*Sample
}

// NewSampleBank creates an empty bank at the given output rate
func NewSampleBank(rate int) *SampleBank {
	return &SampleBank{rate: rate}
}

// LoadSampleBank loads samples 0.wav to 8.wav (or .mp3) from dir. A missing
// sample is logged and left silent; a file that fails to decode is an error.
func LoadSampleBank(dir string, rate int) (*SampleBank, error) {
	bank := NewSampleBank(rate)

	loaded := 0
	for i := 0; i < NumSamples; i++ {
		path, ok := findSample(dir, i)
		if !ok {
			log.Printf("[AUDIO] Sample %d (%s) not found in %s", i, SampleNames[i], dir)
			continue
		}

		data, sourceRate, err := decodeFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode sample %s", path)
		}

		bank.samples[i] = &Sample{
			Name: filepath.Base(path),
			Data: resample(data, sourceRate, rate),
		}
		loaded++
	}

	log.Printf("[AUDIO] Loaded %d/%d samples from %s", loaded, NumSamples, dir)
	return bank, nil
}

func findSample(dir string, index int) (string, bool) {
	for _, ext := range sampleExtensions {
		path := filepath.Join(dir, strconv.Itoa(index)+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Set stores mono data recorded at sourceRate as sample index
func (b *SampleBank) Set(index int, name string, data []float32, sourceRate int) error {
	if index < 0 || index >= NumSamples {
		return errors.Errorf("sample index %d out of range", index)
	}
	b.samples[index] = &Sample{Name: name, Data: resample(data, sourceRate, b.rate)}
	return nil
}

// Get returns sample index, or nil when it is not loaded
func (b *SampleBank) Get(index int) *Sample {
	if index < 0 || index >= NumSamples {
		return nil
	}
	return b.samples[index]
}

// Rate returns the output sample rate
func (b *SampleBank) Rate() int {
	return b.rate
}

func decodeFile(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(file)
	case ".mp3":
		return decodeMP3(file)
	}
	return nil, 0, errors.Errorf("unsupported sample format %q", filepath.Ext(path))
}

// decodeWAV reads a PCM wav file and mixes it down to mono
func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wav")
	}

	return intBufferToMono(buf), int(dec.SampleRate), nil
}

// intBufferToMono averages the channels of buf and scales to [-1, 1]
func intBufferToMono(buf *audio.IntBuffer) []float32 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float32(int(1) << uint(depth-1))

	out := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i+c]
		}
		out = append(out, float32(sum)/float32(channels)/scale)
	}
	return out
}

// decodeMP3 reads an mp3 stream. go-mp3 always produces 16 bit little
// endian stereo, so every frame is four bytes.
func decodeMP3(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "mp3")
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, errors.Wrap(err, "mp3")
	}

	out := make([]float32, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		left := int16(uint16(raw[i]) | uint16(raw[i+1])<<8)
		right := int16(uint16(raw[i+2]) | uint16(raw[i+3])<<8)
		out = append(out, (float32(left)+float32(right))/2/32768)
	}
	return out, dec.SampleRate(), nil
}

// resample converts data between rates with linear interpolation
func resample(data []float32, from, to int) []float32 {
	if from <= 0 || to <= 0 || from == to || len(data) == 0 {
		return data
	}

	n := int(int64(len(data)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		frac := float32(pos - float64(j))
		next := j + 1
		if next >= len(data) {
			next = len(data) - 1
		}
		out[i] = data[j]*(1-frac) + data[next]*frac
	}
	return out
}
