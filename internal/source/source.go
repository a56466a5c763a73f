// Package source provides pipeline.Source implementations: an in-memory
// array replayer and synthetic sine, noise, and silence generators for
// tests and demos.
package source

import (
	"errors"
	"math"
	"math/rand"

	"github.com/serhatskywalker/talkytalk/internal/audio"
)

// ErrClosed is returned by Next after Close has been called.
var ErrClosed = errors.New("source: closed")

// ArraySource replays a fixed slice of samples as a sequence of frames,
// useful for feeding recorded or precomputed audio through the pipeline.
type ArraySource struct {
	config   audio.Config
	data     []float64
	position int
	frameID  int64
	closed   bool
}

// NewArraySource constructs an ArraySource over data, normalizing samples
// that fall outside [-1, 1] by their peak magnitude.
func NewArraySource(data []float64, cfg audio.Config) *ArraySource {
	normalized := make([]float64, len(data))
	copy(normalized, data)

	peak := 0.0
	for _, s := range normalized {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak > 1.0 {
		for i := range normalized {
			normalized[i] /= peak
		}
	}

	return &ArraySource{config: cfg, data: normalized}
}

// Config returns the audio configuration this source produces frames in.
func (s *ArraySource) Config() audio.Config { return s.config }

// Next returns the next frame, or ok=false once the array is exhausted.
func (s *ArraySource) Next() (audio.Frame, bool, error) {
	if s.closed {
		return audio.Frame{}, false, ErrClosed
	}
	frameSize := s.config.FrameSize()
	if s.position+frameSize > len(s.data) {
		return audio.Frame{}, false, nil
	}

	chunk := s.data[s.position : s.position+frameSize]
	timestampMs := int64(float64(s.position) / float64(s.config.SampleRate) * 1000)
	frame := audio.NewFrame(chunk, s.frameID, timestampMs, s.config)

	s.position += frameSize
	s.frameID++
	return frame, true, nil
}

// Close marks the source exhausted; subsequent Next calls return
// ErrClosed.
func (s *ArraySource) Close() error {
	s.closed = true
	return nil
}

// SineSource generates a pure sine tone for a fixed duration.
type SineSource struct {
	*ArraySource
}

// NewSineSource generates durationMs of a frequencyHz sine wave at the
// given amplitude and audio configuration.
func NewSineSource(frequencyHz, amplitude float64, durationMs int, cfg audio.Config) *SineSource {
	total := cfg.SampleRate * durationMs / 1000
	data := make([]float64, total)
	for i := range data {
		t := float64(i) / float64(cfg.SampleRate)
		data[i] = amplitude * math.Sin(2*math.Pi*frequencyHz*t)
	}
	return &SineSource{ArraySource: NewArraySource(data, cfg)}
}

// NoiseSource generates white noise for a fixed duration.
type NoiseSource struct {
	*ArraySource
}

// NewNoiseSource generates durationMs of Gaussian white noise at the given
// amplitude, seeded by seed for reproducibility.
func NewNoiseSource(amplitude float64, durationMs int, seed int64, cfg audio.Config) *NoiseSource {
	total := cfg.SampleRate * durationMs / 1000
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, total)
	for i := range data {
		data[i] = amplitude * rng.NormFloat64()
	}
	return &NoiseSource{ArraySource: NewArraySource(data, cfg)}
}

// SilenceSource generates digital silence for a fixed duration, useful for
// exercising pause/timeout logic deterministically.
type SilenceSource struct {
	*ArraySource
}

// NewSilenceSource generates durationMs of silence.
func NewSilenceSource(durationMs int, cfg audio.Config) *SilenceSource {
	total := cfg.SampleRate * durationMs / 1000
	return &SilenceSource{ArraySource: NewArraySource(make([]float64, total), cfg)}
}
