// Package audio holds the frame-based audio primitives the pipeline
// operates on: configuration, individual frames, and the sliding buffer
// analyzers use for multi-frame context.
package audio

import "fmt"

// Default audio configuration values.
const (
	DefaultSampleRate     = 16000
	DefaultChannels       = 1
	DefaultFrameDurationMs = 20
)

// Config describes an immutable audio stream format. Samples are always
// normalized floating-point in [-1, 1]; sources are responsible for
// renormalizing if their native format differs.
type Config struct {
	SampleRate      int
	Channels        int
	FrameDurationMs int
}

// NewConfig returns the default 16kHz mono 20ms configuration.
func NewConfig() Config {
	return Config{
		SampleRate:      DefaultSampleRate,
		Channels:        DefaultChannels,
		FrameDurationMs: DefaultFrameDurationMs,
	}
}

// FrameSize returns the number of samples per frame. This is the single
// source of truth for the sample-rate/frame-duration relationship; the
// original implementation defined this inconsistently across two
// properties (frame_size vs samples_per_frame) — we standardize on
// sample_rate * frame_duration_ms / 1000.
func (c Config) FrameSize() int {
	return c.SampleRate * c.FrameDurationMs / 1000
}

// Validate checks the configuration is internally consistent, failing fast
// at construction time rather than producing empty or malformed frames.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("audio: channels must be positive, got %d", c.Channels)
	}
	if c.FrameDurationMs <= 0 {
		return fmt.Errorf("audio: frame duration must be positive, got %d", c.FrameDurationMs)
	}
	if c.FrameSize() <= 0 {
		return fmt.Errorf("audio: derived frame size is non-positive (sample_rate=%d, frame_duration_ms=%d)", c.SampleRate, c.FrameDurationMs)
	}
	return nil
}
