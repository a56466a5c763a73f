// Package config loads and validates TalkyTalk's runtime configuration:
// audio framing, pipeline scheduling, and per-component thresholds.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Default configuration values, mirroring the defaults each component
// constructor otherwise applies on its own.
const (
	DefaultListenAddr   = "localhost:8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"

	DefaultSampleRate      = 16000
	DefaultChannels        = 1
	DefaultFrameDurationMs = 20

	DefaultBufferDurationMs    = 1000
	DefaultEmitIntervalMs      = 100
	DefaultMinConfidenceToEmit = 0.0

	DefaultVADEnergyThresholdDB = -40.0
	DefaultVADHangoverFrames    = 5
	DefaultVADAdaptive          = true

	DefaultEmotionSmoothingAlpha = 0.3

	DefaultIntentDecayRate = 0.95

	DefaultPauseThresholdMs    = 300
	DefaultTurnEndThresholdMs  = 700
	DefaultInterruptConfidence = 0.6

	DefaultEarlyIntentStabilityThreshold  = 5
	DefaultEarlyIntentConfidenceMomentum  = 0.8
	DefaultEarlyIntentHypothesisTimeoutMs = 2000

	DefaultMinTurnGapMs       = 200
	DefaultSafeInterruptGapMs = 500
	DefaultMaxWaitMs          = 2000
)

// AudioConfig controls frame geometry.
type AudioConfig struct {
	SampleRate      int `mapstructure:"sample_rate" json:"sample_rate" validate:"required,gt=0"`
	Channels        int `mapstructure:"channels" json:"channels" validate:"required,eq=1"`
	FrameDurationMs int `mapstructure:"frame_duration_ms" json:"frame_duration_ms" validate:"required,gt=0"`
}

// PipelineConfig controls buffering and emission scheduling.
type PipelineConfig struct {
	BufferDurationMs    int64   `mapstructure:"buffer_duration_ms" json:"buffer_duration_ms" validate:"required,gt=0"`
	EmitIntervalMs      int64   `mapstructure:"emit_interval_ms" json:"emit_interval_ms" validate:"required,gt=0"`
	MinConfidenceToEmit float64 `mapstructure:"min_confidence_to_emit" json:"min_confidence_to_emit" validate:"gte=0,lte=1"`
}

// VADConfig controls the voice-activity analyzer.
type VADConfig struct {
	EnergyThresholdDB float64 `mapstructure:"energy_threshold_db" json:"energy_threshold_db"`
	HangoverFrames    int     `mapstructure:"hangover_frames" json:"hangover_frames" validate:"gte=0"`
	Adaptive          bool    `mapstructure:"adaptive" json:"adaptive"`
}

// EmotionConfig controls the emotion analyzer.
type EmotionConfig struct {
	SmoothingAlpha float64 `mapstructure:"smoothing_alpha" json:"smoothing_alpha" validate:"gt=0,lte=1"`
}

// IntentConfig controls the intent predictor.
type IntentConfig struct {
	DecayRate float64 `mapstructure:"decay_rate" json:"decay_rate" validate:"gt=0,lte=1"`
}

// TimingConfig controls the timing predictor.
type TimingConfig struct {
	PauseThresholdMs    int64   `mapstructure:"pause_threshold_ms" json:"pause_threshold_ms" validate:"gt=0"`
	TurnEndThresholdMs  int64   `mapstructure:"turn_end_threshold_ms" json:"turn_end_threshold_ms" validate:"gt=0"`
	InterruptConfidence float64 `mapstructure:"interrupt_confidence" json:"interrupt_confidence" validate:"gte=0,lte=1"`
}

// EarlyIntentConfig controls the progressive hypothesis tracker.
type EarlyIntentConfig struct {
	StabilityThreshold  int     `mapstructure:"stability_threshold" json:"stability_threshold" validate:"gt=0"`
	ConfidenceMomentum  float64 `mapstructure:"confidence_momentum" json:"confidence_momentum" validate:"gte=0,lte=1"`
	HypothesisTimeoutMs int64   `mapstructure:"hypothesis_timeout_ms" json:"hypothesis_timeout_ms" validate:"gt=0"`
}

// TurnTakingConfig controls the turn-taking state machine.
type TurnTakingConfig struct {
	MinTurnGapMs       int64 `mapstructure:"min_turn_gap_ms" json:"min_turn_gap_ms" validate:"gt=0"`
	SafeInterruptGapMs int64 `mapstructure:"safe_interrupt_gap_ms" json:"safe_interrupt_gap_ms" validate:"gtfield=MinTurnGapMs"`
	MaxWaitMs          int64 `mapstructure:"max_wait_ms" json:"max_wait_ms" validate:"gtfield=SafeInterruptGapMs"`
}

// Config is the complete TalkyTalk runtime configuration.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr" validate:"required"`
	LogLevel   string `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `mapstructure:"log_format" json:"log_format" validate:"oneof=json text"`

	Audio       AudioConfig       `mapstructure:"audio" json:"audio" validate:"required"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline" json:"pipeline" validate:"required"`
	VAD         VADConfig         `mapstructure:"vad" json:"vad"`
	Emotion     EmotionConfig     `mapstructure:"emotion" json:"emotion"`
	Intent      IntentConfig      `mapstructure:"intent" json:"intent"`
	Timing      TimingConfig      `mapstructure:"timing" json:"timing"`
	EarlyIntent EarlyIntentConfig `mapstructure:"early_intent" json:"early_intent"`
	TurnTaking  TurnTakingConfig  `mapstructure:"turn_taking" json:"turn_taking"`
}

// Default returns the configuration every component otherwise falls back
// to when constructed with its NewDefault<Component> helper.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FrameDurationMs: DefaultFrameDurationMs,
		},
		Pipeline: PipelineConfig{
			BufferDurationMs:    DefaultBufferDurationMs,
			EmitIntervalMs:      DefaultEmitIntervalMs,
			MinConfidenceToEmit: DefaultMinConfidenceToEmit,
		},
		VAD: VADConfig{
			EnergyThresholdDB: DefaultVADEnergyThresholdDB,
			HangoverFrames:    DefaultVADHangoverFrames,
			Adaptive:          DefaultVADAdaptive,
		},
		Emotion: EmotionConfig{SmoothingAlpha: DefaultEmotionSmoothingAlpha},
		Intent:  IntentConfig{DecayRate: DefaultIntentDecayRate},
		Timing: TimingConfig{
			PauseThresholdMs:    DefaultPauseThresholdMs,
			TurnEndThresholdMs:  DefaultTurnEndThresholdMs,
			InterruptConfidence: DefaultInterruptConfidence,
		},
		EarlyIntent: EarlyIntentConfig{
			StabilityThreshold:  DefaultEarlyIntentStabilityThreshold,
			ConfidenceMomentum:  DefaultEarlyIntentConfidenceMomentum,
			HypothesisTimeoutMs: DefaultEarlyIntentHypothesisTimeoutMs,
		},
		TurnTaking: TurnTakingConfig{
			MinTurnGapMs:       DefaultMinTurnGapMs,
			SafeInterruptGapMs: DefaultSafeInterruptGapMs,
			MaxWaitMs:          DefaultMaxWaitMs,
		},
	}
}

// Validate runs struct-tag validation plus the cross-field checks the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	if c.Audio.SampleRate%1000 != 0 && c.Audio.SampleRate != 44100 && c.Audio.SampleRate != 22050 {
		return fmt.Errorf("config: unusual sample_rate %d, expected a standard audio rate", c.Audio.SampleRate)
	}
	return nil
}
