package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix viper binds environment variables under, e.g.
// TALKYTALK_AUDIO_SAMPLE_RATE for Config.Audio.SampleRate.
const EnvPrefix = "TALKYTALK"

// Loader loads configuration from an optional config file, layered with
// environment variables and defaults. Lookup is consulted only for the
// legacy flat variables (see applyLegacyEnv); tests can override it to
// inject those deterministically. The nested TALKYTALK_* variables are
// read by viper from the process environment directly.
type Loader struct {
	ConfigPath string
	Lookup     func(string) (string, bool)
}

// Load builds the effective Config: defaults, then config file (if
// ConfigPath resolves to a readable file), then environment variables,
// validating the result before returning it.
func (l Loader) Load() (*Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if l.ConfigPath != "" {
		v.SetConfigFile(l.ConfigPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", l.ConfigPath, err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	l.applyLegacyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults seeds viper with the zero-config defaults so that
// Unmarshal always has a complete struct to populate, even when no config
// file and no environment variables are present.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.channels", d.Audio.Channels)
	v.SetDefault("audio.frame_duration_ms", d.Audio.FrameDurationMs)
	v.SetDefault("pipeline.buffer_duration_ms", d.Pipeline.BufferDurationMs)
	v.SetDefault("pipeline.emit_interval_ms", d.Pipeline.EmitIntervalMs)
	v.SetDefault("pipeline.min_confidence_to_emit", d.Pipeline.MinConfidenceToEmit)
	v.SetDefault("vad.energy_threshold_db", d.VAD.EnergyThresholdDB)
	v.SetDefault("vad.hangover_frames", d.VAD.HangoverFrames)
	v.SetDefault("vad.adaptive", d.VAD.Adaptive)
	v.SetDefault("emotion.smoothing_alpha", d.Emotion.SmoothingAlpha)
	v.SetDefault("intent.decay_rate", d.Intent.DecayRate)
	v.SetDefault("timing.pause_threshold_ms", d.Timing.PauseThresholdMs)
	v.SetDefault("timing.turn_end_threshold_ms", d.Timing.TurnEndThresholdMs)
	v.SetDefault("timing.interrupt_confidence", d.Timing.InterruptConfidence)
	v.SetDefault("early_intent.stability_threshold", d.EarlyIntent.StabilityThreshold)
	v.SetDefault("early_intent.confidence_momentum", d.EarlyIntent.ConfidenceMomentum)
	v.SetDefault("early_intent.hypothesis_timeout_ms", d.EarlyIntent.HypothesisTimeoutMs)
	v.SetDefault("turn_taking.min_turn_gap_ms", d.TurnTaking.MinTurnGapMs)
	v.SetDefault("turn_taking.safe_interrupt_gap_ms", d.TurnTaking.SafeInterruptGapMs)
	v.SetDefault("turn_taking.max_wait_ms", d.TurnTaking.MaxWaitMs)
}

// applyLegacyEnv honors a small set of flat environment variable names
// that predate the nested TALKYTALK_* scheme, for operators migrating
// from single-purpose adapter deployments.
func (l Loader) applyLegacyEnv(cfg *Config) {
	if v, ok := l.Lookup("TALKYTALK_LISTEN_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.ListenAddr = strings.TrimSpace(v)
	}
	if v, ok := l.Lookup("TALKYTALK_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
}
