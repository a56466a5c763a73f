package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestValidateRejectsZeroSampleRate(t *testing.T) {
	cfg := Default()
	cfg.Audio.SampleRate = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero sample rate")
	}
}

func TestValidateRejectsInvertedWaitWindow(t *testing.T) {
	cfg := Default()
	cfg.TurnTaking.SafeInterruptGapMs = 1000
	cfg.TurnTaking.MaxWaitMs = 500
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for max_wait_ms < safe_interrupt_gap_ms")
	}
}
