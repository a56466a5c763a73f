package analyzer

import (
	"math"
	"testing"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

func sineSamples(n int, sampleRate int, freqHz float64) []float64 {
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate))
	}
	return samples
}

func TestProsodyEstimatesPitchFromPureTone(t *testing.T) {
	p := NewDefaultProsody()
	sampleRate := 16000
	cfg := audio.Config{SampleRate: sampleRate, Channels: 1, FrameDurationMs: 100}
	samples := sineSamples(cfg.FrameSize(), sampleRate, 200)
	frame := audio.NewFrame(samples, 0, 0, cfg)
	buf := audio.NewBuffer(10, 10000)

	result, err := p.Analyze(frame, buf, pipeline.NewState())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	pitch := result.GetFloat("pitch_hz", 0)
	if math.Abs(pitch-200) > 15 {
		t.Errorf("pitch_hz = %v, want close to 200", pitch)
	}
}

func TestProsodySkipsPitchWhenVADReportsSilence(t *testing.T) {
	p := NewDefaultProsody()
	cfg := audio.NewConfig()
	samples := sineSamples(cfg.FrameSize(), cfg.SampleRate, 200)
	frame := audio.NewFrame(samples, 0, 0, cfg)
	buf := audio.NewBuffer(10, 10000)

	state := pipeline.NewState()
	state.Results["vad"] = pipeline.AnalysisResult{Data: map[string]pipeline.Value{"is_speech": pipeline.Bool(false)}}

	result, err := p.Analyze(frame, buf, state)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.GetFloat("pitch_hz", -1) != 0 {
		t.Errorf("pitch_hz = %v, want 0 when VAD reports non-speech", result.GetFloat("pitch_hz", -1))
	}
}

func TestProsodyTracksPauseDuration(t *testing.T) {
	p := NewDefaultProsody()
	cfg := audio.NewConfig()
	buf := audio.NewBuffer(10, 10000)
	state := pipeline.NewState()
	state.Results["vad"] = pipeline.AnalysisResult{Data: map[string]pipeline.Value{"is_speech": pipeline.Bool(false)}}

	frame1 := audio.Silence(0, 0, cfg)
	r1, _ := p.Analyze(frame1, buf, state)
	if r1.GetFloat("pause_duration_ms", -1) != 0 {
		t.Errorf("first silent frame pause_duration_ms = %v, want 0", r1.GetFloat("pause_duration_ms", -1))
	}

	frame2 := audio.Silence(1, 100, cfg)
	r2, _ := p.Analyze(frame2, buf, state)
	if r2.GetFloat("pause_duration_ms", -1) != 100 {
		t.Errorf("pause_duration_ms = %v, want 100", r2.GetFloat("pause_duration_ms", -1))
	}
}

func TestLeastSquaresSlope(t *testing.T) {
	slope := leastSquaresSlope([]float64{1, 2, 3, 4, 5})
	if math.Abs(slope-1) > 1e-9 {
		t.Errorf("leastSquaresSlope() = %v, want 1", slope)
	}
}

func TestProsodyResetClearsHistory(t *testing.T) {
	p := NewDefaultProsody()
	p.pitchHistory = []float64{100, 200}
	start := int64(5)
	p.currentPauseStart = &start
	p.Reset()
	if len(p.pitchHistory) != 0 || p.currentPauseStart != nil {
		t.Error("expected Reset() to clear pitch history and pause tracking")
	}
}
