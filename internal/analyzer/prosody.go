package analyzer

import (
	"math"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// Default prosody parameters.
const (
	DefaultMinPitchHz      = 50.0
	DefaultMaxPitchHz      = 500.0
	pitchHistoryLen        = 25
	intonationWindow       = 5
	intonationSlopeThresholdHz = 5.0
	tempoWindowSamples     = 160
	tempoMinBufferMs       = 500
	tempoMinSamples        = 1000
	autocorrRejectRatio    = 0.3
)

// Prosody extracts fundamental frequency via autocorrelation, pitch
// contour direction, a tempo proxy, and pause duration. Pitch estimation
// only runs while the VAD analyzer (if registered before this one) reports
// speech and the frame carries enough energy to make an estimate
// meaningful.
type Prosody struct {
	minPitchHz      float64
	maxPitchHz      float64
	pauseThresholdMs int64

	pitchHistory      []float64
	currentPauseStart *int64
}

// NewProsody constructs a Prosody analyzer with the given pitch search
// range. pauseThresholdMs is stored on the analyzer but does not affect
// pause tracking: a pause opens on the first non-speech frame.
func NewProsody(minPitchHz, maxPitchHz float64, pauseThresholdMs int64) *Prosody {
	return &Prosody{
		minPitchHz:       minPitchHz,
		maxPitchHz:       maxPitchHz,
		pauseThresholdMs: pauseThresholdMs,
	}
}

// NewDefaultProsody constructs a Prosody analyzer with spec-default
// parameters.
func NewDefaultProsody() *Prosody {
	return NewProsody(DefaultMinPitchHz, DefaultMaxPitchHz, 200)
}

// Name returns the stable analyzer name "prosody".
func (p *Prosody) Name() string { return "prosody" }

// Analyze extracts pitch, intonation, pause duration, and tempo for frame.
func (p *Prosody) Analyze(frame audio.Frame, buf *audio.Buffer, state *pipeline.State) (pipeline.AnalysisResult, error) {
	isSpeech := true
	if vad, ok := state.Result("vad"); ok {
		isSpeech = vad.GetBool("is_speech", true)
	}

	var pitchHz float64
	if isSpeech && frame.RMS() > 0.01 {
		pitchHz = p.estimatePitch(frame.Samples, frame.Config.SampleRate)
	}

	if pitchHz > 0 {
		p.pitchHistory = append(p.pitchHistory, pitchHz)
		if len(p.pitchHistory) > pitchHistoryLen {
			p.pitchHistory = p.pitchHistory[1:]
		}
	}

	pitchVariance := 0.0
	if len(p.pitchHistory) > 2 {
		pitchVariance = variance(p.pitchHistory)
	}

	rising, falling := p.detectIntonation()
	pauseDurationMs := p.trackPause(frame.TimestampMs, isSpeech)
	tempo := p.estimateTempo(buf)

	return pipeline.AnalysisResult{
		AnalyzerName: p.Name(),
		FrameID:      frame.FrameID,
		TimestampMs:  frame.TimestampMs,
		Confidence:   1.0,
		Data: map[string]pipeline.Value{
			"pitch_hz":               pipeline.Number(pitchHz),
			"pitch_variance":         pipeline.Number(pitchVariance),
			"tempo":                  pipeline.Number(tempo),
			"speech_rate":            pipeline.Number(tempo),
			"pause_duration_ms":      pipeline.Number(float64(pauseDurationMs)),
			"is_rising_intonation":   pipeline.Bool(rising),
			"is_falling_intonation":  pipeline.Bool(falling),
			"pitch_history_len":      pipeline.Number(float64(len(p.pitchHistory))),
		},
	}, nil
}

// estimatePitch finds the fundamental frequency via autocorrelation over
// the lag range implied by [minPitchHz, maxPitchHz].
func (p *Prosody) estimatePitch(samples []float64, sampleRate int) float64 {
	if len(samples) < 100 {
		return 0
	}

	minLag := int(float64(sampleRate) / p.maxPitchHz)
	maxLag := int(float64(sampleRate) / p.minPitchHz)
	if maxLag > len(samples)-1 {
		maxLag = len(samples) - 1
	}
	if minLag >= maxLag {
		return 0
	}

	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))

	centered := make([]float64, len(samples))
	for i, s := range samples {
		centered[i] = s - mean
	}

	autocorr := autocorrelate(centered, maxLag)
	if len(autocorr) <= maxLag {
		return 0
	}

	peakLag := minLag
	peakVal := autocorr[minLag]
	for lag := minLag + 1; lag < maxLag; lag++ {
		if autocorr[lag] > peakVal {
			peakVal = autocorr[lag]
			peakLag = lag
		}
	}

	if autocorr[0] > 0 && peakVal/autocorr[0] < autocorrRejectRatio {
		return 0
	}
	if peakLag == 0 {
		return 0
	}

	return float64(sampleRate) / float64(peakLag)
}

// autocorrelate returns autocorr[0..maxLag], the non-negative lag half of
// the full autocorrelation of centered.
func autocorrelate(centered []float64, maxLag int) []float64 {
	n := len(centered)
	if maxLag >= n {
		maxLag = n - 1
	}
	out := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < n; i++ {
			sum += centered[i] * centered[i+lag]
		}
		out[lag] = sum
	}
	return out
}

func (p *Prosody) detectIntonation() (rising, falling bool) {
	if len(p.pitchHistory) < intonationWindow {
		return false, false
	}
	recent := p.pitchHistory[len(p.pitchHistory)-intonationWindow:]
	slope := leastSquaresSlope(recent)
	return slope > intonationSlopeThresholdHz, slope < -intonationSlopeThresholdHz
}

// leastSquaresSlope fits y = a + b*x over x = 0..len(ys)-1 and returns b.
func leastSquaresSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// trackPause maintains an open pause window. On a speech frame, a
// previously open pause is closed and its duration returned; on a
// non-speech frame, a pause is opened if none is open and the running
// duration is returned.
func (p *Prosody) trackPause(timestampMs int64, isSpeech bool) int64 {
	if isSpeech {
		if p.currentPauseStart != nil {
			duration := timestampMs - *p.currentPauseStart
			p.currentPauseStart = nil
			return duration
		}
		return 0
	}
	if p.currentPauseStart == nil {
		start := timestampMs
		p.currentPauseStart = &start
	}
	return timestampMs - *p.currentPauseStart
}

// estimateTempo computes a syllables-per-second proxy from the short-term
// RMS envelope of the buffered audio, once the buffer holds at least
// tempoMinBufferMs of audio.
func (p *Prosody) estimateTempo(buf *audio.Buffer) float64 {
	if buf.DurationMs() < tempoMinBufferMs {
		return 0
	}
	data := buf.Concatenate()
	if len(data) < tempoMinSamples {
		return 0
	}

	hop := tempoWindowSamples / 2
	var envelope []float64
	for i := 0; i+tempoWindowSamples <= len(data); i += hop {
		window := data[i : i+tempoWindowSamples]
		var sumSq float64
		for _, s := range window {
			sumSq += s * s
		}
		envelope = append(envelope, math.Sqrt(sumSq/float64(tempoWindowSamples)))
	}
	if len(envelope) < 10 {
		return 0
	}

	smoothed := boxcarSmooth(envelope, 3)

	mean := 0.0
	for _, v := range smoothed {
		mean += v
	}
	mean /= float64(len(smoothed))
	threshold := mean * 0.5

	peaks := 0
	prevAbove := smoothed[0] > threshold
	for _, v := range smoothed[1:] {
		above := v > threshold
		if above && !prevAbove {
			peaks++
		}
		prevAbove = above
	}

	durationSec := float64(buf.DurationMs()) / 1000.0
	if durationSec <= 0 {
		return 0
	}
	return float64(peaks) / durationSec
}

func boxcarSmooth(values []float64, window int) []float64 {
	if len(values) < window {
		return values
	}
	out := make([]float64, 0, len(values)-window+1)
	for i := 0; i+window <= len(values); i++ {
		var sum float64
		for j := 0; j < window; j++ {
			sum += values[i+j]
		}
		out = append(out, sum/float64(window))
	}
	return out
}

func variance(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / n
}

// Reset clears pitch history and pause tracking state.
func (p *Prosody) Reset() {
	p.pitchHistory = nil
	p.currentPauseStart = nil
}
