// Package analyzer provides the concrete Analyzer implementations: energy
// based voice activity detection, prosodic feature extraction, dimensional
// emotion estimation, and a language-identification placeholder.
package analyzer

import (
	"math"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// Default VAD parameters.
const (
	DefaultEnergyThresholdDB = -40.0
	DefaultHangoverFrames    = 5
	initialNoiseFloorDB      = -60.0
)

// VAD is an energy-based voice activity detector with zero-crossing-rate
// discrimination, an adaptive noise floor, and hangover smoothing to avoid
// chopping speech on momentary energy dips.
type VAD struct {
	energyThresholdDB float64
	hangoverFrames    int
	adaptive          bool

	noiseFloorDB    float64
	hangoverCounter int
	speechActive    bool
}

// NewVAD constructs a VAD with the given threshold and hangover length.
// adaptive controls whether the noise floor is updated over time.
func NewVAD(energyThresholdDB float64, hangoverFrames int, adaptive bool) *VAD {
	return &VAD{
		energyThresholdDB: energyThresholdDB,
		hangoverFrames:    hangoverFrames,
		adaptive:          adaptive,
		noiseFloorDB:      initialNoiseFloorDB,
	}
}

// NewDefaultVAD constructs a VAD with spec-default parameters.
func NewDefaultVAD() *VAD {
	return NewVAD(DefaultEnergyThresholdDB, DefaultHangoverFrames, true)
}

// Name returns the stable analyzer name "vad".
func (v *VAD) Name() string { return "vad" }

// Analyze computes energy, zero-crossing rate, and the hangover-smoothed
// speech/silence decision for frame.
func (v *VAD) Analyze(frame audio.Frame, buf *audio.Buffer, state *pipeline.State) (pipeline.AnalysisResult, error) {
	rms := frame.RMS()
	energyDB := 20 * math.Log10(rms+1e-10)
	zcr := zeroCrossingRate(frame.Samples)

	if v.adaptive {
		v.updateNoiseFloor(energyDB)
	}

	threshold := v.energyThresholdDB
	if v.noiseFloorDB+10 > threshold {
		threshold = v.noiseFloorDB + 10
	}

	rawSpeech := energyDB > threshold && zcr < 0.5
	if rawSpeech {
		v.hangoverCounter = v.hangoverFrames
		v.speechActive = true
	} else if v.hangoverCounter > 0 {
		v.hangoverCounter--
	} else {
		v.speechActive = false
	}

	speechProb := speechProbability(energyDB, zcr, threshold)

	return pipeline.AnalysisResult{
		AnalyzerName: v.Name(),
		FrameID:      frame.FrameID,
		TimestampMs:  frame.TimestampMs,
		Confidence:   1.0,
		Data: map[string]pipeline.Value{
			"is_speech":          pipeline.Bool(v.speechActive),
			"speech_probability": pipeline.Number(speechProb),
			"energy_db":          pipeline.Number(energyDB),
			"threshold_db":       pipeline.Number(threshold),
			"noise_floor_db":     pipeline.Number(v.noiseFloorDB),
		},
	}, nil
}

func (v *VAD) updateNoiseFloor(energyDB float64) {
	alpha := 0.001
	if energyDB < v.noiseFloorDB+5 {
		alpha = 0.01
	}
	v.noiseFloorDB = (1-alpha)*v.noiseFloorDB + alpha*energyDB
}

func speechProbability(energyDB, zcr, threshold float64) float64 {
	if energyDB < threshold-20 {
		return 0
	}
	var energyProb float64
	if energyDB > threshold+10 {
		energyProb = 1
	} else {
		energyProb = (energyDB - (threshold - 20)) / 30
	}
	zcrProb := math.Max(0, 1-zcr*2)
	prob := energyProb*0.7 + zcrProb*0.3
	if prob > 1 {
		return 1
	}
	return prob
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if sign(samples[i]) != sign(samples[i-1]) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Reset restores the VAD to its initial noise floor and hangover state.
func (v *VAD) Reset() {
	v.noiseFloorDB = initialNoiseFloorDB
	v.hangoverCounter = 0
	v.speechActive = false
}
