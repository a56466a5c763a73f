package analyzer

import (
	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// DefaultSmoothingAlpha is the exponential smoothing factor applied to
// both arousal and valence.
const DefaultSmoothingAlpha = 0.3

const (
	energyBaseline = -40.0
	pitchBaseline  = 150.0
)

// Emotion maps prosodic and energy features to Russell's circumplex
// arousal/valence space via fixed linear combinations, then smooths the
// raw estimate exponentially so single noisy frames do not whipsaw the
// reported emotion.
type Emotion struct {
	alpha float64

	arousal float64
	valence float64
}

// NewEmotion constructs an Emotion analyzer with the given smoothing
// factor, both dimensions initialized at the neutral midpoint.
func NewEmotion(alpha float64) *Emotion {
	return &Emotion{alpha: alpha, arousal: 0.5, valence: 0.5}
}

// NewDefaultEmotion constructs an Emotion analyzer with the spec-default
// smoothing factor.
func NewDefaultEmotion() *Emotion {
	return NewEmotion(DefaultSmoothingAlpha)
}

// Name returns the stable analyzer name "emotion".
func (e *Emotion) Name() string { return "emotion" }

// Analyze derives raw arousal/valence from the vad and prosody results (if
// present) and folds them into the smoothed running estimate.
func (e *Emotion) Analyze(frame audio.Frame, buf *audio.Buffer, state *pipeline.State) (pipeline.AnalysisResult, error) {
	energyDB := -60.0
	if vad, ok := state.Result("vad"); ok {
		energyDB = vad.GetFloat("energy_db", -60.0)
	}

	var pitchHz, pitchVariance, tempo float64
	var rising bool
	if prosody, ok := state.Result("prosody"); ok {
		pitchHz = prosody.GetFloat("pitch_hz", 0)
		pitchVariance = prosody.GetFloat("pitch_variance", 0)
		tempo = prosody.GetFloat("tempo", 0)
		rising = prosody.GetBool("is_rising_intonation", false)
	}

	rawArousal := estimateArousal(energyDB, pitchVariance, tempo)
	rawValence := estimateValence(pitchHz, rising)

	e.arousal = smooth(e.arousal, rawArousal, e.alpha)
	e.valence = smooth(e.valence, rawValence, e.alpha)

	emotion := packet.NewEmotion(e.arousal, e.valence)

	return pipeline.AnalysisResult{
		AnalyzerName: e.Name(),
		FrameID:      frame.FrameID,
		TimestampMs:  frame.TimestampMs,
		Confidence:   1.0,
		Data: map[string]pipeline.Value{
			"arousal":      pipeline.Number(e.arousal),
			"valence":      pipeline.Number(e.valence),
			"quadrant":     pipeline.String(string(emotion.Quadrant())),
			"raw_arousal":  pipeline.Number(rawArousal),
			"raw_valence":  pipeline.Number(rawValence),
		},
	}, nil
}

func estimateArousal(energyDB, pitchVariance, tempo float64) float64 {
	energyContrib := clamp((energyDB-energyBaseline+30)/60, 0, 1)
	varianceContrib := min1(pitchVariance / 1000)
	tempoContrib := min1(tempo / 8.0)
	return clamp(energyContrib*0.5+varianceContrib*0.3+tempoContrib*0.2, 0, 1)
}

func estimateValence(pitchHz float64, rising bool) float64 {
	if pitchHz <= 0 {
		return 0.5
	}
	pitchContrib := clamp((pitchHz-pitchBaseline)/200, -0.3, 0.3)
	risingContrib := 0.0
	if rising {
		risingContrib = 0.1
	}
	return clamp(0.5+pitchContrib+risingContrib, 0, 1)
}

func smooth(current, raw, alpha float64) float64 {
	return current*(1-alpha) + raw*alpha
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// Reset restores arousal and valence to the neutral midpoint.
func (e *Emotion) Reset() {
	e.arousal = 0.5
	e.valence = 0.5
}
