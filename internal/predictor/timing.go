package predictor

import (
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// Default Timing parameters.
const (
	DefaultPauseThresholdMs    = 300
	DefaultTurnEndThresholdMs  = 700
	DefaultInterruptConfidence = 0.6
)

// Timing tracks silence duration and derives speech_likelihood,
// user_paused, and interrupt_safe — the signals a downstream agent needs
// to decide whether responding now would talk over the user.
type Timing struct {
	pauseThresholdMs    int64
	turnEndThresholdMs  int64
	interruptConfidence float64

	silenceStartMs  *int64
	lastSpeechMs    int64
	speechLikelihood float64
}

// NewTiming constructs a Timing predictor with the given thresholds.
func NewTiming(pauseThresholdMs, turnEndThresholdMs int64, interruptConfidence float64) *Timing {
	return &Timing{
		pauseThresholdMs:    pauseThresholdMs,
		turnEndThresholdMs:  turnEndThresholdMs,
		interruptConfidence: interruptConfidence,
	}
}

// NewDefaultTiming constructs a Timing predictor with spec-default
// thresholds.
func NewDefaultTiming() *Timing {
	return NewTiming(DefaultPauseThresholdMs, DefaultTurnEndThresholdMs, DefaultInterruptConfidence)
}

// Name returns the stable predictor name "timing".
func (t *Timing) Name() string { return "timing" }

// Predict updates the silence clock and speech-likelihood decay, then
// writes state.Timing.
func (t *Timing) Predict(ctx pipeline.Context, state *pipeline.State) error {
	vad, hasVAD := ctx.Results["vad"]
	isSpeech := hasVAD && vad.GetBool("is_speech", false)

	timestamp := ctx.Frame.TimestampMs

	prosody, hasProsody := ctx.Results["prosody"]
	rising := hasProsody && prosody.GetBool("is_rising_intonation", false)
	falling := hasProsody && prosody.GetBool("is_falling_intonation", false)

	if isSpeech {
		t.lastSpeechMs = timestamp
		t.silenceStartMs = nil
		t.speechLikelihood = 1.0
		state.SpeechActive = true
		state.LastSpeechFrame = ctx.Frame.FrameID
	} else {
		if t.silenceStartMs == nil {
			start := timestamp
			t.silenceStartMs = &start
		}
		t.updateSpeechLikelihood(timestamp, rising)
	}

	var silenceDuration int64
	if t.silenceStartMs != nil {
		silenceDuration = timestamp - *t.silenceStartMs
	}

	userPaused := silenceDuration >= t.pauseThresholdMs
	interruptSafe := t.interruptSafe(userPaused, silenceDuration, falling, rising, state.IntentConfidence)

	state.Timing = packet.NewTiming(userPaused, interruptSafe, t.speechLikelihood, silenceDuration)
	return nil
}

func (t *Timing) updateSpeechLikelihood(timestamp int64, rising bool) {
	if t.silenceStartMs == nil {
		return
	}
	silenceDuration := timestamp - *t.silenceStartMs

	var decay float64
	switch {
	case silenceDuration < 200:
		decay = 0.95
	case silenceDuration < 500:
		decay = 0.85
	default:
		decay = 0.7
	}
	t.speechLikelihood *= decay

	if rising {
		t.speechLikelihood += 0.1
		if t.speechLikelihood > 1 {
			t.speechLikelihood = 1
		}
	}
}

func (t *Timing) interruptSafe(userPaused bool, silenceDuration int64, falling, rising bool, intentConfidence float64) bool {
	if rising {
		return false
	}
	if t.speechLikelihood > 0.7 {
		return false
	}
	if !userPaused {
		return false
	}
	if silenceDuration >= t.turnEndThresholdMs {
		return true
	}
	if falling && silenceDuration >= t.pauseThresholdMs {
		return true
	}
	if intentConfidence >= t.interruptConfidence {
		return true
	}
	return false
}

// Reset clears the silence clock and speech-likelihood estimate.
func (t *Timing) Reset() {
	t.silenceStartMs = nil
	t.lastSpeechMs = 0
	t.speechLikelihood = 0
}
