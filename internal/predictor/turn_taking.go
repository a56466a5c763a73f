package predictor

import (
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// TurnState is a coarse state in the conversational turn-taking machine.
type TurnState string

// Turn states, in roughly the order a normal conversation cycles through
// them.
const (
	TurnStateUserSpeaking    TurnState = "user_speaking"
	TurnStateUserPausing     TurnState = "user_pausing"
	TurnStateTurnYielded     TurnState = "turn_yielded"
	TurnStateSystemCanSpeak  TurnState = "system_can_speak"
	TurnStateOverlapDetected TurnState = "overlap_detected"
)

// InterruptReason explains why can_interrupt came out the way it did, for
// diagnostics and logging.
type InterruptReason string

// Interrupt reasons, ordered the same as the evaluation cases below.
const (
	ReasonStillSpeaking    InterruptReason = "user_still_speaking"
	ReasonRisingIntonation InterruptReason = "question_forming"
	ReasonShortPause       InterruptReason = "pause_too_short"
	ReasonFallingComplete  InterruptReason = "falling_intonation_complete"
	ReasonLongSilence      InterruptReason = "long_silence"
	ReasonHighIntentConf   InterruptReason = "high_intent_confidence"
)

// Default TurnTaking parameters.
const (
	DefaultMinTurnGapMs       = 200
	DefaultSafeInterruptGapMs = 500
	DefaultMaxWaitMs          = 2000
)

// TurnTaking runs a five-state conversational turn machine and decides
// whether an agent may safely begin responding now, and for how long it
// should wait otherwise, so that it neither cuts the user off nor leaves
// an awkward dead silence.
type TurnTaking struct {
	minTurnGapMs       int64
	safeInterruptGapMs int64
	maxWaitMs          int64

	state        TurnState
	stateStartMs int64
	lastSpeechMs int64
	turnStartMs  int64
}

// NewTurnTaking constructs a TurnTaking predictor with the given
// parameters, starting in the user_speaking state.
func NewTurnTaking(minTurnGapMs, safeInterruptGapMs, maxWaitMs int64) *TurnTaking {
	return &TurnTaking{
		minTurnGapMs:       minTurnGapMs,
		safeInterruptGapMs: safeInterruptGapMs,
		maxWaitMs:          maxWaitMs,
		state:              TurnStateUserSpeaking,
	}
}

// NewDefaultTurnTaking constructs a TurnTaking predictor with spec-default
// parameters.
func NewDefaultTurnTaking() *TurnTaking {
	return NewTurnTaking(DefaultMinTurnGapMs, DefaultSafeInterruptGapMs, DefaultMaxWaitMs)
}

// Name returns the stable predictor name "turn_taking".
func (t *TurnTaking) Name() string { return "turn_taking" }

// Predict recomputes the turn state and the interrupt/overlap/wait signals
// fresh every frame from the time elapsed since speech was last observed.
func (t *TurnTaking) Predict(ctx pipeline.Context, state *pipeline.State) error {
	timestamp := ctx.Frame.TimestampMs

	vad, hasVAD := ctx.Results["vad"]
	isSpeech := hasVAD && vad.GetBool("is_speech", false)

	var rising, falling bool
	if prosody, ok := ctx.Results["prosody"]; ok {
		rising = prosody.GetBool("is_rising_intonation", false)
		falling = prosody.GetBool("is_falling_intonation", false)
	}

	if isSpeech {
		if t.turnStartMs == 0 {
			t.turnStartMs = timestamp
		}
		t.lastSpeechMs = timestamp
	}

	var silence int64
	if t.lastSpeechMs > 0 {
		silence = timestamp - t.lastSpeechMs
	}

	var turnDuration int64
	if t.turnStartMs > 0 {
		turnDuration = timestamp - t.turnStartMs
	}

	next := t.nextState(isSpeech, silence, falling)
	if next != t.state {
		t.state = next
		t.stateStartMs = timestamp
	}

	canInterrupt, reason := t.evaluateInterrupt(silence, rising, falling, state.IntentConfidence)
	shouldWait := t.shouldWait(silence, rising, state.Timing.SpeechLikelihood)
	overlapProb := t.overlapProbability(silence, rising, state.Timing.SpeechLikelihood)
	waitMs := t.suggestedWaitMs(silence, falling, state.IntentConfidence)
	confidence := t.confidence(silence, falling)

	state.Results[t.Name()] = pipeline.AnalysisResult{
		AnalyzerName: t.Name(),
		FrameID:      ctx.Frame.FrameID,
		TimestampMs:  timestamp,
		Confidence:   confidence,
		Data: map[string]pipeline.Value{
			"turn_state":          pipeline.String(string(t.state)),
			"can_interrupt":       pipeline.Bool(canInterrupt),
			"should_wait":         pipeline.Bool(shouldWait),
			"interrupt_reason":    pipeline.String(string(reason)),
			"overlap_probability": pipeline.Number(overlapProb),
			"suggested_wait_ms":   pipeline.Number(float64(waitMs)),
			"turn_duration_ms":    pipeline.Number(float64(turnDuration)),
			"silence_in_turn_ms":  pipeline.Number(float64(silence)),
		},
	}
	return nil
}

// nextState recomputes the turn state fresh every frame from the silence
// duration using an ordered table, rather than branching on the previous
// state.
func (t *TurnTaking) nextState(isSpeech bool, silence int64, falling bool) TurnState {
	switch {
	case isSpeech:
		return TurnStateUserSpeaking
	case silence < t.minTurnGapMs:
		return TurnStateUserSpeaking
	case silence < t.safeInterruptGapMs:
		return TurnStateUserPausing
	case falling || silence >= t.safeInterruptGapMs:
		return TurnStateTurnYielded
	case silence > t.maxWaitMs:
		return TurnStateSystemCanSpeak
	default:
		return TurnStateUserPausing
	}
}

// evaluateInterrupt walks the ordered interrupt-decision table and returns
// the first matching (can_interrupt, reason) pair.
func (t *TurnTaking) evaluateInterrupt(silence int64, rising, falling bool, intentConfidence float64) (bool, InterruptReason) {
	switch {
	case silence < t.minTurnGapMs:
		return false, ReasonStillSpeaking
	case rising:
		return false, ReasonRisingIntonation
	case silence < t.safeInterruptGapMs && !falling:
		return false, ReasonShortPause
	case falling && silence >= t.minTurnGapMs:
		return true, ReasonFallingComplete
	case silence >= t.safeInterruptGapMs:
		return true, ReasonLongSilence
	case intentConfidence > 0.7:
		return true, ReasonHighIntentConf
	default:
		return false, ReasonShortPause
	}
}

// shouldWait is the strategic recommendation to wait, distinct from the
// technical can_interrupt possibility above.
func (t *TurnTaking) shouldWait(silence int64, rising bool, speechLikelihood float64) bool {
	if rising {
		return true
	}
	if speechLikelihood > 0.6 {
		return true
	}
	return silence < t.safeInterruptGapMs
}

func (t *TurnTaking) overlapProbability(silence int64, rising bool, speechLikelihood float64) float64 {
	if silence > t.maxWaitMs {
		return 0
	}
	base := 1 - float64(silence)/float64(t.safeInterruptGapMs)
	if base < 0 {
		base = 0
	}
	if rising {
		base = min1(base + 0.3)
	}
	return min1(base + speechLikelihood*0.3)
}

func (t *TurnTaking) suggestedWaitMs(silence int64, falling bool, intentConfidence float64) int64 {
	if silence >= t.safeInterruptGapMs && falling {
		return 0
	}
	if silence >= t.maxWaitMs {
		return 0
	}
	remaining := t.safeInterruptGapMs - silence
	if falling {
		remaining -= 200
	}
	if intentConfidence > 0.8 {
		remaining -= 100
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (t *TurnTaking) confidence(silence int64, falling bool) float64 {
	base := float64(silence) / float64(t.safeInterruptGapMs)
	if base > 1 {
		base = 1
	}
	if falling {
		base += 0.2
	}
	return min1(base)
}

// Reset returns the machine to its initial user_speaking state.
func (t *TurnTaking) Reset() {
	t.state = TurnStateUserSpeaking
	t.stateStartMs = 0
	t.lastSpeechMs = 0
	t.turnStartMs = 0
}
