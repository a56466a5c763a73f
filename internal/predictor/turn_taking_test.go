package predictor

import (
	"testing"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

func turnCtx(timestampMs, frameID int64, results map[string]pipeline.AnalysisResult) pipeline.Context {
	cfg := audio.NewConfig()
	return pipeline.Context{
		Frame:   audio.NewFrame([]float64{0.1}, frameID, timestampMs, cfg),
		Results: results,
	}
}

func vadResult(isSpeech bool) map[string]pipeline.AnalysisResult {
	return map[string]pipeline.AnalysisResult{
		"vad": {Data: map[string]pipeline.Value{"is_speech": pipeline.Bool(isSpeech)}},
	}
}

func TestTurnTakingStartsUserSpeaking(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if tt.state != TurnStateUserSpeaking {
		t.Errorf("initial state = %v, want user_speaking", tt.state)
	}
}

func TestTurnTakingOrderingReachesTurnYielded(t *testing.T) {
	tt := NewDefaultTurnTaking()
	state := pipeline.NewState()

	tt.Predict(turnCtx(100, 0, vadResult(true)), state)
	if tt.state != TurnStateUserSpeaking {
		t.Fatalf("state during speech = %v, want user_speaking", tt.state)
	}

	tt.Predict(turnCtx(500, 1, vadResult(false)), state)
	if tt.state != TurnStateUserPausing {
		t.Fatalf("state at silence=400ms = %v, want user_pausing", tt.state)
	}

	tt.Predict(turnCtx(700, 2, vadResult(false)), state)
	if tt.state != TurnStateTurnYielded {
		t.Fatalf("state at silence=600ms = %v, want turn_yielded (silence >= safe_interrupt_gap_ms)", tt.state)
	}
}

func TestTurnTakingStaysTurnYieldedWellPastSafeInterruptGap(t *testing.T) {
	// The transition table checks falling/silence>=safe_interrupt_gap_ms
	// before silence>max_wait_ms, so once a pause clears
	// safe_interrupt_gap_ms the state remains turn_yielded rather than
	// advancing to system_can_speak.
	tt := NewDefaultTurnTaking()
	state := pipeline.NewState()

	tt.Predict(turnCtx(100, 0, vadResult(true)), state)
	tt.Predict(turnCtx(100+DefaultMaxWaitMs+1, 1, vadResult(false)), state)
	if tt.state != TurnStateTurnYielded {
		t.Errorf("state after silence > max_wait_ms = %v, want turn_yielded", tt.state)
	}
}

func TestTurnTakingPublishesTurnDurationSinceFirstSpeech(t *testing.T) {
	tt := NewDefaultTurnTaking()
	state := pipeline.NewState()

	tt.Predict(turnCtx(100, 0, vadResult(true)), state)
	if tt.turnStartMs != 100 {
		t.Fatalf("turnStartMs = %v, want 100 after first speech frame", tt.turnStartMs)
	}

	result, ok := state.Results["turn_taking"]
	if !ok {
		t.Fatal("expected a published turn_taking result")
	}
	if got := result.GetFloat("turn_duration_ms", -1); got != 0 {
		t.Errorf("turn_duration_ms on the first speech frame = %v, want 0", got)
	}

	tt.Predict(turnCtx(900, 1, vadResult(false)), state)
	result = state.Results["turn_taking"]
	if got := result.GetFloat("turn_duration_ms", -1); got != 800 {
		t.Errorf("turn_duration_ms = %v, want 800 (800ms since turn started at 100)", got)
	}
}

func TestEvaluateInterruptStillSpeakingWhenSilenceBelowMinGap(t *testing.T) {
	tt := NewDefaultTurnTaking()
	canInterrupt, reason := tt.evaluateInterrupt(tt.minTurnGapMs-1, false, false, 0)
	if canInterrupt || reason != ReasonStillSpeaking {
		t.Errorf("evaluateInterrupt() = (%v, %v), want (false, user_still_speaking)", canInterrupt, reason)
	}
}

func TestEvaluateInterruptRisingIntonationTakesPriority(t *testing.T) {
	tt := NewDefaultTurnTaking()
	canInterrupt, reason := tt.evaluateInterrupt(2000, true, false, 0)
	if canInterrupt || reason != ReasonRisingIntonation {
		t.Errorf("evaluateInterrupt() = (%v, %v), want (false, question_forming)", canInterrupt, reason)
	}
}

func TestEvaluateInterruptFallingCompleteAllowsSpeaking(t *testing.T) {
	tt := NewDefaultTurnTaking()
	canInterrupt, reason := tt.evaluateInterrupt(tt.minTurnGapMs, false, true, 0)
	if !canInterrupt || reason != ReasonFallingComplete {
		t.Errorf("evaluateInterrupt() = (%v, %v), want (true, falling_intonation_complete)", canInterrupt, reason)
	}
}

func TestEvaluateInterruptLongSilenceAllowsSpeaking(t *testing.T) {
	tt := NewDefaultTurnTaking()
	canInterrupt, reason := tt.evaluateInterrupt(tt.safeInterruptGapMs, false, false, 0)
	if !canInterrupt || reason != ReasonLongSilence {
		t.Errorf("evaluateInterrupt() = (%v, %v), want (true, long_silence)", canInterrupt, reason)
	}
}

func TestShouldWaitOnRisingIntonation(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if !tt.shouldWait(10000, true, 0) {
		t.Error("shouldWait() should be true when rising intonation is present")
	}
}

func TestShouldWaitFalseWhenQuietAndLongSilence(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if tt.shouldWait(tt.safeInterruptGapMs, false, 0) {
		t.Error("shouldWait() should be false once silence reaches safe_interrupt_gap_ms with no other signal")
	}
}

func TestOverlapProbabilityZeroPastMaxWait(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if got := tt.overlapProbability(tt.maxWaitMs+1, false, 0); got != 0 {
		t.Errorf("overlapProbability() = %v, want 0 once silence > max_wait_ms", got)
	}
}

func TestOverlapProbabilityDecaysWithSilence(t *testing.T) {
	tt := NewDefaultTurnTaking()
	early := tt.overlapProbability(0, false, 0)
	later := tt.overlapProbability(tt.safeInterruptGapMs/2, false, 0)
	if !(early > later) {
		t.Errorf("overlapProbability(0)=%v should exceed overlapProbability(safe/2)=%v", early, later)
	}
}

func TestOverlapProbabilityRisingAddsBonus(t *testing.T) {
	tt := NewDefaultTurnTaking()
	silence := tt.safeInterruptGapMs / 2
	base := tt.overlapProbability(silence, false, 0)
	withRising := tt.overlapProbability(silence, true, 0)
	if withRising-base < 0.29 {
		t.Errorf("rising intonation should add roughly 0.3 to overlap probability, got delta %v", withRising-base)
	}
}

func TestSuggestedWaitMsZeroOnceSilenceExceedsMaxWait(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if got := tt.suggestedWaitMs(tt.maxWaitMs, false, 0); got != 0 {
		t.Errorf("suggestedWaitMs() = %v, want 0 once silence >= max_wait_ms", got)
	}
}

func TestSuggestedWaitMsZeroOnFallingCompleteSilence(t *testing.T) {
	tt := NewDefaultTurnTaking()
	if got := tt.suggestedWaitMs(tt.safeInterruptGapMs, true, 0); got != 0 {
		t.Errorf("suggestedWaitMs() = %v, want 0 when falling and silence >= safe_interrupt_gap_ms", got)
	}
}

func TestSuggestedWaitMsSubtractsFallingAndConfidenceAdjustments(t *testing.T) {
	tt := NewDefaultTurnTaking()
	got := tt.suggestedWaitMs(0, true, 0.9)
	want := tt.safeInterruptGapMs - 200 - 100
	if got != want {
		t.Errorf("suggestedWaitMs() = %v, want %v", got, want)
	}
}

func TestSuggestedWaitMsFloorsAtZero(t *testing.T) {
	tt := NewDefaultTurnTaking()
	got := tt.suggestedWaitMs(tt.safeInterruptGapMs-50, true, 0.9)
	if got != 0 {
		t.Errorf("suggestedWaitMs() = %v, want floored at 0", got)
	}
}

func TestConfidenceIncreasesWithSilenceAndFalling(t *testing.T) {
	tt := NewDefaultTurnTaking()
	quiet := tt.confidence(0, false)
	full := tt.confidence(tt.safeInterruptGapMs, false)
	fullFalling := tt.confidence(tt.safeInterruptGapMs, true)
	if !(quiet < full) {
		t.Errorf("confidence should grow with silence: quiet=%v full=%v", quiet, full)
	}
	if fullFalling != 1 {
		t.Errorf("confidence() at full silence plus falling = %v, want clamped to 1", fullFalling)
	}
}

func TestTurnTakingResetReturnsToUserSpeaking(t *testing.T) {
	tt := NewDefaultTurnTaking()
	tt.state = TurnStateSystemCanSpeak
	tt.lastSpeechMs = 5000
	tt.Reset()
	if tt.state != TurnStateUserSpeaking || tt.lastSpeechMs != 0 {
		t.Error("Reset() should restore initial user_speaking state and clear last-speech clock")
	}
}
