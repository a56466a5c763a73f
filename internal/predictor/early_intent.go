package predictor

import (
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// Default EarlyIntent parameters.
const (
	DefaultStabilityThreshold    = 5
	DefaultConfidenceMomentum    = 0.8
	DefaultHypothesisTimeoutMs   = 2000
)

// hypothesis is a single progressive intent hypothesis with temporal
// tracking, used to compute a stability score that rewards hypotheses
// that are old, well-evidenced, and confident all at once.
type hypothesis struct {
	intent         packet.Intent
	confidence     float64
	firstSeenMs    int64
	lastUpdatedMs  int64
	evidenceCount  int
}

func (h hypothesis) ageMs() int64 {
	return h.lastUpdatedMs - h.firstSeenMs
}

func (h hypothesis) stabilityScore() float64 {
	ageFactor := min1(float64(h.ageMs()) / 500)
	evidenceFactor := min1(float64(h.evidenceCount) / 10)
	return ageFactor*0.4 + evidenceFactor*0.3 + h.confidence*0.3
}

// EarlyIntent tracks a bounded set of progressive intent hypotheses and
// computes an interruptibility score, letting a downstream agent start
// "thinking while listening" instead of waiting for utterance completion.
// It never overwrites state.CurrentIntent; its output lives only in its
// own published AnalysisResult.
type EarlyIntent struct {
	stabilityThreshold  int
	confidenceMomentum  float64
	hypothesisTimeoutMs int64

	hypotheses        map[packet.Intent]*hypothesis
	leadingHypothesis packet.Intent
	leadingConfidence float64
	framesSinceChange int
}

// NewEarlyIntent constructs an EarlyIntent predictor with the given
// parameters.
func NewEarlyIntent(stabilityThreshold int, confidenceMomentum float64, hypothesisTimeoutMs int64) *EarlyIntent {
	return &EarlyIntent{
		stabilityThreshold:  stabilityThreshold,
		confidenceMomentum:  confidenceMomentum,
		hypothesisTimeoutMs: hypothesisTimeoutMs,
		hypotheses:          make(map[packet.Intent]*hypothesis),
		leadingHypothesis:   packet.IntentUnknown,
	}
}

// NewDefaultEarlyIntent constructs an EarlyIntent predictor with
// spec-default parameters.
func NewDefaultEarlyIntent() *EarlyIntent {
	return NewEarlyIntent(DefaultStabilityThreshold, DefaultConfidenceMomentum, DefaultHypothesisTimeoutMs)
}

// Name returns the stable predictor name "early_intent".
func (e *EarlyIntent) Name() string { return "early_intent" }

// Predict prunes stale hypotheses, folds in the current intent/confidence
// as evidence, selects the leading hypothesis, computes interruptibility,
// and publishes the result.
func (e *EarlyIntent) Predict(ctx pipeline.Context, state *pipeline.State) error {
	timestamp := ctx.Frame.TimestampMs

	e.pruneStale(timestamp)
	e.updateHypothesis(state.CurrentIntent, state.IntentConfidence, timestamp)
	e.selectLeading()
	interruptibility := e.computeInterruptibility(state)
	stable := e.framesSinceChange >= e.stabilityThreshold && e.leadingConfidence > 0.5

	state.Results[e.Name()] = pipeline.AnalysisResult{
		AnalyzerName: e.Name(),
		FrameID:      ctx.Frame.FrameID,
		TimestampMs:  timestamp,
		Confidence:   e.leadingConfidence,
		Data: map[string]pipeline.Value{
			"leading_intent":       pipeline.String(string(e.leadingHypothesis)),
			"leading_confidence":   pipeline.Number(e.leadingConfidence),
			"interruptibility":     pipeline.Number(interruptibility),
			"hypothesis_stable":    pipeline.Bool(stable),
			"active_hypotheses":    pipeline.Number(float64(len(e.hypotheses))),
			"frames_since_change":  pipeline.Number(float64(e.framesSinceChange)),
		},
	}
	return nil
}

func (e *EarlyIntent) updateHypothesis(intent packet.Intent, confidence float64, timestamp int64) {
	if h, ok := e.hypotheses[intent]; ok {
		h.confidence = h.confidence*e.confidenceMomentum + confidence*(1-e.confidenceMomentum)
		h.lastUpdatedMs = timestamp
		h.evidenceCount++
		return
	}
	e.hypotheses[intent] = &hypothesis{
		intent:        intent,
		confidence:    confidence,
		firstSeenMs:   timestamp,
		lastUpdatedMs: timestamp,
		evidenceCount: 1,
	}
}

func (e *EarlyIntent) pruneStale(timestamp int64) {
	for intent, h := range e.hypotheses {
		if timestamp-h.lastUpdatedMs > e.hypothesisTimeoutMs {
			delete(e.hypotheses, intent)
		}
	}
}

func (e *EarlyIntent) selectLeading() {
	var newLeader packet.Intent = packet.IntentUnknown
	var newConfidence float64

	if len(e.hypotheses) > 0 {
		var best *hypothesis
		for _, i := range allIntents {
			h, ok := e.hypotheses[i]
			if !ok {
				continue
			}
			if best == nil || h.stabilityScore() > best.stabilityScore() {
				best = h
			}
		}
		newLeader = best.intent
		newConfidence = best.confidence
	}

	if newLeader != e.leadingHypothesis {
		e.framesSinceChange = 0
	} else {
		e.framesSinceChange++
	}
	e.leadingHypothesis = newLeader
	e.leadingConfidence = newConfidence
}

func (e *EarlyIntent) computeInterruptibility(state *pipeline.State) float64 {
	if len(e.hypotheses) == 0 {
		return 0
	}
	leading, ok := e.hypotheses[e.leadingHypothesis]
	if !ok {
		return 0
	}

	stabilityFactor := leading.stabilityScore()
	confidenceFactor := e.leadingConfidence

	var timingFactor float64
	switch {
	case state.Timing.InterruptSafe:
		timingFactor = 1.0
	case state.Timing.UserPaused:
		timingFactor = 0.5
	}

	speechFactor := 1 - state.Timing.SpeechLikelihood

	score := stabilityFactor*0.25 + confidenceFactor*0.25 + timingFactor*0.30 + speechFactor*0.20
	return min1(score)
}

// Reset clears every tracked hypothesis.
func (e *EarlyIntent) Reset() {
	e.hypotheses = make(map[packet.Intent]*hypothesis)
	e.leadingHypothesis = packet.IntentUnknown
	e.leadingConfidence = 0
	e.framesSinceChange = 0
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
