// Package predictor provides the concrete Predictor implementations: the
// intent scorer, the pause/interrupt timing predictor, the progressive
// early-intent hypothesis tracker, and the turn-taking state machine.
package predictor

import (
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// DefaultDecayRate is the per-frame multiplicative decay applied to every
// intent score before new evidence is added.
const DefaultDecayRate = 0.95

var allIntents = []packet.Intent{
	packet.IntentPlayMusic,
	packet.IntentTranslate,
	packet.IntentQuery,
	packet.IntentConversation,
	packet.IntentCommand,
	packet.IntentUnknown,
}

// Intent maintains a decaying evidence score per Intent category and
// selects the leader each frame. It is also the pipeline's authoritative
// writer of state.Emotion and state.Language (spec §4.6, §9c): no
// analyzer writes those fields directly.
type Intent struct {
	decayRate float64
	scores    map[packet.Intent]float64
}

// NewIntent constructs an Intent predictor with the given decay rate.
func NewIntent(decayRate float64) *Intent {
	return &Intent{decayRate: decayRate, scores: freshScores()}
}

// NewDefaultIntent constructs an Intent predictor with the spec-default
// decay rate.
func NewDefaultIntent() *Intent {
	return NewIntent(DefaultDecayRate)
}

func freshScores() map[packet.Intent]float64 {
	m := make(map[packet.Intent]float64, len(allIntents))
	for _, i := range allIntents {
		m[i] = 0
	}
	return m
}

// Name returns the stable predictor name "intent".
func (p *Intent) Name() string { return "intent" }

// Predict decays all scores, applies heuristic evidence from the vad,
// prosody, and emotion analyzer results, selects the leading intent, and
// copies language/emotion into state.
func (p *Intent) Predict(ctx pipeline.Context, state *pipeline.State) error {
	for i := range p.scores {
		p.scores[i] *= p.decayRate
	}

	p.applyHeuristics(ctx)

	best, confidence := p.bestIntent()
	state.CurrentIntent = best
	state.IntentConfidence = confidence

	if lang, ok := ctx.Results["language"]; ok {
		state.Language = lang.GetString("language", "unknown")
	}
	if emo, ok := ctx.Results["emotion"]; ok {
		state.Emotion = packet.NewEmotion(emo.GetFloat("arousal", 0.5), emo.GetFloat("valence", 0.5))
	}

	return nil
}

func (p *Intent) applyHeuristics(ctx pipeline.Context) {
	vad, hasVAD := ctx.Results["vad"]
	isSpeech := hasVAD && vad.GetBool("is_speech", false)
	if !isSpeech {
		return
	}

	arousal := 0.5
	if emo, ok := ctx.Results["emotion"]; ok {
		arousal = emo.GetFloat("arousal", 0.5)
	}

	var rising, falling bool
	var tempo float64
	var pauseDurationMs int64
	if prosody, ok := ctx.Results["prosody"]; ok {
		rising = prosody.GetBool("is_rising_intonation", false)
		falling = prosody.GetBool("is_falling_intonation", false)
		tempo = prosody.GetFloat("tempo", 0)
		pauseDurationMs = prosody.GetInt("pause_duration_ms", 0)
	}

	if arousal > 0.7 && falling && tempo > 4.0 {
		p.scores[packet.IntentCommand] += 0.15
	}
	if rising {
		p.scores[packet.IntentQuery] += 0.12
	}
	if arousal > 0.3 && arousal < 0.7 && !rising && !falling {
		p.scores[packet.IntentConversation] += 0.08
	}
	if pauseDurationMs > 300 && pauseDurationMs < 1000 {
		p.scores[packet.IntentQuery] += 0.05
	}
	p.scores[packet.IntentUnknown] += 0.02
}

func (p *Intent) bestIntent() (packet.Intent, float64) {
	var total float64
	for _, s := range p.scores {
		total += s
	}
	if total < 0.01 {
		return packet.IntentUnknown, 0
	}

	best := packet.IntentUnknown
	bestScore := -1.0
	for _, i := range allIntents {
		if p.scores[i] > bestScore {
			bestScore = p.scores[i]
			best = i
		}
	}

	share := bestScore / total
	raw := bestScore
	if raw > 1 {
		raw = 1
	}

	if share < 0.4 {
		return packet.IntentUnknown, raw * 0.5
	}
	return best, share
}

// Reset clears all intent scores back to zero.
func (p *Intent) Reset() {
	p.scores = freshScores()
}
