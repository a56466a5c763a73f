// Package packet defines IntentPacket and the small value types it is
// built from. A packet is the sole output of talkytalk: an immutable,
// probabilistic, retractable signal about what the speaker is currently
// doing. It is not a decision and it is not a command.
package packet

// Intent is one of the known intent categories. The zero value is not a
// valid Intent; use IntentUnknown.
type Intent string

// Known intent categories.
const (
	IntentPlayMusic    Intent = "play_music"
	IntentTranslate    Intent = "translate"
	IntentQuery        Intent = "query"
	IntentConversation Intent = "conversation"
	IntentCommand      Intent = "command"
	IntentUnknown      Intent = "unknown"
)

// Quadrant categorizes an Emotion by thresholding arousal and valence at 0.5.
type Quadrant string

const (
	QuadrantCalmPositive  Quadrant = "calm_positive"
	QuadrantCalmNegative  Quadrant = "calm_negative"
	QuadrantTensePositive Quadrant = "tense_positive"
	QuadrantTenseNegative Quadrant = "tense_negative"
)

// Emotion is Russell's circumplex model reduced to two dimensions, both
// clamped into [0, 1] at construction.
type Emotion struct {
	Arousal float64
	Valence float64
}

// NewEmotion clamps arousal and valence into [0, 1].
func NewEmotion(arousal, valence float64) Emotion {
	return Emotion{Arousal: clamp01(arousal), Valence: clamp01(valence)}
}

// NeutralEmotion is the midpoint emotion used to initialize pipeline state.
func NeutralEmotion() Emotion {
	return Emotion{Arousal: 0.5, Valence: 0.5}
}

// Quadrant derives the emotional quadrant by thresholding at 0.5.
func (e Emotion) Quadrant() Quadrant {
	if e.Arousal >= 0.5 {
		if e.Valence >= 0.5 {
			return QuadrantTensePositive
		}
		return QuadrantTenseNegative
	}
	if e.Valence >= 0.5 {
		return QuadrantCalmPositive
	}
	return QuadrantCalmNegative
}

// Timing carries the temporal signals a downstream agent needs to decide
// whether it may safely begin responding.
type Timing struct {
	UserPaused        bool
	InterruptSafe     bool
	SpeechLikelihood  float64
	SilenceDurationMs int64
}

// NewTiming clamps SpeechLikelihood into [0, 1] and SilenceDurationMs to
// non-negative, per spec §3 invariants.
func NewTiming(userPaused, interruptSafe bool, speechLikelihood float64, silenceDurationMs int64) Timing {
	if silenceDurationMs < 0 {
		silenceDurationMs = 0
	}
	return Timing{
		UserPaused:        userPaused,
		InterruptSafe:     interruptSafe,
		SpeechLikelihood:  clamp01(speechLikelihood),
		SilenceDurationMs: silenceDurationMs,
	}
}

// IntentPacket is an immutable snapshot of pipeline state at emit time,
// plus a shallow copy of the raw analyzer result payloads.
type IntentPacket struct {
	Intent          Intent
	Confidence      float64
	Language        string
	TargetLanguage  *string
	Emotion         Emotion
	Timing          Timing
	FrameID         int64
	TimestampMs     int64
	AnalyzerResults map[string]map[string]any
}

// IsActionable reports whether a downstream agent may treat this packet as
// meaningful: confident and not unknown.
func (p IntentPacket) IsActionable() bool {
	return p.Confidence > 0.6 && p.Intent != IntentUnknown
}

// NeedsTranslation reports whether the packet signals an in-progress
// translation request to a language other than the detected one.
func (p IntentPacket) NeedsTranslation() bool {
	return p.Intent == IntentTranslate && p.TargetLanguage != nil && *p.TargetLanguage != p.Language
}

// ToDict renders the packet into the canonical serialization form from
// spec §6: string-keyed, JSON-ready, with no talkytalk-specific types
// leaking through.
func (p IntentPacket) ToDict() map[string]any {
	d := map[string]any{
		"intent":     string(p.Intent),
		"confidence": p.Confidence,
		"language":   p.Language,
		"emotion": map[string]any{
			"arousal":  p.Emotion.Arousal,
			"valence":  p.Emotion.Valence,
			"quadrant": string(p.Emotion.Quadrant()),
		},
		"timing": map[string]any{
			"user_paused":         p.Timing.UserPaused,
			"interrupt_safe":      p.Timing.InterruptSafe,
			"speech_likelihood":   p.Timing.SpeechLikelihood,
			"silence_duration_ms": p.Timing.SilenceDurationMs,
		},
		"frame_id":      p.FrameID,
		"timestamp_ms":  p.TimestampMs,
		"is_actionable": p.IsActionable(),
	}
	if p.TargetLanguage != nil {
		d["target_language"] = *p.TargetLanguage
	} else {
		d["target_language"] = nil
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
