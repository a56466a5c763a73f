package pipeline

import (
	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/packet"
)

// State is the single mutable aggregate owned exclusively by a Pipeline
// and passed by reference to predictors in registration order. Analyzers
// only ever receive a read-only view (they publish into Results and must
// not mutate State directly — see Analyzer).
type State struct {
	CurrentIntent    packet.Intent
	IntentConfidence float64
	Language         string
	TargetLanguage   *string
	Emotion          packet.Emotion
	Timing           packet.Timing
	SpeechActive     bool
	LastSpeechFrame  int64

	// Results holds the most recent AnalysisResult published by each
	// analyzer, keyed by analyzer name. Predictors publish their own
	// signal results here too (spec §4.8, §4.9) without becoming analyzers.
	Results map[string]AnalysisResult
}

// NewState returns a freshly initialized State: unknown intent, zero
// confidence, unknown language, neutral emotion, and an empty results map.
func NewState() *State {
	return &State{
		CurrentIntent: packet.IntentUnknown,
		Language:      "unknown",
		Emotion:       packet.NeutralEmotion(),
		Timing:        packet.NewTiming(false, false, 1.0, 0),
		Results:       make(map[string]AnalysisResult),
	}
}

// Result returns the named analyzer/predictor result, and whether it is
// present. Missing results are the normal state before the first frame a
// component has a chance to run on, or after a component fault.
func (s *State) Result(name string) (AnalysisResult, bool) {
	r, ok := s.Results[name]
	return r, ok
}

// ToPacket snapshots the current state into an immutable IntentPacket.
func (s *State) ToPacket(frameID, timestampMs int64) *packet.IntentPacket {
	results := make(map[string]map[string]any, len(s.Results))
	for name, r := range s.Results {
		results[name] = r.rawData()
	}
	return &packet.IntentPacket{
		Intent:          s.CurrentIntent,
		Confidence:      s.IntentConfidence,
		Language:        s.Language,
		TargetLanguage:  s.TargetLanguage,
		Emotion:         s.Emotion,
		Timing:          s.Timing,
		FrameID:         frameID,
		TimestampMs:     timestampMs,
		AnalyzerResults: results,
	}
}

// Analyzer extracts features from a frame into an AnalysisResult. It must
// not mutate State; any internal state it keeps (pitch history, noise
// floor estimate, …) lives on the concrete analyzer, not in State.
type Analyzer interface {
	Name() string
	Analyze(frame audio.Frame, buf *audio.Buffer, state *State) (AnalysisResult, error)
	Reset()
}

// Context is the read-only view of the processing step a Predictor
// receives alongside the mutable State it is allowed to update.
type Context struct {
	Frame   audio.Frame
	Buffer  *audio.Buffer
	Results map[string]AnalysisResult
}

// Predictor consumes published analysis results and mutates State with
// probabilistic, retractable predictions.
type Predictor interface {
	Name() string
	Predict(ctx Context, state *State) error
	Reset()
}
