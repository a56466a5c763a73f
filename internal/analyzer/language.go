package analyzer

import (
	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// Language is a placeholder language-identification analyzer. It is
// designed as an extension point: a real implementation (acoustic
// language models, phoneme distribution, rhythm/prosody patterns) can be
// swapped in without changing the Analyzer contract, since its published
// "language" field is the only thing IntentPredictor consumes.
type Language struct {
	defaultLanguage string
	detected        string
	confidence      float64
}

// NewLanguage constructs a Language analyzer that always reports
// defaultLanguage until a real model is wired in.
func NewLanguage(defaultLanguage string) *Language {
	return &Language{defaultLanguage: defaultLanguage, detected: defaultLanguage}
}

// NewDefaultLanguage constructs a Language analyzer reporting "unknown".
func NewDefaultLanguage() *Language {
	return NewLanguage("unknown")
}

// Name returns the stable analyzer name "language".
func (l *Language) Name() string { return "language" }

// Analyze always returns the current detected language at zero
// confidence; it does not yet accumulate evidence over time.
func (l *Language) Analyze(frame audio.Frame, buf *audio.Buffer, state *pipeline.State) (pipeline.AnalysisResult, error) {
	return pipeline.AnalysisResult{
		AnalyzerName: l.Name(),
		FrameID:      frame.FrameID,
		TimestampMs:  frame.TimestampMs,
		Confidence:   l.confidence,
		Data: map[string]pipeline.Value{
			"language":     pipeline.String(l.detected),
			"alternatives": pipeline.String(""),
		},
	}, nil
}

// Reset restores the default language and zero confidence.
func (l *Language) Reset() {
	l.detected = l.defaultLanguage
	l.confidence = 0
}
