package predictor

import (
	"testing"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

func makeCtx(results map[string]pipeline.AnalysisResult) pipeline.Context {
	cfg := audio.NewConfig()
	return pipeline.Context{
		Frame:   audio.NewFrame([]float64{0.1}, 0, 0, cfg),
		Results: results,
	}
}

func TestIntentDefaultsToUnknownWithoutEvidence(t *testing.T) {
	p := NewDefaultIntent()
	state := pipeline.NewState()
	if err := p.Predict(makeCtx(nil), state); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if state.CurrentIntent != packet.IntentUnknown {
		t.Errorf("CurrentIntent = %v, want IntentUnknown", state.CurrentIntent)
	}
}

func TestIntentRisingIntonationFavorsQuery(t *testing.T) {
	p := NewDefaultIntent()
	state := pipeline.NewState()
	results := map[string]pipeline.AnalysisResult{
		"vad": {Data: map[string]pipeline.Value{"is_speech": pipeline.Bool(true)}},
		"prosody": {Data: map[string]pipeline.Value{
			"is_rising_intonation":  pipeline.Bool(true),
			"is_falling_intonation": pipeline.Bool(false),
		}},
	}

	for i := 0; i < 10; i++ {
		if err := p.Predict(makeCtx(results), state); err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
	}
	if state.CurrentIntent != packet.IntentQuery {
		t.Errorf("CurrentIntent = %v, want IntentQuery after repeated rising intonation", state.CurrentIntent)
	}
}

func TestIntentCopiesLanguageAndEmotion(t *testing.T) {
	p := NewDefaultIntent()
	state := pipeline.NewState()
	results := map[string]pipeline.AnalysisResult{
		"language": {Data: map[string]pipeline.Value{"language": pipeline.String("es")}},
		"emotion":  {Data: map[string]pipeline.Value{"arousal": pipeline.Number(0.8), "valence": pipeline.Number(0.2)}},
	}
	if err := p.Predict(makeCtx(results), state); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if state.Language != "es" {
		t.Errorf("Language = %v, want es", state.Language)
	}
	if state.Emotion.Arousal != 0.8 || state.Emotion.Valence != 0.2 {
		t.Errorf("Emotion = %+v, want {0.8 0.2}", state.Emotion)
	}
}

func TestIntentResetClearsScores(t *testing.T) {
	p := NewDefaultIntent()
	p.scores[packet.IntentQuery] = 0.9
	p.Reset()
	for _, s := range p.scores {
		if s != 0 {
			t.Errorf("score after Reset = %v, want 0", s)
		}
	}
}
