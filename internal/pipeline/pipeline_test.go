package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/packet"
)

type fakeAnalyzer struct {
	name    string
	failOn  int64
	calls   int
	resetCt int
}

func (f *fakeAnalyzer) Name() string { return f.name }
func (f *fakeAnalyzer) Analyze(frame audio.Frame, buf *audio.Buffer, state *State) (AnalysisResult, error) {
	f.calls++
	if frame.FrameID == f.failOn {
		return AnalysisResult{}, errors.New("boom")
	}
	return AnalysisResult{AnalyzerName: f.name, FrameID: frame.FrameID, Data: map[string]Value{"ok": Bool(true)}}, nil
}
func (f *fakeAnalyzer) Reset() { f.resetCt++ }

type fakePredictor struct {
	name    string
	failOn  int64
	apply   func(state *State)
	resetCt int
}

func (f *fakePredictor) Name() string { return f.name }
func (f *fakePredictor) Predict(ctx Context, state *State) error {
	if ctx.Frame.FrameID == f.failOn {
		return errors.New("boom")
	}
	if f.apply != nil {
		f.apply(state)
	}
	return nil
}
func (f *fakePredictor) Reset() { f.resetCt++ }

type sliceSource struct {
	cfg    audio.Config
	frames []audio.Frame
	i      int
	closed bool
}

func (s *sliceSource) Config() audio.Config { return s.cfg }
func (s *sliceSource) Next() (audio.Frame, bool, error) {
	if s.i >= len(s.frames) {
		return audio.Frame{}, false, nil
	}
	f := s.frames[s.i]
	s.i++
	return f, true, nil
}
func (s *sliceSource) Close() error { s.closed = true; return nil }

func newTestFrames(n int, cfg audio.Config, everyMs int64) []audio.Frame {
	frames := make([]audio.Frame, n)
	for i := 0; i < n; i++ {
		frames[i] = audio.NewFrame([]float64{0.1}, int64(i), int64(i)*everyMs, cfg)
	}
	return frames
}

func TestProcessFrameSkipsFaultingComponents(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	good := &fakeAnalyzer{name: "good", failOn: -1}
	bad := &fakeAnalyzer{name: "bad", failOn: 0}
	p.AddAnalyzer(good).AddAnalyzer(bad)

	frame := audio.NewFrame([]float64{0.1}, 0, 0, cfg.Audio)
	p.ProcessFrame(frame)

	if _, ok := p.State().Result("good"); !ok {
		t.Error("expected good analyzer result to be published")
	}
	if _, ok := p.State().Result("bad"); ok {
		t.Error("expected faulting analyzer result to be absent")
	}
}

func TestProcessFramePredictorFaultDoesNotCrash(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	pr := &fakePredictor{name: "pr", failOn: 0}
	p.AddPredictor(pr)

	frame := audio.NewFrame([]float64{0.1}, 0, 0, cfg.Audio)
	pkt := p.ProcessFrame(frame)
	if pkt != nil {
		t.Error("expected nil packet on first frame below emit interval")
	}
}

func TestProcessFrameEmitGatedByInterval(t *testing.T) {
	cfg := NewConfig()
	cfg.EmitIntervalMs = 100
	p := New(cfg, nil)
	p.AddPredictor(&fakePredictor{name: "intent", apply: func(s *State) { s.IntentConfidence = 1 }})

	frame0 := audio.NewFrame([]float64{0.1}, 0, 100, cfg.Audio)
	if pkt := p.ProcessFrame(frame0); pkt == nil {
		t.Error("expected emit at timestamp 100, one full interval after lastEmitMs starts at 0")
	}

	frame1 := audio.NewFrame([]float64{0.1}, 1, 150, cfg.Audio)
	if pkt := p.ProcessFrame(frame1); pkt != nil {
		t.Error("expected no emit before interval elapses")
	}

	frame2 := audio.NewFrame([]float64{0.1}, 2, 250, cfg.Audio)
	if pkt := p.ProcessFrame(frame2); pkt == nil {
		t.Error("expected emit once interval elapses")
	}
}

func TestProcessFrameEmitGatedByConfidence(t *testing.T) {
	cfg := NewConfig()
	cfg.MinConfidenceToEmit = 0.5
	p := New(cfg, nil)

	frame := audio.NewFrame([]float64{0.1}, 0, 0, cfg.Audio)
	if pkt := p.ProcessFrame(frame); pkt != nil {
		t.Error("expected no emit below MinConfidenceToEmit")
	}
}

func TestProcessFrameInvokesCallbacks(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	var got int
	p.OnPacket(func(pkt *packet.IntentPacket) { got++ })

	frame := audio.NewFrame([]float64{0.1}, 0, cfg.EmitIntervalMs, cfg.Audio)
	p.ProcessFrame(frame)

	if got != 1 {
		t.Errorf("callback invocation count = %d, want 1", got)
	}
}

func TestRunDrainsSourceAndClosesIt(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	src := &sliceSource{cfg: cfg.Audio, frames: newTestFrames(5, cfg.Audio, 200)}

	var emitted int
	err := p.Run(context.Background(), src, func(_ *packet.IntentPacket) { emitted++ })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed after Run")
	}
	if p.Running() {
		t.Error("expected Running() false after Run completes")
	}
	if emitted == 0 {
		t.Error("expected at least one packet to be emitted across 5 frames")
	}
}

func TestStopHaltsRunBeforeNextFrame(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	src := &sliceSource{cfg: cfg.Audio, frames: newTestFrames(50, cfg.Audio, 20)}

	processed := 0
	p.AddPredictor(&fakePredictor{name: "stopper", apply: func(s *State) {
		processed++
		if processed == 3 {
			p.Stop()
		}
	}})

	err := p.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if processed != 3 {
		t.Errorf("processed = %d, want 3 (Stop should halt before the 4th frame)", processed)
	}
	if src.i == len(src.frames) {
		t.Error("expected source to still have unread frames after Stop")
	}
}

func TestResetClearsStateAndInvokesComponentReset(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg, nil)
	a := &fakeAnalyzer{name: "a", failOn: -1}
	pr := &fakePredictor{name: "pr"}
	p.AddAnalyzer(a).AddPredictor(pr)

	frame := audio.NewFrame([]float64{0.1}, 0, 0, cfg.Audio)
	p.ProcessFrame(frame)

	p.Reset()
	if a.resetCt != 1 || pr.resetCt != 1 {
		t.Errorf("resetCt = %d/%d, want 1/1", a.resetCt, pr.resetCt)
	}
	if _, ok := p.State().Result("a"); ok {
		t.Error("expected Results to be cleared after Reset")
	}
}
