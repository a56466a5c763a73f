package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/metrics"
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/telemetry"
)

// Default pipeline scheduling parameters.
const (
	DefaultBufferDurationMs    = 1000
	DefaultEmitIntervalMs      = 100
	DefaultMinConfidenceToEmit = 0.0
)

// Config controls pipeline scheduling: how much frame history the buffer
// retains and how often (and above what confidence) packets are emitted.
type Config struct {
	Audio               audio.Config
	BufferDurationMs    int64
	EmitIntervalMs      int64
	MinConfidenceToEmit float64
}

// NewConfig returns the default pipeline configuration.
func NewConfig() Config {
	return Config{
		Audio:               audio.NewConfig(),
		BufferDurationMs:    DefaultBufferDurationMs,
		EmitIntervalMs:      DefaultEmitIntervalMs,
		MinConfidenceToEmit: DefaultMinConfidenceToEmit,
	}
}

// Source is the frame-producing contract a Pipeline drives (spec §6).
// Implementations expose a strictly increasing FrameID sequence starting
// at 0; Close is idempotent.
type Source interface {
	Config() audio.Config
	Next() (audio.Frame, bool, error)
	Close() error
}

// Callback is invoked synchronously, in registration order, for every
// emitted packet, before Pipeline.ProcessFrame returns it to the caller.
type Callback func(*packet.IntentPacket)

// Pipeline orchestrates analyzers and predictors over an incoming frame
// stream and emits IntentPackets on a time-driven schedule. It is
// single-threaded cooperative: one frame is processed to completion
// (analyzers, then predictors, then the emit check) before the next frame
// is accepted. Concurrent calls into the same Pipeline are undefined.
type Pipeline struct {
	cfg        Config
	log        *slog.Logger
	buf        *audio.Buffer
	state      *State
	analyzers  []Analyzer
	predictors []Predictor
	callbacks  []Callback
	lastEmitMs int64
	running    bool
	stopped    bool
}

// New constructs a Pipeline from cfg. A nil logger falls back to
// slog.Default().
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:   cfg,
		log:   logger.With("component", "pipeline"),
		buf:   audio.NewBuffer(audio.DefaultMaxFrames, cfg.BufferDurationMs),
		state: NewState(),
	}
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// State returns the pipeline's current mutable state. Callers should treat
// it as read-only except through Predictor.Predict.
func (p *Pipeline) State() *State { return p.state }

// AddAnalyzer registers an analyzer. Registration order is execution
// order. Returns the Pipeline for chaining.
func (p *Pipeline) AddAnalyzer(a Analyzer) *Pipeline {
	p.analyzers = append(p.analyzers, a)
	return p
}

// AddPredictor registers a predictor. Registration order is execution
// order, and runs strictly after every analyzer for the same frame.
// Returns the Pipeline for chaining.
func (p *Pipeline) AddPredictor(pr Predictor) *Pipeline {
	p.predictors = append(p.predictors, pr)
	return p
}

// OnPacket registers a callback invoked for every emitted packet. Returns
// the Pipeline for chaining.
func (p *Pipeline) OnPacket(cb Callback) *Pipeline {
	p.callbacks = append(p.callbacks, cb)
	return p
}

// ProcessFrame pushes frame through the buffer, runs every analyzer then
// every predictor in registration order, and returns a snapshot packet if
// the emit gate fires. A nil packet with nil error means the frame was
// processed but it is not yet time to emit.
//
// Analyzer and predictor faults are logged at WARN and skipped for this
// frame; the pipeline continues with prior state (spec §7b). Faults never
// cause ProcessFrame itself to return an error.
func (p *Pipeline) ProcessFrame(frame audio.Frame) *packet.IntentPacket {
	start := time.Now()
	_, span := telemetry.StartFrameSpan(context.Background(), frame.FrameID, frame.TimestampMs)
	faults := 0

	p.buf.Push(frame)

	for _, a := range p.analyzers {
		result, err := a.Analyze(frame, p.buf, p.state)
		if err != nil {
			p.log.Warn("analyzer failed on frame", "analyzer", a.Name(), "frame_id", frame.FrameID, "error", err)
			metrics.ComponentFaultsTotal.WithLabelValues(a.Name()).Inc()
			faults++
			continue
		}
		p.state.Results[a.Name()] = result
	}

	ctx := Context{Frame: frame, Buffer: p.buf, Results: p.state.Results}
	for _, pr := range p.predictors {
		if err := pr.Predict(ctx, p.state); err != nil {
			p.log.Warn("predictor failed on frame", "predictor", pr.Name(), "frame_id", frame.FrameID, "error", err)
			metrics.ComponentFaultsTotal.WithLabelValues(pr.Name()).Inc()
			faults++
			continue
		}
	}

	metrics.FramesProcessedTotal.Inc()
	metrics.FrameProcessingSeconds.Observe(time.Since(start).Seconds())

	if frame.TimestampMs-p.lastEmitMs < p.cfg.EmitIntervalMs {
		telemetry.EndFrameSpan(span, false, faults)
		return nil
	}
	if p.state.IntentConfidence < p.cfg.MinConfidenceToEmit {
		telemetry.EndFrameSpan(span, false, faults)
		return nil
	}

	if p.lastEmitMs > 0 {
		metrics.PacketEmitLatencySeconds.Observe(float64(frame.TimestampMs-p.lastEmitMs) / 1000)
	}
	p.lastEmitMs = frame.TimestampMs
	pkt := p.state.ToPacket(frame.FrameID, frame.TimestampMs)
	metrics.PacketsEmittedTotal.Inc()
	for _, cb := range p.callbacks {
		cb(pkt)
	}
	telemetry.EndFrameSpan(span, true, faults)
	return pkt
}

// Run drives the pipeline synchronously to completion over source,
// invoking emit for every emitted packet. It returns the first error
// encountered reading from source, or nil on normal exhaustion. The
// source is closed on every exit path, per spec §5 cancellation rules.
func (p *Pipeline) Run(ctx context.Context, source Source, emit func(*packet.IntentPacket)) error {
	p.running = true
	p.stopped = false
	defer func() {
		p.running = false
		source.Close()
	}()

	for {
		if p.stopped {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, ok, err := source.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if pkt := p.ProcessFrame(frame); pkt != nil && emit != nil {
			emit(pkt)
		}
	}
}

// Stop cooperatively requests the run loop to stop before the next frame
// is accepted. The in-flight frame always runs to completion.
func (p *Pipeline) Stop() {
	p.stopped = true
}

// Running reports whether the pipeline is currently inside Run.
func (p *Pipeline) Running() bool { return p.running }

// Reset clears the buffer, state, and emit clock, and resets every
// registered analyzer and predictor. After Reset, processing the same
// source deterministically reproduces the same packet sequence.
func (p *Pipeline) Reset() {
	p.buf.Clear()
	p.state = NewState()
	p.lastEmitMs = 0
	p.stopped = false
	for _, a := range p.analyzers {
		a.Reset()
	}
	for _, pr := range p.predictors {
		pr.Reset()
	}
}
