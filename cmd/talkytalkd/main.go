// Command talkytalkd runs the TalkyTalk streaming intent pipeline as a
// long-running service: it reads synthetic audio frames (when
// --demo-duration-ms is set), drives the analyzer/predictor pipeline, and streams the resulting
// IntentPackets to WebSocket subscribers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/serhatskywalker/talkytalk/internal/analyzer"
	"github.com/serhatskywalker/talkytalk/internal/audio"
	"github.com/serhatskywalker/talkytalk/internal/config"
	"github.com/serhatskywalker/talkytalk/internal/predictor"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
	"github.com/serhatskywalker/talkytalk/internal/server"
	"github.com/serhatskywalker/talkytalk/internal/source"
	"github.com/serhatskywalker/talkytalk/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "talkytalkd",
		Short: "TalkyTalk real-time behavioral speech-signal pipeline",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML/JSON config file")

	rootCmd.AddCommand(runCmd(), configShowCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Loader{ConfigPath: configPath}.Load()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runCmd() *cobra.Command {
	var demoDurationMs int
	var sessionID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the pipeline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), demoDurationMs, sessionID)
		},
	}
	cmd.Flags().IntVar(&demoDurationMs, "demo-duration-ms", 0, "if set, feed a synthetic sine demo source for this many milliseconds instead of waiting for a real source")
	cmd.Flags().StringVar(&sessionID, "session-id", "default", "session ID to broadcast emitted packets under")
	return cmd
}

func run(ctx context.Context, demoDurationMs int, sessionID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "talkytalkd"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	logger.Info("starting talkytalkd",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"sample_rate", cfg.Audio.SampleRate,
		"emit_interval_ms", cfg.Pipeline.EmitIntervalMs,
	)

	srv := server.New(cfg.ListenAddr, logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(runCtx); err != nil {
			serverErr <- err
		}
	}()

	p := buildPipeline(cfg, logger)
	p.OnPacket(server.EmitToSession(srv, sessionID))
	srv.SetReady(true)
	logger.Info("pipeline ready, listening", "addr", cfg.ListenAddr)

	var audioSrc pipeline.Source
	if demoDurationMs > 0 {
		audioSrc = source.NewSineSource(440, 0.3, demoDurationMs, audio.Config{
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			FrameDurationMs: cfg.Audio.FrameDurationMs,
		})
	}

	if audioSrc != nil {
		if err := p.Run(runCtx, audioSrc, nil); err != nil {
			logger.Warn("pipeline run ended with error", "error", err)
		}
	} else {
		<-runCtx.Done()
	}

	select {
	case err := <-serverErr:
		return err
	default:
	}
	return nil
}

// buildPipeline wires every analyzer and predictor in the spec's fixed
// order: VAD and Prosody feed Emotion and Language, which feed Intent,
// Timing, EarlyIntent, and TurnTaking.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	pcfg := pipeline.Config{
		Audio: audio.Config{
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			FrameDurationMs: cfg.Audio.FrameDurationMs,
		},
		BufferDurationMs:    cfg.Pipeline.BufferDurationMs,
		EmitIntervalMs:      cfg.Pipeline.EmitIntervalMs,
		MinConfidenceToEmit: cfg.Pipeline.MinConfidenceToEmit,
	}

	p := pipeline.New(pcfg, logger)

	p.AddAnalyzer(analyzer.NewVAD(cfg.VAD.EnergyThresholdDB, cfg.VAD.HangoverFrames, cfg.VAD.Adaptive))
	p.AddAnalyzer(analyzer.NewDefaultProsody())
	p.AddAnalyzer(analyzer.NewEmotion(cfg.Emotion.SmoothingAlpha))
	p.AddAnalyzer(analyzer.NewDefaultLanguage())

	p.AddPredictor(predictor.NewIntent(cfg.Intent.DecayRate))
	p.AddPredictor(predictor.NewTiming(cfg.Timing.PauseThresholdMs, cfg.Timing.TurnEndThresholdMs, cfg.Timing.InterruptConfidence))
	p.AddPredictor(predictor.NewEarlyIntent(cfg.EarlyIntent.StabilityThreshold, cfg.EarlyIntent.ConfidenceMomentum, cfg.EarlyIntent.HypothesisTimeoutMs))
	p.AddPredictor(predictor.NewTurnTaking(cfg.TurnTaking.MinTurnGapMs, cfg.TurnTaking.SafeInterruptGapMs, cfg.TurnTaking.MaxWaitMs))

	return p
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("listen_addr:        %s\n", cfg.ListenAddr)
			fmt.Printf("log_level:          %s\n", cfg.LogLevel)
			fmt.Printf("audio.sample_rate:  %d\n", cfg.Audio.SampleRate)
			fmt.Printf("audio.frame_ms:     %d\n", cfg.Audio.FrameDurationMs)
			fmt.Printf("pipeline.emit_ms:   %d\n", cfg.Pipeline.EmitIntervalMs)
			fmt.Printf("pipeline.buffer_ms: %d\n", cfg.Pipeline.BufferDurationMs)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("talkytalkd %s\n", version)
		},
	}
}
