// Package metrics defines the Prometheus instrumentation surface for the
// pipeline: frame throughput, packet emission, per-component fault
// counts, and frame processing latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessedTotal counts every frame that reached ProcessFrame,
	// regardless of whether it produced a packet.
	FramesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talkytalk_frames_processed_total",
		Help: "Total number of audio frames processed by the pipeline",
	})

	// PacketsEmittedTotal counts every IntentPacket handed to registered
	// callbacks.
	PacketsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talkytalk_packets_emitted_total",
		Help: "Total number of intent packets emitted by the pipeline",
	})

	// ComponentFaultsTotal counts analyzer/predictor errors caught and
	// skipped for a frame, labeled by component name.
	ComponentFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkytalk_component_faults_total",
		Help: "Total number of analyzer/predictor errors caught and skipped",
	}, []string{"component"})

	// FrameProcessingSeconds measures wall-clock time spent inside
	// ProcessFrame per frame.
	FrameProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "talkytalk_frame_processing_seconds",
		Help:    "Time spent processing a single audio frame",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	// PacketEmitLatencySeconds measures time between successive emitted
	// packets, useful for verifying the emit-interval schedule holds.
	PacketEmitLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "talkytalk_packet_emit_interval_seconds",
		Help:    "Observed interval between emitted intent packets",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
	})
)
