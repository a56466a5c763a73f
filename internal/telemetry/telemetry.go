// Package telemetry initializes OpenTelemetry tracing for the pipeline
// and provides a helper for wrapping ProcessFrame in a span.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for every span this
// package and the pipeline emit.
const TracerName = "github.com/serhatskywalker/talkytalk/internal/pipeline"

// Attribute keys recorded on frame-processing spans.
const (
	AttrFrameID     = "talkytalk.frame_id"
	AttrFrameTSMs   = "talkytalk.frame_timestamp_ms"
	AttrEmitted     = "talkytalk.packet_emitted"
	AttrFaultCount  = "talkytalk.fault_count"
)

// Config controls tracer provider construction.
type Config struct {
	ServiceName string
	Pretty      bool
}

// Init builds and installs a global TracerProvider that exports spans to
// stdout, returning a shutdown function to flush and close it on exit.
// A stdout exporter keeps the module runnable without a collector; swap
// the exporter for an OTLP one in deployment if a backend is available.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	opts := []stdouttrace.Option{}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create stdout exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the pipeline's tracer from the currently installed
// global TracerProvider.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartFrameSpan starts a span covering the processing of a single audio
// frame.
func StartFrameSpan(ctx context.Context, frameID, timestampMs int64) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "pipeline.process_frame", trace.WithAttributes(
		attribute.Int64(AttrFrameID, frameID),
		attribute.Int64(AttrFrameTSMs, timestampMs),
	))
}

// EndFrameSpan records the outcome of frame processing and ends the span.
func EndFrameSpan(span trace.Span, emitted bool, faultCount int) {
	span.SetAttributes(
		attribute.Bool(AttrEmitted, emitted),
		attribute.Int(AttrFaultCount, faultCount),
	)
	span.End()
}
