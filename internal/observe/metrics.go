// Package observe provides application-wide observability primitives for
// Parley: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter is wired up via [InitProvider] so that metrics can be scraped
// from the standard /metrics endpoint. Components receive an explicit
// *Metrics built by [NewMetrics]; there is no ambient package-level instance.
//
// All convenience record methods tolerate a nil receiver, so components can
// carry an optional *Metrics without guarding every call site.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Parley metrics.
const meterName = "github.com/parley-bot/parley"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Voice pipeline ---

	// VoiceFramesReceived counts capture frames accepted into speaker buffers.
	VoiceFramesReceived metric.Int64Counter

	// VoiceFramesDropped counts capture frames dropped while playback held
	// the channel.
	VoiceFramesDropped metric.Int64Counter

	// VoiceDecodeErrors counts utterances dropped due to Opus decode failure.
	VoiceDecodeErrors metric.Int64Counter

	// VoiceResponsesDropped counts processor responses discarded because a
	// playback was already in progress.
	VoiceResponsesDropped metric.Int64Counter

	// VoicePlaybacks counts completed response playbacks.
	VoicePlaybacks metric.Int64Counter

	// SpeechDuration tracks speech-processor round-trip latency. Use with
	// attribute.String("status", "ok"|"error").
	SpeechDuration metric.Float64Histogram

	// ActiveConnections tracks the number of live voice connections.
	ActiveConnections metric.Int64UpDownCounter

	// --- Text chat ---

	// ChatCompletions counts LLM chat completions. Use with attributes:
	//   attribute.String("persona", ...), attribute.String("status", ...)
	ChatCompletions metric.Int64Counter

	// ChatDuration tracks LLM completion latency.
	ChatDuration metric.Float64Histogram

	// --- Providers ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.VoiceFramesReceived, err = m.Int64Counter("parley.voice.frames.received",
		metric.WithDescription("Capture frames accepted into speaker buffers."),
	); err != nil {
		return nil, err
	}
	if met.VoiceFramesDropped, err = m.Int64Counter("parley.voice.frames.dropped",
		metric.WithDescription("Capture frames dropped during playback."),
	); err != nil {
		return nil, err
	}
	if met.VoiceDecodeErrors, err = m.Int64Counter("parley.voice.decode.errors",
		metric.WithDescription("Utterances dropped due to Opus decode failure."),
	); err != nil {
		return nil, err
	}
	if met.VoiceResponsesDropped, err = m.Int64Counter("parley.voice.responses.dropped",
		metric.WithDescription("Responses discarded because playback was in progress."),
	); err != nil {
		return nil, err
	}
	if met.VoicePlaybacks, err = m.Int64Counter("parley.voice.playbacks",
		metric.WithDescription("Completed response playbacks."),
	); err != nil {
		return nil, err
	}
	if met.SpeechDuration, err = m.Float64Histogram("parley.speech.duration",
		metric.WithDescription("Speech processor round-trip latency by status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveConnections, err = m.Int64UpDownCounter("parley.voice.connections",
		metric.WithDescription("Number of live voice connections."),
	); err != nil {
		return nil, err
	}

	if met.ChatCompletions, err = m.Int64Counter("parley.chat.completions",
		metric.WithDescription("LLM chat completions by persona and status."),
	); err != nil {
		return nil, err
	}
	if met.ChatDuration, err = m.Float64Histogram("parley.chat.duration",
		metric.WithDescription("LLM completion latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderErrors, err = m.Int64Counter("parley.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// FrameReceived records one accepted capture frame.
func (m *Metrics) FrameReceived(ctx context.Context) {
	if m == nil {
		return
	}
	m.VoiceFramesReceived.Add(ctx, 1)
}

// FrameDropped records one capture frame dropped during playback.
func (m *Metrics) FrameDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.VoiceFramesDropped.Add(ctx, 1)
}

// DecodeError records one utterance lost to a decode failure.
func (m *Metrics) DecodeError(ctx context.Context) {
	if m == nil {
		return
	}
	m.VoiceDecodeErrors.Add(ctx, 1)
}

// ResponseDropped records one response discarded during an active playback.
func (m *Metrics) ResponseDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.VoiceResponsesDropped.Add(ctx, 1)
}

// PlaybackCompleted records one finished playback.
func (m *Metrics) PlaybackCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.VoicePlaybacks.Add(ctx, 1)
}

// ProcessorLatency records one speech-processor round trip.
func (m *Metrics) ProcessorLatency(ctx context.Context, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.SpeechDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}

// ConnectionOpened increments the live connection gauge.
func (m *Metrics) ConnectionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveConnections.Add(ctx, 1)
}

// ConnectionClosed decrements the live connection gauge.
func (m *Metrics) ConnectionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveConnections.Add(ctx, -1)
}

// ChatCompletion records one LLM chat completion with its latency.
func (m *Metrics) ChatCompletion(ctx context.Context, persona string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("persona", persona),
		attribute.String("status", status),
	)
	m.ChatCompletions.Add(ctx, 1, attrs)
	m.ChatDuration.Record(ctx, d.Seconds())
}

// ProviderError records one provider failure.
func (m *Metrics) ProviderError(ctx context.Context, provider, kind string) {
	if m == nil {
		return
	}
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
