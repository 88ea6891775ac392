package observe

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestVoiceCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.FrameReceived(ctx)
	m.FrameReceived(ctx)
	m.FrameDropped(ctx)
	m.DecodeError(ctx)
	m.ResponseDropped(ctx)
	m.PlaybackCompleted(ctx)

	rm := collect(t, reader)

	counters := []struct {
		name string
		want int64
	}{
		{"parley.voice.frames.received", 2},
		{"parley.voice.frames.dropped", 1},
		{"parley.voice.decode.errors", 1},
		{"parley.voice.responses.dropped", 1},
		{"parley.voice.playbacks", 1},
	}

	for _, tc := range counters {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", tc.name)
			}
			if len(sum.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := sum.DataPoints[0].Value; got != tc.want {
				t.Errorf("counter value = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestProcessorLatencyStatus(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ProcessorLatency(ctx, 120*time.Millisecond, true)
	m.ProcessorLatency(ctx, 3*time.Second, false)

	rm := collect(t, reader)
	met := findMetric(rm, "parley.speech.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}

	// One data point per status attribute value.
	if len(hist.DataPoints) != 2 {
		t.Fatalf("data points = %d, want 2", len(hist.DataPoints))
	}
	for _, dp := range hist.DataPoints {
		if dp.Count != 1 {
			t.Errorf("sample count = %d, want 1", dp.Count)
		}
	}
}

func TestConnectionGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ConnectionOpened(ctx)
	m.ConnectionOpened(ctx)
	m.ConnectionClosed(ctx)

	rm := collect(t, reader)
	met := findMetric(rm, "parley.voice.connections")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("gauge value = %d, want 1", got)
	}
}

func TestChatCompletionCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ChatCompletion(ctx, "default", 200*time.Millisecond, true)
	m.ChatCompletion(ctx, "default", 250*time.Millisecond, true)
	m.ChatCompletion(ctx, "pirate", time.Second, false)

	rm := collect(t, reader)
	met := findMetric(rm, "parley.chat.completions")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "persona" && kv.Value.AsString() == "default" {
				if dp.Value != 2 {
					t.Errorf("counter value = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with persona=default not found")
}

func TestProviderErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ProviderError(ctx, "openai", "speech")

	rm := collect(t, reader)
	met := findMetric(rm, "parley.provider.errors")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("counter value = %d, want 1", sum.DataPoints[0].Value)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Every convenience method must be a no-op on a nil receiver.
	m.FrameReceived(ctx)
	m.FrameDropped(ctx)
	m.DecodeError(ctx)
	m.ResponseDropped(ctx)
	m.PlaybackCompleted(ctx)
	m.ProcessorLatency(ctx, time.Second, true)
	m.ConnectionOpened(ctx)
	m.ConnectionClosed(ctx)
	m.ChatCompletion(ctx, "default", time.Second, true)
	m.ProviderError(ctx, "openai", "speech")
}
