package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "audioreport", "dev", "development")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("unexpected sample rate %v", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("unexpected interval %v", cfg.Interval)
	}
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), SpanModelLoad)
	SetSpanAttribute(ctx, AttrModel, "tiny")
	SetSpanAttribute(ctx, "elapsed", 1.25)
	SetSpanError(ctx, errors.New("weights missing"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != SpanModelLoad {
		t.Errorf("unexpected span name %q", got.Name())
	}
	found := false
	for _, kv := range got.Attributes() {
		if string(kv.Key) == AttrModel && kv.Value.AsString() == "tiny" {
			found = true
		}
	}
	if !found {
		t.Error("expected model attribute on span")
	}
	if len(got.Events()) == 0 {
		t.Error("expected an error event on span")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRequest(ctx, "ok", "txt")
	m.RecordStage(ctx, "transcribe", time.Second)
	m.RecordOperation(ctx, "torch", "execute", "ok", time.Second)
	m.RecordError(ctx, "INVALID_MODEL", "model")
}

func TestNewMetricsOnNoopMeter(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	m.RecordRequest(ctx, "ok", "pdf")
	m.RecordStage(ctx, "report", 10*time.Millisecond)
	m.RecordOperation(ctx, "whisper", "execute", "error", time.Millisecond)
	m.RecordError(ctx, "TRANSCRIPTION_FAILED", "runner")
}
