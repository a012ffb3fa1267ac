package tracing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	// Tracer must be usable (noop) even when disabled.
	tracer := p.Tracer("engine")
	_, span := tracer.Start(context.Background(), "engine.start")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() of disabled provider error = %v", err)
	}
}

func TestNewProviderStdoutExporter(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRate:  1.0,
		ServiceName: "proxypilot-test",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !p.Enabled() {
		t.Error("Enabled() = false for enabled config")
	}

	_, span := p.Tracer("engine").Start(context.Background(), "engine.start")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderUnsupportedExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:  true,
		Exporter: "jaeger",
	}, testLogger())
	if err == nil {
		t.Fatal("NewProvider() with unsupported exporter, want error")
	}
}

func TestStartEngineSpan(t *testing.T) {
	ctx, span := StartEngineSpan(context.Background(), "start")
	if ctx == nil {
		t.Fatal("StartEngineSpan() returned nil context")
	}
	span.End()
}

func TestRecordHelpers(t *testing.T) {
	_, span := StartEngineSpan(context.Background(), "stop")
	defer span.End()

	// None of these may panic on a noop span.
	RecordError(span, errors.New("boom"), "stop failed")
	RecordSuccess(span)
	AddEvent(span, "engine_reaped")

	// Nil span and nil error are silently ignored.
	RecordError(nil, errors.New("boom"), "x")
	RecordError(span, nil, "x")
	RecordSuccess(nil)
	AddEvent(nil, "x")
}
