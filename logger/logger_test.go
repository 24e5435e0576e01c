package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reqLog := zap.New(core)

	ctx := WithRequestLogger(context.Background(), reqLog)
	got := FromContext(ctx, nil)
	got.Info("hello")

	if logs.Len() != 1 {
		t.Fatalf("expected the attached logger to receive the line, got %d entries", logs.Len())
	}
}

func TestFromContextFallsBackWithoutAttachedLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fallback := &Logger{Logger: zap.New(core)}

	got := FromContext(context.Background(), fallback)
	got.Info("hello")

	if logs.Len() != 1 {
		t.Fatalf("expected the fallback logger to receive the line, got %d entries", logs.Len())
	}
}

func TestFromContextNilFallbackIsNoOp(t *testing.T) {
	got := FromContext(context.Background(), nil)
	got.Info("should not panic")
}

func TestWithRequestIDTagsField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	WithRequestID(base, "req-123").Info("tagged")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctxMap := entries[0].ContextMap()
	if ctxMap["req_id"] != "req-123" {
		t.Fatalf("expected req_id=req-123, got %v", ctxMap["req_id"])
	}
}
