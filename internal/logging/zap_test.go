package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, logs := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	tests := []struct {
		level zapcore.Level
		msg   string
		key   string
		val   int64
	}{
		{zapcore.DebugLevel, "dbg", "a", 1},
		{zapcore.InfoLevel, "inf", "b", 2},
		{zapcore.WarnLevel, "wrn", "c", 3},
		{zapcore.ErrorLevel, "err", "d", 4},
	}

	for i, tc := range tests {
		e := entries[i]
		if e.Level != tc.level {
			t.Fatalf("entry %d: expected level %s, got %s", i, tc.level, e.Level)
		}
		if e.Message != tc.msg {
			t.Fatalf("entry %d: expected msg %q, got %q", i, tc.msg, e.Message)
		}
		if got := e.ContextMap()[tc.key]; got != tc.val {
			t.Fatalf("entry %d: expected %s=%d, got %v", i, tc.key, tc.val, got)
		}
	}
}

func TestZapLogger_With_AddsAttributes(t *testing.T) {
	log, logs := newTestLogger(t)
	ctx := context.Background()

	child := log.With("flow", "signup")
	child.Info(ctx, "enrollment started", "email", "a@x.com")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["flow"] != "signup" {
		t.Fatalf("expected inherited attribute flow=signup, got %v", fields["flow"])
	}
	if fields["email"] != "a@x.com" {
		t.Fatalf("expected email attribute, got %v", fields["email"])
	}
}

func TestNewProductionLogger_InvalidLevel(t *testing.T) {
	if _, err := NewProductionLogger("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewProductionLogger_DefaultLevel(t *testing.T) {
	log, err := NewProductionLogger("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == nil {
		t.Fatalf("expected logger")
	}
}
