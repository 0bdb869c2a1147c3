package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestComponentLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(newBase())

	log := NewLogger("GEOS").With(zap.String("context", "abc"))
	log.Warnf("self-intersection at %d %d", 1, 2)
	log.Debugf("notice")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 records, got %d", len(entries))
	}
	if entries[0].LoggerName != "GEOS" {
		t.Errorf("unexpected logger name %q", entries[0].LoggerName)
	}
	if entries[0].Message != "self-intersection at 1 2" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].ContextMap()["context"] != "abc" {
		t.Errorf("missing context field: %v", entries[0].ContextMap())
	}
	if entries[1].Level != zap.DebugLevel {
		t.Errorf("expected debug level, got %v", entries[1].Level)
	}
}

func TestStep(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(newBase())

	log := NewLogger("limiter")
	step := log.StartStep("Preparing limitto polygons")
	log.StopStep(step)
	// unknown step is ignored
	log.StopStep("unknown")

	if n := logs.FilterMessageSnippet("took:").Len(); n != 1 {
		t.Fatalf("expected one step record, got %d", n)
	}
}

func TestQuietProgress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(newBase())

	SetQuiet(true)
	Progress("hidden")
	SetQuiet(false)
	Progress("shown")

	if logs.Len() != 1 || logs.All()[0].Message != "shown" {
		t.Fatalf("unexpected records: %v", logs.All())
	}
}
