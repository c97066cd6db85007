package gelf

import (
	"log/slog"
	"testing"
)

func TestWithSourceInfo(t *testing.T) {
	w := &recordingWriter{}
	h := NewHandlerCustom(w, nil)

	// check config
	if h.AddSource {
		t.Fatal("expected default for `AddSource` to be false")
	}

	// check results
	l := slog.New(h)
	l.Info("test-msg", "k", "v")
	if _, ok := w.last(t).Properties[slog.SourceKey]; ok {
		t.Fatal("expected default NOT to include source info")
	}

	// new handler with option enabled
	h = NewHandlerCustom(w, &HandlerOptions{AddSource: true})

	// check config
	if !h.AddSource {
		t.Fatal("expected`AddSource` to be true")
	}

	// check results
	l = slog.New(h)
	l.Info("test-msg", "k", "v")
	if src, ok := w.last(t).Properties[slog.SourceKey]; !ok {
		t.Fatal("missing source info")
	} else {
		t.Log(src)
	}
}

func TestHandler_LogLevelOption(t *testing.T) {
	w := &recordingWriter{}
	h := NewHandlerCustom(w, &HandlerOptions{})

	// check config
	if h.Level.Level() != slog.LevelInfo {
		t.Fatalf("expected default Level to be INFO, got: %s", h.Level.Level())
	}

	// check results
	l := slog.New(h)
	l.Debug("dropped")
	l.Info("kept")
	if len(w.events) != 1 || w.events[0].Message != "kept" {
		t.Fatalf("expected only the INFO record, got: %d records", len(w.events))
	}

	// levels can be changed at runtime
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	l = slog.New(NewHandlerCustom(w, &HandlerOptions{Level: lv}))
	l.Info("dropped")
	lv.Set(slog.LevelDebug)
	l.Debug("kept")
	if len(w.events) != 2 || w.last(t).Message != "kept" {
		t.Fatalf("expected the DEBUG record after lowering the level, got: %d records", len(w.events))
	}
}

func TestHandler_LoggerNameOption(t *testing.T) {
	w := &recordingWriter{}
	l := slog.New(NewHandlerCustom(w, &HandlerOptions{LoggerName: "billing"}))

	l.Info("test-msg")
	if got := w.last(t).LoggerName; got != "billing" {
		t.Fatalf("expected LoggerName to be billing, got: %s", got)
	}
}
