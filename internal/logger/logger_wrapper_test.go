package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/akisma/pioneer-vision/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Debug("debug entry")
	if logs.Len() != 1 {
		t.Fatalf("debug entry not written, got %d entries", logs.Len())
	}

	l.SetLevel(contracts.WarnLevel)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")

	if got := logs.FilterMessage("dropped").Len(); got != 0 {
		t.Fatalf("entries below warn were written: %d", got)
	}
	if got := logs.Len(); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Info("with fields",
		l.Field().Int("cc", 7),
		l.Field().String("control", "xFader"),
		l.Field().Bool("wildcard", true),
		l.Field().Error("error", errors.New("boom")),
	)

	entries := logs.FilterMessage("with fields").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["cc"] != int64(7) {
		t.Fatalf("cc=%v", ctx["cc"])
	}
	if ctx["control"] != "xFader" {
		t.Fatalf("control=%v", ctx["control"])
	}
	if ctx["wildcard"] != true {
		t.Fatalf("wildcard=%v", ctx["wildcard"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error=%v", ctx["error"])
	}
}

func TestZapLogger_IgnoresForeignFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Info("empty builder", l.Field())
	if n := len(logs.All()[0].Context); n != 0 {
		t.Fatalf("unset field produced %d context entries", n)
	}
}

func TestFileLogger_WritesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pioneer.log")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Info("to file", l.Field().Int("value", 79))
	if err := l.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		t.Fatalf("Close: %v", err)
	}
	l.Info("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) || !strings.Contains(string(data), `"value":79`) {
		t.Fatalf("log file missing entry: %s", data)
	}
	if strings.Contains(string(data), "after close") {
		t.Fatalf("entry written after Close: %s", data)
	}
}

func TestZapLogger_SetDestinationSwitchesFiles(t *testing.T) {
	dir := t.TempDir()
	first, second := filepath.Join(dir, "first.log"), filepath.Join(dir, "second.log")
	l, err := NewFileLogger(first)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer l.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.Debug("concurrent")
			l.Info("concurrent")
		}
	}()
	l.SetDestination(contracts.FileLog, second)
	wg.Wait()

	l.Info("second entry")
	l.Sync()
	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second log: %v", err)
	}
	if !strings.Contains(string(data), "second entry") {
		t.Fatalf("entry not written to the new destination: %s", data)
	}
	if data, _ := os.ReadFile(first); strings.Contains(string(data), "second entry") {
		t.Fatalf("entry written to the old destination")
	}
}

func TestZapLogger_SetDestinationWithoutPathKeepsLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kept.log")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer l.Close()

	l.SetDestination(contracts.FileLog)
	l.Info("still here")
	l.Sync()
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "still here") {
		t.Fatalf("logger replaced by an invalid destination: %s", data)
	}
}
