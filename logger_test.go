package pipec

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogs installs a debug-level text logger for the test and
// returns its output buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	buf := new(bytes.Buffer)
	SetLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return buf
}

func TestSilentLoggers(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	tests := []struct {
		name   string
		logger func() *slog.Logger
	}{
		{"nop", newNopLogger},
		{"after SetLogger(nil)", func() *slog.Logger {
			SetLogger(slog.Default())
			SetLogger(nil)
			return Logger()
		}},
		{"derived", func() *slog.Logger {
			return newNopLogger().With("device", "navi10").WithGroup("stages")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.logger()
			if l == nil {
				t.Fatal("nil logger")
			}
			if l.Enabled(context.Background(), slog.LevelError) {
				t.Error("logger enabled at error level")
			}
			if err := l.Handler().Handle(context.Background(), slog.Record{}); err != nil {
				t.Errorf("Handle() = %v", err)
			}
		})
	}
}

func TestSetLoggerRoutesRecords(t *testing.T) {
	buf := captureLogs(t)
	Logger().Info("pipec: probe", "profile", "raven")
	if got := buf.String(); !strings.Contains(got, "pipec: probe") || !strings.Contains(got, "profile=raven") {
		t.Errorf("log output = %q", got)
	}
}

func TestSetLoggerPropagates(t *testing.T) {
	buf := captureLogs(t)

	dev := newDevice(t, "navi10")
	p, err := dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), fsModule()), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	p.Destroy()

	out := buf.String()
	for _, want := range []string{
		"pipec: graphics pipeline created",
		"stages: graphics pipeline compiled",
		"slab: allocated",
		"pipec: pipeline destroyed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}

func TestLoggerSwapDuringCreation(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	dev := newDevice(t, "raven")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			SetLogger(slog.New(slog.NewTextHandler(new(bytes.Buffer), nil)))
			SetLogger(nil)
		}
	}()
	go func() {
		defer wg.Done()
		for range 10 {
			p, err := dev.CreateComputePipeline(computeDesc(), 0)
			if err != nil {
				t.Errorf("CreateComputePipeline: %v", err)
				return
			}
			p.Destroy()
		}
	}()
	wg.Wait()
}
