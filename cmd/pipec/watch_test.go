package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatchConfigRebuilds(t *testing.T) {
	path := writeConfig(t, triangleTOML)
	shaderPath := filepath.Join(filepath.Dir(path), "tri.wgsl")

	tests := []struct {
		name string
		file string
	}{
		{"pipeline file", path},
		{"shader source", shaderPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			builds := make(chan struct{}, 16)
			done := make(chan error, 1)
			go func() {
				done <- watchConfig(ctx, path, log.New(io.Discard), func() error {
					builds <- struct{}{}
					return nil
				})
			}()

			data, err := os.ReadFile(tt.file)
			if err != nil {
				t.Fatal(err)
			}
			// Rewrite the file until the watcher is up and has rebuilt;
			// writes are spaced wider than the settle delay.
			tick := time.NewTicker(3 * settle)
			defer tick.Stop()
			deadline := time.After(10 * time.Second)
		wait:
			for {
				select {
				case <-builds:
					break wait
				case <-tick.C:
					if err := os.WriteFile(tt.file, data, 0o600); err != nil {
						t.Fatal(err)
					}
				case <-deadline:
					t.Fatal("no rebuild after changing " + filepath.Base(tt.file))
				}
			}

			cancel()
			select {
			case err := <-done:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("watchConfig() = %v, want context.Canceled", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("watchConfig did not return after cancel")
			}
		})
	}
}

func TestWatchConfigKeepsWatchingAfterFailedBuild(t *testing.T) {
	path := writeConfig(t, triangleTOML)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan struct{}, 16)
	go func() {
		_ = watchConfig(ctx, path, log.New(io.Discard), func() error {
			builds <- struct{}{}
			return errors.New("broken shader")
		})
	}()

	tick := time.NewTicker(3 * settle)
	defer tick.Stop()
	deadline := time.After(15 * time.Second)
	for n := 0; n < 2; {
		select {
		case <-builds:
			n++
		case <-tick.C:
			if err := os.WriteFile(path, []byte(triangleTOML), 0o600); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatalf("%d rebuilds, want 2", n)
		}
	}
}
