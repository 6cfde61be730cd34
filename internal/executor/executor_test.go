package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	script := filepath.Join(dir, "bridge.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o700); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(plain, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "executable", path: script},
		{name: "empty path", path: "", wantErr: "empty"},
		{name: "missing", path: filepath.Join(dir, "nope"), wantErr: "not found"},
		{name: "directory", path: dir, wantErr: "not executable"},
		{name: "not executable", path: plain, wantErr: "not executable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if e.Path() != tt.path {
					t.Errorf("Path() = %q", e.Path())
				}
				e.Close()
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		runner  *mockRunner
		wantErr string
	}{
		{
			name:   "compatible",
			runner: &mockRunner{stdout: []byte(`{"name":"scene","version":"dev","protocol_version":"1.2.0"}`)},
		},
		{
			name:    "incompatible major",
			runner:  &mockRunner{stdout: []byte(`{"name":"scene","protocol_version":"2.0.0"}`)},
			wantErr: "incompatible major version",
		},
		{
			name:    "garbage output",
			runner:  &mockRunner{stdout: []byte("not json")},
			wantErr: "failed to parse host bridge info",
		},
		{
			name:    "failing bridge reports stderr",
			runner:  &mockRunner{stderr: []byte("scene missing\n"), err: errors.New("exit status 2")},
			wantErr: "scene missing",
		},
		{
			name:    "failing bridge without stderr",
			runner:  &mockRunner{err: errors.New("exit status 2")},
			wantErr: "exit status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New("/opt/bridge", WithRunner(tt.runner))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			info, err := e.Probe(context.Background())
			if tt.runner.lastPath != "/opt/bridge" || len(tt.runner.lastArgs) != 1 || tt.runner.lastArgs[0] != InfoFlag {
				t.Errorf("probe ran %s %v", tt.runner.lastPath, tt.runner.lastArgs)
			}
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Probe() error = %v", err)
				}
				if info.Name != "scene" {
					t.Errorf("Probe() name = %q", info.Name)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Probe() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestProbeHonoursCancellation(t *testing.T) {
	runner := &mockRunner{block: true}
	e, err := New("/opt/bridge", WithRunner(runner))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Probe(ctx); err == nil {
		t.Error("Probe() should fail when the context is cancelled")
	}
}

func TestHostFailsForNonPluginBinary(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bridge.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho not a plugin\nexit 1\n"), 0o700); err != nil {
		t.Fatal(err)
	}

	e, err := New(script)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	if _, err := e.Host(context.Background()); err == nil {
		t.Error("Host() should fail for a binary that does not speak go-plugin")
	}
}
