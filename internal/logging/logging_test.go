package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{5 * time.Second, "5s"},
		{5*time.Second + 900*time.Millisecond, "5s"},
		{65 * time.Second, "1m 5s"},
		{time.Hour + time.Minute + 5*time.Second, "1h 1m 5s"},
		{2 * time.Hour, "2h 0m 0s"},
		{-time.Second, "0s"},
	}

	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName("spotify_releases", time.Date(2026, 1, 28, 9, 5, 3, 0, time.UTC))
	if want := "spotify_releases_20260128_090503.log"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestOpen_WritesToConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	started := time.Date(2026, 1, 28, 9, 5, 3, 0, time.UTC)
	var console bytes.Buffer

	run, err := Open(Options{
		Dir:    dir,
		Prefix: "smart_playlists",
		Level:  "info",
		Stderr: &console,
		Now:    func() time.Time { return started },
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	run.Logger.Info("hello", "tracks", 3)
	run.Logger.Debug("hidden")
	if err := run.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if want := filepath.Join(dir, "smart_playlists_20260128_090503.log"); run.Path != want {
		t.Errorf("Path = %q, want %q", run.Path, want)
	}

	data, err := os.ReadFile(run.Path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	for name, out := range map[string]string{"console": console.String(), "file": string(data)} {
		if !strings.Contains(out, "hello") || !strings.Contains(out, "tracks=3") {
			t.Errorf("%s output missing line: %q", name, out)
		}
		if !strings.Contains(out, run.ID[:8]) {
			t.Errorf("%s output missing run ID: %q", name, out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("%s output contains debug line", name)
		}
	}

	if got := run.Elapsed(started.Add(65 * time.Second)); got != "1m 5s" {
		t.Errorf("Elapsed() = %q, want 1m 5s", got)
	}
}

func TestOpen_BadLevel(t *testing.T) {
	if _, err := Open(Options{Dir: t.TempDir(), Prefix: "x", Level: "loud"}); err == nil {
		t.Error("Open() with bad level succeeded")
	}
}
