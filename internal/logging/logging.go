// Package logging sets up the run logger: human-readable lines on stderr
// mirrored to a timestamped file under the log directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Run is the logger for one command invocation.
type Run struct {
	Logger *log.Logger
	ID     string
	Path   string // Log file path

	file    *os.File
	started time.Time
}

// Options configures a run logger.
type Options struct {
	Dir    string    // Directory for log files; created if missing
	Prefix string    // File name prefix, e.g. "spotify_releases"
	Level  string    // debug, info, warn or error
	Stderr io.Writer // Console output; defaults to os.Stderr
	Now    func() time.Time
}

// Open creates <Dir>/<Prefix>_YYYYMMDD_HHMMSS.log and a logger writing to
// both it and the console. Every line carries the run ID.
func Open(opts Options) (*Run, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Level == "" {
		opts.Level = "info"
	}

	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	started := opts.Now()
	path := filepath.Join(opts.Dir, FileName(opts.Prefix, started))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	id := uuid.New().String()
	logger := log.NewWithOptions(io.MultiWriter(opts.Stderr, file), log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	}).With("run", id[:8])

	return &Run{
		Logger:  logger,
		ID:      id,
		Path:    path,
		file:    file,
		started: started,
	}, nil
}

// FileName returns the log file name for a run started at t.
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.log", prefix, t.Format("20060102_150405"))
}

// Elapsed returns the time since the run started, formatted by FormatElapsed.
func (r *Run) Elapsed(now time.Time) string {
	return FormatElapsed(now.Sub(r.started))
}

// Close flushes and closes the log file.
func (r *Run) Close() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// FormatElapsed renders d as "5s", "1m 5s" or "1h 1m 5s", truncated to
// whole seconds.
func FormatElapsed(d time.Duration) string {
	secs := int(d.Truncate(time.Second).Seconds())
	if secs < 0 {
		secs = 0
	}

	h, m, s := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
