package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// RunLog captures the audit trail of one upload run: timestamped, leveled
// lines retrievable as a slice or serialized to a plain-text artifact.
// It is an explicit instance threaded through the run, not a global
// interception of the process logger; every line is also forwarded to
// the structured logger so operators see the run live.
//
// Single writer: the pipeline is one cooperative pass, so the mutex only
// guards against a concurrent Export from the progress UI.
type RunLog struct {
	mu      sync.Mutex
	entries []LogEntry
	logger  *slog.Logger
}

// LogEntry is one captured log line.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// NewRunLog creates a run log forwarding to logger. A nil logger forwards
// to slog.Default().
func NewRunLog(logger *slog.Logger) *RunLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunLog{logger: logger}
}

// Infof records an info-level line.
func (l *RunLog) Infof(format string, args ...any) { l.append(slog.LevelInfo, format, args...) }

// Warnf records a warning-level line.
func (l *RunLog) Warnf(format string, args ...any) { l.append(slog.LevelWarn, format, args...) }

// Errorf records an error-level line.
func (l *RunLog) Errorf(format string, args ...any) { l.append(slog.LevelError, format, args...) }

func (l *RunLog) append(level slog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Time: time.Now(), Level: levelLabel(level), Message: msg})
	l.mu.Unlock()

	l.logger.Log(context.Background(), level, msg)
}

// levelLabel spells warnings out in full; the exported artifact keeps the
// label format earlier run logs were written with.
func levelLabel(level slog.Level) string {
	if level == slog.LevelWarn {
		return "WARNING"
	}
	return level.String()
}

// Entries returns a copy of the captured lines.
func (l *RunLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Export serializes the captured lines as the downloadable text artifact.
func (l *RunLog) Export() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.Time.Format("2006-01-02 15:04:05"))
		b.WriteString(" [")
		b.WriteString(e.Level)
		b.WriteString("] ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}
