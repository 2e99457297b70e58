package framework

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level tags an activity entry for display.
type Level string

const (
	LevelInfo     Level = "info"
	LevelProgress Level = "progress"
	LevelSuccess  Level = "success"
	LevelError    Level = "error"
)

// ActivityEntry is a single timestamped line of the run's activity log.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// ActivityLog is the append-only log the presentation layer shows to the
// operator. It is safe for concurrent appends from fan-out goroutines and
// mirrors every entry into the structured logger. A nil *ActivityLog drops
// entries silently.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewActivityLog returns an empty log mirroring into logger (may be nil).
func NewActivityLog(logger *zap.Logger) *ActivityLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLog{logger: logger, now: time.Now}
}

// Add appends a message at the given level.
func (l *ActivityLog) Add(level Level, message string) {
	if l == nil {
		return
	}
	entry := ActivityEntry{Timestamp: l.now(), Message: message, Level: level}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	fields := []zap.Field{zap.String("level", string(level))}
	if level == LevelError {
		l.logger.Warn(message, fields...)
		return
	}
	l.logger.Info(message, fields...)
}

// Addf formats and appends a message.
func (l *ActivityLog) Addf(level Level, format string, args ...any) {
	l.Add(level, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the log in append order.
func (l *ActivityLog) Entries() []ActivityEntry {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries.
func (l *ActivityLog) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Count returns how many entries satisfy match.
func (l *ActivityLog) Count(match func(ActivityEntry) bool) int {
	n := 0
	for _, e := range l.Entries() {
		if match(e) {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the entries as a JSON array.
func (l *ActivityLog) MarshalJSON() ([]byte, error) {
	entries := l.Entries()
	if entries == nil {
		entries = []ActivityEntry{}
	}
	return json.Marshal(entries)
}

// snapshot returns a detached copy that no longer mirrors to the logger.
func (l *ActivityLog) snapshot() *ActivityLog {
	out := NewActivityLog(nil)
	out.entries = l.Entries()
	return out
}
