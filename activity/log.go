package activity

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// MaxEntries bounds the in-memory history shown in the log window
const MaxEntries = 500

// Entry is one line of the operation log
type Entry struct {
	ID      string
	Time    time.Time
	Level   log.Level
	Message string
}

// String formats the entry the way the log window shows it
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
}

// Log is the append-only record of operations and failures.
// It is the only error channel the user sees.
type Log struct {
	mu          sync.Mutex
	logger      *log.Logger
	entries     []Entry
	subscribers []func(Entry)
}

// NewLogger builds the structured logger that backs a Log
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "autoexec",
		Level:           lvl,
	}), nil
}

// New creates a Log writing through logger. A nil logger discards output.
func New(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Log{logger: logger}
}

// Debug records a debug entry
func (l *Log) Debug(msg string, keyvals ...interface{}) {
	l.append(log.DebugLevel, msg, keyvals)
}

// Info records an informational entry
func (l *Log) Info(msg string, keyvals ...interface{}) {
	l.append(log.InfoLevel, msg, keyvals)
}

// Warn records a warning
func (l *Log) Warn(msg string, keyvals ...interface{}) {
	l.append(log.WarnLevel, msg, keyvals)
}

// Error records a failure
func (l *Log) Error(msg string, keyvals ...interface{}) {
	l.append(log.ErrorLevel, msg, keyvals)
}

// Entries returns a snapshot of the history, oldest first
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Subscribe registers fn to be called after every new entry.
// fn runs on the goroutine that logged, so UI code must marshal it.
func (l *Log) Subscribe(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

func (l *Log) append(level log.Level, msg string, keyvals []interface{}) {
	switch level {
	case log.DebugLevel:
		l.logger.Debug(msg, keyvals...)
	case log.WarnLevel:
		l.logger.Warn(msg, keyvals...)
	case log.ErrorLevel:
		l.logger.Error(msg, keyvals...)
	default:
		l.logger.Info(msg, keyvals...)
	}

	// Debug noise stays out of the user-visible history
	if level < l.logger.GetLevel() {
		return
	}

	entry := Entry{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Level:   level,
		Message: formatMessage(msg, keyvals),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > MaxEntries {
		l.entries = append([]Entry(nil), l.entries[len(l.entries)-MaxEntries:]...)
	}
	subscribers := make([]func(Entry), len(l.subscribers))
	copy(subscribers, l.subscribers)
	l.mu.Unlock()

	for _, fn := range subscribers {
		fn(entry)
	}
}

func formatMessage(msg string, keyvals []interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keyvals); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, "%v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, "%v", keyvals[i])
		}
	}
	return b.String()
}
