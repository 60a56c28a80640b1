package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Severity classifies entries in a session Feed.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
	SeveritySystemInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityWarn:
		return "Warn"
	case SeverityError:
		return "Error"
	case SeveritySystemInfo:
		return "SystemInfo"
	default:
		return "Unknown"
	}
}

// Entry is a single line of the session log.
type Entry struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Severity, e.Text)
}

// FeedFileTimeLayout is the timestamp layout used in saved log file names (yyMMddHHmmss).
const FeedFileTimeLayout = "060102150405"

// FeedSubscriber receives the full ordered list of entries after every change.
type FeedSubscriber func(entries []Entry)

// Feed is the append-only in-game log. Every change pushes the complete
// entry list to all subscribers, not a diff.
type Feed struct {
	lock        sync.Mutex
	entries     []Entry
	subscribers map[int]FeedSubscriber
	nextID      int
	logger      *Logger
}

// NewFeed creates an empty Feed. Entries are mirrored to logger when it is non-nil,
// otherwise to the default logger.
func NewFeed(logger *Logger) *Feed {
	return &Feed{
		subscribers: make(map[int]FeedSubscriber),
		logger:      logger,
	}
}

func (f *Feed) Info(format string, args ...interface{}) {
	f.Append(SeverityInfo, format, args...)
}

func (f *Feed) Warn(format string, args ...interface{}) {
	f.Append(SeverityWarn, format, args...)
}

func (f *Feed) Error(format string, args ...interface{}) {
	f.Append(SeverityError, format, args...)
}

func (f *Feed) SystemInfo(format string, args ...interface{}) {
	f.Append(SeveritySystemInfo, format, args...)
}

// Append adds an entry and notifies subscribers with the full list.
func (f *Feed) Append(severity Severity, format string, args ...interface{}) {
	entry := Entry{Severity: severity, Text: fmt.Sprintf(format, args...)}
	f.mirror(entry)

	f.lock.Lock()
	f.entries = append(f.entries, entry)
	entries, subscribers := f.snapshotLocked()
	f.lock.Unlock()

	for _, fn := range subscribers {
		fn(entries)
	}
}

// Entries returns a copy of the current entries in order.
func (f *Feed) Entries() []Entry {
	f.lock.Lock()
	defer f.lock.Unlock()
	entries := make([]Entry, len(f.entries))
	copy(entries, f.entries)
	return entries
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.entries)
}

// Subscribe registers fn and returns a function that removes it.
func (f *Feed) Subscribe(fn FeedSubscriber) func() {
	f.lock.Lock()
	defer f.lock.Unlock()
	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn
	return func() {
		f.lock.Lock()
		defer f.lock.Unlock()
		delete(f.subscribers, id)
	}
}

// Clear drops all entries and notifies subscribers with an empty list.
func (f *Feed) Clear() {
	f.lock.Lock()
	f.entries = nil
	entries, subscribers := f.snapshotLocked()
	f.lock.Unlock()

	for _, fn := range subscribers {
		fn(entries)
	}
}

// Save writes the feed to dir/Log_<yyMMddHHmmss>.txt, one "[Severity] text"
// line per entry, and clears the feed. It returns the written path.
func (f *Feed) Save(dir string, now time.Time) (string, error) {
	entries := f.Entries()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %v", dir, err)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	path := filepath.Join(dir, fmt.Sprintf("Log_%s.txt", now.Format(FeedFileTimeLayout)))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write log file %s: %v", path, err)
	}

	f.Clear()
	return path, nil
}

func (f *Feed) snapshotLocked() ([]Entry, []FeedSubscriber) {
	entries := make([]Entry, len(f.entries))
	copy(entries, f.entries)
	subscribers := make([]FeedSubscriber, 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subscribers = append(subscribers, fn)
	}
	return entries, subscribers
}

func (f *Feed) mirror(entry Entry) {
	logger := f.logger
	if logger == nil {
		logger = getDefaultLogger()
	}
	switch entry.Severity {
	case SeverityError:
		logger.Error("%s", entry.Text)
	case SeverityWarn:
		logger.Warn("%s", entry.Text)
	case SeveritySystemInfo:
		logger.Debug("%s", entry.Text)
	default:
		logger.Info("%s", entry.Text)
	}
}
