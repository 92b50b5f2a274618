// internal/ringlog/ringlog.go

// Package ringlog provides a bounded in-memory log buffer with level
// filtering and query support, exposed to slog through Handler.
// The newest entries overwrite the oldest once the buffer is full.
package ringlog

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the buffer size when New is given a non-positive one.
const DefaultCapacity = 64

// Entry is one buffered log record.
type Entry struct {
	Seq         uint64     `json:"seq"`
	TimestampMS int64      `json:"t"`
	Level       slog.Level `json:"level"`
	Module      string     `json:"module"`
	Message     string     `json:"msg"`
}

// Stats are the aggregate buffer counters.
type Stats struct {
	Buffered         int    `json:"buffered"`
	Capacity         int    `json:"capacity"`
	TotalMessages    uint64 `json:"total_messages"`
	DroppedMessages  uint64 `json:"dropped_messages"`
	DebugMessages    uint64 `json:"debug_messages"`
	InfoMessages     uint64 `json:"info_messages"`
	WarnMessages     uint64 `json:"warn_messages"`
	ErrorMessages    uint64 `json:"error_messages"`
	QueriesPerformed uint64 `json:"queries_performed"`
}

// Buffer is a fixed-size circular log store.
// All access is serialized through one mutex.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	head     int
	count    int
	nextSeq  uint64
	minLevel slog.Level
	clock    func() int64

	total   uint64
	dropped uint64
	byLevel map[slog.Level]uint64
	queries uint64
}

// New builds a Buffer of the given capacity.
// clock returns milliseconds since an arbitrary epoch; nil anchors a
// monotonic clock at the moment of the call.
func New(capacity int, clock func() int64) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		start := time.Now()
		clock = func() int64 { return time.Since(start).Milliseconds() }
	}
	return &Buffer{
		entries:  make([]Entry, capacity),
		minLevel: slog.LevelDebug,
		clock:    clock,
		byLevel:  make(map[slog.Level]uint64),
	}
}

// Append stores one record, dropping the oldest entry when full.
// Records below the minimum level are discarded without accounting.
func (b *Buffer) Append(level slog.Level, module, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if level < b.minLevel {
		return
	}

	b.entries[b.head] = Entry{
		Seq:         b.nextSeq,
		TimestampMS: b.clock(),
		Level:       level,
		Module:      module,
		Message:     message,
	}
	b.nextSeq++

	b.head = (b.head + 1) % len(b.entries)
	if b.count < len(b.entries) {
		b.count++
	} else {
		b.dropped++
	}

	b.total++
	b.byLevel[bucket(level)]++
}

// SetMinLevel sets the minimum level accepted by Append.
func (b *Buffer) SetMinLevel(level slog.Level) {
	b.mu.Lock()
	b.minLevel = level
	b.mu.Unlock()
}

// MinLevel returns the current filter level.
func (b *Buffer) MinLevel() slog.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minLevel
}

// Clear discards all buffered entries. Counters are retained.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.head = 0
	b.count = 0
	b.mu.Unlock()
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Last returns up to n of the most recent entries, oldest first.
func (b *Buffer) Last(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queries++

	if n > b.count || n < 0 {
		n = b.count
	}

	out := make([]Entry, 0, n)
	start := b.start() + (b.count - n)
	for i := 0; i < n; i++ {
		out = append(out, b.entries[(start+i)%len(b.entries)])
	}
	return out
}

// Search returns up to max entries whose message or module contains
// keyword, oldest first. The match is case-sensitive.
func (b *Buffer) Search(keyword string, max int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queries++

	var out []Entry
	start := b.start()
	for i := 0; i < b.count && len(out) < max; i++ {
		e := b.entries[(start+i)%len(b.entries)]
		if strings.Contains(e.Message, keyword) || strings.Contains(e.Module, keyword) {
			out = append(out, e)
		}
	}
	return out
}

// CountByLevel returns the number of buffered entries at exactly level.
func (b *Buffer) CountByLevel(level slog.Level) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	start := b.start()
	for i := 0; i < b.count; i++ {
		if b.entries[(start+i)%len(b.entries)].Level == level {
			n++
		}
	}
	return n
}

// Stats returns the aggregate counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Buffered:         b.count,
		Capacity:         len(b.entries),
		TotalMessages:    b.total,
		DroppedMessages:  b.dropped,
		DebugMessages:    b.byLevel[slog.LevelDebug],
		InfoMessages:     b.byLevel[slog.LevelInfo],
		WarnMessages:     b.byLevel[slog.LevelWarn],
		ErrorMessages:    b.byLevel[slog.LevelError],
		QueriesPerformed: b.queries,
	}
}

// start is the ring index of the oldest entry. Callers must hold b.mu.
func (b *Buffer) start() int {
	return (b.head - b.count + len(b.entries)) % len(b.entries)
}

// bucket folds custom levels into the four standard counters.
func bucket(level slog.Level) slog.Level {
	switch {
	case level >= slog.LevelError:
		return slog.LevelError
	case level >= slog.LevelWarn:
		return slog.LevelWarn
	case level >= slog.LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
