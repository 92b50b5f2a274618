// internal/ringlog/ringlog_test.go
package ringlog_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/watchguard/internal/ringlog"
)

func TestAppend_OverwritesOldest(t *testing.T) {
	t.Parallel()

	b := ringlog.New(4, nil)

	for i := 0; i < 6; i++ {
		b.Append(slog.LevelInfo, "TEST", string(rune('a'+i)))
	}

	require.Equal(t, 4, b.Len())

	last := b.Last(-1)
	require.Len(t, last, 4)
	assert.Equal(t, "c", last[0].Message)
	assert.Equal(t, "f", last[3].Message)
	assert.Equal(t, uint64(2), last[0].Seq)

	stats := b.Stats()
	assert.Equal(t, uint64(6), stats.TotalMessages)
	assert.Equal(t, uint64(2), stats.DroppedMessages)
	assert.Equal(t, 4, stats.Capacity)
}

func TestLast_PartialAndOverflowRequests(t *testing.T) {
	t.Parallel()

	b := ringlog.New(8, nil)
	b.Append(slog.LevelInfo, "A", "one")
	b.Append(slog.LevelWarn, "B", "two")
	b.Append(slog.LevelError, "C", "three")

	last := b.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, "two", last[0].Message)
	assert.Equal(t, "three", last[1].Message)

	// Asking for more than buffered returns everything.
	assert.Len(t, b.Last(100), 3)
}

func TestMinLevel_FiltersAppends(t *testing.T) {
	t.Parallel()

	b := ringlog.New(8, nil)
	b.SetMinLevel(slog.LevelWarn)

	b.Append(slog.LevelDebug, "X", "dropped")
	b.Append(slog.LevelInfo, "X", "dropped")
	b.Append(slog.LevelWarn, "X", "kept")
	b.Append(slog.LevelError, "X", "kept")

	require.Equal(t, 2, b.Len())
	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.TotalMessages)
	assert.Equal(t, uint64(0), stats.DebugMessages)
	assert.Equal(t, uint64(1), stats.WarnMessages)
	assert.Equal(t, uint64(1), stats.ErrorMessages)
}

func TestSearch_MatchesMessageAndModule(t *testing.T) {
	t.Parallel()

	b := ringlog.New(8, nil)
	b.Append(slog.LevelInfo, "WDG", "registered activity sensor")
	b.Append(slog.LevelInfo, "SYS", "metrics refreshed")
	b.Append(slog.LevelWarn, "WDG", "sensor entering warning zone")

	require.Len(t, b.Search("sensor", 10), 2)
	require.Len(t, b.Search("WDG", 10), 2)
	require.Len(t, b.Search("sensor", 1), 1)
	require.Empty(t, b.Search("nomatch", 10))

	assert.Equal(t, 1, b.CountByLevel(slog.LevelWarn))
	assert.Equal(t, 2, b.CountByLevel(slog.LevelInfo))
}

func TestClear_KeepsCounters(t *testing.T) {
	t.Parallel()

	b := ringlog.New(8, nil)
	b.Append(slog.LevelInfo, "X", "one")
	b.Append(slog.LevelInfo, "X", "two")

	b.Clear()

	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Last(-1))
	assert.Equal(t, uint64(2), b.Stats().TotalMessages)
}

func TestHandler_CapturesSlogRecords(t *testing.T) {
	t.Parallel()

	b := ringlog.New(16, nil)
	log := slog.New(ringlog.NewHandler(b))

	log.Info("plain message")
	log.Warn("tagged", "module", "WDG", "slot", 3)
	log.With("module", "SYS").Error("preset module", "detail", "x")

	entries := b.Last(-1)
	require.Len(t, entries, 3)

	assert.Equal(t, "plain message", entries[0].Message)
	assert.Equal(t, "", entries[0].Module)

	assert.Equal(t, "WDG", entries[1].Module)
	assert.Contains(t, entries[1].Message, "tagged")
	assert.Contains(t, entries[1].Message, "slot=3")

	assert.Equal(t, "SYS", entries[2].Module)
	assert.Contains(t, entries[2].Message, "detail=x")
	assert.Equal(t, slog.LevelError, entries[2].Level)
}

func TestHandler_RespectsBufferMinLevel(t *testing.T) {
	t.Parallel()

	b := ringlog.New(16, nil)
	b.SetMinLevel(slog.LevelInfo)
	log := slog.New(ringlog.NewHandler(b))

	log.Debug("invisible")
	log.Info("visible")

	entries := b.Last(-1)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0].Message)
}

func TestFanout_ForwardsToAllHandlers(t *testing.T) {
	t.Parallel()

	b1 := ringlog.New(8, nil)
	b2 := ringlog.New(8, nil)
	log := slog.New(ringlog.Fanout(ringlog.NewHandler(b1), ringlog.NewHandler(b2)))

	log.Info("both")

	require.Equal(t, 1, b1.Len())
	require.Equal(t, 1, b2.Len())
}
