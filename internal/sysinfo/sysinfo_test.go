// internal/sysinfo/sysinfo_test.go
package sysinfo_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/watchguard/internal/sysinfo"
)

func TestRefresh_PopulatesSnapshot(t *testing.T) {
	t.Parallel()

	var ms atomic.Int64
	ms.Store(1234)

	c := sysinfo.New(sysinfo.Config{
		Version: "1.2.0",
		Clock:   func() int64 { return ms.Load() },
	}, slogt.New(t))

	// Before the first refresh the snapshot is zero.
	require.Zero(t, c.Snapshot().RefreshCount)

	c.Refresh()

	snap := c.Snapshot()
	assert.Equal(t, int64(1234), snap.UptimeMS)
	assert.Equal(t, "1.2.0", snap.Version)
	assert.NotEmpty(t, snap.GoVersion)
	assert.Positive(t, snap.Goroutines)
	assert.Positive(t, snap.HeapAlloc)
	assert.Equal(t, uint64(1), snap.RefreshCount)

	ms.Store(5678)
	c.Refresh()
	snap = c.Snapshot()
	assert.Equal(t, int64(5678), snap.UptimeMS)
	assert.Equal(t, uint64(2), snap.RefreshCount)
}

func TestRun_RefreshesAndBeats(t *testing.T) {
	t.Parallel()

	c := sysinfo.New(sysinfo.Config{
		RefreshInterval: 5 * time.Millisecond,
	}, slogt.New(t))

	var beats atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, func() { beats.Add(1) })
	}()

	require.Eventually(t, func() bool {
		return c.Snapshot().RefreshCount >= 3 && beats.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
