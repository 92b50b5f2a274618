// internal/export/exporter_test.go
package export

import (
	"errors"
	"testing"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/tamzrod/watchguard/internal/watchdog"
)

// ---- FAKE CLIENT ----

type write struct {
	unit uint8
	addr uint16
	regs []uint16
}

type fakeEndpointClient struct {
	writes  []write
	failAll bool
}

func (c *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if c.failAll {
		return errors.New("fake: write refused")
	}
	cp := make([]uint16, len(regs))
	copy(cp, regs)
	c.writes = append(c.writes, write{unit: unitID, addr: addr, regs: cp})
	return nil
}

func (c *fakeEndpointClient) reset() { c.writes = nil }

// regAt returns the last value written to addr, searching newest first.
func (c *fakeEndpointClient) regAt(addr uint16) (uint16, bool) {
	for i := len(c.writes) - 1; i >= 0; i-- {
		w := c.writes[i]
		if addr >= w.addr && int(addr-w.addr) < len(w.regs) {
			return w.regs[addr-w.addr], true
		}
	}
	return 0, false
}

// ---- HELPERS ----

func newExporterUnderTest(t *testing.T) (*Exporter, *fakeEndpointClient, *watchdog.Watchdog, func(ms int64)) {
	t.Helper()

	var now int64
	clock := func() int64 { return now }
	advance := func(ms int64) { now += ms }

	wd := watchdog.New(watchdog.Config{Clock: clock}, slogt.New(t))
	cli := &fakeEndpointClient{}
	ex := New(Config{UnitID: 1, BaseSlot: 0}, cli, wd, slogt.New(t))

	return ex, cli, wd, advance
}

// ---- TESTS ----

func TestExport_FullAssertOnFirstCall(t *testing.T) {
	ex, cli, wd, _ := newExporterUnderTest(t)

	slot, err := wd.Register("conveyor", 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	wd.Heartbeat(slot)

	if err := ex.Export(); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}

	// Header block plus one activity block, each full width.
	if len(cli.writes) != 2 {
		t.Fatalf("expected 2 block writes, got %d", len(cli.writes))
	}
	for _, w := range cli.writes {
		if len(w.regs) != RegsPerBlock {
			t.Fatalf("expected full block (%d regs), got %d", RegsPerBlock, len(w.regs))
		}
		if w.unit != 1 {
			t.Fatalf("unexpected unit id %d", w.unit)
		}
	}

	blockAddr := uint16(1+int(slot)) * RegsPerBlock

	// Verify name encoding EXACTLY.
	expectedName := encodeNameRegs("conveyor")
	for i := 0; i < RegNameSlots; i++ {
		got, ok := cli.regAt(blockAddr + RegNameStart + uint16(i))
		if !ok || got != expectedName[i] {
			t.Fatalf("name reg %d mismatch: got=%d want=%d", i, got, expectedName[i])
		}
	}

	if got, _ := cli.regAt(blockAddr + RegStateCode); got != CodeHealthy {
		t.Fatalf("state code mismatch: got=%d want=%d", got, CodeHealthy)
	}
	if got, _ := cli.regAt(HdrSlotsUsed); got != 1 {
		t.Fatalf("header slots_used mismatch: got=%d", got)
	}
}

func TestExport_IncrementalWritesOnlyChangedRegisters(t *testing.T) {
	ex, cli, wd, advance := newExporterUnderTest(t)

	slot, err := wd.Register("conveyor", 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	wd.Heartbeat(slot)

	if err := ex.Export(); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}
	cli.reset()

	// Drive the slot into Warning.
	advance(150)
	wd.Check()

	if err := ex.Export(); err != nil {
		t.Fatalf("incremental export failed: %v", err)
	}

	for _, w := range cli.writes {
		if len(w.regs) != 1 {
			t.Fatalf("expected single-register writes, got %d regs at addr %d", len(w.regs), w.addr)
		}
		// The static name must never be rewritten incrementally.
		blockAddr := uint16(1+int(slot)) * RegsPerBlock
		if w.addr >= blockAddr+RegNameStart && w.addr < blockAddr+RegNameStart+RegNameSlots {
			t.Fatalf("name register %d rewritten on incremental update", w.addr)
		}
	}

	blockAddr := uint16(1+int(slot)) * RegsPerBlock
	if got, _ := cli.regAt(blockAddr + RegStateCode); got != CodeWarning {
		t.Fatalf("state code mismatch: got=%d want=%d", got, CodeWarning)
	}
}

func TestExport_FailureTriggersFullReassert(t *testing.T) {
	ex, cli, wd, advance := newExporterUnderTest(t)

	slot, err := wd.Register("conveyor", 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	wd.Heartbeat(slot)

	if err := ex.Export(); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}

	cli.failAll = true
	advance(150)
	wd.Check()
	if err := ex.Export(); err == nil {
		t.Fatalf("expected export failure")
	}

	cli.failAll = false
	cli.reset()
	if err := ex.Export(); err != nil {
		t.Fatalf("re-assert failed: %v", err)
	}

	// After a failure, every block comes back full width.
	for _, w := range cli.writes {
		if len(w.regs) != RegsPerBlock {
			t.Fatalf("expected full block re-assert, got %d regs", len(w.regs))
		}
	}
	if len(cli.writes) != 2 {
		t.Fatalf("expected 2 block writes, got %d", len(cli.writes))
	}
}

func TestExport_NewSlotAfterAssertGetsFullBlock(t *testing.T) {
	ex, cli, wd, _ := newExporterUnderTest(t)

	if _, err := wd.Register("first", 200*time.Millisecond, nil); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := ex.Export(); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}
	cli.reset()

	slot, err := wd.Register("second", 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := ex.Export(); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	blockAddr := uint16(1+int(slot)) * RegsPerBlock
	found := false
	for _, w := range cli.writes {
		if w.addr == blockAddr && len(w.regs) == RegsPerBlock {
			found = true
		}
	}
	if !found {
		t.Fatalf("newly registered slot did not receive a full block write")
	}
}

func TestSaturate16_Clamps(t *testing.T) {
	if got := saturate16(65535); got != 65535 {
		t.Fatalf("got %d", got)
	}
	if got := saturate16(70000); got != 65535 {
		t.Fatalf("counter wrapped: got %d", got)
	}
	if got := saturate16(7); got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestStateCode_Mapping(t *testing.T) {
	cases := map[watchdog.State]uint16{
		watchdog.StateIdle:         CodeIdle,
		watchdog.StateHealthy:      CodeHealthy,
		watchdog.StateWarning:      CodeWarning,
		watchdog.StateUnresponsive: CodeUnresponsive,
		watchdog.StateRecovered:    CodeRecovered,
	}
	for state, want := range cases {
		if got := stateCode(state); got != want {
			t.Fatalf("state %v: got=%d want=%d", state, got, want)
		}
	}
}
