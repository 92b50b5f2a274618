// internal/export/exporter.go
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tamzrod/watchguard/internal/watchdog"
)

// EndpointClient is the delivery contract for status registers.
// It receives register values and writes them verbatim.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Config describes one export destination.
type Config struct {
	UnitID   uint8
	BaseSlot int // register address of block 0 is BaseSlot * RegsPerBlock
}

// Exporter mirrors watchdog state into a remote register map so
// PLCs and HMIs can read activity health without speaking HTTP.
// It keeps no memory of the past beyond the last delivered block.
type Exporter struct {
	log  *slog.Logger
	cli  EndpointClient
	wd   *watchdog.Watchdog
	unit uint8
	base uint16

	needFull bool
	last     map[int][]uint16 // keyed by snapshot slot index
	lastHdr  []uint16
}

// New builds an exporter bound to a connected client.
func New(cfg Config, cli EndpointClient, wd *watchdog.Watchdog, log *slog.Logger) *Exporter {
	return &Exporter{
		log:      log.With("module", "export"),
		cli:      cli,
		wd:       wd,
		unit:     cfg.UnitID,
		base:     uint16(cfg.BaseSlot) * RegsPerBlock,
		needFull: true, // full re-assert on first write
		last:     make(map[int][]uint16),
	}
}

// Export delivers the current watchdog snapshot.
// On any write failure the next call re-asserts every block, so a
// rebooted endpoint always converges to the full picture.
func (e *Exporter) Export() error {
	if e.cli == nil {
		return errors.New("export: missing endpoint client")
	}

	snap := e.wd.Snapshot()
	hdr := encodeHeader(snap.Global)

	if e.needFull {
		if err := e.writeFull(hdr, snap.Entries); err != nil {
			e.needFull = true
			return err
		}
		e.needFull = false
		return nil
	}

	var errs []string

	if err := e.writeChanged(e.base, e.lastHdr, hdr); err != nil {
		errs = append(errs, fmt.Sprintf("header: %v", err))
	} else {
		e.lastHdr = hdr
	}

	for _, entry := range snap.Entries {
		regs := encodeEntry(entry)
		addr := e.blockAddr(entry.Slot)

		prev, seen := e.last[entry.Slot]
		if !seen {
			// Activity registered after the last full assert.
			if err := e.cli.WriteRegisters(e.unit, addr, regs); err != nil {
				errs = append(errs, fmt.Sprintf("slot %d: %v", entry.Slot, err))
				continue
			}
			e.last[entry.Slot] = regs
			continue
		}

		if err := e.writeChanged(addr, prev, regs); err != nil {
			errs = append(errs, fmt.Sprintf("slot %d: %v", entry.Slot, err))
			continue
		}
		e.last[entry.Slot] = regs
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt. Re-assert on next call.
		e.needFull = true
		return errors.New("export: " + strings.Join(errs, " | "))
	}

	return nil
}

func (e *Exporter) writeFull(hdr []uint16, entries []watchdog.EntrySnapshot) error {
	if err := e.cli.WriteRegisters(e.unit, e.base, hdr); err != nil {
		return fmt.Errorf("export: header block write failed: %w", err)
	}
	e.lastHdr = hdr

	e.last = make(map[int][]uint16, len(entries))
	for _, entry := range entries {
		regs := encodeEntry(entry)
		if err := e.cli.WriteRegisters(e.unit, e.blockAddr(entry.Slot), regs); err != nil {
			return fmt.Errorf("export: block write failed for slot %d: %w", entry.Slot, err)
		}
		e.last[entry.Slot] = regs
	}
	return nil
}

// writeChanged writes only the registers that differ from the last
// delivered block, one register at a time.
func (e *Exporter) writeChanged(addr uint16, prev, next []uint16) error {
	if len(prev) != len(next) {
		return e.cli.WriteRegisters(e.unit, addr, next)
	}
	for i := range next {
		if prev[i] == next[i] {
			continue
		}
		if err := e.cli.WriteRegisters(e.unit, addr+uint16(i), []uint16{next[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) blockAddr(slot int) uint16 {
	// Block 0 is the header; activity slot N owns block 1+N.
	return e.base + uint16(1+slot)*RegsPerBlock
}
