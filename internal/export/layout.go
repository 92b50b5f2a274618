// internal/export/layout.go
package export

import "github.com/tamzrod/watchguard/internal/watchdog"

// Status Block layout constants.
// These values define the register protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// RegsPerBlock is the fixed number of registers per block.
// Block 0 is the global header; block 1+N belongs to activity slot N.
const RegsPerBlock = 20

// ---- HEADER REGISTERS (block 0) ----

const (
	HdrEnabled         = 0 // 1 when the checker is enabled
	HdrSlotsUsed       = 1
	HdrChecksLo        = 2 // low 16 bits of checks performed
	HdrChecksHi        = 3
	HdrTotalTimeouts   = 4
	HdrTotalRecoveries = 5
)

// ---- ACTIVITY REGISTERS (blocks 1+) ----

const (
	RegStateCode      = 0
	RegTimeoutCount   = 1
	RegHeartbeatLo    = 2 // low 16 bits of heartbeat count
	RegHeartbeatHi    = 3
	RegElapsedSeconds = 4 // seconds since last heartbeat, saturating
	RegRecoveryCount  = 5
)

// Registers 6-7 are reserved for future use.

// RegNameStart is the first register of the packed activity name.
// The name always lives at the end of the block.
const RegNameStart = 8

// RegNameSlots is the number of registers reserved for the name.
const RegNameSlots = 12

// NameMaxChars is the maximum number of ASCII characters stored.
const NameMaxChars = 2 * RegNameSlots

// ---- STATE CODES ----

// Wire state codes are pinned independently of the in-memory enum.
const (
	CodeIdle         uint16 = 0
	CodeHealthy      uint16 = 1
	CodeWarning      uint16 = 2
	CodeUnresponsive uint16 = 3
	CodeRecovered    uint16 = 4
)

func stateCode(s watchdog.State) uint16 {
	switch s {
	case watchdog.StateHealthy:
		return CodeHealthy
	case watchdog.StateWarning:
		return CodeWarning
	case watchdog.StateUnresponsive:
		return CodeUnresponsive
	case watchdog.StateRecovered:
		return CodeRecovered
	default:
		return CodeIdle
	}
}

// encodeEntry converts an activity snapshot into a full status block.
// No IO. No side effects.
func encodeEntry(e watchdog.EntrySnapshot) []uint16 {
	regs := make([]uint16, RegsPerBlock)

	regs[RegStateCode] = stateCode(e.State)
	regs[RegTimeoutCount] = saturate16(e.TimeoutCount)
	regs[RegHeartbeatLo] = uint16(e.HeartbeatCount)
	regs[RegHeartbeatHi] = uint16(e.HeartbeatCount >> 16)
	regs[RegElapsedSeconds] = saturate16(uint64(e.ElapsedMS / 1000))
	regs[RegRecoveryCount] = saturate16(e.RecoveryCount)

	name := encodeNameRegs(e.Name)
	copy(regs[RegNameStart:], name)

	return regs
}

// encodeHeader converts global counters into the header block.
func encodeHeader(g watchdog.GlobalSnapshot) []uint16 {
	regs := make([]uint16, RegsPerBlock)

	if g.Enabled {
		regs[HdrEnabled] = 1
	}
	regs[HdrSlotsUsed] = uint16(g.SlotsUsed)
	regs[HdrChecksLo] = uint16(g.ChecksPerformed)
	regs[HdrChecksHi] = uint16(g.ChecksPerformed >> 16)
	regs[HdrTotalTimeouts] = saturate16(g.TotalTimeouts)
	regs[HdrTotalRecoveries] = saturate16(g.TotalRecoveries)

	return regs
}

// encodeNameRegs packs ASCII characters into registers, two bytes
// per register in big-endian order.
func encodeNameRegs(name string) []uint16 {
	out := make([]uint16, RegNameSlots)

	b := []byte(name)
	if len(b) > NameMaxChars {
		b = b[:NameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// saturate16 clamps a counter to the register range.
// Counters MUST NOT wrap on the wire.
func saturate16(v uint64) uint16 {
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
