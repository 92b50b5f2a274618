// internal/watchdog/state.go
package watchdog

// State is the health state of one monitored activity.
type State uint8

const (
	// StateIdle means the activity is registered but has not yet been
	// evaluated or sent a heartbeat. Also returned for invalid slots,
	// so callers cannot distinguish "really idle" from "no such slot"
	// through State() alone.
	StateIdle State = iota

	// StateHealthy means a heartbeat arrived within the timeout.
	StateHealthy

	// StateWarning means more than 75% of the timeout has elapsed.
	StateWarning

	// StateUnresponsive means the full timeout elapsed; recovery pending.
	StateUnresponsive

	// StateRecovered means the recovery callback has run for this episode.
	StateRecovered
)

var stateNames = [...]string{
	StateIdle:         "IDLE",
	StateHealthy:      "HEALTHY",
	StateWarning:      "WARNING",
	StateUnresponsive: "UNRESPONSIVE",
	StateRecovered:    "RECOVERED",
}

func (s State) String() string {
	if int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// MarshalText renders the state name, so snapshots serialize readably.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
