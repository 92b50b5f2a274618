// Package watchdog implements a cooperative software watchdog for the
// activities of a long-running daemon.
// Activities register with a name and a heartbeat timeout and then
// periodically assert liveness through Heartbeat.
// A single checker pass evaluates the elapsed time since each activity's
// last heartbeat and drives a per-activity health state machine,
// invoking a recovery callback once per unresponsive episode.
package watchdog
