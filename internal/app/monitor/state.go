// Package monitor provides the playback-monitoring engine: poll-based
// change detection, per-track accounting, and session lifecycle tracking.
package monitor

// State represents the engine state.
type State int

const (
	StateNotMonitoring    State = iota // Engine is stopped
	StateMonitoring                    // Poll loop is running
	StateMonitoringPaused              // Poll loop is suspended, tracker state retained
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotMonitoring:
		return "not_monitoring"
	case StateMonitoring:
		return "monitoring"
	case StateMonitoringPaused:
		return "monitoring_paused"
	default:
		return "unknown"
	}
}

// SessionState represents the session lifecycle state.
type SessionState int

const (
	SessionIdle   SessionState = iota // No session yet
	SessionActive                     // Session is accumulating activity
	SessionPaused                     // Session open but playback paused
	SessionEnded                      // Session finalized; next activity starts fresh
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionActive:
		return "active"
	case SessionPaused:
		return "paused"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}
