package monitor

import (
	"context"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/player"
)

// SnapshotProvider yields the current player observation on demand.
// Poll must return quickly; it is called once per engine tick.
type SnapshotProvider interface {
	Poll(ctx context.Context) (*player.Snapshot, error)
}

// GrantSignal is a background-execution grant lifecycle signal.
type GrantSignal int

const (
	GrantStarted  GrantSignal = iota // A bounded run window began
	GrantExpiring                    // The window is about to be revoked
)

// String returns the string representation of the signal.
func (g GrantSignal) String() string {
	switch g {
	case GrantStarted:
		return "grant_started"
	case GrantExpiring:
		return "grant_expiring"
	default:
		return "unknown"
	}
}

// GrantNotifier delivers execution-grant signals from the host. The engine
// never decides when it is allowed to run; it only reacts to these signals.
type GrantNotifier interface {
	Signals() <-chan GrantSignal
}
