// Package player provides the observation types reported by a player
// snapshot provider.
package player

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// Boundary errors reported by snapshot providers.
var (
	// ErrAuthorizationRequired means the provider has lost (or never had)
	// permission to read the player. Fatal until re-authorized.
	ErrAuthorizationRequired = errors.New("player authorization required")

	// ErrUnavailable means the provider could not be reached. Transient.
	ErrUnavailable = errors.New("player unavailable")
)

// Phase represents the observed playback phase.
type Phase int

const (
	PhaseStopped Phase = iota // Nothing playing
	PhasePlaying              // Track is playing
	PhasePaused               // Track is paused
	PhaseInterrupted          // Playback interrupted by the host audio session
	PhaseSeekingForward       // User is seeking forward
	PhaseSeekingBackward      // User is seeking backward
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseInterrupted:
		return "interrupted"
	case PhaseSeekingForward:
		return "seeking_forward"
	case PhaseSeekingBackward:
		return "seeking_backward"
	default:
		return "unknown"
	}
}

// Active reports whether the phase counts as listening activity.
// Seeking is active: the player is still engaged with the track.
func (p Phase) Active() bool {
	switch p {
	case PhasePlaying, PhaseSeekingForward, PhaseSeekingBackward:
		return true
	default:
		return false
	}
}

// Snapshot is one poll-time observation of the player.
// It is a transient value owned by no one.
type Snapshot struct {
	Phase      Phase
	Track      *track.Track // nil when nothing is loaded
	Position   time.Duration
	ObservedAt time.Time
}
