package monitor

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// minProgressDelta is the smallest position movement accepted as a listening
// sample. Sub-second wobble between polls is jitter, not listening.
const minProgressDelta = time.Second

// DefaultSkipThreshold is the completion boundary: a track abandoned before
// this fraction of its duration counts as skipped.
const DefaultSkipThreshold = 0.8

// Accountant tracks the lifecycle of the single currently-playing track.
// At most one playback is open at any time.
type Accountant struct {
	skipThreshold float64
	current       *track.Playback
	lastSample    time.Duration
}

// NewAccountant creates a track accountant. The skip threshold must be in
// (0, 1]; pass DefaultSkipThreshold for the standard 80% rule.
func NewAccountant(skipThreshold float64) (*Accountant, error) {
	if skipThreshold <= 0 || skipThreshold > 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "skip threshold %v out of range (0, 1]", skipThreshold)
	}
	return &Accountant{skipThreshold: skipThreshold}, nil
}

// Current returns the open playback, or nil.
func (a *Accountant) Current() *track.Playback {
	return a.current
}

// StartTrack finalizes any open playback at its last known position, then
// opens a new one for t. Returns the new playback and the finalized previous
// one (nil when none was open).
func (a *Accountant) StartTrack(t track.Track, now time.Time) (started, finalized *track.Playback) {
	if a.current != nil {
		finalized = a.Finalize(a.current.LastPosition, now)
	}
	a.current = track.NewPlayback(t, now)
	a.lastSample = 0
	return a.current, finalized
}

// RecordProgress feeds a position observation into the open playback.
// The last known position always updates, but listening time only moves
// when the position changed by at least minProgressDelta since the last
// accepted sample.
func (a *Accountant) RecordProgress(pos time.Duration, now time.Time) {
	if a.current == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	a.current.LastPosition = pos

	delta := pos - a.lastSample
	if delta < 0 {
		delta = -delta
	}
	if delta < minProgressDelta {
		return
	}
	a.lastSample = pos

	listened := pos
	if d := a.current.Track.Duration; d > 0 && listened > d {
		listened = d
	}
	a.current.Listened = listened
}

// Finalize closes the open playback at the given final position and applies
// the skip rule: skipped iff finalPos < skipThreshold * duration (landing
// exactly on the threshold is a completion). The returned playback is frozen;
// nothing mutates it afterwards.
func (a *Accountant) Finalize(finalPos time.Duration, now time.Time) *track.Playback {
	if a.current == nil {
		return nil
	}
	a.RecordProgress(finalPos, now)

	p := a.current
	a.current = nil
	a.lastSample = 0

	end := now
	p.EndedAt = &end
	threshold := time.Duration(float64(p.Track.Duration) * a.skipThreshold)
	p.Skipped = p.Track.Duration > 0 && finalPos < threshold
	p.Completed = !p.Skipped
	return p
}
