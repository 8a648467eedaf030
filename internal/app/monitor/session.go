package monitor

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// Session policy defaults.
const (
	DefaultSessionGap         = 30 * time.Second
	DefaultMinSessionDuration = 10 * time.Second
)

// SessionTracker owns the session lifecycle: Idle -> Active -> {Paused <->
// Active} -> Ended. It routes track activity through the accountant so that
// at most one playback is ever open, and finalizes sessions into immutable
// records.
type SessionTracker struct {
	accountant  *Accountant
	gap         time.Duration
	minDuration time.Duration

	state        SessionState
	id           string
	startTime    time.Time
	lastActivity time.Time
	metrics      session.Metrics
	tracks       []track.Playback
}

// NewSessionTracker creates a session tracker over the given accountant.
// Zero durations select the defaults; negative values are rejected.
func NewSessionTracker(acc *Accountant, gap, minDuration time.Duration) (*SessionTracker, error) {
	if gap < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "session gap %v is negative", gap)
	}
	if minDuration < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "minimum session duration %v is negative", minDuration)
	}
	if gap == 0 {
		gap = DefaultSessionGap
	}
	if minDuration == 0 {
		minDuration = DefaultMinSessionDuration
	}
	return &SessionTracker{
		accountant:  acc,
		gap:         gap,
		minDuration: minDuration,
		state:       SessionIdle,
	}, nil
}

// State returns the current session state.
func (s *SessionTracker) State() SessionState {
	return s.state
}

// ID returns the current session id, or empty before the first session.
func (s *SessionTracker) ID() string {
	return s.id
}

// Open reports whether a session is in progress (active or paused).
func (s *SessionTracker) Open() bool {
	return s.state == SessionActive || s.state == SessionPaused
}

// NeedsNewSession implements the session-boundary rule: a fresh session is
// needed when no session is open, or when the elapsed time since the last
// activity exceeds the gap. Elapsed time exactly equal to the gap still
// belongs to the same session.
func (s *SessionTracker) NeedsNewSession(now time.Time) bool {
	if !s.Open() {
		return true
	}
	return now.Sub(s.lastActivity) > s.gap
}

// Start begins a new session, resetting metrics and assigning a new id.
// Any previous session must already have been ended.
func (s *SessionTracker) Start(now time.Time) {
	s.id = uuid.New().String()
	s.startTime = now
	s.lastActivity = now
	s.metrics.Reset()
	s.tracks = nil
	s.state = SessionActive
}

// Touch records listening activity for gap detection.
func (s *SessionTracker) Touch(now time.Time) {
	if s.Open() {
		s.lastActivity = now
	}
}

// StartTrack opens a playback for t, finalizing any previous one first.
// Returns the new playback and the finalized outgoing one (nil when none).
func (s *SessionTracker) StartTrack(t track.Track, now time.Time) (started, finalized *track.Playback) {
	started, finalized = s.accountant.StartTrack(t, now)
	if finalized != nil {
		s.fold(finalized)
	}
	s.lastActivity = now
	return started, finalized
}

// FinalizeCurrent finalizes the open playback at its last known position and
// folds it into the session. Returns nil when no playback is open.
func (s *SessionTracker) FinalizeCurrent(now time.Time) *track.Playback {
	cur := s.accountant.Current()
	if cur == nil {
		return nil
	}
	p := s.accountant.Finalize(cur.LastPosition, now)
	s.fold(p)
	return p
}

// Pause transitions Active -> Paused, finalizing the open playback first so
// that paused time is never attributed to a track.
func (s *SessionTracker) Pause(now time.Time) *track.Playback {
	if s.state != SessionActive {
		return nil
	}
	finalized := s.FinalizeCurrent(now)
	s.lastActivity = now
	s.state = SessionPaused
	return finalized
}

// Resume transitions Paused -> Active. No playback is reopened; the next
// observed track change starts a fresh one.
func (s *SessionTracker) Resume(now time.Time) {
	if s.state == SessionPaused {
		s.state = SessionActive
	}
}

// End finalizes any open playback and the session itself, producing the
// immutable record. The tracker becomes eligible for a new Start afterwards.
// Returns nil when no session is open.
func (s *SessionTracker) End(now time.Time) (*session.Record, *track.Playback) {
	if !s.Open() {
		return nil, nil
	}
	finalized := s.FinalizeCurrent(now)
	rec := session.NewRecord(s.id, s.startTime, now, s.metrics, s.tracks, s.minDuration)
	s.tracks = nil
	s.state = SessionEnded
	return rec, finalized
}

func (s *SessionTracker) fold(p *track.Playback) {
	s.tracks = append(s.tracks, *p)
	s.metrics.AddPlayback(p)
}
