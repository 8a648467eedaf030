package monitor

import (
	"github.com/mitchellh/mapstructure"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/stats"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
)

// EventType represents the event type.
type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackEnded
	EventSessionStarted
	EventSessionEnded
	EventStatsUpdated
	EventErrorOccurred
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventSessionStarted:
		return "session_started"
	case EventSessionEnded:
		return "session_ended"
	case EventStatsUpdated:
		return "stats_updated"
	case EventErrorOccurred:
		return "error_occurred"
	default:
		return "unknown"
	}
}

// Event is one engine notification. Payload carries flat key-value context;
// structured results ride alongside so sinks need not re-parse them.
type Event struct {
	Type    EventType
	Payload map[string]any

	Record  *session.Record
	Weekly  *stats.Snapshot
	Monthly *stats.Snapshot
}

// TrackStartedPayload describes a newly opened playback.
type TrackStartedPayload struct {
	SessionID  string `mapstructure:"session_id"`
	TrackID    string `mapstructure:"track_id"`
	TrackName  string `mapstructure:"track_name"`
	Artist     string `mapstructure:"artist"`
	Album      string `mapstructure:"album"`
	DurationMS int64  `mapstructure:"duration_ms"`
}

// TrackEndedPayload describes a finalized playback.
type TrackEndedPayload struct {
	SessionID  string `mapstructure:"session_id"`
	TrackID    string `mapstructure:"track_id"`
	TrackName  string `mapstructure:"track_name"`
	ListenedMS int64  `mapstructure:"listened_ms"`
	Skipped    bool   `mapstructure:"skipped"`
}

// SessionStartedPayload describes a freshly opened session.
type SessionStartedPayload struct {
	SessionID string `mapstructure:"session_id"`
	StartedAt int64  `mapstructure:"started_at"`
}

// SessionEndedPayload summarizes a finalized session.
type SessionEndedPayload struct {
	SessionID  string `mapstructure:"session_id"`
	DurationMS int64  `mapstructure:"duration_ms"`
	SongCount  int    `mapstructure:"song_count"`
	PlayCount  int    `mapstructure:"play_count"`
	SkipCount  int    `mapstructure:"skip_count"`
	ListenedMS int64  `mapstructure:"listened_ms"`
	Valid      bool   `mapstructure:"valid"`
}

// StatsUpdatedPayload announces refreshed periodic snapshots.
type StatsUpdatedPayload struct {
	Sessions      int   `mapstructure:"sessions"`
	PlayTimeMS    int64 `mapstructure:"play_time_ms"`
	CurrentStreak int   `mapstructure:"current_streak"`
	LongestStreak int   `mapstructure:"longest_streak"`
}

// ErrorPayload describes a classified failure.
type ErrorPayload struct {
	Category    string `mapstructure:"category"`
	Message     string `mapstructure:"message"`
	Recoverable bool   `mapstructure:"recoverable"`
	Retryable   bool   `mapstructure:"retryable"`
}

// flatten converts a payload struct into the flat key-value map carried on
// the event. Nested structures are rejected by construction; every payload
// field is a scalar.
func flatten(in any) map[string]any {
	out := map[string]any{}
	if err := mapstructure.Decode(in, &out); err != nil {
		return map[string]any{}
	}
	return out
}
