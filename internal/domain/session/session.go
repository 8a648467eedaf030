// Package session provides the listening session domain entities.
package session

import (
	"time"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// Metrics holds the running counts of an active session.
// Reset at session start, folded into the Record at session end.
type Metrics struct {
	TotalTracks     int
	CompletedTracks int
	SkippedTracks   int
	TotalListening  time.Duration
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	*m = Metrics{}
}

// AddPlayback folds a finalized playback into the running counts.
func (m *Metrics) AddPlayback(p *track.Playback) {
	m.TotalTracks++
	if p.Completed {
		m.CompletedTracks++
	}
	if p.Skipped {
		m.SkippedTracks++
	}
	m.TotalListening += p.Listened
}

// Record is an immutable summary of a finished listening session.
// Produced exactly once at session finalization; ownership transfers to
// whoever receives it.
type Record struct {
	ID             string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	SongCount      int
	PlayCount      int
	SkipCount      int
	TotalListening time.Duration
	Tracks         []track.Playback // finalized playbacks, in play order
	Valid          bool             // statistically valid per the validity rule
}

// NewRecord assembles a Record from the session metrics and track list.
// A session is statistically valid when it lasted at least minDuration and
// contains at least one track; invalid records are still emitted but are
// excluded from streak and top-item aggregation.
func NewRecord(id string, start, end time.Time, metrics Metrics, tracks []track.Playback, minDuration time.Duration) *Record {
	duration := end.Sub(start)
	return &Record{
		ID:             id,
		StartTime:      start,
		EndTime:        end,
		Duration:       duration,
		SongCount:      metrics.TotalTracks,
		PlayCount:      metrics.CompletedTracks,
		SkipCount:      metrics.SkippedTracks,
		TotalListening: metrics.TotalListening,
		Tracks:         tracks,
		Valid:          duration >= minDuration && metrics.TotalTracks > 0,
	}
}
