package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

func TestMetrics_AddPlayback(t *testing.T) {
	var m Metrics

	m.AddPlayback(&track.Playback{Completed: true, Listened: 190 * time.Second})
	m.AddPlayback(&track.Playback{Skipped: true, Listened: 50 * time.Second})

	assert.Equal(t, 2, m.TotalTracks)
	assert.Equal(t, 1, m.CompletedTracks)
	assert.Equal(t, 1, m.SkippedTracks)
	assert.Equal(t, 240*time.Second, m.TotalListening)

	m.Reset()
	assert.Equal(t, Metrics{}, m)
}

func TestNewRecord_Validity(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	minDuration := 10 * time.Second

	tests := []struct {
		name      string
		elapsed   time.Duration
		tracks    int
		wantValid bool
	}{
		{
			name:      "long enough with tracks",
			elapsed:   60 * time.Second,
			tracks:    2,
			wantValid: true,
		},
		{
			name:      "exactly at minimum duration",
			elapsed:   10 * time.Second,
			tracks:    1,
			wantValid: true,
		},
		{
			name:      "too short",
			elapsed:   9 * time.Second,
			tracks:    1,
			wantValid: false,
		},
		{
			name:      "no tracks",
			elapsed:   60 * time.Second,
			tracks:    0,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := Metrics{TotalTracks: tt.tracks}
			rec := NewRecord("session-1", start, start.Add(tt.elapsed), metrics, nil, minDuration)
			assert.Equal(t, tt.wantValid, rec.Valid)
			assert.Equal(t, tt.elapsed, rec.Duration)
		})
	}
}

func TestNewRecord_CopiesMetrics(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	metrics := Metrics{
		TotalTracks:     3,
		CompletedTracks: 2,
		SkippedTracks:   1,
		TotalListening:  7 * time.Minute,
	}
	tracks := []track.Playback{{}, {}, {}}

	rec := NewRecord("session-1", start, start.Add(time.Minute), metrics, tracks, 10*time.Second)

	assert.Equal(t, "session-1", rec.ID)
	assert.Equal(t, 3, rec.SongCount)
	assert.Equal(t, 2, rec.PlayCount)
	assert.Equal(t, 1, rec.SkipCount)
	assert.Equal(t, 7*time.Minute, rec.TotalListening)
	assert.Len(t, rec.Tracks, 3)
}
