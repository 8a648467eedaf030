package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/stats"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "listening.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func storedRecord(id string, end time.Time) *session.Record {
	ended := end
	return &session.Record{
		ID:             id,
		StartTime:      end.Add(-10 * time.Minute),
		EndTime:        end,
		Duration:       10 * time.Minute,
		SongCount:      2,
		PlayCount:      1,
		SkipCount:      1,
		TotalListening: 4 * time.Minute,
		Valid:          true,
		Tracks: []track.Playback{
			{
				Track: track.Track{
					ID:       "t1",
					Name:     "Song One",
					Artists:  []string{"Artist"},
					Album:    "Album",
					Duration: 200 * time.Second,
				},
				Listened:  190 * time.Second,
				Completed: true,
				EndedAt:   &ended,
			},
			{
				Track: track.Track{
					ID:       "t2",
					Name:     "Song Two",
					Artists:  []string{"Artist"},
					Album:    "Album",
					Duration: 180 * time.Second,
				},
				Listened: 50 * time.Second,
				Skipped:  true,
				EndedAt:  &ended,
			},
		},
	}
}

func TestStore_SaveAndListSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSession(ctx, storedRecord("s1", end)))
	require.NoError(t, s.SaveSession(ctx, storedRecord("s2", end.Add(time.Hour))))

	sessions, err := s.ListSessions(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	got := sessions[0]
	assert.Equal(t, "s1", got.ID)
	assert.True(t, got.EndTime.Equal(end))
	assert.Equal(t, 10*time.Minute, got.Duration)
	assert.Equal(t, 2, got.SongCount)
	assert.Equal(t, 1, got.PlayCount)
	assert.Equal(t, 1, got.SkipCount)
	assert.Equal(t, 4*time.Minute, got.TotalListening)
	assert.True(t, got.Valid)
}

func TestStore_SaveSession_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	rec := storedRecord("s1", end)

	require.NoError(t, s.SaveSession(ctx, rec))
	require.NoError(t, s.SaveSession(ctx, rec), "at-least-once delivery may save twice")

	sessions, err := s.ListSessions(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestStore_ListSessions_Since(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSession(ctx, storedRecord("old", end)))
	require.NoError(t, s.SaveSession(ctx, storedRecord("new", end.AddDate(0, 0, 2))))

	sessions, err := s.ListSessions(ctx, end.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].ID)
}

func TestStore_DeleteSessionsBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSession(ctx, storedRecord("old", end)))
	require.NoError(t, s.SaveSession(ctx, storedRecord("new", end.AddDate(0, 0, 10))))

	n, err := s.DeleteSessionsBefore(ctx, end.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sessions, err := s.ListSessions(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].ID)
}

func TestStore_SaveSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := &stats.Snapshot{
		Kind:        stats.SnapshotWeekly,
		PeriodStart: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC),
		Sessions:    3,
		PlayTime:    2 * time.Hour,
		Songs:       40,
		Completed:   35,
		Skipped:     5,
		TopSongs:    []stats.TopItem{{ID: "t1", Name: "Song", PlayCount: 4, TotalTime: 12 * time.Minute}},
	}

	require.NoError(t, s.SaveSnapshot(ctx, snap))
	// Replacing the same period must not fail or duplicate.
	snap.Sessions = 4
	require.NoError(t, s.SaveSnapshot(ctx, snap))
}
