package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
)

func TestWeeklySnapshot_Window(t *testing.T) {
	// Wednesday 2025-06-04; the ISO week runs Mon 2025-06-02 .. Mon 2025-06-09.
	now := time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC)

	inWeek := validRecord("in", time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
		playback("a", "x", 3*time.Minute))
	beforeWeek := validRecord("before", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		playback("b", "x", 2*time.Minute))

	snap := WeeklySnapshot([]session.Record{*inWeek, *beforeWeek}, now)

	assert.Equal(t, SnapshotWeekly, snap.Kind)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), snap.PeriodStart)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), snap.PeriodEnd)
	assert.Equal(t, 1, snap.Sessions)
	assert.Equal(t, 3*time.Minute, snap.PlayTime)

	require.Len(t, snap.TopSongs, 1)
	assert.Equal(t, "a", snap.TopSongs[0].ID)

	require.Len(t, snap.Days, 1)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), snap.Days[0].Day)
	assert.Equal(t, 1, snap.Days[0].Sessions)
}

func TestWeeklySnapshot_StartsOnMonday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "monday maps to itself",
			now:  time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday maps back to the previous monday",
			now:  time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := WeeklySnapshot(nil, tt.now)
			assert.Equal(t, tt.want, snap.PeriodStart)
		})
	}
}

func TestMonthlySnapshot_Window(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	inMonth := validRecord("in", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		playback("a", "x", time.Minute))
	lastMonth := validRecord("out", time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC),
		playback("b", "x", time.Minute))

	snap := MonthlySnapshot([]session.Record{*inMonth, *lastMonth}, now)

	assert.Equal(t, SnapshotMonthly, snap.Kind)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), snap.PeriodStart)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), snap.PeriodEnd)
	assert.Equal(t, 1, snap.Sessions)
}

func TestSnapshots_ArePure(t *testing.T) {
	now := time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC)
	records := []session.Record{
		*validRecord("s1", time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), playback("a", "x", time.Minute)),
	}

	first := WeeklySnapshot(records, now)
	second := WeeklySnapshot(records, now)

	assert.Equal(t, first, second, "same inputs produce the same snapshot")
	require.Len(t, records, 1, "input history is untouched")
}
