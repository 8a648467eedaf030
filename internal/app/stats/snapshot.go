package stats

import (
	"time"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
)

// SnapshotKind identifies the period a snapshot covers.
type SnapshotKind string

const (
	SnapshotWeekly  SnapshotKind = "weekly"
	SnapshotMonthly SnapshotKind = "monthly"
)

// DayTotal is the listening total for one calendar day within a period.
type DayTotal struct {
	Day      time.Time
	PlayTime time.Duration
	Sessions int
}

// Snapshot is a point-in-time summary of one reporting period. It is built
// from the session history and never mutated afterwards.
type Snapshot struct {
	Kind        SnapshotKind
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time

	Sessions  int
	PlayTime  time.Duration
	Songs     int
	Completed int
	Skipped   int
	TopSongs  []TopItem
	Days      []DayTotal
}

// WeeklySnapshot summarizes the ISO week containing now. The week starts
// Monday at midnight in now's location.
func WeeklySnapshot(records []session.Record, now time.Time) *Snapshot {
	start := weekStart(now)
	return buildSnapshot(SnapshotWeekly, records, start, start.AddDate(0, 0, 7), now)
}

// MonthlySnapshot summarizes the calendar month containing now.
func MonthlySnapshot(records []session.Record, now time.Time) *Snapshot {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return buildSnapshot(SnapshotMonthly, records, start, start.AddDate(0, 1, 0), now)
}

func buildSnapshot(kind SnapshotKind, records []session.Record, start, end, now time.Time) *Snapshot {
	snap := &Snapshot{
		Kind:        kind,
		PeriodStart: start,
		PeriodEnd:   end,
		GeneratedAt: now,
	}

	var inPeriod []session.Record
	days := map[time.Time]*DayTotal{}
	for _, rec := range records {
		if rec.EndTime.Before(start) || !rec.EndTime.Before(end) {
			continue
		}
		inPeriod = append(inPeriod, rec)
		snap.Sessions++
		snap.PlayTime += rec.TotalListening
		snap.Songs += rec.SongCount
		snap.Completed += rec.PlayCount
		snap.Skipped += rec.SkipCount

		day := midnight(rec.EndTime)
		dt, ok := days[day]
		if !ok {
			dt = &DayTotal{Day: day}
			days[day] = dt
		}
		dt.Sessions++
		dt.PlayTime += rec.TotalListening
	}

	snap.TopSongs = rankSongs(inPeriod, DefaultTopCount)
	for d := midnight(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if dt, ok := days[d]; ok {
			snap.Days = append(snap.Days, *dt)
		}
	}
	return snap
}

// weekStart returns Monday midnight of the week containing t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return midnight(t.AddDate(0, 0, -offset))
}
