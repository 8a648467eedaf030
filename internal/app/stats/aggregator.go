// Package stats aggregates finalized listening sessions into rankings,
// streaks and periodic snapshots.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"
)

// DefaultTopCount is the ranking depth for top songs, artists and genres.
const DefaultTopCount = 10

// TopItem is one entry of a ranked listing.
type TopItem struct {
	ID        string
	Name      string
	PlayCount int
	TotalTime time.Duration
}

// Overall is the cumulative view across all ingested sessions.
type Overall struct {
	TotalSessions     int
	TotalPlayTime     time.Duration
	CurrentStreakDays int
	LongestStreakDays int
	LastActiveDay     time.Time
	LastWeekly        *Snapshot
	LastMonthly       *Snapshot
}

// Aggregator consumes session records and maintains cumulative statistics.
// All methods are safe for concurrent use.
type Aggregator struct {
	mu   sync.RWMutex
	topN int

	totalSessions int
	totalPlayTime time.Duration

	currentStreak int
	longestStreak int
	lastActiveDay time.Time

	records []session.Record

	lastWeekly  *Snapshot
	lastMonthly *Snapshot
}

// NewAggregator creates an aggregator ranking the given number of top items.
// Non-positive topN selects DefaultTopCount.
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopCount
	}
	return &Aggregator{topN: topN}
}

// Ingest folds a finalized session into the cumulative statistics. Every
// session counts toward totals; only valid sessions enter the history and
// advance the listening streak.
func (a *Aggregator) Ingest(rec *session.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSessions++
	a.totalPlayTime += rec.TotalListening

	if !rec.Valid {
		return
	}
	a.records = append(a.records, *rec)
	a.advanceStreakLocked(rec.EndTime)
}

// advanceStreakLocked updates the day streak from the session's end time.
// Same calendar day leaves the streak unchanged, the next day extends it,
// anything else restarts at one.
func (a *Aggregator) advanceStreakLocked(endTime time.Time) {
	day := midnight(endTime)
	switch {
	case a.lastActiveDay.IsZero():
		a.currentStreak = 1
	case day.Equal(a.lastActiveDay):
		// Another session the same day.
	case day.Equal(a.lastActiveDay.AddDate(0, 0, 1)):
		a.currentStreak++
	default:
		a.currentStreak = 1
	}
	a.lastActiveDay = day
	if a.currentStreak > a.longestStreak {
		a.longestStreak = a.currentStreak
	}
}

// TopSongs returns the ranked top tracks across all valid sessions.
func (a *Aggregator) TopSongs() []TopItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return rankSongs(a.records, a.topN)
}

// TopArtists returns the ranked primary artists across all valid sessions.
func (a *Aggregator) TopArtists() []TopItem {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc := map[string]*TopItem{}
	for i := range a.records {
		for j := range a.records[i].Tracks {
			p := &a.records[i].Tracks[j]
			name := p.Track.PrimaryArtist()
			if name == "" {
				continue
			}
			accumulate(acc, name, name, p.Listened)
		}
	}
	return rank(acc, a.topN)
}

// TopGenres returns the ranked genres across all valid sessions. Tracks
// without genre metadata contribute nothing.
func (a *Aggregator) TopGenres() []TopItem {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc := map[string]*TopItem{}
	for i := range a.records {
		for j := range a.records[i].Tracks {
			p := &a.records[i].Tracks[j]
			for _, g := range p.Track.Genres {
				accumulate(acc, g, g, p.Listened)
			}
		}
	}
	return rank(acc, a.topN)
}

// Records returns a copy of the valid-session history.
func (a *Aggregator) Records() []session.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]session.Record, len(a.records))
	copy(out, a.records)
	return out
}

// Prune drops history entries that ended before the cutoff. Cumulative
// totals and streaks are unaffected. Returns the number of entries removed.
func (a *Aggregator) Prune(cutoff time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.records[:0]
	for _, rec := range a.records {
		if !rec.EndTime.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(a.records) - len(kept)
	a.records = kept
	return removed
}

// Overall returns the cumulative statistics view.
func (a *Aggregator) Overall() Overall {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Overall{
		TotalSessions:     a.totalSessions,
		TotalPlayTime:     a.totalPlayTime,
		CurrentStreakDays: a.currentStreak,
		LongestStreakDays: a.longestStreak,
		LastActiveDay:     a.lastActiveDay,
		LastWeekly:        a.lastWeekly,
		LastMonthly:       a.lastMonthly,
	}
}

// SetSnapshots stores the most recent periodic snapshots.
func (a *Aggregator) SetSnapshots(weekly, monthly *Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastWeekly = weekly
	a.lastMonthly = monthly
}

func accumulate(acc map[string]*TopItem, id, name string, listened time.Duration) {
	item, ok := acc[id]
	if !ok {
		item = &TopItem{ID: id, Name: name}
		acc[id] = item
	}
	item.PlayCount++
	item.TotalTime += listened
}

func rankSongs(records []session.Record, topN int) []TopItem {
	acc := map[string]*TopItem{}
	for i := range records {
		for j := range records[i].Tracks {
			p := &records[i].Tracks[j]
			accumulate(acc, p.Track.ID, p.Track.Name, p.Listened)
		}
	}
	return rank(acc, topN)
}

// rank orders by play count, then total time, then id, and truncates.
func rank(acc map[string]*TopItem, topN int) []TopItem {
	items := make([]TopItem, 0, len(acc))
	for _, item := range acc {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].PlayCount != items[j].PlayCount {
			return items[i].PlayCount > items[j].PlayCount
		}
		if items[i].TotalTime != items[j].TotalTime {
			return items[i].TotalTime > items[j].TotalTime
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > topN {
		items = items[:topN]
	}
	return items
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
