package stats

import "time"

// Scheduling defaults.
const (
	DefaultStatsInterval   = time.Hour
	DefaultCleanupInterval = 24 * time.Hour
)

// Scheduler decides when periodic statistics processing and history cleanup
// are due. It keeps no timers of its own; the caller asks on its own cadence
// and marks work done. Not safe for concurrent use; the engine serializes
// access.
type Scheduler struct {
	statsInterval   time.Duration
	cleanupInterval time.Duration

	lastStats   time.Time
	lastCleanup time.Time
}

// NewScheduler creates a scheduler with the given cadences. Non-positive
// values select the defaults.
func NewScheduler(statsInterval, cleanupInterval time.Duration) *Scheduler {
	if statsInterval <= 0 {
		statsInterval = DefaultStatsInterval
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Scheduler{
		statsInterval:   statsInterval,
		cleanupInterval: cleanupInterval,
	}
}

// ShouldProcessStats reports whether a statistics pass is due. The first
// call after construction is always due.
func (s *Scheduler) ShouldProcessStats(now time.Time) bool {
	return s.lastStats.IsZero() || now.Sub(s.lastStats) >= s.statsInterval
}

// MarkStatsProcessed records a completed statistics pass.
func (s *Scheduler) MarkStatsProcessed(now time.Time) {
	s.lastStats = now
}

// ShouldCleanup reports whether a history cleanup pass is due.
func (s *Scheduler) ShouldCleanup(now time.Time) bool {
	return s.lastCleanup.IsZero() || now.Sub(s.lastCleanup) >= s.cleanupInterval
}

// MarkCleanedUp records a completed cleanup pass.
func (s *Scheduler) MarkCleanedUp(now time.Time) {
	s.lastCleanup = now
}
