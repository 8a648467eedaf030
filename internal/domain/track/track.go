// Package track provides the Track and Playback domain entities.
package track

import "time"

// Track represents a track as observed from the player.
// Contains only information reported by the snapshot provider.
type Track struct {
	ID          string        // Provider track ID
	Name        string        // Track name
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	URL         string        // Web URL
	Genres      []string      // Genres (empty unless the provider supplies them)
	Explicit    bool          // Explicit content flag
}

// PrimaryArtist returns the first artist name, or empty when unknown.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Same reports whether two observed tracks refer to the same track.
func (t *Track) Same(other *Track) bool {
	if other == nil {
		return false
	}
	return t.ID == other.ID
}

// Playback tracks the lifecycle of a single play of a track.
// It is mutable while open and frozen once finalized.
type Playback struct {
	Track        Track
	StartedAt    time.Time
	EndedAt      *time.Time    // nil while the playback is open
	LastPosition time.Duration // last position reported by the player
	Listened     time.Duration // accumulated listening time, clamped to Track.Duration
	Skipped      bool
	Completed    bool
}

// NewPlayback opens a playback for the given track.
func NewPlayback(t Track, now time.Time) *Playback {
	return &Playback{
		Track:     t,
		StartedAt: now,
	}
}

// IsOpen returns true while the playback has not been finalized.
func (p *Playback) IsOpen() bool {
	return p.EndedAt == nil
}
