package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_PrimaryArtist(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		want  string
	}{
		{
			name:  "single artist",
			track: Track{Artists: []string{"Boards of Canada"}},
			want:  "Boards of Canada",
		},
		{
			name:  "multiple artists returns first",
			track: Track{Artists: []string{"Daft Punk", "Pharrell Williams"}},
			want:  "Daft Punk",
		},
		{
			name:  "no artists",
			track: Track{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.track.PrimaryArtist())
		})
	}
}

func TestTrack_Same(t *testing.T) {
	a := &Track{ID: "track-a", Name: "A"}
	aReread := &Track{ID: "track-a", Name: "A (Remaster)"}
	b := &Track{ID: "track-b", Name: "B"}

	assert.True(t, a.Same(aReread), "identity is the ID, not the metadata")
	assert.False(t, a.Same(b))
	assert.False(t, a.Same(nil))
}

func TestNewPlayback(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPlayback(Track{ID: "track-a", Duration: 200 * time.Second}, now)

	assert.True(t, p.IsOpen())
	assert.Equal(t, now, p.StartedAt)
	assert.Zero(t, p.Listened)
	assert.Zero(t, p.LastPosition)
	assert.False(t, p.Skipped)
	assert.False(t, p.Completed)
}
