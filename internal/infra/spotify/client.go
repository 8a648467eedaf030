// Package spotify provides the Spotify-backed player snapshot provider.
package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/player"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/track"
)

// Client reads the player state from the Spotify API. It implements the
// monitor.SnapshotProvider contract: Poll is a single bounded request with
// no internal retries, since the caller polls again on its own cadence.
type Client struct {
	client *spotify.Client
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	// Create authenticator with required scopes
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)
	return &Client{client: spotify.New(httpClient)}, nil
}

// Poll reads the current player state and converts it to a snapshot.
// Authorization failures are marked so the engine stops instead of retrying.
func (c *Client) Poll(ctx context.Context) (*player.Snapshot, error) {
	state, err := c.client.PlayerState(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return convertState(state, time.Now()), nil
}

// classify maps an API failure to the provider error contract.
func classify(err error) error {
	var se spotify.Error
	if errors.As(err, &se) && (se.Status == 401 || se.Status == 403) {
		return errors.Mark(errors.Wrap(err, "spotify authorization rejected"), player.ErrAuthorizationRequired)
	}
	return errors.Mark(errors.Wrap(err, "spotify player state unavailable"), player.ErrUnavailable)
}

// convertState maps the API player state to a snapshot. A missing state or
// item means nothing is playing on any device.
func convertState(state *spotify.PlayerState, now time.Time) *player.Snapshot {
	snap := &player.Snapshot{
		Phase:      player.PhaseStopped,
		ObservedAt: now,
	}
	if state == nil || state.Item == nil {
		return snap
	}

	snap.Track = convertTrack(state.Item)
	snap.Position = time.Duration(state.Progress) * time.Millisecond
	if state.Playing {
		snap.Phase = player.PhasePlaying
	} else {
		snap.Phase = player.PhasePaused
	}
	return snap
}

// convertTrack converts a Spotify FullTrack to a domain Track. Genre data
// is not present on track objects; the field stays empty.
func convertTrack(t *spotify.FullTrack) *track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	return &track.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: albumArt,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		URL:         trackURL(string(t.ID)),
		Explicit:    t.Explicit,
	}
}

func trackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}
