// Package store handles SQLite persistence for sessions and snapshots.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/stats"
	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/session"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for listening history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create storage directory")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			song_count INTEGER NOT NULL,
			play_count INTEGER NOT NULL,
			skip_count INTEGER NOT NULL,
			listening_ms INTEGER NOT NULL,
			valid INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_tracks (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			track_name TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			listened_ms INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			kind TEXT NOT NULL,
			period_start TEXT NOT NULL,
			period_end TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			sessions INTEGER NOT NULL,
			play_time_ms INTEGER NOT NULL,
			songs INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			top_songs TEXT NOT NULL,
			PRIMARY KEY (kind, period_start)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_end_time ON sessions(end_time);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}
	return nil
}

// SaveSession stores a finalized session and its track list.
func (s *Store) SaveSession(ctx context.Context, rec *session.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, start_time, end_time, duration_ms, song_count, play_count, skip_count, listening_ms, valid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartTime.Format(time.RFC3339Nano),
		rec.EndTime.Format(time.RFC3339Nano),
		rec.Duration.Milliseconds(),
		rec.SongCount,
		rec.PlayCount,
		rec.SkipCount,
		rec.TotalListening.Milliseconds(),
		boolToInt(rec.Valid),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert session")
	}

	if len(rec.Tracks) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO session_tracks (session_id, position, track_id, track_name, artist, album, duration_ms, listened_ms, skipped)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "failed to prepare track insert")
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, p := range rec.Tracks {
			if _, err := stmt.ExecContext(ctx,
				rec.ID, i,
				p.Track.ID, p.Track.Name, p.Track.PrimaryArtist(), p.Track.Album,
				p.Track.Duration.Milliseconds(), p.Listened.Milliseconds(), boolToInt(p.Skipped),
			); err != nil {
				return errors.Wrap(err, "failed to insert session track")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit session")
	}
	return nil
}

// SaveSnapshot stores a periodic snapshot, replacing any previous one for
// the same period.
func (s *Store) SaveSnapshot(ctx context.Context, snap *stats.Snapshot) error {
	topSongs, err := json.Marshal(snap.TopSongs)
	if err != nil {
		return errors.Wrap(err, "failed to encode top songs")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (kind, period_start, period_end, generated_at, sessions, play_time_ms, songs, completed, skipped, top_songs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(snap.Kind),
		snap.PeriodStart.Format(time.RFC3339Nano),
		snap.PeriodEnd.Format(time.RFC3339Nano),
		snap.GeneratedAt.Format(time.RFC3339Nano),
		snap.Sessions,
		snap.PlayTime.Milliseconds(),
		snap.Songs,
		snap.Completed,
		snap.Skipped,
		string(topSongs),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save snapshot")
	}
	return nil
}

// SessionSummary is one stored session row, without its track list.
type SessionSummary struct {
	ID             string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	SongCount      int
	PlayCount      int
	SkipCount      int
	TotalListening time.Duration
	Valid          bool
}

// ListSessions returns stored sessions that ended at or after since,
// ordered by end time.
func (s *Store) ListSessions(ctx context.Context, since time.Time) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, duration_ms, song_count, play_count, skip_count, listening_ms, valid
		 FROM sessions
		 WHERE end_time >= ?
		 ORDER BY end_time ASC`,
		since.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum                     SessionSummary
			startTime, endTime      string
			durationMs, listeningMs int64
			valid                   int
		)
		if err := rows.Scan(&sum.ID, &startTime, &endTime, &durationMs,
			&sum.SongCount, &sum.PlayCount, &sum.SkipCount, &listeningMs, &valid); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		if sum.StartTime, err = time.Parse(time.RFC3339Nano, startTime); err != nil {
			return nil, errors.Wrap(err, "failed to parse start time")
		}
		if sum.EndTime, err = time.Parse(time.RFC3339Nano, endTime); err != nil {
			return nil, errors.Wrap(err, "failed to parse end time")
		}
		sum.Duration = time.Duration(durationMs) * time.Millisecond
		sum.TotalListening = time.Duration(listeningMs) * time.Millisecond
		sum.Valid = valid != 0
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "session row iteration failed")
	}
	return out, nil
}

// DeleteSessionsBefore removes sessions, and their tracks, that ended
// before the cutoff. Returns the number of sessions removed.
func (s *Store) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cut := cutoff.Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_tracks WHERE session_id IN (SELECT id FROM sessions WHERE end_time < ?)`, cut); err != nil {
		return 0, errors.Wrap(err, "failed to delete session tracks")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE end_time < ?`, cut)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted sessions")
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
