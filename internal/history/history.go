// Package history records played tracks in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists a log of plays using SQLite.
type Store struct {
	db *sql.DB
}

// Play is one recorded playback of a track.
type Play struct {
	ID        int64
	Path      string
	Title     string
	Artist    string
	Album     string
	Duration  time.Duration
	Played    time.Duration
	StartedAt time.Time
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer keeps the driver happy for file and in-memory databases
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			duration INTEGER NOT NULL,
			played INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_started_at ON plays(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a new play and returns its row id.
func (s *Store) Record(ctx context.Context, play Play) (int64, error) {
	query := `
		INSERT INTO plays (path, title, artist, album, duration, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		play.Path,
		play.Title,
		play.Artist,
		play.Album,
		int64(play.Duration.Seconds()),
		play.StartedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// UpdatePlayed sets the accumulated played time for a play.
func (s *Store) UpdatePlayed(ctx context.Context, id int64, played time.Duration) error {
	query := `UPDATE plays SET played = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, int64(played.Seconds()), id); err != nil {
		return fmt.Errorf("failed to update play: %w", err)
	}
	return nil
}

// Recent returns the most recent plays, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, path, title, artist, album, duration, played, started_at
		FROM plays
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var duration, played, startedAt int64
		if err := rows.Scan(&p.ID, &p.Path, &p.Title, &p.Artist, &p.Album,
			&duration, &played, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		p.Duration = time.Duration(duration) * time.Second
		p.Played = time.Duration(played) * time.Second
		p.StartedAt = time.Unix(startedAt, 0)
		plays = append(plays, p)
	}

	return plays, rows.Err()
}
