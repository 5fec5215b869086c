package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

// SQLite stores records in a comments table
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite database at dbPath
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comments (
		idx INTEGER PRIMARY KEY,
		urn TEXT NOT NULL DEFAULT '',
		post_url TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		user_profile_url TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT 'unknown',
		scraped_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post_url ON comments(post_url);
	CREATE INDEX IF NOT EXISTS idx_comments_label ON comments(label);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Load(ctx context.Context) ([]types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, urn, post_url, comment, user_profile_url, author_name, label, scraped_at
		FROM comments
		ORDER BY idx
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.Comment
	for rows.Next() {
		var c types.Comment
		var label string
		var scrapedAt time.Time
		if err := rows.Scan(&c.Index, &c.Identity, &c.SourceURL, &c.Text,
			&c.AuthorProfileURL, &c.AuthorName, &label, &scrapedAt); err != nil {
			return nil, err
		}
		c.Label = types.Label(label)
		c.ScrapedAt = scrapedAt.UTC()
		records = append(records, c)
	}
	return records, rows.Err()
}

// Save replaces the table contents in one transaction
func (s *SQLite) Save(ctx context.Context, records []types.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments`); err != nil {
		return fmt.Errorf("failed to clear comments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments (idx, urn, post_url, comment, user_profile_url, author_name, label, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range records {
		if _, err := stmt.ExecContext(ctx, c.Index, c.Identity, c.SourceURL, c.Text,
			c.AuthorProfileURL, c.AuthorName, string(c.Label), c.ScrapedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert comment %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}
