/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// SQLite is a persistent Store backed by a single database file.
type SQLite struct {
	log  zerolog.Logger
	db   *sql.DB
	path string
	ttl  time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

type Options struct {
	// TTL expires entries older than the given duration. Zero keeps entries
	// forever.
	TTL time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS titles (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_titles_fetched ON titles(fetched_at);
`

// OpenSQLite opens or creates the title database at path.
func OpenSQLite(log zerolog.Logger, path string, opts Options) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "unable to create cache directory")
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, errors.Wrap(err, "unable to open cache database")
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "unable to create cache tables")
	}

	log.Debug().Str("path", path).Dur("ttl", opts.TTL).Msg("opened title cache")

	return &SQLite{
		log:  log,
		db:   db,
		path: path,
		ttl:  opts.TTL,
	}, nil
}

func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(url string) (Entry, bool) {
	var title string
	var fetched int64

	row := s.db.QueryRowContext(context.Background(),
		`SELECT title, fetched_at FROM titles WHERE url = ?`, url)
	err := row.Scan(&title, &fetched)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error().Err(err).Str("url", url).Msg("unable to read title cache")
		}
		s.misses.Add(1)
		return Entry{}, false
	}

	e := Entry{URL: url, Title: title, Fetched: time.Unix(0, fetched)}
	if s.ttl > 0 && time.Since(e.Fetched) > s.ttl {
		s.log.Debug().Str("url", url).Msg("cache entry expired")
		s.misses.Add(1)
		return Entry{}, false
	}

	s.hits.Add(1)
	return e, true
}

func (s *SQLite) Set(e Entry) {
	if e.Fetched.IsZero() {
		e.Fetched = time.Now()
	}

	_, err := s.db.ExecContext(context.Background(), `
	INSERT INTO titles (url, title, fetched_at) VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET title = excluded.title, fetched_at = excluded.fetched_at`,
		e.URL, e.Title, e.Fetched.UnixNano())
	if err != nil {
		s.log.Error().Err(err).Str("url", e.URL).Msg("unable to write title cache")
	}
}

func (s *SQLite) Clear() error {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM titles`)
	return errors.Wrap(err, "unable to clear title cache")
}

func (s *SQLite) Stats() Stats {
	var size int
	err := s.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM titles`).Scan(&size)
	if err != nil {
		s.log.Error().Err(err).Msg("unable to count title cache")
	}

	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   size,
	}
}

// List returns every stored entry, most recently fetched first.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, fetched_at FROM titles ORDER BY fetched_at DESC, url`)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list title cache")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var fetched int64
		if err := rows.Scan(&e.URL, &e.Title, &fetched); err != nil {
			return nil, errors.Wrap(err, "unable to scan title cache row")
		}
		e.Fetched = time.Unix(0, fetched)
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "unable to iterate title cache")
}
