package db

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
	"github.com/gobwas/glob"
	_ "modernc.org/sqlite"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS book_log (
  seq INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  isbn TEXT,
  reader TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_book_log_reader ON book_log(reader);
CREATE TABLE IF NOT EXISTS index_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// Index is a sqlite cache of the book log used for aggregate queries.
// The CSV file stays authoritative; the cache is rebuilt whenever the file
// has changed since the last rebuild.
type Index struct {
	conn *sql.DB
	log  *BookLog
}

// OpenIndex opens (creating if needed) the cache at dbPath and brings it up
// to date with log.
func OpenIndex(dbPath string, log *BookLog) (*Index, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if _, err := conn.Exec(indexSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	ix := &Index{conn: conn, log: log}
	if err := ix.Refresh(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ix, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.conn.Close()
}

// Refresh rebuilds the cache if the log file changed since the last rebuild.
func (ix *Index) Refresh() error {
	stamp, err := sourceStamp(ix.log.Path())
	if err != nil {
		return err
	}
	var current string
	err = ix.conn.QueryRow(`SELECT value FROM index_meta WHERE key = 'source'`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil && current == stamp {
		return nil
	}
	return ix.Rebuild()
}

// Rebuild replaces the cached rows with the current log contents.
func (ix *Index) Rebuild() error {
	stamp, err := sourceStamp(ix.log.Path())
	if err != nil {
		return err
	}
	entries, err := ix.log.List()
	if err != nil {
		return err
	}

	tx, err := ix.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM book_log`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO book_log (seq, title, author, isbn, reader, count) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, entry := range entries {
		var isbn any
		if entry.ISBN != nil {
			isbn = *entry.ISBN
		}
		if _, err := stmt.Exec(i+1, entry.Title, entry.Author, isbn, entry.ReaderID, entry.Count); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO index_meta (key, value) VALUES ('source', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, stamp); err != nil {
		return err
	}
	return tx.Commit()
}

// TopBooks returns a reader's most repeated titles, most read first.
func (ix *Index) TopBooks(readerID string, limit int) ([]types.BookTally, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := ix.conn.Query(`
		SELECT title, author, SUM(count) AS times, MIN(seq) AS first_seq
		FROM book_log
		WHERE reader = ?
		GROUP BY lower(title), lower(author)
		ORDER BY times DESC, first_seq ASC
		LIMIT ?`, readerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.BookTally
	for rows.Next() {
		var tally types.BookTally
		var firstSeq int64
		if err := rows.Scan(&tally.Title, &tally.Author, &tally.Times, &firstSeq); err != nil {
			return nil, err
		}
		out = append(out, tally)
	}
	return out, rows.Err()
}

// MatchBooks returns a reader's titles matching a case-insensitive glob
// pattern such as "goodnight*", most read first.
func (ix *Index) MatchBooks(readerID, pattern string) ([]types.BookTally, error) {
	matcher, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("bad title pattern %q: %w", pattern, err)
	}
	all, err := ix.TopBooks(readerID, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	var out []types.BookTally
	for _, tally := range all {
		if matcher.Match(strings.ToLower(tally.Title)) {
			out = append(out, tally)
		}
	}
	return out, nil
}

// DistinctTitles counts the different books a reader has heard.
func (ix *Index) DistinctTitles(readerID string) (int, error) {
	var n int
	err := ix.conn.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT 1 FROM book_log WHERE reader = ? GROUP BY lower(title), lower(author)
		)`, readerID).Scan(&n)
	return n, err
}

func sourceStamp(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "missing", nil
		}
		return "", err
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 10) + ":" + strconv.FormatInt(info.Size(), 10), nil
}
