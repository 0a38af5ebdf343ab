// Package journal records generation runs in a sqlite database. It is an
// audit log only: readiness is decided by the files under the storage root.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/snapetech/clipgen/internal/content"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	tags        TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS runs_started ON runs(started_at);
`

// Entry is one recorded run.
type Entry struct {
	ID       string        `json:"id"`
	Tags     []content.Tag `json:"tags"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished,omitzero"`
	Error    string        `json:"error,omitempty"`
}

// Done reports whether the run reached its terminal state.
func (e Entry) Done() bool { return !e.Finished.IsZero() }

// Journal implements content.RunObserver on top of sqlite.
type Journal struct {
	db  *sql.DB
	log *zap.Logger
}

var _ content.RunObserver = (*Journal)(nil)

// Open creates or opens the journal at path.
func Open(path string, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db, log: log}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) RunStarted(info content.RunInfo) {
	_, err := j.db.Exec("INSERT INTO runs (id, tags, started_at) VALUES (?, ?, ?)",
		info.ID, formatTags(info.Tags), info.Started.UnixNano())
	if err != nil {
		j.log.Warn("journal insert failed", zap.String("run", info.ID), zap.Error(err))
	}
}

func (j *Journal) RunFinished(info content.RunInfo, runErr error) {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := j.db.Exec("UPDATE runs SET finished_at = ?, error = ? WHERE id = ?",
		info.Finished.UnixNano(), msg, info.ID)
	if err != nil {
		j.log.Warn("journal update failed", zap.String("run", info.ID), zap.Error(err))
	}
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(
		"SELECT id, tags, started_at, finished_at, error FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			tags     string
			started  int64
			finished sql.NullInt64
			msg      sql.NullString
		)
		if err := rows.Scan(&e.ID, &tags, &started, &finished, &msg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Tags = parseTags(tags)
		e.Started = time.Unix(0, started)
		if finished.Valid {
			e.Finished = time.Unix(0, finished.Int64)
		}
		e.Error = msg.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTags(tags []content.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = strconv.Itoa(int(t))
	}
	return strings.Join(parts, ",")
}

func parseTags(s string) []content.Tag {
	if s == "" {
		return []content.Tag{}
	}
	parts := strings.Split(s, ",")
	out := make([]content.Tag, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, content.Tag(n))
		}
	}
	return out
}
