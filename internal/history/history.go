// Package history keeps a SQLite record of batch runs and their outcomes.
package history

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"time"

	"github.com/ZacxDev/newsclip/internal/ledger"
	"github.com/ZacxDev/newsclip/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Fixed-width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run summarizes one batch invocation.
type Run struct {
	ID         uuid.UUID
	NewsDir    string
	VideosDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Successes  int // includes skipped items
	Skipped    int
	Failures   int
}

type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create history directory")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history database")
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping history database")
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "execute %s", pragma)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return errors.Wrapf(err, "execute migration %s", name)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return errors.Wrapf(err, "record migration %s", name)
		}
		s.logger.Debug().Str("migration", name).Msg("applied migration")
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	if err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists); err != nil {
		return false
	}
	var applied int
	err := s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Record stores run and every entry of summary in one transaction. The
// counts on run are derived from summary.
func (s *Store) Record(ctx context.Context, run Run, summary ledger.Summary) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Successes = len(summary.Successes)
	run.Failures = len(summary.Failures)
	run.Skipped = 0
	for _, e := range summary.Successes {
		if e.Status == types.ItemStateSkippedExisting {
			run.Skipped++
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin history transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, news_dir, videos_dir, started_at, finished_at, successes, skipped, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.NewsDir, run.VideosDir,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Successes, run.Skipped, run.Failures)
	if err != nil {
		return errors.Wrap(err, "insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (run_id, seq, catalog, category, keyword, title, status, video, title_card, duration_sec, fps, frames, step, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare entry insert")
	}
	defer stmt.Close()

	seq := 0
	for _, group := range [][]ledger.Entry{summary.Successes, summary.Failures} {
		for _, e := range group {
			_, err := stmt.ExecContext(ctx, run.ID.String(), seq,
				e.Catalog, e.Category, e.Keyword, e.Title, string(e.Status),
				e.Video, e.TitleCard, e.DurationSec, e.FPS, e.Frames, e.Step, e.Error)
			if err != nil {
				return errors.Wrapf(err, "insert entry %s/%s", e.Category, e.Keyword)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit history")
	}
	s.logger.Debug().Str("run_id", run.ID.String()).Int("entries", seq).Msg("recorded run")
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, news_dir, videos_dir, started_at, finished_at, successes, skipped, failures
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			id                string
			started, finished string
		)
		if err := rows.Scan(&id, &r.NewsDir, &r.VideosDir, &started, &finished, &r.Successes, &r.Skipped, &r.Failures); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "run id %q", id)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, errors.Wrap(err, "run start time")
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, errors.Wrap(err, "run finish time")
		}
		runs = append(runs, r)
	}
	return runs, errors.WithStack(rows.Err())
}

// Entries returns the recorded outcomes of one run, successes first.
func (s *Store) Entries(ctx context.Context, runID uuid.UUID) ([]ledger.Entry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT catalog, category, keyword, title, status, video, title_card, duration_sec, fps, frames, step, error
		 FROM entries WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e      ledger.Entry
			status string
		)
		if err := rows.Scan(&e.Catalog, &e.Category, &e.Keyword, &e.Title, &status, &e.Video, &e.TitleCard,
			&e.DurationSec, &e.FPS, &e.Frames, &e.Step, &e.Error); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		e.Status = types.ItemState(status)
		e.Skipped = e.Status == types.ItemStateSkippedExisting
		entries = append(entries, e)
	}
	return entries, errors.WithStack(rows.Err())
}
