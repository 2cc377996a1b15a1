// Package store implements RedactQC's embedded SQL store (spec.md §4.1): a
// single-file SQLite database in WAL mode with a serialized writer and
// unlimited concurrent readers, generalized from the teacher's
// repository.NewPool single entry-point-to-the-driver pattern
// (internal/repository/db.go) from pgxpool to database/sql +
// github.com/mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/redactqc/redactqc/internal/model"
)

//go:embed all:*.sql
var embeddedMigrations embed.FS

// Store is the process-wide embedded database singleton (spec.md §9
// "Global mutable state"). Readers use db's own connection pool; writes are
// serialized through writeMu so at most one writer runs at a time across
// the whole process, matching the concurrency contract in spec.md §4.1.
type Store struct {
	db        *sql.DB
	writeMu   sync.Mutex
	lockWait  time.Duration
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithLockWait overrides the default 5s writer lock-wait timeout.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) { s.lockWait = d }
}

// Open creates the data directory (0700 where supported), opens the
// database file in WAL mode, and applies any pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store.Open: create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open database: %w", err)
	}
	// Up to 8 pooled connections serve concurrent readers; writes are
	// serialized by writeMu (see withWrite), not by the connection pool.
	db.SetMaxOpenConns(8)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: ping: %w", err)
	}

	s := &Store{db: db, lockWait: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: migrate: %w", err)
	}

	if err := s.seedPIICategories(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: seed pii categories: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity to the database file, for handler.Health
// (matches the teacher's DBPinger contract in internal/handler/health.go).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	row := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`)
	if err := row.Scan(&current); err != nil {
		if err != sql.ErrNoRows {
			return err
		}
		current = 0
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	for i, name := range names {
		version := i + 1
		if version <= current {
			continue
		}
		sqlBytes, err := embeddedMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		current = version
	}

	return nil
}

func migrationNames() ([]string, error) {
	entries, err := embeddedMigrations.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) seedPIICategories() error {
	return s.withWrite(0, func(tx *sql.Tx) error {
		for _, c := range model.PIICategories() {
			_, err := tx.Exec(`
				INSERT INTO pii_categories (name, description, severity_level)
				VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET description = excluded.description, severity_level = excluded.severity_level`,
				c.Name, c.Description, c.SeverityLevel)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
