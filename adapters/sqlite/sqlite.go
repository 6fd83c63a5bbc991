// Package sqlite provides SQLite implementations of storage ports.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/qustavo/dotsql"

	"github.com/artpar/familyhub/core/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:embed queries/*.sql
var queriesFS embed.FS

const (
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
)

// DB wraps a SQLite database connection and its named queries.
type DB struct {
	*sqlx.DB
	dot *dotsql.DotSql
}

// Open creates a new SQLite database connection.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	dot, err := loadQueries()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, dot: dot}, nil
}

func loadQueries() (*dotsql.DotSql, error) {
	var combined strings.Builder
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return dot, nil
}

// query returns the named statement rebound for the driver.
func (db *DB) query(name string) (string, error) {
	q, err := db.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return db.Rebind(q), nil
}

// Ping runs the health query.
func (db *DB) Ping(ctx context.Context) error {
	q, err := db.query("ping")
	if err != nil {
		return err
	}
	var one int
	if err := db.GetContext(ctx, &one, q); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrations lists the versions of the embedded migrations in apply order.
func Migrations() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(entry.Name(), ".sql"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Migrate runs all pending migrations.
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var versions []string
	if err := db.Select(&versions, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	migrations, err := Migrations()
	if err != nil {
		return err
	}

	for _, version := range migrations {
		if applied[version] {
			continue
		}
		name := version + ".sql"

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, storage.FormatTime(time.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// AppliedMigrations lists recorded migration versions in order.
func (db *DB) AppliedMigrations() ([]string, error) {
	var versions []string
	if err := db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	return versions, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// parseTime reads a stored date. Rows written by this package use
// storage.TimeLayout; RFC3339 text from other writers is accepted too.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(storage.TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}
