package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/server/*.sql migrations/local/*.sql
var migrations embed.FS

// Open opens the list store database at the given path and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	return open(dbPath, "migrations/server")
}

// OpenLocal opens the client's preference database at the given path and
// runs migrations.
func OpenLocal(dbPath string) (*sql.DB, error) {
	return open(dbPath, "migrations/local")
}

func open(dbPath, dir string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db, dir); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB, dir string) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
