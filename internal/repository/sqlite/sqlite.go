// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without CGo. Queries go through sqlx (struct scanning via `db` tags) and
// partial UPDATEs are built with goqu's sqlite3 dialect.
//
// dbPath examples:
//   - "data/library.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database, used by the tests
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect renders goqu statements with SQLite quoting and ? placeholders.
var dialect = goqu.Dialect("sqlite3")

// DB wraps a sqlx connection pool and implements every repository interface.
type DB struct {
	conn *sqlx.DB
}

// New opens the database, applies connection pragmas and runs migrations.
//
// The pool is capped at one connection. SQLite allows a single writer anyway,
// an in-memory database only exists on the connection that created it, and
// per-connection pragmas (foreign_keys) then hold for every query.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []struct{ name, stmt string }{
		{"setting WAL mode", "PRAGMA journal_mode=WAL"},
		{"enabling foreign keys", "PRAGMA foreign_keys=ON"},
		{"setting busy timeout", "PRAGMA busy_timeout=5000"},
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p.name, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			author       TEXT NOT NULL,
			published_at DATE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating books table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			birth_date DATE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating students table: %w", err)
	}

	// The partial unique index is what makes "one active borrow per book"
	// hold even if two writers race past the application check.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS borrows (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id     INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			student_id  INTEGER NOT NULL REFERENCES students(id),
			borrowed_at DATETIME NOT NULL,
			returned_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_borrows_book_id ON borrows(book_id);
		CREATE INDEX IF NOT EXISTS idx_borrows_student_id ON borrows(student_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_borrows_active_book
			ON borrows(book_id) WHERE returned_at IS NULL;
	`)
	if err != nil {
		return fmt.Errorf("creating borrows table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error. Inside fn every statement must go through tx: the pool
// has a single connection, so touching db.conn would block forever.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isConstraintViolation reports whether err is a SQLite constraint failure
// (UNIQUE, FOREIGN KEY, ...). The primary result code sits in the low byte
// of extended codes, so both forms are recognised.
func isConstraintViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// constraintCode returns the extended result code of a constraint failure,
// e.g. sqlite3.SQLITE_CONSTRAINT_UNIQUE. ok is false for any other error.
func constraintCode(err error) (code int, ok bool) {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0, false
	}
	return se.Code(), true
}
