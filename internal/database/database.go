package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Dialect identifies the SQL flavour spoken by the underlying driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Executor is satisfied by *DB and *Tx so repository methods can run inside or outside a transaction.
type Executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// DB wraps *sql.DB and rewrites PostgreSQL style placeholders for SQLite.
// Queries must reference each $N once and in ascending order.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Tx is a transaction bound to the dialect of the DB that started it.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Open connects using the named driver ("postgres", "pgx" or "sqlite") and verifies the connection.
func Open(driver, dsn string, maxOpenConns int) (*DB, error) {
	var (
		sqlDB   *sql.DB
		dialect Dialect
		err     error
	)

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		dialect = DialectPostgres
		sqlDB, err = sql.Open("postgres", dsn)
	case "pgx":
		dialect = DialectPostgres
		sqlDB, err = sql.Open("pgx", dsn)
	case "sqlite":
		dialect = DialectSQLite
		path := strings.TrimSpace(dsn)
		if path == "" {
			return nil, errors.New("sqlite path is required")
		}
		sqlDB, err = sql.Open("sqlite", sqliteDSN(path))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return &DB{DB: sqlDB, dialect: dialect}, nil
}

func sqliteDSN(path string) string {
	return filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)&_txlock=immediate&_time_format=sqlite"
}

// Dialect reports the SQL flavour of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// ForUpdate returns the row-lock suffix for SELECT statements. SQLite locks the whole
// database for writers, so it has none.
func (db *DB) ForUpdate() string {
	if db.dialect == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(rebind(db.dialect, query), args...)
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(rebind(db.dialect, query), args...)
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(rebind(db.dialect, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, rebind(db.dialect, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, rebind(db.dialect, query), args...)
}

// Begin starts a transaction that rebinds placeholders like its parent DB.
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.dialect}, nil
}

// InTx runs fn inside a transaction. The transaction is committed when fn returns nil and
// rolled back on error or panic.
func (db *DB) InTx(fn func(exec Executor) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.Tx.Exec(rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.Tx.QueryRow(rebind(tx.dialect, query), args...)
}

func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.Tx.Query(rebind(tx.dialect, query), args...)
}

func rebind(dialect Dialect, query string) string {
	if dialect != DialectSQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}
