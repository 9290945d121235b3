// Package storage provides the relational store behind the users table.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB wraps a database handle together with the SQL dialect it speaks.
type DB struct {
	db      *sql.DB
	dialect dialect
	log     logrus.FieldLogger
}

// Open opens the database for the given driver ("sqlite" or "postgres") and
// verifies the connection. The caller is responsible for calling Close().
func Open(ctx context.Context, driver, dsn string, log logrus.FieldLogger) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.name, err)
	}

	return newDB(db, d, log), nil
}

// New wraps an already opened handle. The driver selects the dialect.
func New(db *sql.DB, driver string, log logrus.FieldLogger) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return newDB(db, d, log), nil
}

func newDB(db *sql.DB, d dialect, log logrus.FieldLogger) *DB {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &DB{
		db:      db,
		dialect: d,
		log:     log.WithField("driver", d.name),
	}
}

// Driver returns the name of the dialect in use.
func (d *DB) Driver() string {
	return d.dialect.name
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
