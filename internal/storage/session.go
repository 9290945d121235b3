package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// querier is the subset of *sql.Conn and *sql.Tx used by queries.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is one dedicated connection held for the duration of a command.
// A Session is only valid inside the function passed to WithSession.
type Session struct {
	conn    *sql.Conn
	dialect dialect
	log     logrus.FieldLogger
}

// WithSession acquires a connection, runs fn with it, and releases the
// connection when fn returns, whether or not fn failed.
func (d *DB) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring session: %w", err)
	}
	d.log.Debug("session opened")

	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("releasing session: %w", cerr)
		}
		d.log.Debug("session closed")
	}()

	return fn(&Session{conn: conn, dialect: d.dialect, log: d.log})
}

// inTx runs fn inside a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise.
func (s *Session) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.WithError(rbErr).Warn("rollback failed")
		} else {
			s.log.WithError(err).Debug("transaction rolled back")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	return nil
}
