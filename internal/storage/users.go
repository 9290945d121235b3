package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/userctl/internal/user"
)

// ErrInvalidRange is returned by ListRange for a negative offset or limit.
var ErrInvalidRange = errors.New("offset and limit must not be negative")

// selectUserFields contains the standard field list for SELECT queries.
const selectUserFields = `id, username, email, password`

// Initialize drops and recreates the users table, then inserts seed in order.
// Returns the seeded users with their assigned IDs.
func (s *Session) Initialize(ctx context.Context, seed []user.User) ([]user.User, error) {
	var created []user.User
	err := s.inTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DROP TABLE IF EXISTS users`); err != nil {
			return fmt.Errorf("dropping users table: %w", err)
		}
		if _, err := q.ExecContext(ctx, s.dialect.createDDL); err != nil {
			return fmt.Errorf("creating users table: %w", err)
		}
		for _, u := range seed {
			stored, err := s.insertUser(ctx, q, u)
			if err != nil {
				return fmt.Errorf("seeding %s: %w", u.Username, err)
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("seeded", len(created)).Debug("schema initialized")
	return created, nil
}

// CreateUser inserts a new user and returns it with its assigned ID.
// A username or email that is already taken yields a *DuplicateKeyError and
// leaves the table unchanged.
func (s *Session) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if err := u.Validate(); err != nil {
		return user.User{}, err
	}

	var stored user.User
	err := s.inTx(ctx, func(q querier) error {
		var err error
		stored, err = s.insertUser(ctx, q, u)
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	return stored, nil
}

func (s *Session) insertUser(ctx context.Context, q querier, u user.User) (user.User, error) {
	query := s.dialect.rebind(`INSERT INTO users (username, email, password) VALUES (?, ?, ?) RETURNING id`)
	if err := q.QueryRowContext(ctx, query, u.Username, u.Email, u.Password).Scan(&u.ID); err != nil {
		if err = classify(err); errors.Is(err, user.ErrDuplicate) {
			s.log.WithError(err).Debug("duplicate key on insert")
			return user.User{}, err
		}
		return user.User{}, fmt.Errorf("inserting user %s: %w", u.Username, err)
	}
	return u, nil
}

// GetUser retrieves a user by exact username.
// Returns (nil, nil) if no such user exists.
func (s *Session) GetUser(ctx context.Context, username string) (*user.User, error) {
	return s.getUser(ctx, s.conn, username)
}

func (s *Session) getUser(ctx context.Context, q querier, username string) (*user.User, error) {
	query := s.dialect.rebind(`SELECT ` + selectUserFields + ` FROM users WHERE username = ?`)
	u, err := scanUser(q.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return u, nil
}

// ListUsers returns every user ordered by ID.
func (s *Session) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+selectUserFields+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdateEmail changes the email of the named user, leaving every other
// field untouched. Returns user.ErrNotFound if the user does not exist.
func (s *Session) UpdateEmail(ctx context.Context, username, email string) (user.User, error) {
	if err := user.ValidateEmail(email); err != nil {
		return user.User{}, err
	}

	var updated user.User
	err := s.inTx(ctx, func(q querier) error {
		u, err := s.getUser(ctx, q, username)
		if err != nil {
			return err
		}
		if u == nil {
			return user.ErrNotFound
		}

		query := s.dialect.rebind(`UPDATE users SET email = ? WHERE id = ?`)
		if _, err := q.ExecContext(ctx, query, email, u.ID); err != nil {
			if err = classify(err); errors.Is(err, user.ErrDuplicate) {
				return err
			}
			return fmt.Errorf("updating email for %s: %w", username, err)
		}

		u.Email = email
		updated = *u
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return updated, nil
}

// DeleteUser removes the named user.
// Returns user.ErrNotFound if the user does not exist.
func (s *Session) DeleteUser(ctx context.Context, username string) error {
	return s.inTx(ctx, func(q querier) error {
		query := s.dialect.rebind(`DELETE FROM users WHERE username = ?`)
		res, err := q.ExecContext(ctx, query, username)
		if err != nil {
			return fmt.Errorf("deleting user %s: %w", username, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting user %s: %w", username, err)
		}
		if n == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

// FindPartial returns the first user (by ID) whose username or email
// contains term, ignoring case. Returns (nil, nil) when nothing matches.
func (s *Session) FindPartial(ctx context.Context, term string) (*user.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := s.dialect.rebind(`
		SELECT ` + selectUserFields + `
		FROM users
		WHERE LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT 1`)

	u, err := scanUser(s.conn.QueryRowContext(ctx, query, pattern, pattern))
	if err != nil {
		return nil, fmt.Errorf("searching users for %q: %w", term, err)
	}
	return u, nil
}

// ListRange returns up to limit users ordered by ID, skipping the first offset.
func (s *Session) ListRange(ctx context.Context, offset, limit int) ([]user.User, error) {
	if offset < 0 || limit < 0 {
		return nil, ErrInvalidRange
	}

	query := s.dialect.rebind(`SELECT ` + selectUserFields + ` FROM users ORDER BY id LIMIT ? OFFSET ?`)
	rows, err := s.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users %d-%d: %w", offset, offset+limit, err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// CountUsers returns the total number of users.
func (s *Session) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*user.User, error) {
	var u user.User
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]user.User, error) {
	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// escapeLike escapes LIKE wildcards so term matches literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
