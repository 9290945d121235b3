package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/userctl/internal/user"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := New(sqlDB, DriverPostgres, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func TestPostgres_CreateUser(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id`)).
		WithArgs("alice", "a@x.com", "pw").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	err := db.WithSession(ctx, func(s *Session) error {
		u, err := s.CreateUser(ctx, user.User{Username: "alice", Email: "a@x.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "alice", u.Username)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateUser_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("bob", "new@x.com", "pw").
		WillReturnError(&pq.Error{
			Code:       "23505",
			Message:    `duplicate key value violates unique constraint "users_username_key"`,
			Detail:     "Key (username)=(bob) already exists.",
			Constraint: "users_username_key",
		})
	mock.ExpectRollback()

	err := db.WithSession(ctx, func(s *Session) error {
		_, err := s.CreateUser(ctx, user.User{Username: "bob", Email: "new@x.com", Password: "pw"})
		return err
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, user.ErrDuplicate))

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateUser_OtherErrorNotDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "users" does not exist`})
	mock.ExpectRollback()

	err := db.WithSession(ctx, func(s *Session) error {
		_, err := s.CreateUser(ctx, user.User{Username: "bob", Email: "b@x.com"})
		return err
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, user.ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Initialize(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS users`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`BIGSERIAL PRIMARY KEY`)).WillReturnResult(sqlmock.NewResult(0, 0))
	for i, u := range user.Seed() {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(u.Username, u.Email, u.Password).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}
	mock.ExpectCommit()

	err := db.WithSession(ctx, func(s *Session) error {
		created, err := s.Initialize(ctx, user.Seed())
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, int64(2), created[1].ID)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}))
	mock.ExpectRollback()

	err := db.WithSession(ctx, func(s *Session) error {
		_, err := s.UpdateEmail(ctx, "nobody", "n@x.com")
		return err
	})

	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateEmail_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("john").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}).
			AddRow(2, "john", "john@gmail.com", "johnpass"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET email = $1 WHERE id = $2`)).
		WithArgs("bob@mail.com", int64(2)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	err := db.WithSession(ctx, func(s *Session) error {
		_, err := s.UpdateEmail(ctx, "john", "bob@mail.com")
		return err
	})

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteUser_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE username = $1`)).
		WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.WithSession(ctx, func(s *Session) error {
		return s.DeleteUser(ctx, "nobody")
	})

	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindPartial(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(username) LIKE $1 ESCAPE '\' OR LOWER(email) LIKE $2 ESCAPE '\'`)).
		WithArgs(`%50\%%`, `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}))

	err := db.WithSession(ctx, func(s *Session) error {
		u, err := s.FindPartial(ctx, "50%")
		require.NoError(t, err)
		assert.Nil(t, u)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRange(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id LIMIT $1 OFFSET $2`)).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}).
			AddRow(1, "A", "A@x.com", "pw").
			AddRow(2, "B", "B@x.com", "pw"))

	err := db.WithSession(ctx, func(s *Session) error {
		users, err := s.ListRange(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "A", users[0].Username)
		assert.Equal(t, "B", users[1].Username)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
