package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/matsen/userctl/internal/user"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM users WHERE id = ?", "SELECT * FROM users WHERE id = ?"},
		{DriverPostgres, "SELECT * FROM users WHERE id = ?", "SELECT * FROM users WHERE id = $1"},
		{DriverPostgres, "INSERT INTO users VALUES (?, ?, ?)", "INSERT INTO users VALUES ($1, $2, $3)"},
		{DriverPostgres, "SELECT COUNT(*) FROM users", "SELECT COUNT(*) FROM users"},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.query, func(t *testing.T) {
			d, err := dialectFor(tt.driver)
			if err != nil {
				t.Fatalf("dialectFor(%q) error = %v", tt.driver, err)
			}
			if got := d.rebind(tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	if _, err := dialectFor("SQLite"); err != nil {
		t.Errorf("dialectFor(SQLite) error = %v", err)
	}
	if _, err := dialectFor("mysql"); err == nil {
		t.Error("dialectFor(mysql) should fail")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantDup   bool
		wantField string
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("connection refused")},
		{
			name:      "pq unique violation from detail",
			err:       &pq.Error{Code: "23505", Detail: "Key (email)=(a@x.com) already exists."},
			wantDup:   true,
			wantField: "email",
		},
		{
			name:      "pq unique violation from constraint",
			err:       &pq.Error{Code: "23505", Constraint: "users_username_key"},
			wantDup:   true,
			wantField: "username",
		},
		{
			name:    "pq unique violation unknown constraint",
			err:     &pq.Error{Code: "23505", Constraint: "custom_idx"},
			wantDup: true,
		},
		{
			name:      "wrapped pq unique violation",
			err:       fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"}),
			wantDup:   true,
			wantField: "email",
		},
		{name: "pq not null violation", err: &pq.Error{Code: "23502"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("classify(nil) = %v, want nil", got)
				}
				return
			}

			if errors.Is(got, user.ErrDuplicate) != tt.wantDup {
				t.Fatalf("errors.Is(classify(), ErrDuplicate) = %v, want %v", !tt.wantDup, tt.wantDup)
			}
			if !tt.wantDup {
				if got != tt.err {
					t.Errorf("classify() = %v, want original error", got)
				}
				return
			}

			var dup *DuplicateKeyError
			if !errors.As(got, &dup) {
				t.Fatalf("classify() = %T, want *DuplicateKeyError", got)
			}
			if dup.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", dup.Field, tt.wantField)
			}
			if !errors.Is(got, tt.err) {
				t.Error("DuplicateKeyError does not unwrap to the driver error")
			}
		})
	}
}
