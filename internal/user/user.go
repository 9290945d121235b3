// Package user defines the user record and its domain errors.
package user

import (
	"errors"
	"fmt"
	"strings"
)

// User is a single row of the users table.
type User struct {
	ID       int64  `json:"id"`       // Assigned by the store on insert
	Username string `json:"username"` // Required, unique
	Email    string `json:"email"`    // Required, unique
	Password string `json:"password"` // Stored as given
}

// Domain errors.
var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyEmail    = errors.New("email is required")
	ErrNotFound      = errors.New("user not found")
	ErrDuplicate     = errors.New("username or email already taken")
)

// Validate checks the fields required to create a user.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// ValidateEmail validates just the email.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// String renders the user the way the CLI prints records.
func (u User) String() string {
	return fmt.Sprintf("id=%d username='%s' email='%s' password='%s'", u.ID, u.Username, u.Email, u.Password)
}

// Seed returns the fixed users written by initialize, in insertion order.
func Seed() []User {
	return []User{
		{Username: "bob", Email: "bob@mail.com", Password: "bobpass"},
		{Username: "john", Email: "john@gmail.com", Password: "johnpass"},
	}
}
