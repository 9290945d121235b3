package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matsen/userctl/internal/user"
)

// Status values reported by commands in JSON output.
const (
	StatusInitialized = "initialized"
	StatusCreated     = "created"
	StatusUpdated     = "updated"
	StatusDeleted     = "deleted"
	StatusNotFound    = "not_found"
	StatusDuplicate   = "duplicate"
)

// StatusResponse is the JSON response for commands that report a status.
type StatusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	User    *user.User  `json:"user,omitempty"`
	Users   []user.User `json:"users,omitempty"`
}

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// report prints a status message, or the equivalent StatusResponse in JSON mode.
func (a *app) report(resp StatusResponse) error {
	if a.jsonOutput {
		return outputJSON(a.out, resp)
	}
	_, err := fmt.Fprintln(a.out, resp.Message)
	return err
}

// printUser prints a single record.
func (a *app) printUser(u user.User) error {
	if a.jsonOutput {
		return outputJSON(a.out, u)
	}
	_, err := fmt.Fprintln(a.out, u)
	return err
}

// printUsers prints records one per line. An empty result prints
// emptyMessage, or an empty JSON array in JSON mode.
func (a *app) printUsers(users []user.User, emptyMessage string) error {
	if a.jsonOutput {
		if users == nil {
			users = []user.User{}
		}
		return outputJSON(a.out, users)
	}

	if len(users) == 0 {
		_, err := fmt.Fprintln(a.out, emptyMessage)
		return err
	}
	for _, u := range users {
		if _, err := fmt.Fprintln(a.out, u); err != nil {
			return err
		}
	}
	return nil
}
