package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/userctl/internal/storage"
)

// Defaults for get-range.
const (
	DefaultRangeOffset = 0
	DefaultRangeLimit  = 10
)

// runGetUserPartial reports only the first match.
func runGetUserPartial(ctx context.Context, a *app, s *storage.Session, args []string) error {
	u, err := s.FindPartial(ctx, args[0])
	if err != nil {
		return err
	}
	if u == nil {
		return a.report(StatusResponse{Status: StatusNotFound, Message: "No matches found"})
	}
	return a.printUser(*u)
}

func runGetRange(ctx context.Context, a *app, s *storage.Session, args []string) error {
	offset, limit, err := parseRange(args)
	if err != nil {
		return err
	}

	users, err := s.ListRange(ctx, offset, limit)
	if err != nil {
		return err
	}
	return a.printUsers(users, "No users found within range")
}

// parseRange reads the optional offset and limit arguments.
func parseRange(args []string) (offset, limit int, err error) {
	offset, limit = DefaultRangeOffset, DefaultRangeLimit
	if len(args) > 0 {
		if offset, err = parseNonNegative("offset", args[0]); err != nil {
			return 0, 0, err
		}
	}
	if len(args) > 1 {
		if limit, err = parseNonNegative("limit", args[1]); err != nil {
			return 0, 0, err
		}
	}
	return offset, limit, nil
}

func parseNonNegative(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, n)
	}
	return n, nil
}

// nonNegativeIntArgs rejects get-range arguments before a session is opened.
func nonNegativeIntArgs(cmd *cobra.Command, args []string) error {
	_, _, err := parseRange(args)
	return err
}
