package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/userctl/internal/storage"
	"github.com/matsen/userctl/internal/user"
)

func runChangeEmail(ctx context.Context, a *app, s *storage.Session, args []string) error {
	username, newEmail := args[0], args[1]

	updated, err := s.UpdateEmail(ctx, username, newEmail)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return a.report(StatusResponse{Status: StatusNotFound, Message: username + " does not exist"})
	case errors.Is(err, user.ErrDuplicate):
		return a.report(StatusResponse{Status: StatusDuplicate, Message: "Email already taken!"})
	case err != nil:
		return err
	}

	return a.report(StatusResponse{
		Status:  StatusUpdated,
		Message: fmt.Sprintf("Updated %s's email to %s", updated.Username, updated.Email),
		User:    &updated,
	})
}
