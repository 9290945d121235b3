package main

import (
	"context"
	"errors"

	"github.com/matsen/userctl/internal/storage"
	"github.com/matsen/userctl/internal/user"
)

func runDeleteUser(ctx context.Context, a *app, s *storage.Session, args []string) error {
	username := args[0]

	err := s.DeleteUser(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return a.report(StatusResponse{Status: StatusNotFound, Message: "User " + username + " does not exist"})
	}
	if err != nil {
		return err
	}

	return a.report(StatusResponse{Status: StatusDeleted, Message: "Successfully deleted user " + username})
}
