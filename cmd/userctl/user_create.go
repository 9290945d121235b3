package main

import (
	"context"
	"errors"

	"github.com/matsen/userctl/internal/storage"
	"github.com/matsen/userctl/internal/user"
)

func runCreateUser(ctx context.Context, a *app, s *storage.Session, args []string) error {
	newUser := user.User{Username: args[0], Email: args[1], Password: args[2]}

	created, err := s.CreateUser(ctx, newUser)
	if errors.Is(err, user.ErrDuplicate) {
		a.log.WithError(err).Debug("create rejected")
		return a.report(StatusResponse{Status: StatusDuplicate, Message: duplicateMessage(err)})
	}
	if err != nil {
		return err
	}

	if a.jsonOutput {
		return a.report(StatusResponse{Status: StatusCreated, Message: "Successfully added new user!", User: &created})
	}
	if err := a.report(StatusResponse{Message: "Successfully added new user!"}); err != nil {
		return err
	}
	return a.printUser(created)
}

// duplicateMessage names the taken field when the store reported it.
func duplicateMessage(err error) string {
	var dup *storage.DuplicateKeyError
	if errors.As(err, &dup) {
		switch dup.Field {
		case "username":
			return "Username already taken!"
		case "email":
			return "Email already taken!"
		}
	}
	return "Username or email already taken!"
}
