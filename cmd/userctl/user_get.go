package main

import (
	"context"

	"github.com/matsen/userctl/internal/storage"
)

func runGetUser(ctx context.Context, a *app, s *storage.Session, args []string) error {
	username := args[0]

	u, err := s.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		return a.report(StatusResponse{Status: StatusNotFound, Message: username + " not found!"})
	}
	return a.printUser(*u)
}

func runGetAllUsers(ctx context.Context, a *app, s *storage.Session, args []string) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	return a.printUsers(users, "No users found")
}
