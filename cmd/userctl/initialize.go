package main

import (
	"context"
	"fmt"

	"github.com/matsen/userctl/internal/storage"
	"github.com/matsen/userctl/internal/user"
)

func runInitialize(ctx context.Context, a *app, s *storage.Session, args []string) error {
	created, err := s.Initialize(ctx, user.Seed())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	a.log.WithField("users", len(created)).Info("database initialized")

	return a.report(StatusResponse{
		Status:  StatusInitialized,
		Message: "Database Initialized",
		Users:   created,
	})
}
