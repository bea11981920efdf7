package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/draftroom/go/internal/database"
	"github.com/mcdev12/draftroom/go/internal/dbconfig"
)

func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*pgxpool.Pool, error) {
	if err := database.Migrate(cfg); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pool, nil
}
