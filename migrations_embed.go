package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"

	"food-delivery/db"
)

// Embed migrations into the binary so `food-delivery migrate` works
// regardless of the current working directory.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func applyMigrations(ctx context.Context, st *db.Store, log logrus.FieldLogger) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	return st.Migrate(ctx, sub, func(name string) {
		log.WithField("migration", name).Info("migration applied")
	})
}
