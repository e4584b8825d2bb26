package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
)

// Migrate applies every *.sql file of fsys in name order. Migrations are
// written to be idempotent, so running them again is harmless.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS, applied func(name string)) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := s.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if applied != nil {
			applied(name)
		}
	}
	return nil
}
