package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	dbsql "agora/pkg/database/sql"
	"agora/pkg/logging"
)

// ApplySchema executes the embedded schema files in filename order. The
// statements are written to be idempotent, so running this on every boot
// is safe.
func ApplySchema(ctx context.Context, db PostgresConn, logger logging.Logger) error {
	entries, err := fs.Glob(dbsql.Content, "schema/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list schema files: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		content, err := dbsql.Content.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply schema file %s: %w", name, err)
		}
		logger.WithField("file", name).Info("Applied schema file")
	}
	return nil
}
