package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5"
)

// RollbackMigrations executes the scripts found in <migrationsDir>/down.
func RollbackMigrations(ctx context.Context, migrationsDir string) error {
	return ApplyRawMigrations(ctx, filepath.Join(migrationsDir, "down"))
}

func TableExists(ctx context.Context, table string) (bool, error) {
	if DB == nil {
		return false, errors.New("database not initialized")
	}
	var exists bool
	err := DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		table,
	).Scan(&exists)
	return exists, err
}

func GetTableCount(ctx context.Context, table string) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := DB.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func TruncateTables(ctx context.Context, tables ...string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	for _, table := range tables {
		if _, err := DB.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", pgx.Identifier{table}.Sanitize())); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
