package repository

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrateLockID serializes concurrent migrators across processes.
const migrateLockID int64 = 156156

// Migration is one schema change, identified by its file name stem,
// e.g. "000003_majors".
type Migration struct {
	Name string
	Up   string
	Down string
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from fsys,
// ordered by name.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	slices.Sort(ups)

	migrations := make([]Migration, 0, len(ups))
	for _, up := range ups {
		name := strings.TrimSuffix(up, ".up.sql")

		upSQL, err := fs.ReadFile(fsys, up)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", up, err)
		}
		downSQL, err := fs.ReadFile(fsys, name+".down.sql")
		if err != nil {
			return nil, fmt.Errorf("missing down migration for %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name, Up: string(upSQL), Down: string(downSQL)})
	}
	return migrations, nil
}

// pending returns migrations not yet recorded in applied, in order.
func pending(all []Migration, applied []string) []Migration {
	var out []Migration
	for _, m := range all {
		if !slices.Contains(applied, m.Name) {
			out = append(out, m)
		}
	}
	return out
}

// Migrate applies every pending migration in fsys and returns the names applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	all, err := LoadMigrations(fsys)
	if err != nil {
		return nil, err
	}

	var names []string
	err = withMigrationLock(ctx, pool, func(tx pgx.Tx) error {
		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		for _, m := range pending(all, applied) {
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return fmt.Errorf("failed to apply %s: %w", m.Name, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
				return fmt.Errorf("failed to record %s: %w", m.Name, err)
			}
			names = append(names, m.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// MigrateDown reverts the most recently applied migration and returns its
// name, or "" when nothing is applied.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) (string, error) {
	all, err := LoadMigrations(fsys)
	if err != nil {
		return "", err
	}

	var reverted string
	err = withMigrationLock(ctx, pool, func(tx pgx.Tx) error {
		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			return nil
		}
		latest := applied[len(applied)-1]

		idx := slices.IndexFunc(all, func(m Migration) bool { return m.Name == latest })
		if idx < 0 {
			return fmt.Errorf("applied migration %s has no file", latest)
		}
		if _, err := tx.Exec(ctx, all[idx].Down); err != nil {
			return fmt.Errorf("failed to revert %s: %w", latest, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, latest); err != nil {
			return fmt.Errorf("failed to unrecord %s: %w", latest, err)
		}
		reverted = latest
		return nil
	})
	return reverted, err
}

func withMigrationLock(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockID); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				name       TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`); err != nil {
			return fmt.Errorf("failed to create schema_migrations: %w", err)
		}
		return fn(tx)
	})
}

func appliedMigrations(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT name FROM schema_migrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan schema_migrations: %w", err)
	}
	return names, nil
}
