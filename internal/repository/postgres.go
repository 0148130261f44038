package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store backed by a PostgreSQL table.
type Postgres[T any, PT EntityPtr[T]] struct {
	pool    *pgxpool.Pool
	table   Table[T]
	columns string
}

// NewPostgres creates a Store for table using pool.
func NewPostgres[T any, PT EntityPtr[T]](pool *pgxpool.Pool, table Table[T]) *Postgres[T, PT] {
	return &Postgres[T, PT]{
		pool:    pool,
		table:   table,
		columns: "id, " + strings.Join(table.Columns, ", "),
	}
}

// Get retrieves a row by id.
func (s *Postgres[T, PT]) Get(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, s.columns, s.table.Name)

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.table.Name, err)
	}
	return s.collectOne(rows)
}

// List returns all rows matching filter in ascending id order.
func (s *Postgres[T, PT]) List(ctx context.Context, filter Filter) ([]*T, error) {
	var (
		where []string
		args  []any
	)
	for _, key := range s.table.filterKeys(filter) {
		args = append(args, filter[key])
		where = append(where, fmt.Sprintf("%s = $%d", s.table.Filters[key].Column, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, s.columns, s.table.Name)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table.Name, err)
	}

	entities, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.table.Name, err)
	}
	if entities == nil {
		entities = []*T{}
	}
	return entities, nil
}

// Create inserts entity and returns the stored row with its assigned id.
func (s *Postgres[T, PT]) Create(ctx context.Context, entity *T) (*T, error) {
	placeholders := make([]string, len(s.table.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		s.table.Name,
		strings.Join(s.table.Columns, ", "),
		strings.Join(placeholders, ", "),
		s.columns,
	)

	rows, err := s.pool.Query(ctx, query, s.table.Values(entity)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.table.Name, err)
	}
	created, err := s.collectOne(rows)
	if err != nil {
		return nil, err
	}
	PT(entity).SetID(PT(created).GetID())
	return created, nil
}

// Update replaces every writable column of row id.
func (s *Postgres[T, PT]) Update(ctx context.Context, id int64, entity *T) (*T, error) {
	sets := make([]string, len(s.table.Columns))
	for i, col := range s.table.Columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args := append(s.table.Values(entity), id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING %s`,
		s.table.Name,
		strings.Join(sets, ", "),
		len(args),
		s.columns,
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", s.table.Name, err)
	}
	return s.collectOne(rows)
}

// Delete removes row id.
func (s *Postgres[T, PT]) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table.Name)

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.table.Name, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres[T, PT]) collectOne(rows pgx.Rows) (*T, error) {
	entity, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to scan %s: %w", s.table.Name, err)
	}
	return entity, nil
}
