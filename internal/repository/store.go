package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// Common errors for entity store operations.
var (
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("entity conflicts with an existing row")
)

// Filter restricts List to rows whose columns equal the given values.
// Keys are query parameter names; keys not declared by the table are ignored.
type Filter map[string]string

// Store is the data access contract shared by every resource type.
type Store[T any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, filter Filter) ([]*T, error)
	Create(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, id int64, entity *T) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// EntityPtr constrains a type parameter to a pointer to T implementing model.Entity.
type EntityPtr[T any] interface {
	*T
	model.Entity
}

// FilterSpec maps a filter parameter to a column and its struct field.
type FilterSpec struct {
	Column string
	Field  string
	Unique bool
}

// Table describes how an entity type maps onto a relational table.
type Table[T any] struct {
	// Name is the SQL table name.
	Name string
	// Entity is the display name used in messages, e.g. "Major".
	Entity string
	// Columns lists the writable columns in Values order. id is implicit.
	Columns []string
	Values  func(entity *T) []any
	Filters map[string]FilterSpec
}

// filterKeys returns the declared filter parameters present in f, sorted.
func (t Table[T]) filterKeys(f Filter) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		if _, ok := t.Filters[k]; ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
