package repository

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
)

const idIndex = "id"

// Memory is a Store held in an in-memory go-memdb table. It mirrors the
// Postgres semantics, including unique filter columns, and is used for
// tests and STORE_DRIVER=memory.
type Memory[T any, PT EntityPtr[T]] struct {
	db     *memdb.MemDB
	table  Table[T]
	nextID atomic.Int64
}

// NewMemory creates an empty in-memory Store for table.
func NewMemory[T any, PT EntityPtr[T]](table Table[T]) (*Memory[T, PT], error) {
	indexes := map[string]*memdb.IndexSchema{
		idIndex: {
			Name:    idIndex,
			Unique:  true,
			Indexer: &memdb.IntFieldIndex{Field: "ID"},
		},
	}
	for param, spec := range table.Filters {
		indexes[param] = &memdb.IndexSchema{
			Name:         param,
			AllowMissing: true,
			Indexer:      &memdb.StringFieldIndex{Field: spec.Field},
		}
	}

	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table.Name: {Name: table.Name, Indexes: indexes},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb for %s: %w", table.Name, err)
	}
	return &Memory[T, PT]{db: db, table: table}, nil
}

// Get retrieves an entity by id.
func (s *Memory[T, PT]) Get(_ context.Context, id int64) (*T, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	existing, err := s.first(txn, id)
	if err != nil {
		return nil, err
	}
	return clone(existing), nil
}

// List returns entities matching filter in ascending id order.
func (s *Memory[T, PT]) List(_ context.Context, filter Filter) ([]*T, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	keys := s.table.filterKeys(filter)

	var (
		it  memdb.ResultIterator
		err error
	)
	if len(keys) > 0 {
		it, err = txn.Get(s.table.Name, keys[0], filter[keys[0]])
		keys = keys[1:]
	} else {
		// IntFieldIndex has no prefix form; every key sorts at or above id 0.
		it, err = txn.LowerBound(s.table.Name, idIndex, int64(0))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table.Name, err)
	}

	entities := make([]*T, 0)
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entity := raw.(*T)
		if s.matches(entity, keys, filter) {
			entities = append(entities, clone(entity))
		}
	}

	// IntFieldIndex keys are varint encoded, so index order is not numeric order.
	slices.SortFunc(entities, func(a, b *T) int {
		return compareInt64(PT(a).GetID(), PT(b).GetID())
	})
	return entities, nil
}

// Create stores a copy of entity under a fresh id.
func (s *Memory[T, PT]) Create(_ context.Context, entity *T) (*T, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	stored := clone(entity)
	id := s.nextID.Add(1)
	PT(stored).SetID(id)

	if err := s.checkUnique(txn, stored); err != nil {
		return nil, err
	}
	if err := txn.Insert(s.table.Name, stored); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.table.Name, err)
	}
	txn.Commit()

	PT(entity).SetID(id)
	return clone(stored), nil
}

// Update replaces entity id with a copy of entity.
func (s *Memory[T, PT]) Update(_ context.Context, id int64, entity *T) (*T, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	if _, err := s.first(txn, id); err != nil {
		return nil, err
	}

	stored := clone(entity)
	PT(stored).SetID(id)

	if err := s.checkUnique(txn, stored); err != nil {
		return nil, err
	}
	if err := txn.Insert(s.table.Name, stored); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", s.table.Name, err)
	}
	txn.Commit()

	return clone(stored), nil
}

// Delete removes entity id.
func (s *Memory[T, PT]) Delete(_ context.Context, id int64) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := s.first(txn, id)
	if err != nil {
		return err
	}
	if err := txn.Delete(s.table.Name, existing); err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.table.Name, err)
	}
	txn.Commit()
	return nil
}

func (s *Memory[T, PT]) first(txn *memdb.Txn, id int64) (*T, error) {
	raw, err := txn.First(s.table.Name, idIndex, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.table.Name, err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return raw.(*T), nil
}

// checkUnique rejects entity when a unique filter column already holds its
// value on another row.
func (s *Memory[T, PT]) checkUnique(txn *memdb.Txn, entity *T) error {
	for param, spec := range s.table.Filters {
		if !spec.Unique {
			continue
		}
		value := fieldString(entity, spec.Field)
		if value == "" {
			continue
		}
		raw, err := txn.First(s.table.Name, param, value)
		if err != nil {
			return fmt.Errorf("failed to check %s.%s: %w", s.table.Name, spec.Column, err)
		}
		if raw != nil && PT(raw.(*T)).GetID() != PT(entity).GetID() {
			return ErrConflict
		}
	}
	return nil
}

func (s *Memory[T, PT]) matches(entity *T, keys []string, filter Filter) bool {
	for _, key := range keys {
		if fieldString(entity, s.table.Filters[key].Field) != filter[key] {
			return false
		}
	}
	return true
}

func fieldString[T any](entity *T, field string) string {
	return reflect.ValueOf(entity).Elem().FieldByName(field).String()
}

func clone[T any](entity *T) *T {
	c := *entity
	return &c
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
