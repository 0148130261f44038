// Package service holds the application logic between the HTTP handlers
// and the stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
)

// Domain errors.
var (
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("entity conflicts with an existing one")
)

// NotFoundError names the entity type and id that were not found.
// It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Entities runs validation and bookkeeping around one entity store.
type Entities[T any, PT repository.EntityPtr[T]] struct {
	name     string
	store    repository.Store[T]
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewEntities creates the service for entity type name (e.g. "Major").
func NewEntities[T any, PT repository.EntityPtr[T]](name string, store repository.Store[T], recorder metrics.Recorder, logger *slog.Logger) *Entities[T, PT] {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Entities[T, PT]{name: name, store: store, recorder: recorder, logger: logger}
}

// Name returns the entity type name used in messages.
func (s *Entities[T, PT]) Name() string {
	return s.name
}

// Get returns the entity with id.
func (s *Entities[T, PT]) Get(ctx context.Context, id int64) (*T, error) {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return entity, nil
}

// List returns every entity matching filter, ordered by id.
func (s *Entities[T, PT]) List(ctx context.Context, filter repository.Filter) ([]*T, error) {
	entities, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	return entities, nil
}

// Create validates entity and stores it under a new id. Any id on the
// input is ignored.
func (s *Entities[T, PT]) Create(ctx context.Context, entity *T) (*T, error) {
	PT(entity).SetID(0)
	if err := PT(entity).Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, entity)
	if err != nil {
		return nil, s.mapError(err, 0)
	}

	s.recorder.IncEntityOperation(s.name, metrics.OpCreated)
	s.logger.Info("entity_created",
		slog.String("entity", s.name),
		slog.Int64("id", PT(created).GetID()),
	)
	return created, nil
}

// Update replaces every field of the entity with id.
func (s *Entities[T, PT]) Update(ctx context.Context, id int64, entity *T) (*T, error) {
	PT(entity).SetID(id)
	if err := PT(entity).Validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, entity)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	s.recorder.IncEntityOperation(s.name, metrics.OpUpdated)
	s.logger.Info("entity_updated", slog.String("entity", s.name), slog.Int64("id", id))
	return updated, nil
}

// Delete removes the entity with id.
func (s *Entities[T, PT]) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}

	s.recorder.IncEntityOperation(s.name, metrics.OpDeleted)
	s.logger.Info("entity_deleted", slog.String("entity", s.name), slog.Int64("id", id))
	return nil
}

func (s *Entities[T, PT]) mapError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.recorder.IncEntityNotFound(s.name)
		return &NotFoundError{Entity: s.name, ID: id}
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", s.name, ErrConflict)
	default:
		return fmt.Errorf("%s store: %w", s.name, err)
	}
}
