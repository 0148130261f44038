// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Entity is implemented by every persisted resource record.
type Entity interface {
	GetID() int64
	SetID(id int64)
	Validate() error
}

// FormBinder populates an entity from URL query parameters.
// Used by the POST /api/{resource}/post route, which takes fields as params.
type FormBinder interface {
	BindForm(values url.Values) error
}

// Base carries the server-assigned identifier shared by all entities.
type Base struct {
	ID int64 `json:"id" db:"id"`
}

// GetID returns the entity identifier.
func (b *Base) GetID() int64 {
	return b.ID
}

// SetID sets the entity identifier.
func (b *Base) SetID(id int64) {
	b.ID = id
}

// ValidationError reports a malformed or missing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// formInt parses an optional integer query parameter.
func formInt(values url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

// formFloat parses an optional float query parameter.
func formFloat(values url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: key, Message: "must be a number"}
	}
	return f, nil
}

// formBool parses an optional boolean query parameter.
func formBool(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ValidationError{Field: key, Message: "must be true or false"}
	}
	return b, nil
}
