package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// LocalDateTimeLayout is the wire format for dates without a zone,
// e.g. 2022-01-03T00:00:00.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime is a wall-clock timestamp without time zone.
// Stored as TIMESTAMP (without time zone) in PostgreSQL.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime truncates t to whole seconds and drops its zone.
func NewLocalDateTime(t time.Time) LocalDateTime {
	t = t.Truncate(time.Second)
	return LocalDateTime{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseLocalDateTime parses the wire format. RFC 3339 input is accepted
// and its zone discarded.
func ParseLocalDateTime(raw string) (LocalDateTime, error) {
	if t, err := time.Parse(LocalDateTimeLayout, raw); err == nil {
		return NewLocalDateTime(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("parse local date time %q: %w", raw, err)
	}
	return NewLocalDateTime(t), nil
}

// String formats the timestamp in the wire format.
func (t LocalDateTime) String() string {
	return t.Format(LocalDateTimeLayout)
}

// MarshalJSON encodes the zone-less wire format, or null for the zero value.
func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON decodes the wire format.
func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = LocalDateTime{}
		return nil
	}
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("local date time must be a string: %w", err)
	}
	parsed, err := ParseLocalDateTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner.
func (t *LocalDateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = LocalDateTime{}
		return nil
	case time.Time:
		*t = NewLocalDateTime(v)
		return nil
	case string:
		parsed, err := ParseLocalDateTime(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalDateTime", src)
	}
}

// Value implements driver.Valuer.
func (t LocalDateTime) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time, nil
}
