package model

import (
	"net/url"
	"regexp"
	"strings"
)

// quarterPattern matches a year followed by a quarter digit (1=W, 2=S, 3=M, 4=F).
var quarterPattern = regexp.MustCompile(`^[0-9]{4}[1-4]$`)

// UCSBDate is a named date within an academic quarter.
type UCSBDate struct {
	Base
	QuarterYYYYQ  string        `json:"quarterYYYYQ" db:"quarter_yyyyq"`
	Name          string        `json:"name" db:"name"`
	LocalDateTime LocalDateTime `json:"localDateTime" db:"local_date_time"`
}

// Validate checks the quarter format and required fields.
func (d *UCSBDate) Validate() error {
	if !quarterPattern.MatchString(d.QuarterYYYYQ) {
		return &ValidationError{Field: "quarterYYYYQ", Message: "must be a four digit year followed by a quarter 1-4"}
	}
	if err := requireField("name", d.Name); err != nil {
		return err
	}
	if d.LocalDateTime.IsZero() {
		return &ValidationError{Field: "localDateTime", Message: "is required"}
	}
	return nil
}

// BindForm reads fields from query parameters.
func (d *UCSBDate) BindForm(values url.Values) error {
	d.QuarterYYYYQ = values.Get("quarterYYYYQ")
	d.Name = values.Get("name")
	d.LocalDateTime = LocalDateTime{}

	if raw := strings.TrimSpace(values.Get("localDateTime")); raw != "" {
		parsed, err := ParseLocalDateTime(raw)
		if err != nil {
			return &ValidationError{Field: "localDateTime", Message: "must use the format " + LocalDateTimeLayout}
		}
		d.LocalDateTime = parsed
	}
	return nil
}
