package model

import "net/url"

// School is a K-12 school. Served under /api/schools.
type School struct {
	Base
	Name     string `json:"name" db:"name"`
	District string `json:"district" db:"district"`
	City     string `json:"city" db:"city"`
	Grades   string `json:"grades" db:"grades"`
}

// Validate checks required fields.
func (s *School) Validate() error {
	return requireField("name", s.Name)
}

// BindForm reads fields from query parameters.
func (s *School) BindForm(values url.Values) error {
	s.Name = values.Get("name")
	s.District = values.Get("district")
	s.City = values.Get("city")
	s.Grades = values.Get("grades")
	return nil
}
