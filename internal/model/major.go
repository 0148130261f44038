package model

import "net/url"

// Major is an academic major offered by a department.
type Major struct {
	Base
	Name          string `json:"name" db:"name"`
	Department    string `json:"department" db:"department"`
	DegreePursued string `json:"degreePursued" db:"degree_pursued"`
}

// Validate checks required fields.
func (m *Major) Validate() error {
	return firstError(
		requireField("name", m.Name),
		requireField("department", m.Department),
		requireField("degreePursued", m.DegreePursued),
	)
}

// BindForm reads fields from query parameters.
func (m *Major) BindForm(values url.Values) error {
	m.Name = values.Get("name")
	m.Department = values.Get("department")
	m.DegreePursued = values.Get("degreePursued")
	return nil
}
