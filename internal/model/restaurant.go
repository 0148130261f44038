package model

import "net/url"

// Restaurant is a place to eat.
type Restaurant struct {
	Base
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Cuisine     string `json:"cuisine" db:"cuisine"`
	Address     string `json:"address" db:"address"`
}

// Validate checks required fields.
func (r *Restaurant) Validate() error {
	return requireField("name", r.Name)
}

// BindForm reads fields from query parameters.
func (r *Restaurant) BindForm(values url.Values) error {
	r.Name = values.Get("name")
	r.Description = values.Get("description")
	r.Cuisine = values.Get("cuisine")
	r.Address = values.Get("address")
	return nil
}
