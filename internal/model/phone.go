package model

import (
	"math"
	"net/url"
)

// Phone is a phone model with its list price in whole dollars.
type Phone struct {
	Base
	Brand string `json:"brand" db:"brand"`
	Model string `json:"model" db:"model"`
	Price int64  `json:"price" db:"price"`
}

// Validate checks required fields and that the price fits the INTEGER
// column and is not negative.
func (p *Phone) Validate() error {
	if err := firstError(
		requireField("brand", p.Brand),
		requireField("model", p.Model),
	); err != nil {
		return err
	}
	if p.Price < 0 {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if p.Price > math.MaxInt32 {
		return &ValidationError{Field: "price", Message: "must be at most 2147483647"}
	}
	return nil
}

// BindForm reads fields from query parameters.
func (p *Phone) BindForm(values url.Values) error {
	price, err := formInt(values, "price")
	if err != nil {
		return err
	}
	p.Brand = values.Get("brand")
	p.Model = values.Get("model")
	p.Price = price
	return nil
}
