package model

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Acres is stored as NUMERIC(12, 2).
const acresScale = 2

var maxAcres = decimal.New(1, 10)

func init() {
	// Acres is a JSON number on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Park is a public park and its size in acres.
type Park struct {
	Base
	Name  string          `json:"name" db:"name"`
	City  string          `json:"city" db:"city"`
	State string          `json:"state" db:"state"`
	Acres decimal.Decimal `json:"acres" db:"acres"`
}

// Validate checks required fields and that acreage is a non-negative value
// with at most two decimal places below 1e10.
func (p *Park) Validate() error {
	if err := firstError(
		requireField("name", p.Name),
		requireField("state", p.State),
	); err != nil {
		return err
	}
	if p.Acres.IsNegative() {
		return &ValidationError{Field: "acres", Message: "must not be negative"}
	}
	if !p.Acres.Equal(p.Acres.Round(acresScale)) {
		return &ValidationError{Field: "acres", Message: "must have at most 2 decimal places"}
	}
	if p.Acres.GreaterThanOrEqual(maxAcres) {
		return &ValidationError{Field: "acres", Message: "must be less than 10000000000"}
	}
	return nil
}

// BindForm reads fields from query parameters.
func (p *Park) BindForm(values url.Values) error {
	p.Name = values.Get("name")
	p.City = values.Get("city")
	p.State = values.Get("state")

	p.Acres = decimal.Zero
	if raw := strings.TrimSpace(values.Get("acres")); raw != "" {
		acres, err := decimal.NewFromString(raw)
		if err != nil {
			return &ValidationError{Field: "acres", Message: "must be a decimal number"}
		}
		p.Acres = acres
	}
	return nil
}
