package model

import "net/url"

// UCSBDiningCommons is a campus dining hall. Code is unique across rows.
type UCSBDiningCommons struct {
	Base
	Code           string  `json:"code" db:"code"`
	Name           string  `json:"name" db:"name"`
	HasSackMeal    bool    `json:"hasSackMeal" db:"has_sack_meal"`
	HasTakeOutMeal bool    `json:"hasTakeOutMeal" db:"has_take_out_meal"`
	HasDiningCam   bool    `json:"hasDiningCam" db:"has_dining_cam"`
	Latitude       float64 `json:"latitude" db:"latitude"`
	Longitude      float64 `json:"longitude" db:"longitude"`
}

// Validate checks required fields and coordinate ranges.
func (d *UCSBDiningCommons) Validate() error {
	if err := firstError(
		requireField("code", d.Code),
		requireField("name", d.Name),
	); err != nil {
		return err
	}
	if d.Latitude < -90 || d.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	return nil
}

// BindForm reads fields from query parameters.
func (d *UCSBDiningCommons) BindForm(values url.Values) error {
	var err error
	d.Code = values.Get("code")
	d.Name = values.Get("name")
	if d.HasSackMeal, err = formBool(values, "hasSackMeal"); err != nil {
		return err
	}
	if d.HasTakeOutMeal, err = formBool(values, "hasTakeOutMeal"); err != nil {
		return err
	}
	if d.HasDiningCam, err = formBool(values, "hasDiningCam"); err != nil {
		return err
	}
	if d.Latitude, err = formFloat(values, "latitude"); err != nil {
		return err
	}
	if d.Longitude, err = formFloat(values, "longitude"); err != nil {
		return err
	}
	return nil
}
