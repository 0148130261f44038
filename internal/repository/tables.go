package repository

import "github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"

// MajorsTable maps model.Major onto the majors table.
var MajorsTable = Table[model.Major]{
	Name:    "majors",
	Entity:  "Major",
	Columns: []string{"name", "department", "degree_pursued"},
	Values: func(m *model.Major) []any {
		return []any{m.Name, m.Department, m.DegreePursued}
	},
	Filters: map[string]FilterSpec{
		"department": {Column: "department", Field: "Department"},
	},
}

// ParksTable maps model.Park onto the parks table.
var ParksTable = Table[model.Park]{
	Name:    "parks",
	Entity:  "Park",
	Columns: []string{"name", "city", "state", "acres"},
	Values: func(p *model.Park) []any {
		// NUMERIC is sent as text to keep full precision.
		return []any{p.Name, p.City, p.State, p.Acres.String()}
	},
	Filters: map[string]FilterSpec{
		"state": {Column: "state", Field: "State"},
	},
}

// PhonesTable maps model.Phone onto the phones table.
var PhonesTable = Table[model.Phone]{
	Name:    "phones",
	Entity:  "Phone",
	Columns: []string{"brand", "model", "price"},
	Values: func(p *model.Phone) []any {
		return []any{p.Brand, p.Model, p.Price}
	},
	Filters: map[string]FilterSpec{
		"brand": {Column: "brand", Field: "Brand"},
	},
}

// RestaurantsTable maps model.Restaurant onto the restaurants table.
var RestaurantsTable = Table[model.Restaurant]{
	Name:    "restaurants",
	Entity:  "Restaurant",
	Columns: []string{"name", "description", "cuisine", "address"},
	Values: func(r *model.Restaurant) []any {
		return []any{r.Name, r.Description, r.Cuisine, r.Address}
	},
	Filters: map[string]FilterSpec{
		"cuisine": {Column: "cuisine", Field: "Cuisine"},
	},
}

// SchoolsTable maps model.School onto the schools table.
var SchoolsTable = Table[model.School]{
	Name:    "schools",
	Entity:  "School",
	Columns: []string{"name", "district", "city", "grades"},
	Values: func(s *model.School) []any {
		return []any{s.Name, s.District, s.City, s.Grades}
	},
	Filters: map[string]FilterSpec{
		"district": {Column: "district", Field: "District"},
	},
}

// UCSBDatesTable maps model.UCSBDate onto the ucsb_dates table.
var UCSBDatesTable = Table[model.UCSBDate]{
	Name:    "ucsb_dates",
	Entity:  "UCSBDate",
	Columns: []string{"quarter_yyyyq", "name", "local_date_time"},
	Values: func(d *model.UCSBDate) []any {
		return []any{d.QuarterYYYYQ, d.Name, d.LocalDateTime.Time}
	},
	Filters: map[string]FilterSpec{
		"quarterYYYYQ": {Column: "quarter_yyyyq", Field: "QuarterYYYYQ"},
	},
}

// UCSBDiningCommonsTable maps model.UCSBDiningCommons onto the
// ucsb_dining_commons table.
var UCSBDiningCommonsTable = Table[model.UCSBDiningCommons]{
	Name:   "ucsb_dining_commons",
	Entity: "UCSBDiningCommons",
	Columns: []string{
		"code", "name", "has_sack_meal", "has_take_out_meal", "has_dining_cam", "latitude", "longitude",
	},
	Values: func(d *model.UCSBDiningCommons) []any {
		return []any{d.Code, d.Name, d.HasSackMeal, d.HasTakeOutMeal, d.HasDiningCam, d.Latitude, d.Longitude}
	},
	Filters: map[string]FilterSpec{
		"code": {Column: "code", Field: "Code", Unique: true},
	},
}
