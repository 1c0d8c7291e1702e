package units

import "time"

// Unit represents a unit of measure used by purchase order lines.
type Unit struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Defaults is the unit set seeded on a fresh install.
var Defaults = []Unit{
	{Name: "Units", Code: "UN", Description: "Individual units"},
	{Name: "Hours", Code: "HR", Description: "Hours of work"},
	{Name: "Days", Code: "DY", Description: "Days of work"},
	{Name: "Months", Code: "MO", Description: "Monthly service"},
	{Name: "Licenses", Code: "LIC", Description: "Software licenses"},
	{Name: "Instances", Code: "INS", Description: "Service instances"},
	{Name: "Kg", Code: "KG", Description: "Kilograms"},
	{Name: "Lot", Code: "LOT", Description: "Lot or batch"},
}
