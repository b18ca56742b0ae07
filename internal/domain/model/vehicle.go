package model

// Vehicle is a company-side transport unit.
type Vehicle struct {
	ID           int64
	Plate        string
	Brand        string
	Model        string
	LoadCapacity float64 // kg
	CompanyID    int64
}
