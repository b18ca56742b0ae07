package model

// Driver is a company-side driver available to fulfill service requests.
type Driver struct {
	ID        int64
	Name      string
	LastName  string
	DNI       string
	License   string
	Phone     string
	CompanyID int64
}
