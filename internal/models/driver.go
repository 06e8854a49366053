package models

// Driver mirrors the upstream fleet backend's driver record.
type Driver struct {
	ID            string `json:"id"`
	DriverName    string `json:"driverName" validate:"required,min=2,max=100"`
	DriverPhone   string `json:"driverPhone" validate:"required,min=7,max=20"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	Active        bool   `json:"active"`
}
