package models

// VehicleType represents the vehicle class a driver operates
type VehicleType string

const (
	VehicleTypeSedan      VehicleType = "sedan"
	VehicleTypeSUV        VehicleType = "suv"
	VehicleTypeLuxury     VehicleType = "luxury"
	VehicleTypeElectric   VehicleType = "electric"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
)

// DriverStatus represents the current availability of a driver
type DriverStatus string

const (
	DriverStatusOffline  DriverStatus = "offline"
	DriverStatusOnline   DriverStatus = "online"
	DriverStatusEnRoute  DriverStatus = "en_route"
	DriverStatusInRide   DriverStatus = "in_ride"
	DriverStatusOnBreak  DriverStatus = "break"
)

// Driver represents a driver candidate in the dispatch pool. Records are
// owned by the driver-facing services; this engine reads them and only flips
// status on assignment and release.
type Driver struct {
	ID                    string       `json:"id"`
	Rating                float64      `json:"rating"`           // 0..5
	CompletedRides        int          `json:"completed_rides"`
	AcceptanceRate        float64      `json:"acceptance_rate"` // 0..1
	CurrentLocation       Location     `json:"current_location"`
	VehicleType           VehicleType  `json:"vehicle_type"`
	Status                DriverStatus `json:"status"`
	IsVerified            bool         `json:"is_verified"`
	BackgroundCheckPassed bool         `json:"background_check_passed"`
	InsuranceVerified     bool         `json:"insurance_verified"`
	Capabilities          []string     `json:"capabilities,omitempty"` // e.g. wheelchair_accessible
	IsFemaleDriver        bool         `json:"is_female_driver,omitempty"`
}

// Dispatchable reports whether the driver can receive ride offers at all.
// Only online, fully verified drivers enter scoring.
func (d *Driver) Dispatchable() bool {
	return d.Status == DriverStatusOnline &&
		d.IsVerified &&
		d.BackgroundCheckPassed &&
		d.InsuranceVerified
}

// HasCapability reports whether the driver advertises the given capability.
func (d *Driver) HasCapability(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
