package constants

// Redis key formats
const (
	// Driver pool
	KeyDriverGeo        = "drivers:geo"       // GEO set of driver positions
	KeyAvailableDrivers = "drivers:available" // set of dispatchable driver IDs
	KeyDriverMeta       = "driver:meta:%s"    // Format: driver:meta:{driver_id}

	// Rate limiting
	KeyPaymentRateLimit = "rate:limit:payment:%s" // Format: rate:limit:payment:{rider_id}
)

// Redis hash fields for driver metadata
const (
	FieldLatitude        = "lat"
	FieldLongitude       = "lng"
	FieldAddress         = "address"
	FieldRating          = "rating"
	FieldCompletedRides  = "completed_rides"
	FieldAcceptanceRate  = "acceptance_rate"
	FieldVehicleType     = "vehicle_type"
	FieldStatus          = "status"
	FieldVerified        = "verified"
	FieldBackgroundCheck = "background_check"
	FieldInsurance       = "insurance"
	FieldCapabilities    = "capabilities"
	FieldFemaleDriver    = "female_driver"
	FieldCell            = "cell"
	FieldUpdatedAt       = "updated_at"
)
