package constants

// NATS subjects
const (
	// Ride lifecycle events
	SubjectRideStatusChanged = "ride.status.changed"
	SubjectRideRedispatch    = "ride.redispatch"

	// Driver events
	SubjectDriverStatus   = "driver.status"
	SubjectDriverLocation = "driver.location"

	// Payment events
	SubjectPaymentProcessed = "payment.processed"
	SubjectPaymentRefunded  = "payment.refunded"
)
