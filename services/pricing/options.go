package pricing

import "github.com/danisworo/jalur/internal/pkg/models"

// DefaultRideOptions is the service tier catalog. Multipliers scale the
// standard fare; typical waits seed the alternative-tier suggestions when a
// requested tier has no drivers.
var DefaultRideOptions = []models.RideOption{
	{ID: "standard", DisplayName: "Standard", VehicleType: models.VehicleTypeSedan, PriceMultiplier: 1.0, TypicalWaitSec: 240},
	{ID: "xl", DisplayName: "XL", VehicleType: models.VehicleTypeSUV, PriceMultiplier: 1.5, TypicalWaitSec: 360},
	{ID: "premium", DisplayName: "Premium", VehicleType: models.VehicleTypeLuxury, PriceMultiplier: 2.5, TypicalWaitSec: 480},
	{ID: "green", DisplayName: "Green", VehicleType: models.VehicleTypeElectric, PriceMultiplier: 1.2, TypicalWaitSec: 300},
	{ID: "moto", DisplayName: "Moto", VehicleType: models.VehicleTypeMotorcycle, PriceMultiplier: 0.7, TypicalWaitSec: 180},
}

// OptionByID looks up a ride option in the catalog.
func OptionByID(id string) (models.RideOption, bool) {
	for _, opt := range DefaultRideOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return models.RideOption{}, false
}

// AlternativeOptions returns every catalog tier except the given one.
func AlternativeOptions(excludeID string) []models.RideOption {
	alts := make([]models.RideOption, 0, len(DefaultRideOptions))
	for _, opt := range DefaultRideOptions {
		if opt.ID != excludeID {
			alts = append(alts, opt)
		}
	}
	return alts
}
