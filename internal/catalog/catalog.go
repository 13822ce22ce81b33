// Package catalog holds the static vehicle fleet. Vehicles are loaded once
// and consumed read-only by the pricing engine and the booking wizard.
package catalog

import (
	"errors"

	"github.com/cartour/cartour-rentals/internal/domain"
)

var ErrVehicleNotFound = errors.New("vehicle not found")

var fleet = []domain.Vehicle{
	{
		ID:           1,
		Name:         "maruti suzuki",
		Seats:        4,
		Transmission: "Manual",
		Fuel:         "CNG",
		PerDay: domain.PerDayModel{
			PricePerDay:        domain.Rupees(2000),
			DriverChargePerDay: domain.Rupees(500),
			TollTaxPerDay:      domain.Rupees(500),
			StateTaxPerDay:     domain.Rupees(180),
			MaxKmsPerDay:       400,
			ExtraKmRate:        domain.Rupees(17),
			FreeKmsPerDay:      100,
		},
		PerKm: domain.PerKmModel{
			PricePerKm:        domain.Rupees(17),
			DriverChargePerKm: domain.Rupees(2),
			TollTaxPerKm:      domain.Rupees(0.50),
			StateTaxPerKm:     domain.Rupees(0.85),
			MinKms:            50,
		},
	},
	{
		ID:           2,
		Name:         "wagnor",
		Seats:        4,
		Transmission: "Automatic",
		Fuel:         "CNG",
		PerDay: domain.PerDayModel{
			PricePerDay:        domain.Rupees(1800),
			DriverChargePerDay: domain.Rupees(500),
			TollTaxPerDay:      domain.Rupees(400),
			StateTaxPerDay:     domain.Rupees(288),
			MaxKmsPerDay:       400,
			ExtraKmRate:        domain.Rupees(17),
			FreeKmsPerDay:      100,
		},
		PerKm: domain.PerKmModel{
			PricePerKm:        domain.Rupees(17),
			DriverChargePerKm: domain.Rupees(2.5),
			TollTaxPerKm:      domain.Rupees(0.75),
			StateTaxPerKm:     domain.Rupees(1.02),
			MinKms:            50,
		},
	},
	{
		ID:           3,
		Name:         "swift dzire",
		Seats:        5,
		Transmission: "Manual",
		Fuel:         "Petrol",
		PerDay: domain.PerDayModel{
			PricePerDay:        domain.Rupees(2200),
			DriverChargePerDay: domain.Rupees(500),
			TollTaxPerDay:      domain.Rupees(450),
			StateTaxPerDay:     domain.Rupees(200),
			MaxKmsPerDay:       400,
			ExtraKmRate:        domain.Rupees(18),
			FreeKmsPerDay:      100,
		},
		PerKm: domain.PerKmModel{
			PricePerKm:        domain.Rupees(18),
			DriverChargePerKm: domain.Rupees(2),
			TollTaxPerKm:      domain.Rupees(0.60),
			StateTaxPerKm:     domain.Rupees(0.90),
			MinKms:            50,
		},
	},
}

// List returns a copy of the fleet so callers cannot mutate catalog data.
func List() []domain.Vehicle {
	out := make([]domain.Vehicle, len(fleet))
	copy(out, fleet)
	return out
}

// Find looks up a vehicle by id.
func Find(id int64) (domain.Vehicle, error) {
	for _, v := range fleet {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.Vehicle{}, ErrVehicleNotFound
}
