package domain

import "math"

// Money is an amount in paise. All pricing arithmetic stays in integers so
// breakdown components always sum exactly to the quoted total.
type Money int64

// Rupees converts a rupee amount (possibly fractional, e.g. 0.50 toll tax
// per km) into paise.
func Rupees(r float64) Money {
	return Money(math.Round(r * 100))
}

// InRupees returns the amount as a rupee value for display.
func (m Money) InRupees() float64 {
	return float64(m) / 100
}

// PerDayModel is the rate schedule applied to round trips. Charges are per
// whole day; kilometers beyond MaxKmsPerDay*days bill at ExtraKmRate.
type PerDayModel struct {
	PricePerDay        Money `json:"pricePerDay"`
	DriverChargePerDay Money `json:"driverChargePerDay"`
	TollTaxPerDay      Money `json:"tollTaxPerDay"`
	StateTaxPerDay     Money `json:"stateTaxPerDay"`
	MaxKmsPerDay       int64 `json:"maxKmsPerDay"`
	ExtraKmRate        Money `json:"extraKmRate"`
	FreeKmsPerDay      int64 `json:"freeKmsPerDay"`
}

// PerKmModel is the rate schedule applied to one-way trips. Distances below
// MinKms bill as MinKms.
type PerKmModel struct {
	PricePerKm        Money `json:"pricePerKm"`
	DriverChargePerKm Money `json:"driverChargePerKm"`
	TollTaxPerKm      Money `json:"tollTaxPerKm"`
	StateTaxPerKm     Money `json:"stateTaxPerKm"`
	MinKms            int64 `json:"minKms"`
}

// DefaultMinKms applies when a vehicle's per-km model does not set a
// minimum billable distance.
const DefaultMinKms = 50

func (m PerKmModel) EffectiveMinKms() int64 {
	if m.MinKms <= 0 {
		return DefaultMinKms
	}
	return m.MinKms
}

// Vehicle is an immutable catalog entry. The two pricing models are
// independently priced products attached to the same physical car; the trip
// type decides which one is active.
type Vehicle struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Seats        int         `json:"seats"`
	Transmission string      `json:"transmission"`
	Fuel         string      `json:"fuel"`
	PerDay       PerDayModel `json:"perDayModel"`
	PerKm        PerKmModel  `json:"perKmModel"`
}

// Snapshot captures the vehicle fields embedded into a booking record.
func (v Vehicle) Snapshot() VehicleSnapshot {
	return VehicleSnapshot{
		ID:           v.ID,
		Name:         v.Name,
		Seats:        v.Seats,
		Transmission: v.Transmission,
		Fuel:         v.Fuel,
	}
}

type VehicleSnapshot struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Seats        int    `json:"seats"`
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
}
