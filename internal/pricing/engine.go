// Package pricing derives a booking quote from a vehicle's rate schedules
// and the entered trip parameters. Quotes are pure and deterministic; all
// arithmetic is integer paise so the itemized breakdown reproduces the
// total exactly.
package pricing

import (
	"errors"
	"math"

	"github.com/cartour/cartour-rentals/internal/domain"
)

// Flat add-on charges, applied regardless of the active pricing model.
var (
	InsuranceCharge   = domain.Rupees(500)
	ChildSeatCharge   = domain.Rupees(300)
	GPSCharge         = domain.Rupees(200)
	WaterBottleCharge = domain.Rupees(50)
)

var ErrNegativeDistance = errors.New("estimated distance must not be negative")

// Days returns the billable duration of a trip. The return date is
// inclusive, so same-day trips bill as one day and the result is floored
// at 1 even for missing or inverted dates.
func Days(trip domain.TripDetails) int {
	if trip.PickupDate.IsZero() || trip.ReturnDate.IsZero() {
		return 1
	}
	diff := trip.ReturnDate.Sub(trip.PickupDate)
	days := int(math.Ceil(diff.Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Quote computes the total amount and itemized breakdown for a trip. The
// trip type selects the active model: round trips bill per day, one-way
// trips per kilometer with a minimum billable distance. A distance of zero
// is legal; per-km quotes floor it up to the model's minimum and per-day
// quotes simply charge no extra kilometers.
func Quote(vehicle domain.Vehicle, trip domain.TripDetails, extras domain.ExtrasSelection) (domain.Money, domain.Breakdown, error) {
	if trip.EstimatedDistance < 0 {
		return 0, domain.Breakdown{}, ErrNegativeDistance
	}

	b := domain.Breakdown{
		Model:    trip.Type.ActiveModel(),
		Days:     Days(trip),
		Distance: trip.EstimatedDistance,
	}

	var total domain.Money
	switch b.Model {
	case domain.ModelPerKm:
		total = quotePerKm(vehicle.PerKm, trip, &b)
	default:
		total = quotePerDay(vehicle.PerDay, trip, &b)
	}

	b.Extras = extrasCharges(extras)
	total += b.Extras.Sum()
	b.Total = total

	return total, b, nil
}

func quotePerDay(m domain.PerDayModel, trip domain.TripDetails, b *domain.Breakdown) domain.Money {
	days := int64(b.Days)
	charges := &domain.PerDayCharges{
		MaxAllowedKms: m.MaxKmsPerDay * days,
		CarRent:       m.PricePerDay * domain.Money(days),
		TollTax:       m.TollTaxPerDay * domain.Money(days),
		StateTax:      m.StateTaxPerDay * domain.Money(days),
	}
	if trip.EstimatedDistance > charges.MaxAllowedKms {
		charges.ExtraKms = trip.EstimatedDistance - charges.MaxAllowedKms
		charges.ExtraKmCharge = domain.Money(charges.ExtraKms) * m.ExtraKmRate
	}
	b.PerDay = charges
	return charges.CarRent + charges.TollTax + charges.StateTax + charges.ExtraKmCharge
}

func quotePerKm(m domain.PerKmModel, trip domain.TripDetails, b *domain.Breakdown) domain.Money {
	actual := trip.EstimatedDistance
	if min := m.EffectiveMinKms(); actual < min {
		actual = min
	}
	charges := &domain.PerKmCharges{
		ActualKms: actual,
		CarCharge: domain.Money(actual) * m.PricePerKm,
		TollTax:   domain.Money(actual) * m.TollTaxPerKm,
		StateTax:  domain.Money(actual) * m.StateTaxPerKm,
	}
	b.PerKm = charges
	return charges.CarCharge + charges.TollTax + charges.StateTax
}

func extrasCharges(extras domain.ExtrasSelection) domain.ExtrasCharges {
	var c domain.ExtrasCharges
	if extras.Insurance {
		c.Insurance = InsuranceCharge
	}
	if extras.ChildSeat {
		c.ChildSeat = ChildSeatCharge
	}
	if extras.GPS {
		c.GPS = GPSCharge
	}
	if extras.WaterBottles > 0 {
		c.WaterBottles = domain.Money(extras.WaterBottles) * WaterBottleCharge
	}
	return c
}
