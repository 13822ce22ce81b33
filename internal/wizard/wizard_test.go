package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartour/cartour-rentals/internal/domain"
)

func testVehicle() domain.Vehicle {
	return domain.Vehicle{
		ID:   2,
		Name: "wagnor",
		PerDay: domain.PerDayModel{
			PricePerDay:    domain.Rupees(1800),
			TollTaxPerDay:  domain.Rupees(400),
			StateTaxPerDay: domain.Rupees(288),
			MaxKmsPerDay:   400,
			ExtraKmRate:    domain.Rupees(17),
		},
		PerKm: domain.PerKmModel{
			PricePerKm:    domain.Rupees(17),
			TollTaxPerKm:  domain.Rupees(0.75),
			StateTaxPerKm: domain.Rupees(1.02),
			MinKms:        50,
		},
	}
}

func validTrip() domain.TripDetails {
	return domain.TripDetails{
		Type:              domain.TripRound,
		PickupDate:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		ReturnDate:        time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		PickupLocation:    "Jaipur",
		DropLocation:      "Jaipur",
		EstimatedDistance: 600,
	}
}

func validCustomer() domain.CustomerDetails {
	return domain.CustomerDetails{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Phone:    "+919876543210",
		IDNumber: "DL-0420211234567",
	}
}

func advanceToPayment(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.Apply(SetTrip{Trip: validTrip()}))
	require.NoError(t, w.Apply(Next{}))
	require.NoError(t, w.Apply(SetCustomer{Customer: validCustomer()}))
	require.NoError(t, w.Apply(Next{}))
	require.Equal(t, StepPayment, w.State().Step)
}

func TestNewStateDefaults(t *testing.T) {
	st := NewState(7)

	assert.Equal(t, StepTrip, st.Step)
	assert.Equal(t, domain.TripRound, st.Form.Trip.Type)
	assert.True(t, st.Form.Extras.Insurance)
	assert.Equal(t, "cash", st.Form.PaymentMethod)
}

func TestNextBlockedWhenTripIncomplete(t *testing.T) {
	w := New(testVehicle(), Config{})

	trip := validTrip()
	trip.DropLocation = ""
	require.NoError(t, w.Apply(SetTrip{Trip: trip}))

	before := w.State()
	err := w.Apply(Next{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepTrip, verr.Step)
	assert.Contains(t, verr.Missing, "dropLocation")
	assert.Equal(t, before, w.State(), "blocked transition must not change state")
}

func TestNextBlockedOnZeroDistance(t *testing.T) {
	w := New(testVehicle(), Config{})

	trip := validTrip()
	trip.EstimatedDistance = 0
	require.NoError(t, w.Apply(SetTrip{Trip: trip}))

	err := w.Apply(Next{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "estimatedDistance")
	assert.Equal(t, StepTrip, w.State().Step)
}

func TestCustomerStepRequiresIDNumber(t *testing.T) {
	w := New(testVehicle(), Config{})
	require.NoError(t, w.Apply(SetTrip{Trip: validTrip()}))
	require.NoError(t, w.Apply(Next{}))

	customer := validCustomer()
	customer.IDNumber = ""
	require.NoError(t, w.Apply(SetCustomer{Customer: customer}))

	err := w.Apply(Next{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepCustomer, w.State().Step)
}

func TestBackAlwaysAllowedAndNeverValidates(t *testing.T) {
	w := New(testVehicle(), Config{})
	require.NoError(t, w.Apply(SetTrip{Trip: validTrip()}))
	require.NoError(t, w.Apply(Next{}))

	// wipe the trip; going back must still succeed
	require.NoError(t, w.Apply(SetTrip{Trip: domain.TripDetails{}}))
	require.NoError(t, w.Apply(Back{}))
	assert.Equal(t, StepTrip, w.State().Step)

	// back at the first step is a no-op
	require.NoError(t, w.Apply(Back{}))
	assert.Equal(t, StepTrip, w.State().Step)
}

func TestLocationMismatchWarnPolicy(t *testing.T) {
	w := New(testVehicle(), Config{LocationMismatch: LocationWarn})

	trip := validTrip()
	trip.DropLocation = "Udaipur"
	require.NoError(t, w.Apply(SetTrip{Trip: trip}))

	require.NoError(t, w.Apply(Next{}))
	assert.Equal(t, StepCustomer, w.State().Step)
	assert.NotEmpty(t, w.State().Warnings)
}

func TestLocationMismatchRejectPolicy(t *testing.T) {
	w := New(testVehicle(), Config{LocationMismatch: LocationReject})

	trip := validTrip()
	trip.DropLocation = "Udaipur"
	require.NoError(t, w.Apply(SetTrip{Trip: trip}))

	err := w.Apply(Next{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepTrip, w.State().Step)
}

func TestConfirmRequiresTermsAccepted(t *testing.T) {
	w := New(testVehicle(), Config{})
	advanceToPayment(t, w)

	_, err := w.Confirm()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepPayment, verr.Step)
	assert.Equal(t, StepPayment, w.State().Step)
}

func TestConfirmAssemblesBookingRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := New(testVehicle(), Config{},
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "CTDEADBEEF" }),
	)
	advanceToPayment(t, w)
	require.NoError(t, w.Apply(SetPayment{
		Extras:        domain.ExtrasSelection{Insurance: true, WaterBottles: 2},
		PaymentMethod: "upi",
		TermsAccepted: true,
	}))

	rec, err := w.Confirm()
	require.NoError(t, err)

	assert.Equal(t, "CTDEADBEEF", rec.BookingID)
	assert.Equal(t, "wagnor", rec.Vehicle.Name)
	assert.Equal(t, domain.ModelPerDay, rec.PricingModel)
	assert.Equal(t, "upi", rec.PaymentMethod)
	assert.Equal(t, now, rec.CreatedAt)
	// 3 days * (1800+400+288) = 7464, plus insurance 500 and 2 bottles 100
	assert.Equal(t, domain.Rupees(7464+500+100), rec.TotalAmount)
	assert.Equal(t, rec.TotalAmount, rec.Breakdown.Total)
	assert.Equal(t, StepConfirmed, w.State().Step)

	_, err = w.Confirm()
	assert.Error(t, err, "second confirmation must fail")
}

func TestConfirmOnEarlyStepBlocked(t *testing.T) {
	w := New(testVehicle(), Config{})

	_, err := w.Confirm()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepTrip, w.State().Step)
}

func TestResetDiscardsEverything(t *testing.T) {
	w := New(testVehicle(), Config{})
	advanceToPayment(t, w)

	require.NoError(t, w.Apply(Reset{}))
	st := w.State()
	assert.Equal(t, StepTrip, st.Step)
	assert.Empty(t, st.Form.Customer.Name)
	assert.Equal(t, int64(2), st.VehicleID)
}

func TestVersionIncrementsPerTransition(t *testing.T) {
	w := New(testVehicle(), Config{})
	require.Equal(t, 0, w.State().Version)

	require.NoError(t, w.Apply(SetTrip{Trip: validTrip()}))
	require.NoError(t, w.Apply(Next{}))
	assert.Equal(t, 2, w.State().Version)

	// blocked transitions do not bump the version
	require.NoError(t, w.Apply(SetCustomer{Customer: domain.CustomerDetails{}}))
	_ = w.Apply(Next{})
	assert.Equal(t, 3, w.State().Version)
}

func TestNewBookingIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewBookingID()
		require.Len(t, id, 10)
		require.True(t, len(id) > 2 && id[:2] == "CT")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
