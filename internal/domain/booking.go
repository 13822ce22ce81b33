package domain

import "time"

type TripType string

const (
	TripRound  TripType = "round"
	TripOneWay TripType = "oneway"
)

func ParseTripType(s string) (TripType, bool) {
	switch TripType(s) {
	case TripRound, TripOneWay:
		return TripType(s), true
	default:
		return "", false
	}
}

// PricingModel tags which rate schedule produced a quote.
type PricingModel string

const (
	ModelPerDay PricingModel = "perDay"
	ModelPerKm  PricingModel = "perKm"
)

// ActiveModel maps the trip type to its pricing model. Round trips bill per
// day, one-way trips per kilometer; this coupling is fixed, not a user
// choice.
func (t TripType) ActiveModel() PricingModel {
	if t == TripOneWay {
		return ModelPerKm
	}
	return ModelPerDay
}

type TripDetails struct {
	Type              TripType  `json:"tripType"`
	PickupDate        time.Time `json:"pickupDate"`
	ReturnDate        time.Time `json:"returnDate"`
	PickupLocation    string    `json:"pickupLocation"`
	DropLocation      string    `json:"dropLocation"`
	EstimatedDistance int64     `json:"estimatedDistance"` // kilometers, user-entered
}

type CustomerDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
	IDProof  string `json:"idProof,omitempty"`
	IDNumber string `json:"idNumber"`
}

// ExtrasSelection maps to flat add-on charges applied on top of either
// pricing model.
type ExtrasSelection struct {
	Insurance    bool `json:"insurance"`
	ChildSeat    bool `json:"childSeat"`
	GPS          bool `json:"gps"`
	WaterBottles int  `json:"waterBottles"`
}

// Breakdown itemizes a quote so the receipt can reproduce the bill
// line-by-line. It is a pure projection of (vehicle, trip, extras); the
// components always sum to Total.
type Breakdown struct {
	Model    PricingModel `json:"model"`
	Days     int          `json:"days"`
	Distance int64        `json:"distance"`

	PerDay *PerDayCharges `json:"perDay,omitempty"`
	PerKm  *PerKmCharges  `json:"perKm,omitempty"`

	Extras ExtrasCharges `json:"extras"`
	Total  Money         `json:"total"`
}

type PerDayCharges struct {
	MaxAllowedKms int64 `json:"maxAllowedKms"`
	ExtraKms      int64 `json:"extraKms"`
	CarRent       Money `json:"carRent"`
	TollTax       Money `json:"tollTax"`
	StateTax      Money `json:"stateTax"`
	ExtraKmCharge Money `json:"extraKmCharge"`
}

type PerKmCharges struct {
	ActualKms int64 `json:"actualKms"`
	CarCharge Money `json:"carCharge"`
	TollTax   Money `json:"tollTax"`
	StateTax  Money `json:"stateTax"`
}

type ExtrasCharges struct {
	Insurance    Money `json:"insurance"`
	ChildSeat    Money `json:"childSeat"`
	GPS          Money `json:"gps"`
	WaterBottles Money `json:"waterBottles"`
}

func (e ExtrasCharges) Sum() Money {
	return e.Insurance + e.ChildSeat + e.GPS + e.WaterBottles
}

// BookingRecord is assembled once at wizard confirmation and never mutated
// afterward. BookingID is the idempotency key for persistence.
type BookingRecord struct {
	BookingID     string          `json:"bookingId"`
	Vehicle       VehicleSnapshot `json:"vehicle"`
	Customer      CustomerDetails `json:"customer"`
	Trip          TripDetails     `json:"trip"`
	Extras        ExtrasSelection `json:"extras"`
	PaymentMethod string          `json:"paymentMethod"`
	PricingModel  PricingModel    `json:"pricingModel"`
	Breakdown     Breakdown       `json:"breakdown"`
	TotalAmount   Money           `json:"totalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// StoredBooking is a BookingRecord as persisted in the durable store, with
// the store-assigned reference id and server-side metadata attached.
type StoredBooking struct {
	RefID         int64         `json:"refId"`
	BookingRecord               // embedded, unchanged from confirmation
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Read          bool          `json:"read"`
	Source        string        `json:"source"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
