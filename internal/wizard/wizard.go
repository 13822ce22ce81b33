// Package wizard drives the multi-step booking form. Form state lives in an
// explicit versioned State value and every mutation is a pure reducer
// transition, so a step can never observe half-applied input. Forward
// transitions are gated by per-step validators; going back is always
// allowed and never re-validates.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/internal/pricing"
)

type Step int

const (
	StepTrip Step = iota + 1
	StepCustomer
	StepPayment
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepTrip:
		return "trip"
	case StepCustomer:
		return "customer"
	case StepPayment:
		return "payment"
	case StepConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// LocationPolicy decides what happens when a round trip names different
// pickup and drop locations. The observed storefront behavior is a warning
// only, so that is the default; operators can harden it to a hard error.
type LocationPolicy string

const (
	LocationWarn   LocationPolicy = "warn"
	LocationReject LocationPolicy = "reject"
)

type Config struct {
	LocationMismatch LocationPolicy
}

// Form is the in-progress booking input across all steps.
type Form struct {
	Trip          domain.TripDetails
	Customer      domain.CustomerDetails
	Extras        domain.ExtrasSelection
	PaymentMethod string
	TermsAccepted bool
}

// State is the wizard's entire mutable surface. Version increments on every
// applied action.
type State struct {
	VehicleID int64
	Step      Step
	Form      Form
	Warnings  []string
	Version   int
}

// NewState seeds the form with the storefront defaults: round trip,
// insurance preselected, cash payment.
func NewState(vehicleID int64) State {
	return State{
		VehicleID: vehicleID,
		Step:      StepTrip,
		Form: Form{
			Trip:          domain.TripDetails{Type: domain.TripRound},
			Extras:        domain.ExtrasSelection{Insurance: true},
			PaymentMethod: "cash",
		},
	}
}

// ValidationError reports which required inputs block a forward transition.
type ValidationError struct {
	Step    Step
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s invalid: missing %s", e.Step, strings.Join(e.Missing, ", "))
}

// Action is a reducer input. Applying an action never mutates the previous
// State.
type Action interface {
	apply(s State, cfg Config) (State, error)
}

type SetTrip struct{ Trip domain.TripDetails }

func (a SetTrip) apply(s State, _ Config) (State, error) {
	s.Form.Trip = a.Trip
	return s, nil
}

type SetCustomer struct{ Customer domain.CustomerDetails }

func (a SetCustomer) apply(s State, _ Config) (State, error) {
	s.Form.Customer = a.Customer
	return s, nil
}

type SetPayment struct {
	Extras        domain.ExtrasSelection
	PaymentMethod string
	TermsAccepted bool
}

func (a SetPayment) apply(s State, _ Config) (State, error) {
	s.Form.Extras = a.Extras
	if a.PaymentMethod != "" {
		s.Form.PaymentMethod = a.PaymentMethod
	}
	s.Form.TermsAccepted = a.TermsAccepted
	return s, nil
}

// Next advances to the following step if the current one validates.
type Next struct{}

func (Next) apply(s State, cfg Config) (State, error) {
	if s.Step >= StepConfirmed {
		return s, fmt.Errorf("cannot advance past confirmation")
	}
	warnings, err := validate(s.Step, s.Form, cfg)
	if err != nil {
		return s, err
	}
	s.Warnings = warnings
	if s.Step < StepPayment {
		s.Step++
	}
	return s, nil
}

// Back moves one step backward without re-validating anything.
type Back struct{}

func (Back) apply(s State, _ Config) (State, error) {
	if s.Step > StepTrip && s.Step < StepConfirmed {
		s.Step--
	}
	return s, nil
}

// Reset discards everything and restarts at step one.
type Reset struct{}

func (Reset) apply(s State, _ Config) (State, error) {
	return NewState(s.VehicleID), nil
}

// Apply runs one reducer transition. On error the returned state is the
// input state unchanged (the transition is blocked, the user stays put).
func Apply(s State, a Action, cfg Config) (State, error) {
	next, err := a.apply(s, cfg)
	if err != nil {
		return s, err
	}
	next.Version = s.Version + 1
	return next, nil
}

func validate(step Step, f Form, cfg Config) ([]string, error) {
	var missing []string
	var warnings []string

	switch step {
	case StepTrip:
		if f.Trip.PickupDate.IsZero() {
			missing = append(missing, "pickupDate")
		}
		if f.Trip.ReturnDate.IsZero() {
			missing = append(missing, "returnDate")
		}
		if strings.TrimSpace(f.Trip.PickupLocation) == "" {
			missing = append(missing, "pickupLocation")
		}
		if strings.TrimSpace(f.Trip.DropLocation) == "" {
			missing = append(missing, "dropLocation")
		}
		if f.Trip.EstimatedDistance <= 0 {
			missing = append(missing, "estimatedDistance")
		}
		if f.Trip.Type == domain.TripRound &&
			strings.TrimSpace(f.Trip.PickupLocation) != "" &&
			strings.TrimSpace(f.Trip.DropLocation) != "" &&
			!strings.EqualFold(strings.TrimSpace(f.Trip.PickupLocation), strings.TrimSpace(f.Trip.DropLocation)) {
			if cfg.LocationMismatch == LocationReject {
				missing = append(missing, "dropLocation (must match pickup for round trips)")
			} else {
				warnings = append(warnings, "round trip with different pickup and drop locations")
			}
		}
	case StepCustomer:
		if strings.TrimSpace(f.Customer.Name) == "" {
			missing = append(missing, "name")
		}
		if strings.TrimSpace(f.Customer.Email) == "" {
			missing = append(missing, "email")
		}
		if strings.TrimSpace(f.Customer.Phone) == "" {
			missing = append(missing, "phone")
		}
		if strings.TrimSpace(f.Customer.IDNumber) == "" {
			missing = append(missing, "idNumber")
		}
	case StepPayment:
		if !f.TermsAccepted {
			missing = append(missing, "termsAccepted")
		}
	}

	if len(missing) > 0 {
		return nil, &ValidationError{Step: step, Missing: missing}
	}
	return warnings, nil
}

// NewBookingID generates the storefront-style booking reference. The old
// scheme took the last eight digits of a timestamp, which collides under
// rapid repeated submissions; this derives the suffix from a random UUID
// instead while keeping the CT prefix.
func NewBookingID() string {
	return "CT" + strings.ToUpper(uuid.NewString()[:8])
}

// Wizard owns the mutable in-progress state for a single vehicle. It is the
// only writer; once Confirm succeeds the assembled BookingRecord is handed
// off by value and never touched again.
type Wizard struct {
	cfg     Config
	vehicle domain.Vehicle
	state   State

	now   func() time.Time
	newID func() string
}

type Option func(*Wizard)

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(w *Wizard) { w.newID = gen }
}

// New starts a fresh wizard for a vehicle. No state carries over between
// vehicles.
func New(vehicle domain.Vehicle, cfg Config, opts ...Option) *Wizard {
	w := &Wizard{
		cfg:     cfg,
		vehicle: vehicle,
		state:   NewState(vehicle.ID),
		now:     time.Now,
		newID:   NewBookingID,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Vehicle() domain.Vehicle { return w.vehicle }

func (w *Wizard) State() State { return w.state }

func (w *Wizard) Apply(a Action) error {
	next, err := Apply(w.state, a, w.cfg)
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// Confirm validates the final step, prices the trip, and produces the
// immutable booking record. The wizard transitions to Confirmed; further
// edits require a Reset.
func (w *Wizard) Confirm() (domain.BookingRecord, error) {
	if w.state.Step == StepConfirmed {
		return domain.BookingRecord{}, fmt.Errorf("booking already confirmed")
	}
	if w.state.Step != StepPayment {
		return domain.BookingRecord{}, &ValidationError{Step: w.state.Step, Missing: []string{"complete remaining steps"}}
	}
	if _, err := validate(StepPayment, w.state.Form, w.cfg); err != nil {
		return domain.BookingRecord{}, err
	}

	total, breakdown, err := pricing.Quote(w.vehicle, w.state.Form.Trip, w.state.Form.Extras)
	if err != nil {
		return domain.BookingRecord{}, fmt.Errorf("pricing booking: %w", err)
	}

	record := domain.BookingRecord{
		BookingID:     w.newID(),
		Vehicle:       w.vehicle.Snapshot(),
		Customer:      w.state.Form.Customer,
		Trip:          w.state.Form.Trip,
		Extras:        w.state.Form.Extras,
		PaymentMethod: w.state.Form.PaymentMethod,
		PricingModel:  breakdown.Model,
		Breakdown:     breakdown,
		TotalAmount:   total,
		CreatedAt:     w.now().UTC(),
	}

	w.state.Step = StepConfirmed
	w.state.Version++
	return record, nil
}
