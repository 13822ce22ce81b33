package handlers

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/cartour/cartour-rentals/internal/booking"
	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/internal/wizard"
)

// Submitter persists confirmed bookings.
type Submitter interface {
	Submit(ctx context.Context, rec domain.BookingRecord) booking.Result
}

// LocalStore lists the same-device fallback copies.
type LocalStore interface {
	ListAll(ctx context.Context) ([]domain.BookingRecord, error)
}

type Handlers struct {
	submitter Submitter
	store     booking.Store
	local     LocalStore
	wizardCfg wizard.Config
	sessions  *sessionStore
}

func New(submitter Submitter, store booking.Store, local LocalStore, wizardCfg wizard.Config) *Handlers {
	return &Handlers{
		submitter: submitter,
		store:     store,
		local:     local,
		wizardCfg: wizardCfg,
		sessions:  newSessionStore(),
	}
}

// Routes mounts all storefront endpoints.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Get("/", h.ListVehicles)
		r.Get("/{id}", h.GetVehicle)
		r.Post("/{id}/quote", h.QuoteVehicle)
	})

	r.Route("/booking-sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Put("/trip", h.SetTrip)
			r.Put("/customer", h.SetCustomer)
			r.Put("/payment", h.SetPayment)
			r.Post("/next", h.NextStep)
			r.Post("/back", h.BackStep)
			r.Post("/confirm", h.ConfirmSession)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/local", h.ListLocalBookings)
		r.Get("/{bookingID}", h.GetBooking)
	})
}
