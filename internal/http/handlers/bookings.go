package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartour/cartour-rentals/internal/http/response"
)

// GetBooking looks a confirmed booking up in the durable store by its
// booking id.
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	sb, err := h.store.FindByBookingID(r.Context(), bookingID)
	if err != nil {
		response.InternalError(w, "failed to look up booking")
		return
	}
	if sb == nil {
		response.NotFound(w, "booking not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, sb)
}

// ListLocalBookings returns the same-device fallback copies, including
// records whose durable sync failed.
func (h *Handlers) ListLocalBookings(w http.ResponseWriter, r *http.Request) {
	records, err := h.local.ListAll(r.Context())
	if err != nil {
		response.InternalError(w, "failed to list local bookings")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": records,
		"count":    len(records),
	})
}
