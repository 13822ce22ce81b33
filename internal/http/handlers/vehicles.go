package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cartour/cartour-rentals/internal/catalog"
	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/internal/http/response"
	"github.com/cartour/cartour-rentals/internal/pricing"
)

func (h *Handlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": catalog.List(),
	})
}

func (h *Handlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.findVehicle(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, vehicle)
}

type quoteRequest struct {
	TripType          string                 `json:"tripType"`
	PickupDate        time.Time              `json:"pickupDate"`
	ReturnDate        time.Time              `json:"returnDate"`
	EstimatedDistance int64                  `json:"estimatedDistance"`
	Extras            domain.ExtrasSelection `json:"extras"`
}

type quoteResponse struct {
	Model       domain.PricingModel `json:"model"`
	TotalPaise  domain.Money        `json:"totalPaise"`
	TotalRupees float64             `json:"totalRupees"`
	Breakdown   domain.Breakdown    `json:"breakdown"`
}

// QuoteVehicle prices a trip without touching wizard state, so the
// storefront can show a live estimate while the form is being filled.
func (h *Handlers) QuoteVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.findVehicle(w, r)
	if !ok {
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	tripType, ok := domain.ParseTripType(req.TripType)
	if !ok {
		response.BadRequest(w, "tripType must be 'round' or 'oneway'")
		return
	}

	trip := domain.TripDetails{
		Type:              tripType,
		PickupDate:        req.PickupDate,
		ReturnDate:        req.ReturnDate,
		EstimatedDistance: req.EstimatedDistance,
	}
	total, breakdown, err := pricing.Quote(vehicle, trip, req.Extras)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, quoteResponse{
		Model:       breakdown.Model,
		TotalPaise:  total,
		TotalRupees: total.InRupees(),
		Breakdown:   breakdown,
	})
}

func (h *Handlers) findVehicle(w http.ResponseWriter, r *http.Request) (domain.Vehicle, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid vehicle id")
		return domain.Vehicle{}, false
	}
	vehicle, err := catalog.Find(id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "vehicle not found", response.CodeVehicleNotFound)
		return domain.Vehicle{}, false
	}
	return vehicle, true
}
