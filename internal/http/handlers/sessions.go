package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cartour/cartour-rentals/internal/booking"
	"github.com/cartour/cartour-rentals/internal/catalog"
	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/internal/http/response"
	"github.com/cartour/cartour-rentals/internal/utils"
	"github.com/cartour/cartour-rentals/internal/wizard"
	"github.com/cartour/cartour-rentals/pkg/logger"
)

// sessionStore keeps in-progress wizards in memory. Each session belongs to
// a single user; there is no cross-session contention.
type sessionStore struct {
	mu   sync.Mutex
	byID map[string]*wizard.Wizard
}

func newSessionStore() *sessionStore {
	return &sessionStore{byID: make(map[string]*wizard.Wizard)}
}

func (s *sessionStore) put(id string, w *wizard.Wizard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = w
}

func (s *sessionStore) get(id string) (*wizard.Wizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	return w, ok
}

type stateResponse struct {
	SessionID string          `json:"sessionId"`
	Step      int             `json:"step"`
	StepName  string          `json:"stepName"`
	Form      wizard.Form     `json:"form"`
	Warnings  []string        `json:"warnings,omitempty"`
	Version   int             `json:"version"`
	Vehicle   domain.Vehicle  `json:"vehicle"`
}

func stateDTO(id string, w *wizard.Wizard) stateResponse {
	st := w.State()
	return stateResponse{
		SessionID: id,
		Step:      int(st.Step),
		StepName:  st.Step.String(),
		Form:      st.Form,
		Warnings:  st.Warnings,
		Version:   st.Version,
		Vehicle:   w.Vehicle(),
	}
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID int64 `json:"vehicleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	vehicle, err := catalog.Find(req.VehicleID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "vehicle not found", response.CodeVehicleNotFound)
		return
	}

	id := uuid.NewString()
	wz := wizard.New(vehicle, h.wizardCfg)
	h.sessions.put(id, wz)

	logger.InfoContext(r.Context(), "booking session created", "vehicle_id", vehicle.ID)
	response.WriteJSON(w, http.StatusCreated, stateDTO(id, wz))
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, stateDTO(id, wz))
}

type tripRequest struct {
	TripType          string    `json:"tripType"`
	PickupDate        time.Time `json:"pickupDate"`
	ReturnDate        time.Time `json:"returnDate"`
	PickupLocation    string    `json:"pickupLocation"`
	DropLocation      string    `json:"dropLocation"`
	EstimatedDistance int64     `json:"estimatedDistance"`
}

func (h *Handlers) SetTrip(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	tripType, ok := domain.ParseTripType(req.TripType)
	if !ok {
		response.BadRequest(w, "tripType must be 'round' or 'oneway'")
		return
	}

	h.apply(w, r, id, wz, wizard.SetTrip{Trip: domain.TripDetails{
		Type:              tripType,
		PickupDate:        req.PickupDate,
		ReturnDate:        req.ReturnDate,
		PickupLocation:    utils.NormalizeString(req.PickupLocation),
		DropLocation:      utils.NormalizeString(req.DropLocation),
		EstimatedDistance: req.EstimatedDistance,
	}})
}

func (h *Handlers) SetCustomer(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var req domain.CustomerDetails
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Name = utils.NormalizeString(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Phone = utils.NormalizePhone(req.Phone)

	h.apply(w, r, id, wz, wizard.SetCustomer{Customer: req})
}

type paymentRequest struct {
	Extras        domain.ExtrasSelection `json:"extras"`
	PaymentMethod string                 `json:"paymentMethod"`
	TermsAccepted bool                   `json:"termsAccepted"`
}

func (h *Handlers) SetPayment(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	h.apply(w, r, id, wz, wizard.SetPayment{
		Extras:        req.Extras,
		PaymentMethod: req.PaymentMethod,
		TermsAccepted: req.TermsAccepted,
	})
}

func (h *Handlers) NextStep(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, r, id, wz, wizard.Next{})
}

func (h *Handlers) BackStep(w http.ResponseWriter, r *http.Request) {
	id, wz, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, r, id, wz, wizard.Back{})
}

type confirmResponse struct {
	Booking domain.BookingRecord `json:"booking"`
	Sync    booking.Result       `json:"sync"`
}

// ConfirmSession finalizes the wizard and submits the booking. A durable
// sync failure does not block the confirmation: the record is already held
// in the local fallback, and the degraded state is flagged in the response.
func (h *Handlers) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	_, wz, ok := h.session(w, r)
	if !ok {
		return
	}

	record, err := wz.Confirm()
	if err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			response.WriteError(w, http.StatusUnprocessableEntity, verr.Error(), response.CodeStepInvalid)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	result := h.submitter.Submit(r.Context(), record)
	response.WriteJSON(w, http.StatusCreated, confirmResponse{
		Booking: record,
		Sync:    result,
	})
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (string, *wizard.Wizard, bool) {
	id := chi.URLParam(r, "sessionID")
	wz, ok := h.sessions.get(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "booking session not found", response.CodeSessionExpired)
		return "", nil, false
	}
	return id, wz, true
}

// apply runs one wizard transition and writes the resulting state. A failed
// step gate is a 422: the transition is blocked and the state is unchanged.
func (h *Handlers) apply(w http.ResponseWriter, r *http.Request, id string, wz *wizard.Wizard, a wizard.Action) {
	if err := wz.Apply(a); err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			response.WriteError(w, http.StatusUnprocessableEntity, verr.Error(), response.CodeStepInvalid)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, stateDTO(id, wz))
}
