// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/service"
)

// RentalHandler holds all HTTP handlers for the rental registry API.
type RentalHandler struct {
	svc *service.RentalService
}

// NewRentalHandler constructs a RentalHandler.
func NewRentalHandler(svc *service.RentalService) *RentalHandler {
	return &RentalHandler{svc: svc}
}

// Routes mounts the registry endpoints on r.
func (h *RentalHandler) Routes(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.RegisterVehicle)
		r.Get("/", h.ListVehicles)
		r.Get("/available", h.FindAvailable)
		r.Get("/{id}", h.GetVehicle)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.RegisterCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/{id}", h.GetCustomer)
	})
	r.Route("/rentals", func(r chi.Router) {
		r.Post("/", h.CreateRental)
		r.Get("/", h.ListRentals)
		r.Get("/{id}", h.GetRental)
		r.Post("/{id}/return", h.ReturnVehicle)
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrVehicleNotFound),
		errors.Is(err, model.ErrCustomerNotFound),
		errors.Is(err, model.ErrRentalNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateIdentifier),
		errors.Is(err, model.ErrVehicleNotAvailable),
		errors.Is(err, model.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidDateFormat),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// ─── Vehicles ─────────────────────────────────────────────────────────────────

// RegisterVehicle handles POST /vehicles
func (h *RentalHandler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	v, err := h.svc.RegisterVehicle(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// ListVehicles handles GET /vehicles
func (h *RentalHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListVehicles(r.Context()))
}

// FindAvailable handles GET /vehicles/available?category=car&start=2024-01-01&end=2024-01-05
func (h *RentalHandler) FindAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicles, err := h.svc.FindAvailable(r.Context(), q.Get("category"), q.Get("start"), q.Get("end"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// GetVehicle handles GET /vehicles/{id}
func (h *RentalHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ─── Customers ────────────────────────────────────────────────────────────────

// RegisterCustomer handles POST /customers
func (h *RentalHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	c, err := h.svc.RegisterCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// ListCustomers handles GET /customers
func (h *RentalHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListCustomers(r.Context()))
}

// GetCustomer handles GET /customers/{id}
func (h *RentalHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ─── Rentals ──────────────────────────────────────────────────────────────────

// CreateRental handles POST /rentals
// Books a vehicle for a customer over an inclusive date range.
func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRentalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rental, err := h.svc.CreateRental(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rental)
}

// ListRentals handles GET /rentals
func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListRentals(r.Context()))
}

// GetRental handles GET /rentals/{id}
func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.svc.GetRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

// ReturnVehicle handles POST /rentals/{id}/return
// Completes the rental and frees the vehicle for its dates.
func (h *RentalHandler) ReturnVehicle(w http.ResponseWriter, r *http.Request) {
	rental, err := h.svc.ReturnVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
