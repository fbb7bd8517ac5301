// Package model defines the core domain types for the vehicle rental registry.
package model

// CreateVehicleRequest is the payload for registering a vehicle.
// Category selects which of Car, Bike or Truck must be present.
type CreateVehicleRequest struct {
	ID        string           `json:"id"`
	Category  string           `json:"category"`
	Make      string           `json:"make"`
	Model     string           `json:"model"`
	Year      int              `json:"year"`
	DailyRate float64          `json:"daily_rate"`
	Car       *CarAttributes   `json:"car,omitempty"`
	Bike      *BikeAttributes  `json:"bike,omitempty"`
	Truck     *TruckAttributes `json:"truck,omitempty"`
}

// CreateCustomerRequest is the payload for registering a customer.
type CreateCustomerRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
}

// CreateRentalRequest is the payload for booking a vehicle.
// Dates are YYYY-MM-DD and both are rental days.
type CreateRentalRequest struct {
	CustomerID string `json:"customer_id"`
	VehicleID  string `json:"vehicle_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Snapshot is a point-in-time copy of the engine state, in registration order.
type Snapshot struct {
	Vehicles      []Vehicle  `json:"vehicles"`
	Customers     []Customer `json:"customers"`
	Rentals       []Rental   `json:"rentals"`
	NextRentalSeq int        `json:"next_rental_seq"`
}
