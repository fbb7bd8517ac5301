package model

import "errors"

var (
	// ErrInvalidDateFormat is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrInvalidRange is returned when an interval ends before it starts.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrDuplicateIdentifier is returned when a vehicle or customer id is already registered.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	// ErrVehicleNotFound is returned for unknown vehicle ids.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrCustomerNotFound is returned for unknown customer ids.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrVehicleNotAvailable is returned when the vehicle already holds an overlapping rental.
	ErrVehicleNotAvailable = errors.New("vehicle is not available for the selected dates")
	// ErrRentalNotFound is returned for unknown rental ids.
	ErrRentalNotFound = errors.New("rental not found")
	// ErrInvalidStatusTransition is returned when completing a rental that is already completed.
	ErrInvalidStatusTransition = errors.New("invalid rental status transition")
	// ErrInvalidInput is returned for malformed registration payloads.
	ErrInvalidInput = errors.New("invalid input")
)
