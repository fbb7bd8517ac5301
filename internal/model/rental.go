package model

import (
	"fmt"
	"math"
	"time"
)

// RentalStatus is Reserved until the vehicle comes back, then Completed.
type RentalStatus string

const (
	RentalStatusReserved  RentalStatus = "Reserved"
	RentalStatusCompleted RentalStatus = "Completed"
)

// Rental assigns one vehicle to one customer for an interval. Everything but
// Status and CompletedAt is fixed once the engine commits it.
type Rental struct {
	ID          string       `json:"id"`
	CustomerID  string       `json:"customer_id"`
	VehicleID   string       `json:"vehicle_id"`
	Interval    DateInterval `json:"interval"`
	Status      RentalStatus `json:"status"`
	TotalPrice  float64      `json:"total_price"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewRental returns a Reserved rental with a zero price.
func NewRental(id, customerID, vehicleID string, iv DateInterval) *Rental {
	return &Rental{
		ID:         id,
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Interval:   iv,
		Status:     RentalStatusReserved,
		CreatedAt:  time.Now().UTC(),
	}
}

// ComputePrice sets TotalPrice to the inclusive day count times dailyRate,
// rounded to cents.
func (r *Rental) ComputePrice(dailyRate float64) error {
	days, err := r.Interval.DurationDays()
	if err != nil {
		return err
	}
	r.TotalPrice = math.Round(float64(days)*dailyRate*100) / 100
	return nil
}

// MarkCompleted moves a Reserved rental to Completed.
func (r *Rental) MarkCompleted() error {
	if r.Status != RentalStatusReserved {
		return fmt.Errorf("%w: rental %s is already %s", ErrInvalidStatusTransition, r.ID, r.Status)
	}
	now := time.Now().UTC()
	r.Status = RentalStatusCompleted
	r.CompletedAt = &now
	return nil
}

// Clone returns a copy that shares no pointers with r.
func (r *Rental) Clone() Rental {
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

func (r Rental) String() string {
	return fmt.Sprintf("Rental %s: Vehicle %s | Customer %s | Price: $%.2f | Status: %s",
		r.ID, r.VehicleID, r.CustomerID, r.TotalPrice, r.Status)
}
