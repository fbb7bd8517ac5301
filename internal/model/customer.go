package model

import (
	"fmt"
	"strings"
)

// Customer is keyed by ID. Rentals lists the ids of the customer's open
// rentals; it is informational and never used for conflict checks.
type Customer struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	LicenseNumber string   `json:"license_number"`
	Rentals       []string `json:"rentals"`
}

// Validate checks the identifier.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	return nil
}

// AddRental records a rental id.
func (c *Customer) AddRental(rentalID string) {
	c.Rentals = append(c.Rentals, rentalID)
}

// RemoveRental drops a rental id; absent ids are ignored.
func (c *Customer) RemoveRental(rentalID string) {
	kept := make([]string, 0, len(c.Rentals))
	for _, id := range c.Rentals {
		if id != rentalID {
			kept = append(kept, id)
		}
	}
	c.Rentals = kept
}

// Clone returns a copy with its own Rentals slice.
func (c *Customer) Clone() Customer {
	out := *c
	out.Rentals = append([]string(nil), c.Rentals...)
	if out.Rentals == nil {
		out.Rentals = []string{}
	}
	return out
}

func (c Customer) String() string {
	return fmt.Sprintf("Customer: %s | ID: %s", c.Name, c.ID)
}
