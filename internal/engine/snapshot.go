package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

// Snapshot copies the whole engine state under the read lock.
func (c *Company) Snapshot() model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := model.Snapshot{
		Vehicles:      make([]model.Vehicle, 0, len(c.vehicleOrder)),
		Customers:     make([]model.Customer, 0, len(c.customerOrder)),
		Rentals:       make([]model.Rental, 0, len(c.rentalOrder)),
		NextRentalSeq: c.nextSeq,
	}
	for _, id := range c.vehicleOrder {
		snap.Vehicles = append(snap.Vehicles, c.vehicles[id].Clone())
	}
	for _, id := range c.customerOrder {
		snap.Customers = append(snap.Customers, c.customers[id].Clone())
	}
	for _, id := range c.rentalOrder {
		snap.Rentals = append(snap.Rentals, c.rentals[id].Clone())
	}
	return snap
}

// Restore replaces the engine state with snap. Reserved rentals are
// re-attached to their vehicles and customer rental lists are rebuilt from
// them. A snapshot that references unknown vehicles or customers, repeats an
// identifier, or holds overlapping Reserved rentals on one vehicle is
// rejected and the current state is kept.
func (c *Company) Restore(snap model.Snapshot) error {
	vehicles := make(map[string]*model.Vehicle, len(snap.Vehicles))
	vehicleOrder := make([]string, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("restore vehicle %s: %w", v.ID, err)
		}
		if _, dup := vehicles[v.ID]; dup {
			return fmt.Errorf("restore: %w: vehicle %s", model.ErrDuplicateIdentifier, v.ID)
		}
		entry := v.Clone()
		for _, id := range entry.ActiveRentalIDs() {
			entry.DetachRental(id)
		}
		vehicles[v.ID] = &entry
		vehicleOrder = append(vehicleOrder, v.ID)
	}

	customers := make(map[string]*model.Customer, len(snap.Customers))
	customerOrder := make([]string, 0, len(snap.Customers))
	for _, cu := range snap.Customers {
		if err := cu.Validate(); err != nil {
			return fmt.Errorf("restore customer %s: %w", cu.ID, err)
		}
		if _, dup := customers[cu.ID]; dup {
			return fmt.Errorf("restore: %w: customer %s", model.ErrDuplicateIdentifier, cu.ID)
		}
		entry := cu.Clone()
		entry.Rentals = []string{}
		customers[cu.ID] = &entry
		customerOrder = append(customerOrder, cu.ID)
	}

	rentals := make(map[string]*model.Rental, len(snap.Rentals))
	rentalOrder := make([]string, 0, len(snap.Rentals))
	nextSeq := snap.NextRentalSeq
	if nextSeq < 1 {
		nextSeq = 1
	}
	for _, r := range snap.Rentals {
		if _, dup := rentals[r.ID]; dup {
			return fmt.Errorf("restore: %w: rental %s", model.ErrDuplicateIdentifier, r.ID)
		}
		v, ok := vehicles[r.VehicleID]
		if !ok {
			return fmt.Errorf("restore rental %s: %w: %s", r.ID, model.ErrVehicleNotFound, r.VehicleID)
		}
		cu, ok := customers[r.CustomerID]
		if !ok {
			return fmt.Errorf("restore rental %s: %w: %s", r.ID, model.ErrCustomerNotFound, r.CustomerID)
		}
		if _, err := r.Interval.DurationDays(); err != nil {
			return fmt.Errorf("restore rental %s: %w", r.ID, err)
		}
		entry := r.Clone()
		switch entry.Status {
		case model.RentalStatusReserved:
			if !v.IsAvailable(entry.Interval) {
				return fmt.Errorf("restore rental %s: %w: vehicle %s for %s",
					r.ID, model.ErrVehicleNotAvailable, r.VehicleID, r.Interval)
			}
			v.AttachRental(&entry)
			cu.AddRental(entry.ID)
		case model.RentalStatusCompleted:
		default:
			return fmt.Errorf("restore rental %s: %w: unknown status %q", r.ID, model.ErrInvalidInput, entry.Status)
		}
		rentals[entry.ID] = &entry
		rentalOrder = append(rentalOrder, entry.ID)
		if seq, ok := parseRentalSeq(entry.ID); ok && seq >= nextSeq {
			nextSeq = seq + 1
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.vehicles, c.vehicleOrder = vehicles, vehicleOrder
	c.customers, c.customerOrder = customers, customerOrder
	c.rentals, c.rentalOrder = rentals, rentalOrder
	c.nextSeq = nextSeq
	c.log.Infof("restored %d vehicles, %d customers, %d rentals", len(vehicles), len(customers), len(rentals))
	return nil
}

func parseRentalSeq(id string) (int, bool) {
	if !strings.HasPrefix(id, RentalIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, RentalIDPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}
