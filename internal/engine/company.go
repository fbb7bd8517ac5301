// Package engine implements the rental allocation engine: it owns every
// vehicle, customer and rental, and guarantees that no vehicle is held by two
// Reserved rentals whose date intervals overlap.
//
// All state sits behind one RWMutex. Mutations take the write lock for the
// whole check-then-act sequence, so two concurrent CreateRental calls for
// overlapping intervals on the same vehicle cannot both succeed. Queries take
// the read lock and return copies, never live pointers.
package engine

import (
	"fmt"
	"sync"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/logger"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

// RentalIDPrefix is the letter in front of every rental sequence number.
const RentalIDPrefix = "R"

// Company is the allocation engine.
type Company struct {
	mu sync.RWMutex

	vehicles     map[string]*model.Vehicle
	vehicleOrder []string

	customers     map[string]*model.Customer
	customerOrder []string

	rentals     map[string]*model.Rental
	rentalOrder []string

	// nextSeq is the sequence number the next committed rental receives.
	nextSeq int

	log logger.Logger
}

// NewCompany returns an empty engine. A nil logger disables logging.
func NewCompany(log logger.Logger) *Company {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Company{
		vehicles:  make(map[string]*model.Vehicle),
		customers: make(map[string]*model.Customer),
		rentals:   make(map[string]*model.Rental),
		nextSeq:   1,
		log:       log,
	}
}

// RegisterVehicle adds v to the registry. Any rentals already attached to v
// are dropped; rentals only reach a vehicle through CreateRental.
func (c *Company) RegisterVehicle(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	entry := v.Clone()
	for _, id := range entry.ActiveRentalIDs() {
		entry.DetachRental(id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.vehicles[v.ID]; ok {
		return fmt.Errorf("%w: vehicle %s", model.ErrDuplicateIdentifier, v.ID)
	}
	c.vehicles[v.ID] = &entry
	c.vehicleOrder = append(c.vehicleOrder, v.ID)
	c.log.Debugw("vehicle registered", map[string]any{"vehicle_id": v.ID, "category": string(v.Category)})
	return nil
}

// RegisterCustomer adds cu to the registry with an empty rental list.
func (c *Company) RegisterCustomer(cu model.Customer) error {
	if err := cu.Validate(); err != nil {
		return err
	}
	entry := cu.Clone()
	entry.Rentals = []string{}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.customers[cu.ID]; ok {
		return fmt.Errorf("%w: customer %s", model.ErrDuplicateIdentifier, cu.ID)
	}
	c.customers[cu.ID] = &entry
	c.customerOrder = append(c.customerOrder, cu.ID)
	c.log.Debugw("customer registered", map[string]any{"customer_id": cu.ID})
	return nil
}

// FindAvailable returns the vehicles of the given category that hold no
// Reserved rental overlapping iv, in registration order. No match yields an
// empty slice.
func (c *Company) FindAvailable(category model.Category, iv model.DateInterval) []model.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []model.Vehicle{}
	for _, id := range c.vehicleOrder {
		v := c.vehicles[id]
		if v.Category == category && v.IsAvailable(iv) {
			out = append(out, v.Clone())
		}
	}
	return out
}

// CreateRental books vehicleID for customerID over iv. The availability check
// and the five state updates (id allocation, price, vehicle attach, customer
// list, rental table) happen under one write lock; on any error nothing has
// changed.
func (c *Company) CreateRental(customerID, vehicleID string, iv model.DateInterval) (model.Rental, error) {
	if _, err := iv.DurationDays(); err != nil {
		return model.Rental{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	vehicle, ok := c.vehicles[vehicleID]
	if !ok {
		return model.Rental{}, fmt.Errorf("%w: %s", model.ErrVehicleNotFound, vehicleID)
	}
	customer, ok := c.customers[customerID]
	if !ok {
		return model.Rental{}, fmt.Errorf("%w: %s", model.ErrCustomerNotFound, customerID)
	}
	if !vehicle.IsAvailable(iv) {
		return model.Rental{}, fmt.Errorf("%w: vehicle %s for %s", model.ErrVehicleNotAvailable, vehicleID, iv)
	}

	rental := model.NewRental(formatRentalID(c.nextSeq), customerID, vehicleID, iv)
	if err := rental.ComputePrice(vehicle.DailyRate); err != nil {
		return model.Rental{}, err
	}

	c.nextSeq++
	vehicle.AttachRental(rental)
	customer.AddRental(rental.ID)
	c.rentals[rental.ID] = rental
	c.rentalOrder = append(c.rentalOrder, rental.ID)

	c.log.Debugw("rental created", map[string]any{
		"rental_id":   rental.ID,
		"vehicle_id":  vehicleID,
		"customer_id": customerID,
		"interval":    iv.String(),
		"total_price": rental.TotalPrice,
	})
	return rental.Clone(), nil
}

// ReturnVehicle completes the rental and releases its vehicle. A second
// return of the same rental fails with ErrInvalidStatusTransition and changes
// nothing.
func (c *Company) ReturnVehicle(rentalID string) (model.Rental, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rental, ok := c.rentals[rentalID]
	if !ok {
		return model.Rental{}, fmt.Errorf("%w: %s", model.ErrRentalNotFound, rentalID)
	}
	if err := rental.MarkCompleted(); err != nil {
		return model.Rental{}, err
	}
	if v, ok := c.vehicles[rental.VehicleID]; ok {
		v.DetachRental(rentalID)
	}
	if cu, ok := c.customers[rental.CustomerID]; ok {
		cu.RemoveRental(rentalID)
	}

	c.log.Debugw("rental completed", map[string]any{"rental_id": rentalID, "vehicle_id": rental.VehicleID})
	return rental.Clone(), nil
}

// GetVehicle returns a copy of one vehicle.
func (c *Company) GetVehicle(id string) (model.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.vehicles[id]
	if !ok {
		return model.Vehicle{}, fmt.Errorf("%w: %s", model.ErrVehicleNotFound, id)
	}
	return v.Clone(), nil
}

// GetCustomer returns a copy of one customer.
func (c *Company) GetCustomer(id string) (model.Customer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cu, ok := c.customers[id]
	if !ok {
		return model.Customer{}, fmt.Errorf("%w: %s", model.ErrCustomerNotFound, id)
	}
	return cu.Clone(), nil
}

// GetRental returns a copy of one rental.
func (c *Company) GetRental(id string) (model.Rental, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.rentals[id]
	if !ok {
		return model.Rental{}, fmt.Errorf("%w: %s", model.ErrRentalNotFound, id)
	}
	return r.Clone(), nil
}

// ListVehicles returns every vehicle in registration order.
func (c *Company) ListVehicles() []model.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Vehicle, 0, len(c.vehicleOrder))
	for _, id := range c.vehicleOrder {
		out = append(out, c.vehicles[id].Clone())
	}
	return out
}

// ListCustomers returns every customer in registration order.
func (c *Company) ListCustomers() []model.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Customer, 0, len(c.customerOrder))
	for _, id := range c.customerOrder {
		out = append(out, c.customers[id].Clone())
	}
	return out
}

// ListRentals returns every rental, Completed ones included, in creation order.
func (c *Company) ListRentals() []model.Rental {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Rental, 0, len(c.rentalOrder))
	for _, id := range c.rentalOrder {
		out = append(out, c.rentals[id].Clone())
	}
	return out
}

// ActiveRentalCount returns the number of Reserved rentals.
func (c *Company) ActiveRentalCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, r := range c.rentals {
		if r.Status == model.RentalStatusReserved {
			n++
		}
	}
	return n
}

func formatRentalID(seq int) string {
	return fmt.Sprintf("%s%03d", RentalIDPrefix, seq)
}
