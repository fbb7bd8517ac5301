// Package service implements validation and orchestration between the HTTP
// handlers, the allocation engine and the optional snapshot store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/engine"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/logger"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

// SnapshotStore persists engine snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.Snapshot) (string, error)
}

// RentalService orchestrates rental registry operations.
type RentalService struct {
	engine  *engine.Company
	store   SnapshotStore
	metrics metrics.Recorder
	log     logger.Logger

	// persistMu orders snapshot-and-save so a stale snapshot never lands
	// after a newer one.
	persistMu sync.Mutex
}

// NewRentalService constructs a RentalService. store may be nil, in which case
// state is kept in memory only; nil rec and log disable metrics and logging.
func NewRentalService(eng *engine.Company, store SnapshotStore, rec metrics.Recorder, log logger.Logger) *RentalService {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &RentalService{engine: eng, store: store, metrics: rec, log: log}
}

// RegisterVehicle validates the request and adds the vehicle to the registry.
func (s *RentalService) RegisterVehicle(ctx context.Context, req model.CreateVehicleRequest) (*model.Vehicle, error) {
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	v := model.Vehicle{
		ID:        strings.TrimSpace(req.ID),
		Category:  category,
		Make:      strings.TrimSpace(req.Make),
		Model:     strings.TrimSpace(req.Model),
		Year:      req.Year,
		DailyRate: req.DailyRate,
		Car:       req.Car,
		Bike:      req.Bike,
		Truck:     req.Truck,
	}
	if err := s.engine.RegisterVehicle(v); err != nil {
		s.log.Warnf("register vehicle %s: %v", v.ID, err)
		return nil, err
	}
	s.metrics.VehicleRegistered(string(category))
	s.log.Infof("vehicle %s added: %s", v.ID, v)
	s.persist(ctx)

	out, err := s.engine.GetVehicle(v.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterCustomer validates the request and adds the customer to the registry.
func (s *RentalService) RegisterCustomer(ctx context.Context, req model.CreateCustomerRequest) (*model.Customer, error) {
	c := model.Customer{
		ID:            strings.TrimSpace(req.ID),
		Name:          strings.TrimSpace(req.Name),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: customer name is required", model.ErrInvalidInput)
	}
	if err := s.engine.RegisterCustomer(c); err != nil {
		s.log.Warnf("register customer %s: %v", c.ID, err)
		return nil, err
	}
	s.log.Infof("customer %s added", c.Name)
	s.persist(ctx)

	out, err := s.engine.GetCustomer(c.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAvailable parses the category and dates and returns the free vehicles.
func (s *RentalService) FindAvailable(ctx context.Context, category, start, end string) ([]model.Vehicle, error) {
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	iv, err := model.ParseDateInterval(start, end)
	if err != nil {
		return nil, err
	}
	return s.engine.FindAvailable(c, iv), nil
}

// CreateRental parses the requested dates and books the vehicle.
func (s *RentalService) CreateRental(ctx context.Context, req model.CreateRentalRequest) (*model.Rental, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	vehicleID := strings.TrimSpace(req.VehicleID)

	iv, err := model.ParseDateInterval(req.StartDate, req.EndDate)
	if err != nil {
		s.metrics.RentalRejected(rejectionReason(err))
		return nil, err
	}
	rental, err := s.engine.CreateRental(customerID, vehicleID, iv)
	if err != nil {
		s.metrics.RentalRejected(rejectionReason(err))
		s.log.Warnf("create rental for customer %s on vehicle %s: %v", customerID, vehicleID, err)
		return nil, err
	}

	category := ""
	if v, err := s.engine.GetVehicle(vehicleID); err == nil {
		category = string(v.Category)
	}
	s.metrics.RentalCreated(category)
	s.metrics.SetActiveRentals(s.engine.ActiveRentalCount())
	s.log.Infof("rental %s created for customer %s", rental.ID, customerID)
	s.persist(ctx)
	return &rental, nil
}

// ReturnVehicle completes the rental and frees its vehicle.
func (s *RentalService) ReturnVehicle(ctx context.Context, rentalID string) (*model.Rental, error) {
	rentalID = strings.TrimSpace(rentalID)
	rental, err := s.engine.ReturnVehicle(rentalID)
	if err != nil {
		s.log.Warnf("return rental %s: %v", rentalID, err)
		return nil, err
	}
	s.metrics.RentalReturned()
	s.metrics.SetActiveRentals(s.engine.ActiveRentalCount())
	s.log.Infof("vehicle %s returned and rental %s completed", rental.VehicleID, rental.ID)
	s.persist(ctx)
	return &rental, nil
}

// GetVehicle returns a single vehicle by ID.
func (s *RentalService) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	v, err := s.engine.GetVehicle(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetCustomer returns a single customer by ID.
func (s *RentalService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.engine.GetCustomer(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetRental returns a single rental by ID.
func (s *RentalService) GetRental(ctx context.Context, id string) (*model.Rental, error) {
	r, err := s.engine.GetRental(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListVehicles returns all vehicles in registration order.
func (s *RentalService) ListVehicles(ctx context.Context) []model.Vehicle {
	return s.engine.ListVehicles()
}

// ListCustomers returns all customers in registration order.
func (s *RentalService) ListCustomers(ctx context.Context) []model.Customer {
	return s.engine.ListCustomers()
}

// ListRentals returns all rentals in creation order.
func (s *RentalService) ListRentals(ctx context.Context) []model.Rental {
	return s.engine.ListRentals()
}

// persist writes a snapshot when a store is configured. The engine has
// already committed, so a failed write is logged and not returned, and the
// write is not tied to the caller's cancellation.
//
// The snapshot is taken while persistMu is held: each saved snapshot is
// taken after the previous one was written, so it contains at least
// everything that one did.
func (s *RentalService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	id, err := s.store.Save(context.WithoutCancel(ctx), s.engine.Snapshot())
	if err != nil {
		s.log.Errorf("save snapshot: %v", err)
		return
	}
	s.log.Debugf("snapshot %s saved", id)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, model.ErrVehicleNotAvailable):
		return "not_available"
	case errors.Is(err, model.ErrVehicleNotFound):
		return "vehicle_not_found"
	case errors.Is(err, model.ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, model.ErrInvalidDateFormat):
		return "invalid_date"
	case errors.Is(err, model.ErrInvalidRange):
		return "invalid_range"
	default:
		return "other"
	}
}
