package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/engine"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	args := m.Called(ctx, snap)
	return args.String(0), args.Error(1)
}

// gatedStore records every saved snapshot. Once armed, the next Save blocks
// until release is closed.
type gatedStore struct {
	mu      sync.Mutex
	saved   []model.Snapshot
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

func (g *gatedStore) Save(_ context.Context, snap model.Snapshot) (string, error) {
	g.mu.Lock()
	block := g.armed
	g.armed = false
	g.mu.Unlock()

	if block {
		close(g.entered)
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = append(g.saved, snap)
	return "snap-id", nil
}

func (g *gatedStore) last() model.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saved[len(g.saved)-1]
}

func carRequest(id string, rate float64) model.CreateVehicleRequest {
	return model.CreateVehicleRequest{
		ID: id, Category: "Car", Make: "Toyota", Model: "Corolla", Year: 2020, DailyRate: rate,
		Car: &model.CarAttributes{Doors: 4, Seats: 5, Transmission: "Automatic"},
	}
}

func newService(t *testing.T, store SnapshotStore, rec metrics.Recorder) *RentalService {
	t.Helper()
	svc := NewRentalService(engine.NewCompany(nil), store, rec, nil)
	ctx := context.Background()
	_, err := svc.RegisterVehicle(ctx, carRequest("V1", 50))
	require.NoError(t, err)
	_, err = svc.RegisterCustomer(ctx, model.CreateCustomerRequest{ID: "C1", Name: "Ada", LicenseNumber: "DL-1"})
	require.NoError(t, err)
	return svc
}

func TestRentalServiceScenario(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx := context.Background()

	r, err := svc.CreateRental(ctx, model.CreateRentalRequest{
		CustomerID: " C1 ", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "R001", r.ID)
	assert.Equal(t, 150.0, r.TotalPrice)

	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{
		CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-02", EndDate: "2024-03-04",
	})
	assert.ErrorIs(t, err, model.ErrVehicleNotAvailable)

	free, err := svc.FindAvailable(ctx, "car", "2024-03-02", "2024-03-04")
	require.NoError(t, err)
	assert.Empty(t, free)

	done, err := svc.ReturnVehicle(ctx, "R001")
	require.NoError(t, err)
	assert.Equal(t, model.RentalStatusCompleted, done.Status)

	free, err = svc.FindAvailable(ctx, "CAR", "2024-03-02", "2024-03-04")
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, "V1", free[0].ID)

	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{
		CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-02", EndDate: "2024-03-04",
	})
	require.NoError(t, err)
	assert.Len(t, svc.ListRentals(ctx), 2)
}

func TestRentalServiceInputErrors(t *testing.T) {
	svc := newService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "03/01/2024", EndDate: "2024-03-03"})
	assert.ErrorIs(t, err, model.ErrInvalidDateFormat)

	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-05", EndDate: "2024-03-03"})
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	_, err = svc.FindAvailable(ctx, "boat", "2024-03-01", "2024-03-02")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.FindAvailable(ctx, "car", "2024-03-01", "soon")
	assert.ErrorIs(t, err, model.ErrInvalidDateFormat)

	_, err = svc.RegisterVehicle(ctx, model.CreateVehicleRequest{ID: "B1", Category: "bike"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.RegisterVehicle(ctx, carRequest("V1", 10))
	assert.ErrorIs(t, err, model.ErrDuplicateIdentifier)

	_, err = svc.RegisterCustomer(ctx, model.CreateCustomerRequest{ID: "C2"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.GetRental(ctx, "R001")
	assert.ErrorIs(t, err, model.ErrRentalNotFound)

	assert.Empty(t, svc.ListRentals(ctx))
}

func TestRentalServicePersistsAfterMutations(t *testing.T) {
	store := new(mockStore)
	store.On("Save", mock.Anything, mock.AnythingOfType("model.Snapshot")).Return("snap-id", nil)

	svc := newService(t, store, nil)
	ctx := context.Background()
	_, err := svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)
	_, err = svc.ReturnVehicle(ctx, "R001")
	require.NoError(t, err)

	// vehicle, customer, rental, return
	store.AssertNumberOfCalls(t, "Save", 4)

	last := store.Calls[len(store.Calls)-1].Arguments.Get(1).(model.Snapshot)
	require.Len(t, last.Rentals, 1)
	assert.Equal(t, model.RentalStatusCompleted, last.Rentals[0].Status)
	assert.Equal(t, 2, last.NextRentalSeq)
}

func TestRentalServiceLastSavedSnapshotIsNewest(t *testing.T) {
	store := newGatedStore()
	svc := newService(t, store, nil)
	ctx := context.Background()

	_, err := svc.RegisterVehicle(ctx, carRequest("V2", 40))
	require.NoError(t, err)
	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)

	store.arm()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V2", StartDate: "2024-03-01", EndDate: "2024-03-03"})
		assert.NoError(t, err)
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		_, err := svc.ReturnVehicle(ctx, "R001")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool {
		r, err := svc.GetRental(ctx, "R001")
		return err == nil && r.Status == model.RentalStatusCompleted
	}, time.Second, time.Millisecond)

	close(store.release)
	wg.Wait()

	last := store.last()
	require.Len(t, last.Rentals, 2)
	assert.Equal(t, "R001", last.Rentals[0].ID)
	assert.Equal(t, model.RentalStatusCompleted, last.Rentals[0].Status)
	assert.Equal(t, model.RentalStatusReserved, last.Rentals[1].Status)
	assert.Equal(t, 3, last.NextRentalSeq)
}

func TestRentalServicePersistOutlivesCanceledRequest(t *testing.T) {
	store := new(mockStore)
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	store.On("Save", live, mock.Anything).Return("snap-id", nil)
	svc := newService(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "Save", 3)
}

func TestRentalServiceSkipsPersistOnFailure(t *testing.T) {
	store := new(mockStore)
	store.On("Save", mock.Anything, mock.Anything).Return("snap-id", nil)
	svc := newService(t, store, nil)

	_, err := svc.CreateRental(context.Background(), model.CreateRentalRequest{CustomerID: "C9", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.ErrorIs(t, err, model.ErrCustomerNotFound)
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestRentalServiceStoreFailureKeepsEngineResult(t *testing.T) {
	store := new(mockStore)
	store.On("Save", mock.Anything, mock.Anything).Return("", errors.New("db down"))
	svc := newService(t, store, nil)

	r, err := svc.CreateRental(context.Background(), model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-01"})
	require.NoError(t, err)
	got, err := svc.GetRental(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RentalStatusReserved, got.Status)
}

func TestRentalServiceRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPromRecorder(reg)
	require.NoError(t, err)
	svc := newService(t, nil, rec)
	ctx := context.Background()

	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)
	_, err = svc.CreateRental(ctx, model.CreateRentalRequest{CustomerID: "C1", VehicleID: "V1", StartDate: "2024-03-03", EndDate: "2024-03-03"})
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg,
		"rental_registry_rentals_created_total",
		"rental_registry_rental_rejections_total",
		"rental_registry_vehicles_registered_total",
		"rental_registry_active_rentals",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "not_available", rejectionReason(model.ErrVehicleNotAvailable))
	assert.Equal(t, "vehicle_not_found", rejectionReason(model.ErrVehicleNotFound))
	assert.Equal(t, "customer_not_found", rejectionReason(model.ErrCustomerNotFound))
	assert.Equal(t, "invalid_date", rejectionReason(model.ErrInvalidDateFormat))
	assert.Equal(t, "invalid_range", rejectionReason(model.ErrInvalidRange))
	assert.Equal(t, "other", rejectionReason(errors.New("boom")))
}
