package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/config"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/database"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/engine"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

// startPostgres launches a disposable PostgreSQL container and returns a pool
// with the registry schema applied.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "vehiclerental",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{Enabled: true, Password: "postgres"}
	cfg.SetDefaults()
	cfg.Host = host
	cfg.Port = port.Int()

	pool, err := database.NewPool(ctx, cfg, nil)
	require.NoError(t, err, fmt.Sprintf("connect to %s", cfg.DSN()))
	t.Cleanup(pool.Close)
	require.NoError(t, database.EnsureSchema(ctx, pool))
	return pool
}

func TestSnapshotRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewSnapshotRepository(pool)

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Vehicles)
	assert.Equal(t, 1, empty.NextRentalSeq)

	c := engine.NewCompany(nil)
	require.NoError(t, c.RegisterVehicle(model.Vehicle{ID: "V1", Category: model.CategoryCar, Make: "Toyota",
		Model: "Corolla", Year: 2020, DailyRate: 50, Car: &model.CarAttributes{Doors: 4, Seats: 5, Transmission: "Manual"}}))
	require.NoError(t, c.RegisterVehicle(model.Vehicle{ID: "T1", Category: model.CategoryTruck, Make: "Volvo",
		Model: "FH", Year: 2019, DailyRate: 200, Truck: &model.TruckAttributes{CapacityTons: 18, Axles: 3}}))
	require.NoError(t, c.RegisterCustomer(model.Customer{ID: "C1", Name: "Ada", LicenseNumber: "DL-1"}))

	window, err := model.ParseDateInterval("2024-03-01", "2024-03-03")
	require.NoError(t, err)
	_, err = c.CreateRental("C1", "V1", window)
	require.NoError(t, err)
	_, err = c.CreateRental("C1", "T1", window)
	require.NoError(t, err)
	_, err = c.ReturnVehicle("R002")
	require.NoError(t, err)

	id, err := repo.Save(ctx, c.Snapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// saving again upserts instead of failing on existing rows
	_, err = repo.Save(ctx, c.Snapshot())
	require.NoError(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Vehicles, 2)
	assert.Equal(t, "V1", loaded.Vehicles[0].ID)
	require.NotNil(t, loaded.Vehicles[0].Car)
	assert.Equal(t, "Manual", loaded.Vehicles[0].Car.Transmission)
	require.NotNil(t, loaded.Vehicles[1].Truck)
	assert.Equal(t, 3, loaded.Vehicles[1].Truck.Axles)
	require.Len(t, loaded.Rentals, 2)
	assert.Equal(t, "2024-03-01..2024-03-03", loaded.Rentals[0].Interval.String())
	assert.Equal(t, 150.0, loaded.Rentals[0].TotalPrice)
	assert.Equal(t, model.RentalStatusCompleted, loaded.Rentals[1].Status)
	assert.NotNil(t, loaded.Rentals[1].CompletedAt)
	assert.Equal(t, 3, loaded.NextRentalSeq)

	restored := engine.NewCompany(nil)
	require.NoError(t, restored.Restore(*loaded))
	_, err = restored.CreateRental("C1", "V1", window)
	assert.ErrorIs(t, err, model.ErrVehicleNotAvailable)
	r, err := restored.CreateRental("C1", "T1", window)
	require.NoError(t, err)
	assert.Equal(t, "R003", r.ID)
}
