// Package repository persists engine snapshots in PostgreSQL.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/model"
)

// SnapshotRepository writes and reads the three registry mappings plus the
// rental counter.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// vehicleAttributes is the JSONB payload of the vehicles.attributes column.
type vehicleAttributes struct {
	Car   *model.CarAttributes   `json:"car,omitempty"`
	Bike  *model.BikeAttributes  `json:"bike,omitempty"`
	Truck *model.TruckAttributes `json:"truck,omitempty"`
}

// Save upserts every row of snap inside one transaction and records the
// snapshot under a fresh UUID, which it returns.
//
// Rows are never deleted: the engine never removes vehicles, customers or
// rentals, so an upsert of the full state is enough to mirror it.
func (r *SnapshotRepository) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for i, v := range snap.Vehicles {
		var attrs []byte
		attrs, err = json.Marshal(vehicleAttributes{Car: v.Car, Bike: v.Bike, Truck: v.Truck})
		if err != nil {
			return "", fmt.Errorf("encode attributes of %s: %w", v.ID, err)
		}
		batch.Queue(
			`INSERT INTO vehicles (id, seq, category, make, model, year, daily_rate, attributes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
			   category = EXCLUDED.category, make = EXCLUDED.make, model = EXCLUDED.model,
			   year = EXCLUDED.year, daily_rate = EXCLUDED.daily_rate, attributes = EXCLUDED.attributes`,
			v.ID, i, string(v.Category), v.Make, v.Model, v.Year, v.DailyRate, string(attrs),
		)
	}
	for i, c := range snap.Customers {
		batch.Queue(
			`INSERT INTO customers (id, seq, name, license_number)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, license_number = EXCLUDED.license_number`,
			c.ID, i, c.Name, c.LicenseNumber,
		)
	}
	for i, rt := range snap.Rentals {
		batch.Queue(
			`INSERT INTO rentals (id, seq, customer_id, vehicle_id, start_date, end_date, status, total_price, created_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at`,
			rt.ID, i, rt.CustomerID, rt.VehicleID, rt.Interval.Start, rt.Interval.End,
			string(rt.Status), rt.TotalPrice, rt.CreatedAt, rt.CompletedAt,
		)
	}
	batch.Queue(
		`INSERT INTO registry_state (id, next_rental_seq) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET next_rental_seq = EXCLUDED.next_rental_seq`,
		snap.NextRentalSeq,
	)
	snapshotID := uuid.New()
	batch.Queue(
		`INSERT INTO registry_snapshots (id, taken_at, vehicles, customers, rentals)
		 VALUES ($1, $2, $3, $4, $5)`,
		snapshotID.String(), time.Now().UTC(), len(snap.Vehicles), len(snap.Customers), len(snap.Rentals),
	)

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return snapshotID.String(), nil
}

// Load reads the stored state back in registration order. An empty database
// yields an empty snapshot whose counter starts at 1.
func (r *SnapshotRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{NextRentalSeq: 1}

	err := r.db.QueryRow(ctx, `SELECT next_rental_seq FROM registry_state WHERE id = 1`).Scan(&snap.NextRentalSeq)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get rental counter: %w", err)
	}

	if snap.Vehicles, err = r.loadVehicles(ctx); err != nil {
		return nil, err
	}
	if snap.Customers, err = r.loadCustomers(ctx); err != nil {
		return nil, err
	}
	if snap.Rentals, err = r.loadRentals(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *SnapshotRepository) loadVehicles(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, category, make, model, year, daily_rate, attributes
		 FROM vehicles
		 ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []model.Vehicle{}
	for rows.Next() {
		var (
			v        model.Vehicle
			category string
			raw      []byte
			attrs    vehicleAttributes
		)
		if err := rows.Scan(&v.ID, &category, &v.Make, &v.Model, &v.Year, &v.DailyRate, &raw); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", v.ID, err)
		}
		v.Category = model.Category(category)
		v.Car, v.Bike, v.Truck = attrs.Car, attrs.Bike, attrs.Truck
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *SnapshotRepository) loadCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, license_number
		 FROM customers
		 ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.LicenseNumber); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Rentals = []string{}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *SnapshotRepository) loadRentals(ctx context.Context) ([]model.Rental, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, customer_id, vehicle_id, start_date, end_date, status, total_price, created_at, completed_at
		 FROM rentals
		 ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	rentals := []model.Rental{}
	for rows.Next() {
		var (
			rt         model.Rental
			start, end time.Time
			status     string
		)
		if err := rows.Scan(&rt.ID, &rt.CustomerID, &rt.VehicleID, &start, &end, &status,
			&rt.TotalPrice, &rt.CreatedAt, &rt.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		iv, err := model.NewDateInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("rental %s: %w", rt.ID, err)
		}
		rt.Interval = iv
		rt.Status = model.RentalStatus(status)
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}
