// Package repository contains data access logic for flight domain
// operations. This file defines the repository methods for flights. A
// Flight represents a scheduled departure whose seats can be held and
// booked by customers.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
)

// FlightRepo manages persistence for flights.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo {
	return &FlightRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *FlightRepo) DB() *sql.DB {
	return r.db
}

const flightColumns = `id, flight_number, origin, destination, departs_at, arrives_at, base_price_cents, status, created_at, updated_at`

func scanFlight(row *sql.Row) (*model.Flight, error) {
	var f model.Flight
	err := row.Scan(
		&f.ID, &f.FlightNumber, &f.Origin, &f.Destination,
		&f.DepartsAt, &f.ArrivesAt, &f.BasePriceCents, &f.Status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a flight by its id.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	return scanFlight(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx retrieves a flight within the scope of an existing
// transaction.  The checkout engine uses this variant so the flight
// status it observes belongs to the same snapshot as the seat rows
// it is about to lock.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	return scanFlight(tx.QueryRowContext(ctx, q, id))
}

// Create inserts a new flight and assigns the generated ID back to
// the struct.  Status defaults to SCHEDULED in the database.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
	const q = `INSERT INTO flights (flight_number, origin, destination, departs_at, arrives_at, base_price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		f.FlightNumber, f.Origin, f.Destination,
		f.DepartsAt.UTC(), f.ArrivesAt.UTC(), f.BasePriceCents,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}
