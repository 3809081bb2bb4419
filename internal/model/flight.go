package model

import "time"

// Flight statuses.  A flight can only be booked while it is
// SCHEDULED and its departure time is still in the future.
const (
	FlightStatusScheduled = "SCHEDULED"
	FlightStatusCancelled = "CANCELLED"
	FlightStatusDeparted  = "DEPARTED"
)

// Flight represents a scheduled flight between two airports.
// Seats are created for the flight at schedule time and keep
// their booking state on the seat rows themselves.
//
// Fields:
//  ID             – primary key identifier.
//  FlightNumber   – airline flight number (e.g. "FH-207").
//  Origin         – IATA code of the departure airport.
//  Destination    – IATA code of the arrival airport.
//  DepartsAt      – departure timestamp (UTC).
//  ArrivesAt      – arrival timestamp (UTC).
//  BasePriceCents – base economy fare in cents.
//  Status         – SCHEDULED, CANCELLED or DEPARTED.
//  CreatedAt      – timestamp when the record was created.
//  UpdatedAt      – timestamp when the record was last updated.
type Flight struct {
	ID             uint64    // flights.id
	FlightNumber   string    // flights.flight_number
	Origin         string    // flights.origin
	Destination    string    // flights.destination
	DepartsAt      time.Time // flights.departs_at
	ArrivesAt      time.Time // flights.arrives_at
	BasePriceCents uint64    // flights.base_price_cents
	Status         string    // flights.status
	CreatedAt      string    // flights.created_at
	UpdatedAt      string    // flights.updated_at
}
