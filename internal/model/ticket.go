package model

import "time"

// Ticket statuses.
const (
	TicketStatusSuccess = "SUCCESS"
	TicketStatusFailed  = "FAILED"
	TicketStatusPending = "PENDING"
)

// Ticket records a committed booking of a single seat on a single
// flight.  Tickets are only ever created inside the checkout
// transaction, after the seat has been re-verified as unbooked.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – human-readable booking code (e.g. "FH-9F2C4A1B").
//  FlightID   – flight being flown.
//  SeatID     – seat committed to this ticket.
//  UserID     – purchaser.
//  PriceCents – price paid for this seat in cents.
//  Status     – SUCCESS, FAILED or PENDING.
//  Boarded    – set by check-in scanning (out of scope here).
//  CreatedAt  – booking timestamp.
type Ticket struct {
	ID         uint64    // tickets.id
	Code       string    // tickets.code
	FlightID   uint64    // tickets.flight_id
	SeatID     uint64    // tickets.seat_id
	UserID     uint64    // tickets.user_id
	PriceCents uint64    // tickets.price_cents
	Status     string    // tickets.status
	Boarded    bool      // tickets.boarded
	CreatedAt  time.Time // tickets.created_at
}

// Passenger is the traveller attached to a ticket.  Passenger rows
// are created in the same transaction as their ticket and are not
// reachable before the booking commits.
type Passenger struct {
	ID        uint64 // passengers.id
	TicketID  uint64 // passengers.ticket_id
	FullName  string // passengers.full_name
	IDNumber  string // passengers.id_number
	BirthDate string // passengers.birth_date ("YYYY-MM-DD")
}

// TicketAddon links an ancillary purchase (extra baggage, meal,
// lounge access) to a ticket.  Rows are written alongside the
// ticket inside the checkout transaction.
type TicketAddon struct {
	ID         uint64 // ticket_addons.id
	TicketID   uint64 // ticket_addons.ticket_id
	AddonID    uint64 // ticket_addons.addon_id
	PriceCents uint64 // ticket_addons.price_cents
}

// RoundTripBooking bundles an outbound and a return ticket under a
// single code and a combined discounted price.  Both tickets are
// committed in one transaction; a round trip never exists with only
// one leg booked.
type RoundTripBooking struct {
	ID               uint64    // round_trip_bookings.id
	Code             string    // round_trip_bookings.code
	UserID           uint64    // round_trip_bookings.user_id
	OutboundTicketID uint64    // round_trip_bookings.outbound_ticket_id
	ReturnTicketID   uint64    // round_trip_bookings.return_ticket_id
	TotalPriceCents  uint64    // round_trip_bookings.total_price_cents
	DiscountPercent  uint8     // round_trip_bookings.discount_percent
	CreatedAt        time.Time // round_trip_bookings.created_at
}
