package model

import "time"

// Seat cabin classes.
const (
	SeatClassEconomy  = "ECONOMY"
	SeatClassBusiness = "BUSINESS"
	SeatClassFirst    = "FIRST"
)

// Derived seat availability statuses as exposed to clients.  These
// are not stored; they are computed from IsBooked and the hold
// fields at read time.
const (
	SeatStatusFree   = "FREE"
	SeatStatusHeld   = "HELD"
	SeatStatusBooked = "BOOKED"
)

// Seat is a physical seat on a flight.  The hold fields carry the
// temporary reservation placed during checkout: a seat is HELD when
// HoldExpiresAt is in the future, and the stale pair left behind by
// an expired hold is treated as FREE until it is overwritten or
// cleared.  A seat is never both booked and held; marking a seat
// booked clears the hold fields in the same statement.
//
// Fields:
//  ID            – primary key identifier.
//  FlightID      – flight this seat belongs to.
//  Label         – seat label such as "12A".
//  Class         – ECONOMY, BUSINESS or FIRST.
//  IsBooked      – true once a ticket has been committed for the seat.
//  HoldExpiresAt – when the current hold lapses (nullable).
//  HoldUserID    – user owning the current hold (nullable).
//  CreatedAt     – timestamp when the record was created.
//  UpdatedAt     – timestamp when the record was last updated.
type Seat struct {
	ID            uint64     // seats.id
	FlightID      uint64     // seats.flight_id
	Label         string     // seats.label
	Class         string     // seats.class
	IsBooked      bool       // seats.is_booked
	HoldExpiresAt *time.Time // seats.hold_expires_at (nullable)
	HoldUserID    *uint64    // seats.hold_user_id (nullable)
	CreatedAt     string     // seats.created_at
	UpdatedAt     string     // seats.updated_at
}

// HeldBy reports whether the seat carries a live hold owned by the
// given user at the supplied instant.
func (s *Seat) HeldBy(userID uint64, now time.Time) bool {
	return s.HoldUserID != nil && *s.HoldUserID == userID &&
		s.HoldExpiresAt != nil && s.HoldExpiresAt.After(now)
}

// HeldByOther reports whether the seat carries a live hold owned by
// a different user at the supplied instant.
func (s *Seat) HeldByOther(userID uint64, now time.Time) bool {
	return s.HoldUserID != nil && *s.HoldUserID != userID &&
		s.HoldExpiresAt != nil && s.HoldExpiresAt.After(now)
}

// Status derives the client-facing availability of the seat at the
// supplied instant.  Expiry is evaluated lazily: a lapsed hold
// reads as FREE even though its hold columns are still populated.
func (s *Seat) Status(now time.Time) string {
	if s.IsBooked {
		return SeatStatusBooked
	}
	if s.HoldExpiresAt != nil && s.HoldExpiresAt.After(now) {
		return SeatStatusHeld
	}
	return SeatStatusFree
}
