// Package booking implements the seat hold-and-commit protocol: the
// time-limited exclusive holds customers place on seats while they
// complete checkout, and the transactional conversion of a held seat
// set into tickets.  Correctness under concurrency rests on the
// store's row locks (FOR UPDATE inside a transaction), not on any
// in-process locking; expiry is a passive timestamp comparison
// evaluated whenever a seat is read.
package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/queue"
)

// Clock supplies the current instant.  Injecting it keeps expiry
// arithmetic testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return systemClock{} }

// TxRunner runs a function inside a database transaction, rolling
// back when the function returns an error.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SeatStore is the persistence contract for seat state.  Implemented
// by repository.SeatRepo; tests substitute an in-memory fake.
type SeatStore interface {
	FindByIDs(ctx context.Context, flightID uint64, seatIDs []uint64) ([]model.Seat, error)
	FindForUpdateTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatIDs []uint64) ([]model.Seat, error)
	UpdateHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, userID uint64, expiresAt time.Time) error
	ClearHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, requireUserID uint64) (int64, error)
	MarkBookedTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error
}

// FlightStore looks up flights inside the checkout transaction.
type FlightStore interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error)
}

// TicketStore persists tickets and their attached records.
type TicketStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error
	CreatePassengerTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error
	CreateAddonsBulkTx(ctx context.Context, tx *sql.Tx, addons []model.TicketAddon) error
	CreateRoundTripTx(ctx context.Context, tx *sql.Tx, rt *model.RoundTripBooking) error
}

// Notifier delivers the post-commit confirmation event.  Failures
// are logged by the caller and never affect the committed booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// HoldResult is the outcome of an AcquireHold call.  Business
// rejections land in Reason with OK=false; persistence failures are
// returned as ordinary errors instead.
type HoldResult struct {
	OK        bool      `json:"ok"`
	SeatIDs   []uint64  `json:"seat_ids,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// ValidationResult is the outcome of a ValidateHold call.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// CommittedTicket describes one ticket created by a commit.
type CommittedTicket struct {
	TicketID   uint64 `json:"ticket_id"`
	SeatID     uint64 `json:"seat_id"`
	SeatLabel  string `json:"seat_label"`
	Code       string `json:"code"`
	PriceCents uint64 `json:"price_cents"`
}

// CommitResult is the outcome of CommitBooking / CommitRoundTrip.
type CommitResult struct {
	OK              bool              `json:"ok"`
	Reason          string            `json:"reason,omitempty"`
	Tickets         []CommittedTicket `json:"tickets,omitempty"`
	TotalPriceCents uint64            `json:"total_price_cents,omitempty"`
}

// Business rejection reasons that do not depend on a specific seat.
const (
	ReasonFlightNotFound  = "flight not found"
	ReasonFlightDeparted  = "flight has already departed"
	ReasonFlightCancelled = "flight is cancelled"
	ReasonSeatsBooked     = "one or more seats are already booked"
)
