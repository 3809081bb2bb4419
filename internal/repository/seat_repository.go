package repository // repository defines data access for flight seats

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
)

// SeatRepo is the single source of truth for seat booking and hold
// state.  All mutation of seat rows goes through UpdateHoldTx,
// ClearHoldTx and MarkBookedTx, each of which updates its full seat
// set in one statement so readers never observe a half-updated set.
// Row-level locking is obtained by the caller via FindForUpdateTx;
// the repository itself never begins transactions.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, flight_id, label, class, is_booked, hold_expires_at, hold_user_id, created_at, updated_at`

// placeholders returns "?, ?, ..., ?" with n markers for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func idArgs(seatIDs []uint64) []interface{} {
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	return args
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		var expires sql.NullTime
		var holder sql.NullInt64
		if err := rows.Scan(
			&s.ID, &s.FlightID, &s.Label, &s.Class, &s.IsBooked,
			&expires, &holder, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if expires.Valid {
			t := expires.Time.UTC()
			s.HoldExpiresAt = &t
		}
		if holder.Valid {
			u := uint64(holder.Int64)
			s.HoldUserID = &u
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// FindByFlight retrieves all seats of a flight ordered by label.  It
// is used for the public seat map; no locks are taken.
func (r *SeatRepo) FindByFlight(ctx context.Context, flightID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// FindByFlightAndClass retrieves the seats of one cabin class on a
// flight, ordered by label.
func (r *SeatRepo) FindByFlightAndClass(ctx context.Context, flightID uint64, class string) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = ? AND class = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, flightID, class)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// FindByIDs retrieves the given seats of a flight without locking.
// Used for read-only hold validation ahead of checkout.
func (r *SeatRepo) FindByIDs(ctx context.Context, flightID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, ErrSeatNotFound
	}
	q := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := append([]interface{}{flightID}, idArgs(seatIDs)...)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// FindForUpdateTx reads the requested seats of a flight inside the
// caller's transaction with FOR UPDATE row locks.  Concurrent
// writers targeting any of the same rows block here until the first
// transaction commits, which is what serialises two customers racing
// for one seat.  Seats are returned in no particular order; callers
// that care about request order must reorder by ID themselves.
func (r *SeatRepo) FindForUpdateTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, ErrSeatNotFound
	}
	q := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) FOR UPDATE`
	args := append([]interface{}{flightID}, idArgs(seatIDs)...)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// UpdateHoldTx sets the hold fields on exactly the given seats in a
// single statement.  Eligibility must already have been validated by
// the caller under FOR UPDATE locks; this method is unconditional by
// contract so a re-acquire by the same holder simply refreshes the
// expiry.
func (r *SeatRepo) UpdateHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, userID uint64, expiresAt time.Time) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET hold_expires_at = ?, hold_user_id = ?, updated_at = CURRENT_TIMESTAMP
	      WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := append([]interface{}{expiresAt.UTC().Format("2006-01-02 15:04:05"), userID}, idArgs(seatIDs)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ClearHoldTx nulls the hold fields of the given seats.  When
// requireUserID is non-zero only rows currently held by that user
// are touched, so releasing never strips another customer's hold.
// Booked seats are skipped; their hold fields are already cleared.
// Returns the number of rows released.
func (r *SeatRepo) ClearHoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, requireUserID uint64) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `UPDATE seats SET hold_expires_at = NULL, hold_user_id = NULL, updated_at = CURRENT_TIMESTAMP
	      WHERE id IN (` + placeholders(len(seatIDs)) + `) AND is_booked = 0`
	args := idArgs(seatIDs)
	if requireUserID != 0 {
		q += ` AND hold_user_id = ?`
		args = append(args, requireUserID)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkBookedTx flips the given seats to booked and clears their hold
// fields in the same statement, preserving the invariant that a seat
// is never simultaneously booked and held.  It must run in the same
// transaction as ticket creation.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET is_booked = 1, hold_expires_at = NULL, hold_user_id = NULL, updated_at = CURRENT_TIMESTAMP
	      WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	_, err := tx.ExecContext(ctx, q, idArgs(seatIDs)...)
	return err
}

// CreateBulk inserts multiple seats in a single statement.  Used at
// flight-schedule time to materialise the cabin layout.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (flight_id, label, class) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.FlightID, s.Label, s.Class)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
