package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
)

// TicketRepo provides persistence for tickets and the records that
// hang off them (passengers, addon attachments, round-trip bundles).
// Every write method takes an explicit transaction: tickets only
// come into existence inside the checkout transaction, atomically
// with the seat state change.  All timestamp fields are stored in UTC.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts a new ticket within the scope of an existing
// transaction.  It populates the generated ID and creation time on
// the provided record.  The caller must commit or roll back.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (code, flight_id, seat_id, user_id, price_cents, status) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.Code, t.FlightID, t.SeatID, t.UserID, t.PriceCents, t.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the row to populate the DB-assigned creation time.
	const sel = `SELECT created_at FROM tickets WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreatedAt)
}

// CreatePassengerTx inserts the passenger attached to a ticket within
// the provided transaction and populates the generated ID.
func (r *TicketRepo) CreatePassengerTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error {
	const q = `INSERT INTO passengers (ticket_id, full_name, id_number, birth_date) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.TicketID, p.FullName, p.IDNumber, p.BirthDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CreateAddonsBulkTx inserts multiple ticket_addons rows in a single
// statement within the provided transaction.  Passing an empty slice
// has no effect and returns nil.
func (r *TicketRepo) CreateAddonsBulkTx(ctx context.Context, tx *sql.Tx, addons []model.TicketAddon) error {
	if len(addons) == 0 {
		return nil
	}
	query := `INSERT INTO ticket_addons (ticket_id, addon_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(addons)*3)
	for i, a := range addons {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, a.TicketID, a.AddonID, a.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateRoundTripTx inserts the bundle row linking the outbound and
// return tickets of a round trip within the provided transaction.
func (r *TicketRepo) CreateRoundTripTx(ctx context.Context, tx *sql.Tx, rt *model.RoundTripBooking) error {
	const q = `INSERT INTO round_trip_bookings (code, user_id, outbound_ticket_id, return_ticket_id, total_price_cents, discount_percent)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rt.Code, rt.UserID, rt.OutboundTicketID, rt.ReturnTicketID, rt.TotalPriceCents, rt.DiscountPercent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// TicketDetail aggregates a ticket with flight and seat information
// for display to customers.
type TicketDetail struct {
	ID           uint64 `json:"id"`
	Code         string `json:"code"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	DepartsAt    string `json:"departs_at"`
	SeatLabel    string `json:"seat_label"`
	SeatClass    string `json:"seat_class"`
	PriceCents   uint64 `json:"price_cents"`
	Status       string `json:"status"`
	BookedAt     string `json:"booked_at"`
}

// ListByUser returns all tickets purchased by the given user, newest
// first, joined with their flight and seat details.  When the user
// has no tickets an empty slice is returned.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT t.id, t.code, f.flight_number, f.origin, f.destination, f.departs_at,
	                  s.label, s.class, t.price_cents, t.status, t.created_at
	           FROM tickets t
	           JOIN flights f ON f.id = t.flight_id
	           JOIN seats s ON s.id = t.seat_id
	           WHERE t.user_id = ?
	           ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	for rows.Next() {
		var d TicketDetail
		var departs, booked time.Time
		if err := rows.Scan(
			&d.ID, &d.Code, &d.FlightNumber, &d.Origin, &d.Destination, &departs,
			&d.SeatLabel, &d.SeatClass, &d.PriceCents, &d.Status, &booked,
		); err != nil {
			return nil, err
		}
		d.DepartsAt = departs.UTC().Format(time.RFC3339)
		d.BookedAt = booked.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
