package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/queue"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
)

// PassengerInput carries the traveller details for one seat of a
// checkout request.  Entries are matched to seats by SeatID.
type PassengerInput struct {
	SeatID    uint64 `json:"seat_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	IDNumber  string `json:"id_number" validate:"required"`
	BirthDate string `json:"birth_date" validate:"required"`
}

// AddonSelection attaches an ancillary purchase to one seat of a
// checkout request.
type AddonSelection struct {
	SeatID     uint64 `json:"seat_id" validate:"required"`
	AddonID    uint64 `json:"addon_id" validate:"required"`
	PriceCents uint64 `json:"price_cents"`
}

// CommitInput is the full payload of a single-flight checkout.
type CommitInput struct {
	FlightID        uint64
	SeatIDs         []uint64
	UserID          uint64
	TotalPriceCents uint64
	Passengers      []PassengerInput
	Addons          []AddonSelection
	ContactName     string
	ContactEmail    string
}

// RoundTripLeg identifies one flight/seat pair of a round trip.
type RoundTripLeg struct {
	FlightID  uint64
	SeatID    uint64
	Passenger PassengerInput
}

// RoundTripInput is the payload of a round-trip checkout.  The total
// is the pre-discount sum of both legs; the engine applies the
// percentage discount before splitting the price across the tickets.
type RoundTripInput struct {
	UserID          uint64
	Outbound        RoundTripLeg
	Return          RoundTripLeg
	TotalPriceCents uint64
	DiscountPercent uint8
	ContactName     string
	ContactEmail    string
}

// CheckoutEngine converts a held seat set into durable tickets
// exactly once.  Every commit runs in a single transaction: the
// seats are re-read under FOR UPDATE locks, re-verified unbooked,
// and the ticket, passenger and addon rows are written together with
// the seat state change.  Any failure rolls the whole set back.
type CheckoutEngine struct {
	tx       TxRunner
	flights  FlightStore
	seats    SeatStore
	tickets  TicketStore
	notifier Notifier
	clock    Clock
}

// NewCheckoutEngine constructs a CheckoutEngine.  notifier may be
// nil, in which case confirmation events are skipped entirely.
func NewCheckoutEngine(tx TxRunner, flights FlightStore, seats SeatStore, tickets TicketStore, notifier Notifier, clock Clock) *CheckoutEngine {
	if clock == nil {
		clock = SystemClock()
	}
	return &CheckoutEngine{tx: tx, flights: flights, seats: seats, tickets: tickets, notifier: notifier, clock: clock}
}

// checkFlight verifies a flight can still be booked at the given
// instant.  It returns a business rejection reason, or "" when ok.
func checkFlight(f *model.Flight, now time.Time) string {
	if f.Status == model.FlightStatusCancelled {
		return ReasonFlightCancelled
	}
	if f.Status == model.FlightStatusDeparted || !f.DepartsAt.After(now) {
		return ReasonFlightDeparted
	}
	return ""
}

// CommitBooking books every seat in the input for the purchasing
// user, creating one ticket (with passenger and addon rows) per
// seat.  The per-ticket price is floor(total / seats); the division
// remainder is absorbed rather than distributed.  On success the
// confirmation event is published best-effort after the transaction
// has committed.
func (e *CheckoutEngine) CommitBooking(ctx context.Context, in CommitInput) (CommitResult, error) {
	if len(in.SeatIDs) == 0 {
		return CommitResult{}, fmt.Errorf("commit booking: %w", repository.ErrSeatNotFound)
	}
	passengerBySeat := make(map[uint64]PassengerInput, len(in.Passengers))
	for _, p := range in.Passengers {
		passengerBySeat[p.SeatID] = p
	}
	for _, id := range in.SeatIDs {
		if _, ok := passengerBySeat[id]; !ok {
			return CommitResult{}, fmt.Errorf("commit booking: missing passenger for seat %d", id)
		}
	}

	var result CommitResult
	var ev queue.BookingConfirmedEvent
	err := e.tx.WithTx(ctx, func(tx *sql.Tx) error {
		flight, err := e.flights.GetByIDTx(ctx, tx, in.FlightID)
		if errors.Is(err, repository.ErrFlightNotFound) {
			result = CommitResult{Reason: ReasonFlightNotFound}
			return nil
		}
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if reason := checkFlight(flight, now); reason != "" {
			result = CommitResult{Reason: reason}
			return nil
		}
		// Re-read under locks: a hold may have expired and been
		// claimed by someone else between ValidateHold and now.
		seats, err := e.seats.FindForUpdateTx(ctx, tx, in.FlightID, in.SeatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(in.SeatIDs) {
			result = CommitResult{Reason: ReasonSeatsBooked}
			return nil
		}
		labelByID := make(map[uint64]string, len(seats))
		for _, s := range seats {
			if s.IsBooked {
				result = CommitResult{Reason: ReasonSeatsBooked}
				return nil
			}
			labelByID[s.ID] = s.Label
		}

		perTicket := in.TotalPriceCents / uint64(len(in.SeatIDs))
		committed := make([]CommittedTicket, 0, len(in.SeatIDs))
		for _, seatID := range in.SeatIDs {
			t := &model.Ticket{
				Code:       NewBookingCode(),
				FlightID:   in.FlightID,
				SeatID:     seatID,
				UserID:     in.UserID,
				PriceCents: perTicket,
				Status:     model.TicketStatusSuccess,
			}
			if err := e.tickets.CreateTx(ctx, tx, t); err != nil {
				return err
			}
			p := passengerBySeat[seatID]
			if err := e.tickets.CreatePassengerTx(ctx, tx, &model.Passenger{
				TicketID:  t.ID,
				FullName:  p.FullName,
				IDNumber:  p.IDNumber,
				BirthDate: p.BirthDate,
			}); err != nil {
				return err
			}
			var addons []model.TicketAddon
			for _, a := range in.Addons {
				if a.SeatID == seatID {
					addons = append(addons, model.TicketAddon{TicketID: t.ID, AddonID: a.AddonID, PriceCents: a.PriceCents})
				}
			}
			if err := e.tickets.CreateAddonsBulkTx(ctx, tx, addons); err != nil {
				return err
			}
			committed = append(committed, CommittedTicket{
				TicketID:   t.ID,
				SeatID:     seatID,
				SeatLabel:  labelByID[seatID],
				Code:       t.Code,
				PriceCents: perTicket,
			})
		}
		if err := e.seats.MarkBookedTx(ctx, tx, in.SeatIDs); err != nil {
			return err
		}
		result = CommitResult{OK: true, Tickets: committed, TotalPriceCents: in.TotalPriceCents}

		labels := make([]string, 0, len(committed))
		for _, t := range committed {
			labels = append(labels, t.SeatLabel)
		}
		ev = queue.BookingConfirmedEvent{
			BookingCode:   committed[0].Code,
			UserID:        in.UserID,
			ContactName:   in.ContactName,
			ContactEmail:  in.ContactEmail,
			FlightNumbers: []string{flight.FlightNumber},
			Route:         flight.Origin + " -> " + flight.Destination,
			DepartsAt:     flight.DepartsAt.UTC().Format(time.RFC3339),
			SeatLabels:    labels,
			TotalCents:    in.TotalPriceCents,
			ConfirmedAt:   now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, err
	}
	if result.OK {
		e.notify(ctx, ev)
	}
	return result, nil
}

// CommitRoundTrip books the outbound and return legs atomically
// under a single code: both seats become tickets or neither does.
// The percentage discount is applied to the combined pre-discount
// total, and the discounted amount is split evenly (floored) across
// the two tickets.
func (e *CheckoutEngine) CommitRoundTrip(ctx context.Context, in RoundTripInput) (CommitResult, error) {
	// A trip whose legs name the same seat would mint two tickets for
	// one (flight, seat) pair; both reads pass the pre-write check, so
	// it has to be rejected before the transaction starts.
	if in.Outbound.FlightID == in.Return.FlightID && in.Outbound.SeatID == in.Return.SeatID {
		return CommitResult{}, fmt.Errorf("commit round trip: outbound and return legs reference the same seat")
	}
	pct := uint64(in.DiscountPercent)
	if pct > 100 {
		pct = 100
	}
	discounted := in.TotalPriceCents - in.TotalPriceCents*pct/100
	perTicket := discounted / 2
	code := NewBookingCode()

	var result CommitResult
	var ev queue.BookingConfirmedEvent
	err := e.tx.WithTx(ctx, func(tx *sql.Tx) error {
		now := e.clock.Now()
		legs := []RoundTripLeg{in.Outbound, in.Return}

		// Verify both legs under locks before writing anything, so a
		// rejection on the return leg never commits the outbound one.
		flights := make([]*model.Flight, len(legs))
		legSeats := make([]model.Seat, len(legs))
		for i, leg := range legs {
			flight, err := e.flights.GetByIDTx(ctx, tx, leg.FlightID)
			if errors.Is(err, repository.ErrFlightNotFound) {
				result = CommitResult{Reason: ReasonFlightNotFound}
				return nil
			}
			if err != nil {
				return err
			}
			if reason := checkFlight(flight, now); reason != "" {
				result = CommitResult{Reason: reason}
				return nil
			}
			seats, err := e.seats.FindForUpdateTx(ctx, tx, leg.FlightID, []uint64{leg.SeatID})
			if err != nil {
				return err
			}
			if len(seats) != 1 || seats[0].IsBooked {
				result = CommitResult{Reason: ReasonSeatsBooked}
				return nil
			}
			flights[i] = flight
			legSeats[i] = seats[0]
		}

		ticketIDs := make([]uint64, 0, len(legs))
		committed := make([]CommittedTicket, 0, len(legs))
		flightNumbers := make([]string, 0, len(legs))
		labels := make([]string, 0, len(legs))
		for i, leg := range legs {
			t := &model.Ticket{
				Code:       code,
				FlightID:   leg.FlightID,
				SeatID:     leg.SeatID,
				UserID:     in.UserID,
				PriceCents: perTicket,
				Status:     model.TicketStatusSuccess,
			}
			if err := e.tickets.CreateTx(ctx, tx, t); err != nil {
				return err
			}
			if err := e.tickets.CreatePassengerTx(ctx, tx, &model.Passenger{
				TicketID:  t.ID,
				FullName:  leg.Passenger.FullName,
				IDNumber:  leg.Passenger.IDNumber,
				BirthDate: leg.Passenger.BirthDate,
			}); err != nil {
				return err
			}
			if err := e.seats.MarkBookedTx(ctx, tx, []uint64{leg.SeatID}); err != nil {
				return err
			}
			ticketIDs = append(ticketIDs, t.ID)
			committed = append(committed, CommittedTicket{
				TicketID:   t.ID,
				SeatID:     leg.SeatID,
				SeatLabel:  legSeats[i].Label,
				Code:       code,
				PriceCents: perTicket,
			})
			flightNumbers = append(flightNumbers, flights[i].FlightNumber)
			labels = append(labels, legSeats[i].Label)
		}
		route := flights[0].Origin + " -> " + flights[0].Destination
		departs := flights[0].DepartsAt.UTC().Format(time.RFC3339)
		if err := e.tickets.CreateRoundTripTx(ctx, tx, &model.RoundTripBooking{
			Code:             code,
			UserID:           in.UserID,
			OutboundTicketID: ticketIDs[0],
			ReturnTicketID:   ticketIDs[1],
			TotalPriceCents:  discounted,
			DiscountPercent:  in.DiscountPercent,
		}); err != nil {
			return err
		}
		result = CommitResult{OK: true, Tickets: committed, TotalPriceCents: discounted}
		ev = queue.BookingConfirmedEvent{
			BookingCode:   code,
			UserID:        in.UserID,
			ContactName:   in.ContactName,
			ContactEmail:  in.ContactEmail,
			FlightNumbers: flightNumbers,
			Route:         route,
			DepartsAt:     departs,
			SeatLabels:    labels,
			TotalCents:    discounted,
			RoundTrip:     true,
			ConfirmedAt:   now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, err
	}
	if result.OK {
		e.notify(ctx, ev)
	}
	return result, nil
}

// notify publishes the confirmation event best-effort.  The booking
// has already committed, so failures are logged and swallowed.
func (e *CheckoutEngine) notify(ctx context.Context, ev queue.BookingConfirmedEvent) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.BookingConfirmed(ctx, ev); err != nil {
		log.Printf("checkout: booking confirmation notify failed for %s: %v", ev.BookingCode, err)
	}
}
