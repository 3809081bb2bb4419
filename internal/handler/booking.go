package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/booking"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
)

// BookingHandler exposes the hold-and-commit protocol over HTTP on
// behalf of customers.  All methods assume JWT authentication and
// role validation have already been performed by middleware; business
// rejections from the booking engines are translated to structured
// JSON with the appropriate status code, and store failures are never
// leaked verbatim to the client.
type BookingHandler struct {
	Flights     *repository.FlightRepo
	Tickets     *repository.TicketRepo
	Holds       *booking.HoldManager
	Checkout    *booking.CheckoutEngine
	DiscountPct int // round-trip discount percentage
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// except DiscountPct must be non-nil.
func NewBookingHandler(flights *repository.FlightRepo, tickets *repository.TicketRepo, holds *booking.HoldManager, checkout *booking.CheckoutEngine, discountPct int) *BookingHandler {
	if flights == nil || tickets == nil || holds == nil || checkout == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Flights: flights, Tickets: tickets, Holds: holds, Checkout: checkout, DiscountPct: discountPct}
}

func parseFlightID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid flight id")
	}
	return id, nil
}

// HoldSeats handles POST /v1/flights/:id/hold.  It places a
// time-limited exclusive hold on the requested seats for the
// authenticated user.  The whole request fails if any seat is booked
// or held by another customer; no partial holds are created.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	flightID, err := parseFlightID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	if _, err := h.Flights.GetByID(c.Request().Context(), flightID); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	seatIDs := dedupeIDs(body.SeatIDs)
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid seat IDs provided"})
	}

	res, err := h.Holds.AcquireHold(c.Request().Context(), flightID, seatIDs, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats not found for this flight"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	if !res.OK {
		// The seat-selection UI should re-fetch availability on this.
		return c.JSON(http.StatusConflict, echo.Map{"error": res.Reason})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
		"seat_ids":   res.SeatIDs,
	})
}

// ReleaseHold handles DELETE /v1/flights/:id/hold?seat_ids=4,9.  It
// gives up the caller's holds on the listed seats.  The operation is
// idempotent and reports success even when the caller no longer owns
// a hold; seats held by other users are never affected.
func (h *BookingHandler) ReleaseHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, err := parseFlightID(c); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	seatIDs := parseIDList(c.QueryParam("seat_ids"))
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	if err := h.Holds.ReleaseHold(c.Request().Context(), seatIDs, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// ValidateHold handles GET /v1/flights/:id/hold?seat_ids=4,9.  The
// checkout page calls it right before payment confirmation to catch
// holds that expired or were lost while the customer filled in
// passenger details.
func (h *BookingHandler) ValidateHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	flightID, err := parseFlightID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	seatIDs := parseIDList(c.QueryParam("seat_ids"))
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	res, err := h.Holds.ValidateHold(c.Request().Context(), flightID, seatIDs, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats not found for this flight"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	if !res.OK {
		return c.JSON(http.StatusConflict, echo.Map{"error": res.Reason})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

type checkoutRequest struct {
	SeatIDs         []uint64                 `json:"seat_ids" validate:"required,min=1,dive,gt=0"`
	TotalPriceCents uint64                   `json:"total_price_cents" validate:"required,gt=0"`
	Passengers      []booking.PassengerInput `json:"passengers" validate:"required,min=1,dive"`
	Addons          []booking.AddonSelection `json:"addons" validate:"omitempty,dive"`
	ContactName     string                   `json:"contact_name" validate:"required"`
	ContactEmail    string                   `json:"contact_email" validate:"required,email"`
}

// CheckoutSeats handles POST /v1/flights/:id/checkout.  It finalises
// the customer's hold into tickets: the hold is validated, then the
// commit transaction re-verifies the seats under locks and writes the
// tickets, passengers, addons and seat flags atomically.  A lost
// reservation sends the customer back to seat selection; it is never
// silently retried.
func (h *BookingHandler) CheckoutSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	flightID, err := parseFlightID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var body checkoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seatIDs := dedupeIDs(body.SeatIDs)
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid seat IDs provided"})
	}
	if msg := checkPassengerCoverage(seatIDs, body.Passengers); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	val, err := h.Holds.ValidateHold(ctx, flightID, seatIDs, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats not found for this flight"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	if !val.OK {
		return c.JSON(http.StatusConflict, echo.Map{"error": val.Reason, "action": "reselect_seats"})
	}

	res, err := h.Checkout.CommitBooking(ctx, booking.CommitInput{
		FlightID:        flightID,
		SeatIDs:         seatIDs,
		UserID:          userID,
		TotalPriceCents: body.TotalPriceCents,
		Passengers:      body.Passengers,
		Addons:          body.Addons,
		ContactName:     body.ContactName,
		ContactEmail:    body.ContactEmail,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	if !res.OK {
		return commitRejection(c, res.Reason)
	}
	return c.JSON(http.StatusCreated, res)
}

type roundTripLegRequest struct {
	FlightID  uint64                 `json:"flight_id" validate:"required,gt=0"`
	SeatID    uint64                 `json:"seat_id" validate:"required,gt=0"`
	Passenger booking.PassengerInput `json:"passenger" validate:"required"`
}

type roundTripRequest struct {
	Outbound        roundTripLegRequest `json:"outbound" validate:"required"`
	Return          roundTripLegRequest `json:"return" validate:"required"`
	TotalPriceCents uint64              `json:"total_price_cents" validate:"required,gt=0"`
	ContactName     string              `json:"contact_name" validate:"required"`
	ContactEmail    string              `json:"contact_email" validate:"required,email"`
}

// CheckoutRoundTrip handles POST /v1/checkout/round-trip.  Both legs
// commit in one transaction under a single booking code; if the
// return seat has been lost, the outbound seat is left unbooked and
// unheld as well.
func (h *BookingHandler) CheckoutRoundTrip(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body roundTripRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if body.Outbound.FlightID == body.Return.FlightID && body.Outbound.SeatID == body.Return.SeatID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "outbound and return legs must reference different seats"})
	}

	ctx := c.Request().Context()
	for _, leg := range []roundTripLegRequest{body.Outbound, body.Return} {
		val, err := h.Holds.ValidateHold(ctx, leg.FlightID, []uint64{leg.SeatID}, userID)
		if err != nil {
			if errors.Is(err, repository.ErrSeatNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats not found for this flight"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
		}
		if !val.OK {
			return c.JSON(http.StatusConflict, echo.Map{"error": val.Reason, "action": "reselect_seats"})
		}
	}

	out := body.Outbound
	ret := body.Return
	out.Passenger.SeatID = out.SeatID
	ret.Passenger.SeatID = ret.SeatID
	res, err := h.Checkout.CommitRoundTrip(ctx, booking.RoundTripInput{
		UserID:          userID,
		Outbound:        booking.RoundTripLeg{FlightID: out.FlightID, SeatID: out.SeatID, Passenger: out.Passenger},
		Return:          booking.RoundTripLeg{FlightID: ret.FlightID, SeatID: ret.SeatID, Passenger: ret.Passenger},
		TotalPriceCents: body.TotalPriceCents,
		DiscountPercent: uint8(h.DiscountPct),
		ContactName:     body.ContactName,
		ContactEmail:    body.ContactEmail,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process transaction"})
	}
	if !res.OK {
		return commitRejection(c, res.Reason)
	}
	return c.JSON(http.StatusCreated, res)
}

// ListTickets handles GET /v1/my-tickets.  It returns all tickets
// purchased by the current user, newest first.
func (h *BookingHandler) ListTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Tickets.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// checkPassengerCoverage verifies every seat has a matching passenger
// entry.  Returns a message describing the first gap, or "".
func checkPassengerCoverage(seatIDs []uint64, passengers []booking.PassengerInput) string {
	bySeat := make(map[uint64]bool, len(passengers))
	for _, p := range passengers {
		bySeat[p.SeatID] = true
	}
	for _, id := range seatIDs {
		if !bySeat[id] {
			return "missing passenger details for seat " + strconv.FormatUint(id, 10)
		}
	}
	return ""
}

// commitRejection maps a commit rejection reason to a response.
func commitRejection(c echo.Context, reason string) error {
	switch reason {
	case booking.ReasonFlightNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": reason})
	case booking.ReasonFlightDeparted, booking.ReasonFlightCancelled:
		return c.JSON(http.StatusConflict, echo.Map{"error": reason})
	default:
		// Seats lost between hold and commit; caller restarts selection.
		return c.JSON(http.StatusConflict, echo.Map{"error": reason, "action": "reselect_seats"})
	}
}
