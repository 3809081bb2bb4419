package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
)

// FlightHandler exposes unauthenticated browse endpoints: flight
// details and the seat map customers pick from.  Seat status is
// derived at read time, so a lapsed hold shows as FREE here even
// before its columns are physically cleared.
type FlightHandler struct {
	Flights *repository.FlightRepo
	Seats   *repository.SeatRepo
}

// NewFlightHandler constructs a FlightHandler.
func NewFlightHandler(flights *repository.FlightRepo, seats *repository.SeatRepo) *FlightHandler {
	if flights == nil || seats == nil {
		panic("nil repository passed to NewFlightHandler")
	}
	return &FlightHandler{Flights: flights, Seats: seats}
}

// GetFlight handles GET /v1/flights/:id.
func (h *FlightHandler) GetFlight(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	f, err := h.Flights.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":               f.ID,
		"flight_number":    f.FlightNumber,
		"origin":           f.Origin,
		"destination":      f.Destination,
		"departs_at":       f.DepartsAt.UTC().Format(time.RFC3339),
		"arrives_at":       f.ArrivesAt.UTC().Format(time.RFC3339),
		"base_price_cents": f.BasePriceCents,
		"status":           f.Status,
	})
}

// GetFlightSeats handles GET /v1/flights/:id/seats.  It returns the
// flight's seats with their derived availability, optionally filtered
// by cabin class via ?class=ECONOMY.
func (h *FlightHandler) GetFlightSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Flights.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var seats []model.Seat
	if class := c.QueryParam("class"); class != "" {
		seats, err = h.Seats.FindByFlightAndClass(ctx, id, class)
	} else {
		seats, err = h.Seats.FindByFlight(ctx, id)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	now := time.Now().UTC()
	items := make([]seatView, 0, len(seats))
	for i := range seats {
		s := &seats[i]
		items = append(items, seatView{
			ID:     s.ID,
			Label:  s.Label,
			Class:  s.Class,
			Status: s.Status(now),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// seatView is the public shape of a seat on the seat map.  Hold
// ownership is deliberately not exposed.
type seatView struct {
	ID     uint64 `json:"id"`
	Label  string `json:"label"`
	Class  string `json:"class"`
	Status string `json:"status"`
}
