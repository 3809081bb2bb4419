package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
)

func newCheckoutFixture(t *testing.T) (*memStore, *manualClock, *recordingNotifier, *CheckoutEngine) {
	t.Helper()
	store := newMemStore()
	seedFlight(store, 1, "12A", "12B", "12C")
	clock := newManualClock(testBase)
	notifier := &recordingNotifier{}
	return store, clock, notifier, NewCheckoutEngine(store, store, store, store, notifier, clock)
}

func passengers(seatIDs ...uint64) []PassengerInput {
	out := make([]PassengerInput, 0, len(seatIDs))
	for i, id := range seatIDs {
		out = append(out, PassengerInput{
			SeatID:    id,
			FullName:  []string{"Ayu Lestari", "Budi Santoso", "Citra Dewi"}[i%3],
			IDNumber:  "3174012345678901",
			BirthDate: "1993-06-21",
		})
	}
	return out
}

func TestCommitBookingCreatesTicketsAndBooksSeats(t *testing.T) {
	store, _, notifier, engine := newCheckoutFixture(t)

	res, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101, 102, 103},
		UserID:          7,
		TotalPriceCents: 299999,
		Passengers:      passengers(101, 102, 103),
		ContactName:     "Ayu Lestari",
		ContactEmail:    "ayu@example.com",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, res.Tickets, 3)

	// floor(299999 / 3): the 2-cent remainder is absorbed, never
	// distributed.
	for _, tk := range res.Tickets {
		assert.Equal(t, uint64(99999), tk.PriceCents)
	}

	for _, id := range []uint64{101, 102, 103} {
		s := store.seat(id)
		assert.True(t, s.IsBooked)
		assert.Nil(t, s.HoldUserID, "booked seat must not carry hold fields")
		assert.Nil(t, s.HoldExpiresAt)
	}
	require.Len(t, store.tickets, 3)
	require.Len(t, store.passengers, 3)

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	assert.Equal(t, res.Tickets[0].Code, ev.BookingCode)
	assert.Equal(t, []string{"12A", "12B", "12C"}, ev.SeatLabels)
	assert.Equal(t, uint64(299999), ev.TotalCents)
	assert.False(t, ev.RoundTrip)
}

func TestCommitBookingStoresAddons(t *testing.T) {
	store, _, _, engine := newCheckoutFixture(t)

	res, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101},
		UserID:          7,
		TotalPriceCents: 150000,
		Passengers:      passengers(101),
		Addons: []AddonSelection{
			{SeatID: 101, AddonID: 3, PriceCents: 25000},
			{SeatID: 999, AddonID: 4, PriceCents: 9000}, // not in this booking
		},
		ContactName:  "Ayu Lestari",
		ContactEmail: "ayu@example.com",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, store.addons, 1)
	assert.Equal(t, uint64(3), store.addons[0].AddonID)
	assert.Equal(t, res.Tickets[0].TicketID, store.addons[0].TicketID)
}

func TestCommitBookingRejectsBookedSeat(t *testing.T) {
	store, _, notifier, engine := newCheckoutFixture(t)
	s := store.seats[102]
	s.IsBooked = true
	store.seats[102] = s

	res, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101, 102},
		UserID:          7,
		TotalPriceCents: 300000,
		Passengers:      passengers(101, 102),
	})
	require.NoError(t, err)
	require.False(t, res.OK)
	assert.Equal(t, ReasonSeatsBooked, res.Reason)
	assert.False(t, store.seat(101).IsBooked, "no partial booking")
	assert.Empty(t, store.tickets)
	assert.Empty(t, notifier.events)
}

func TestCommitBookingFlightChecks(t *testing.T) {
	store, clock, _, engine := newCheckoutFixture(t)
	in := CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101},
		UserID:          7,
		TotalPriceCents: 150000,
		Passengers:      passengers(101),
	}

	in.FlightID = 42
	res, err := engine.CommitBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, ReasonFlightNotFound, res.Reason)
	in.FlightID = 1

	f := store.flights[1]
	f.Status = model.FlightStatusCancelled
	store.flights[1] = f
	res, err = engine.CommitBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, ReasonFlightCancelled, res.Reason)

	f.Status = model.FlightStatusScheduled
	store.flights[1] = f
	clock.Advance(48 * time.Hour) // past departure
	res, err = engine.CommitBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, ReasonFlightDeparted, res.Reason)
	assert.False(t, store.seat(101).IsBooked)
}

func TestCommitBookingRollsBackOnFailure(t *testing.T) {
	store, _, notifier, engine := newCheckoutFixture(t)
	store.failTicketAt = 2 // second ticket insert fails mid-transaction

	_, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101, 102},
		UserID:          7,
		TotalPriceCents: 300000,
		Passengers:      passengers(101, 102),
	})
	require.Error(t, err)
	assert.Empty(t, store.tickets, "first ticket must not survive the rollback")
	assert.Empty(t, store.passengers)
	assert.False(t, store.seat(101).IsBooked)
	assert.False(t, store.seat(102).IsBooked)
	assert.Empty(t, notifier.events)
}

func TestCommitBookingMissingPassenger(t *testing.T) {
	_, _, _, engine := newCheckoutFixture(t)

	_, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101, 102},
		UserID:          7,
		TotalPriceCents: 300000,
		Passengers:      passengers(101),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing passenger for seat 102")
}

func TestNotifierFailureDoesNotAffectCommit(t *testing.T) {
	store, _, notifier, engine := newCheckoutFixture(t)
	notifier.err = errors.New("broker unavailable")

	res, err := engine.CommitBooking(context.Background(), CommitInput{
		FlightID:        1,
		SeatIDs:         []uint64{101},
		UserID:          7,
		TotalPriceCents: 150000,
		Passengers:      passengers(101),
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.True(t, store.seat(101).IsBooked)
	require.Len(t, store.tickets, 1)
}

func roundTripFixture(t *testing.T) (*memStore, *CheckoutEngine, *recordingNotifier) {
	t.Helper()
	store := newMemStore()
	seedFlight(store, 1, "12A", "12B")
	seedFlight(store, 2, "07C", "07D")
	clock := newManualClock(testBase)
	notifier := &recordingNotifier{}
	return store, NewCheckoutEngine(store, store, store, store, notifier, clock), notifier
}

func roundTripInput() RoundTripInput {
	return RoundTripInput{
		UserID: 7,
		Outbound: RoundTripLeg{
			FlightID:  1,
			SeatID:    101,
			Passenger: PassengerInput{SeatID: 101, FullName: "Ayu Lestari", IDNumber: "3174012345678901", BirthDate: "1993-06-21"},
		},
		Return: RoundTripLeg{
			FlightID:  2,
			SeatID:    201,
			Passenger: PassengerInput{SeatID: 201, FullName: "Ayu Lestari", IDNumber: "3174012345678901", BirthDate: "1993-06-21"},
		},
		TotalPriceCents: 400000,
		DiscountPercent: 10,
		ContactName:     "Ayu Lestari",
		ContactEmail:    "ayu@example.com",
	}
}

func TestCommitRoundTrip(t *testing.T) {
	store, engine, notifier := roundTripFixture(t)

	res, err := engine.CommitRoundTrip(context.Background(), roundTripInput())
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, res.Tickets, 2)

	// 10% off 400000 = 360000, split evenly across the legs.
	assert.Equal(t, uint64(360000), res.TotalPriceCents)
	assert.Equal(t, uint64(180000), res.Tickets[0].PriceCents)
	assert.Equal(t, uint64(180000), res.Tickets[1].PriceCents)
	assert.Equal(t, res.Tickets[0].Code, res.Tickets[1].Code, "both legs share one booking code")

	assert.True(t, store.seat(101).IsBooked)
	assert.True(t, store.seat(201).IsBooked)
	require.Len(t, store.roundTrips, 1)
	rt := store.roundTrips[0]
	assert.Equal(t, res.Tickets[0].TicketID, rt.OutboundTicketID)
	assert.Equal(t, res.Tickets[1].TicketID, rt.ReturnTicketID)
	assert.Equal(t, uint64(360000), rt.TotalPriceCents)

	require.Len(t, notifier.events, 1)
	assert.True(t, notifier.events[0].RoundTrip)
	assert.Equal(t, []string{"12A", "07C"}, notifier.events[0].SeatLabels)
}

func TestCommitRoundTripRejectsIdenticalLegs(t *testing.T) {
	store, engine, notifier := roundTripFixture(t)
	in := roundTripInput()
	in.Return = in.Outbound

	_, err := engine.CommitRoundTrip(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same seat")

	assert.False(t, store.seat(101).IsBooked)
	assert.Empty(t, store.tickets, "one seat must never yield two tickets")
	assert.Empty(t, store.roundTrips)
	assert.Empty(t, notifier.events)
}

func TestCommitRoundTripClampsDiscount(t *testing.T) {
	store, engine, _ := roundTripFixture(t)
	in := roundTripInput()
	in.DiscountPercent = 130 // misconfigured: must behave as a full discount, not wrap

	res, err := engine.CommitRoundTrip(context.Background(), in)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, uint64(0), res.TotalPriceCents)
	assert.Equal(t, uint64(0), res.Tickets[0].PriceCents)
	require.Len(t, store.roundTrips, 1)
	assert.Equal(t, uint64(0), store.roundTrips[0].TotalPriceCents)
}

func TestCommitRoundTripAtomic(t *testing.T) {
	store, engine, notifier := roundTripFixture(t)
	s := store.seats[201]
	s.IsBooked = true // return seat already gone
	store.seats[201] = s

	res, err := engine.CommitRoundTrip(context.Background(), roundTripInput())
	require.NoError(t, err)
	require.False(t, res.OK)
	assert.Equal(t, ReasonSeatsBooked, res.Reason)

	assert.False(t, store.seat(101).IsBooked, "outbound leg must not book alone")
	assert.Empty(t, store.tickets)
	assert.Empty(t, store.roundTrips)
	assert.Empty(t, notifier.events)
}
