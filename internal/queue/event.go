package queue

// BookingConfirmedEvent is published after a booking transaction has
// committed.  It carries enough information for the notification
// consumer to compose a confirmation email without querying the
// primary database.  Delivery is best-effort: the booking stands
// whether or not this event ever reaches a consumer.
type BookingConfirmedEvent struct {
	BookingCode   string   `json:"booking_code"`
	UserID        uint64   `json:"user_id"`
	ContactName   string   `json:"contact_name"`
	ContactEmail  string   `json:"contact_email"`
	FlightNumbers []string `json:"flight_numbers"`
	Route         string   `json:"route"`
	DepartsAt     string   `json:"departs_at"`
	SeatLabels    []string `json:"seats"`
	TotalCents    uint64   `json:"total_cents"`
	RoundTrip     bool     `json:"round_trip"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
