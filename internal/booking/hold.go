package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/model"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
)

// DefaultHoldWindow is how long a customer keeps exclusive access to
// a seat set before the hold lapses.
const DefaultHoldWindow = 10 * time.Minute

// HoldManager enforces the seat-exclusivity contract: at most one
// customer holds a given seat at a time, for a bounded window.  Two
// customers racing for the same seat are serialised by the FOR
// UPDATE locks taken inside the acquire transaction, so exactly one
// of them observes the seat as free.
type HoldManager struct {
	tx     TxRunner
	seats  SeatStore
	clock  Clock
	window time.Duration
}

// NewHoldManager constructs a HoldManager.  A non-positive window
// falls back to DefaultHoldWindow.
func NewHoldManager(tx TxRunner, seats SeatStore, clock Clock, window time.Duration) *HoldManager {
	if window <= 0 {
		window = DefaultHoldWindow
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &HoldManager{tx: tx, seats: seats, clock: clock, window: window}
}

// AcquireHold places a hold on all requested seats for userID, or on
// none of them.  Seats are checked in the order supplied so the
// first blocking seat determines the rejection reason.  A seat whose
// hold has expired, or whose hold already belongs to the requesting
// user, is eligible; re-acquiring refreshes the expiry to a full
// window from now.
func (m *HoldManager) AcquireHold(ctx context.Context, flightID uint64, seatIDs []uint64, userID uint64) (HoldResult, error) {
	if len(seatIDs) == 0 {
		return HoldResult{}, fmt.Errorf("acquire hold: %w", repository.ErrSeatNotFound)
	}
	var result HoldResult
	err := m.tx.WithTx(ctx, func(tx *sql.Tx) error {
		seats, err := m.seats.FindForUpdateTx(ctx, tx, flightID, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return repository.ErrSeatNotFound
		}
		byID := make(map[uint64]*model.Seat, len(seats))
		for i := range seats {
			byID[seats[i].ID] = &seats[i]
		}
		now := m.clock.Now()
		for _, id := range seatIDs {
			s, ok := byID[id]
			if !ok {
				return repository.ErrSeatNotFound
			}
			if s.IsBooked {
				result = HoldResult{Reason: fmt.Sprintf("Seat %s is already booked", s.Label)}
				return nil
			}
			if s.HeldByOther(userID, now) {
				result = HoldResult{Reason: fmt.Sprintf("Seat %s is currently being reserved by another customer", s.Label)}
				return nil
			}
		}
		expiresAt := now.Add(m.window).Truncate(time.Second)
		if err := m.seats.UpdateHoldTx(ctx, tx, seatIDs, userID, expiresAt); err != nil {
			return err
		}
		result = HoldResult{OK: true, SeatIDs: seatIDs, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return HoldResult{}, err
	}
	return result, nil
}

// ReleaseHold gives up the caller's holds on the given seats.  Only
// seats currently held by userID are cleared; seats held by other
// customers or already booked are left untouched.  It is idempotent
// and never treats an absent hold as a failure: the caller is merely
// expressing intent to give up a hold it may no longer own.
func (m *HoldManager) ReleaseHold(ctx context.Context, seatIDs []uint64, userID uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	return m.tx.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := m.seats.ClearHoldTx(ctx, tx, seatIDs, userID)
		return err
	})
}

// ValidateHold checks, immediately before payment confirmation, that
// every seat in the set is still held by userID and that none of the
// holds has lapsed.  It is a plain read: the authoritative re-check
// happens again under locks inside the commit transaction, so a
// stale positive here can still be caught there.
func (m *HoldManager) ValidateHold(ctx context.Context, flightID uint64, seatIDs []uint64, userID uint64) (ValidationResult, error) {
	if len(seatIDs) == 0 {
		return ValidationResult{}, fmt.Errorf("validate hold: %w", repository.ErrSeatNotFound)
	}
	seats, err := m.seats.FindByIDs(ctx, flightID, seatIDs)
	if err != nil {
		return ValidationResult{}, err
	}
	if len(seats) != len(seatIDs) {
		return ValidationResult{}, repository.ErrSeatNotFound
	}
	byID := make(map[uint64]*model.Seat, len(seats))
	for i := range seats {
		byID[seats[i].ID] = &seats[i]
	}
	now := m.clock.Now()
	for _, id := range seatIDs {
		s := byID[id]
		if s == nil {
			return ValidationResult{}, repository.ErrSeatNotFound
		}
		if s.HoldUserID == nil || *s.HoldUserID != userID {
			return ValidationResult{Reason: fmt.Sprintf("Seat %s is no longer reserved for you", s.Label)}, nil
		}
		if s.HoldExpiresAt == nil || !s.HoldExpiresAt.After(now) {
			return ValidationResult{Reason: fmt.Sprintf("Seat %s reservation has expired", s.Label)}, nil
		}
	}
	return ValidationResult{OK: true}, nil
}
