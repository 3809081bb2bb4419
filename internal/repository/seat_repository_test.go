package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seatCols = []string{"id", "flight_id", "label", "class", "is_booked", "hold_expires_at", "hold_user_id", "created_at", "updated_at"}

func newSeatMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatRepo(db), mock, db
}

func TestFindByIDsParsesHoldColumns(t *testing.T) {
	repo, mock, _ := newSeatMock(t)
	expires := time.Date(2026, 3, 14, 9, 10, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, flight_id, label, class, is_booked, hold_expires_at, hold_user_id, created_at, updated_at FROM seats WHERE flight_id = ? AND id IN (?, ?)`,
	)).
		WithArgs(1, 101, 102).
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(101, 1, "12A", "ECONOMY", false, expires, 7, "2026-03-01 00:00:00", "2026-03-14 09:00:00").
			AddRow(102, 1, "12B", "ECONOMY", true, nil, nil, "2026-03-01 00:00:00", "2026-03-14 09:00:00"))

	seats, err := repo.FindByIDs(context.Background(), 1, []uint64{101, 102})
	require.NoError(t, err)
	require.Len(t, seats, 2)

	require.NotNil(t, seats[0].HoldExpiresAt)
	assert.Equal(t, expires, *seats[0].HoldExpiresAt)
	require.NotNil(t, seats[0].HoldUserID)
	assert.Equal(t, uint64(7), *seats[0].HoldUserID)

	assert.True(t, seats[1].IsBooked)
	assert.Nil(t, seats[1].HoldExpiresAt)
	assert.Nil(t, seats[1].HoldUserID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForUpdateTxLocksRows(t *testing.T) {
	repo, mock, db := newSeatMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, flight_id, label, class, is_booked, hold_expires_at, hold_user_id, created_at, updated_at FROM seats WHERE flight_id = ? AND id IN (?) FOR UPDATE`,
	)).
		WithArgs(1, 101).
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(101, 1, "12A", "ECONOMY", false, nil, nil, "2026-03-01 00:00:00", "2026-03-01 00:00:00"))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	seats, err := repo.FindForUpdateTx(context.Background(), tx, 1, []uint64{101})
	require.NoError(t, err)
	require.Len(t, seats, 1)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHoldTxFormatsExpiry(t *testing.T) {
	repo, mock, db := newSeatMock(t)
	expires := time.Date(2026, 3, 14, 9, 10, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET hold_expires_at = \?, hold_user_id = \?, updated_at = CURRENT_TIMESTAMP\s+WHERE id IN \(\?, \?\)`).
		WithArgs("2026-03-14 09:10:00", 7, 101, 102).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateHoldTx(context.Background(), tx, []uint64{101, 102}, 7, expires))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearHoldTxGuardsHolder(t *testing.T) {
	repo, mock, db := newSeatMock(t)

	// With a holder requirement the statement must filter on
	// hold_user_id so another customer's hold cannot be stripped,
	// and booked seats are always excluded.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET hold_expires_at = NULL, hold_user_id = NULL, updated_at = CURRENT_TIMESTAMP\s+WHERE id IN \(\?\) AND is_booked = 0 AND hold_user_id = \?`).
		WithArgs(101, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := repo.ClearHoldTx(context.Background(), tx, []uint64{101}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearHoldTxUnconditional(t *testing.T) {
	repo, mock, db := newSeatMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET hold_expires_at = NULL, hold_user_id = NULL, updated_at = CURRENT_TIMESTAMP\s+WHERE id IN \(\?, \?\) AND is_booked = 0`).
		WithArgs(101, 102).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := repo.ClearHoldTx(context.Background(), tx, []uint64{101, 102}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBookedTxClearsHoldFields(t *testing.T) {
	repo, mock, db := newSeatMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET is_booked = 1, hold_expires_at = NULL, hold_user_id = NULL, updated_at = CURRENT_TIMESTAMP\s+WHERE id IN \(\?, \?\)`).
		WithArgs(101, 102).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.MarkBookedTx(context.Background(), tx, []uint64{101, 102}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForUpdateTxEmptyInput(t *testing.T) {
	repo, _, _ := newSeatMock(t)

	_, err := repo.FindForUpdateTx(context.Background(), nil, 1, nil)
	require.ErrorIs(t, err, ErrSeatNotFound)
}
