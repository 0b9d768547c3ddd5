package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func roomRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "hotel_id", "name", "capacity", "display_order", "created_at", "updated_at",
	})
}

func TestRoomRepository_FindAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery("SELECT r.id, r.hotel_id, r.name, r.capacity, r.display_order").
		WithArgs(int64(1), checkIn, checkOut, 2).
		WillReturnRows(roomRows().
			AddRow(101, 1, "201", 2, 1, now, now).
			AddRow(102, 1, "202", 4, 2, now, now))

	rooms, err := repo.FindAvailable(1, checkIn, checkOut, 2)
	require.NoError(t, err)

	require.Len(t, rooms, 2)
	assert.Equal(t, int64(101), rooms[0].ID)
	assert.Equal(t, int64(102), rooms[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_LockAndClaim(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 26, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF r SKIP LOCKED").
		WithArgs(int64(1), checkIn, checkOut, 2).
		WillReturnRows(roomRows().AddRow(101, 1, "201", 2, 1, now, now))

	tx, err := db.Beginx()
	require.NoError(t, err)

	room, err := repo.LockAndClaim(tx, 1, checkIn, checkOut, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(101), room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_LockAndClaim_NoCandidate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 26, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF r SKIP LOCKED").
		WithArgs(int64(1), checkIn, checkOut, 2).
		WillReturnRows(roomRows())

	tx, err := db.Beginx()
	require.NoError(t, err)

	_, err = repo.LockAndClaim(tx, 1, checkIn, checkOut, 2)
	assert.ErrorIs(t, err, models.ErrNoResourceAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_IsFree(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), checkIn, checkOut).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	tx, err := db.Beginx()
	require.NoError(t, err)

	free, err := repo.IsFree(tx, 101, checkIn, checkOut, nil)
	require.NoError(t, err)
	assert.True(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_IsFree_ExcludesOwnReservation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC)
	resID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), checkIn, checkOut, resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	tx, err := db.Beginx()
	require.NoError(t, err)

	free, err := repo.IsFree(tx, 101, checkIn, checkOut, &resID)
	require.NoError(t, err)
	assert.True(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}
