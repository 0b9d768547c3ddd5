package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// RoomRepository handles room inventory and room allocation. There is no
// availability ledger: occupancy is derived at query time by an anti-join
// against non-cancelled reservation details.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetByID retrieves a room by id
func (r *RoomRepository) GetByID(id int64) (*models.Room, error) {
	query := `
		SELECT id, hotel_id, name, capacity, display_order, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.db.Get(&room, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

// ListByHotel retrieves all rooms of a hotel in assignment order
func (r *RoomRepository) ListByHotel(hotelID int64) ([]models.Room, error) {
	query := `
		SELECT id, hotel_id, name, capacity, display_order, created_at, updated_at
		FROM rooms
		WHERE hotel_id = $1
		ORDER BY display_order, capacity, id
	`

	rooms := []models.Room{}
	if err := r.db.Select(&rooms, query, hotelID); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return rooms, nil
}

// FindAvailable returns the rooms that can host the requested headcount
// with no non-cancelled detail on any night in [checkIn, checkOut), ordered
// by assignment priority then capacity so allocation is reproducible.
func (r *RoomRepository) FindAvailable(hotelID int64, checkIn, checkOut time.Time, people int) ([]models.Room, error) {
	query := `
		SELECT r.id, r.hotel_id, r.name, r.capacity, r.display_order, r.created_at, r.updated_at
		FROM rooms r
		WHERE r.hotel_id = $1
		  AND r.capacity >= $4
		  AND NOT EXISTS (
			SELECT 1 FROM reservation_details d
			WHERE d.room_id = r.id
			  AND d.cancelled IS NULL
			  AND d.stay_date >= $2
			  AND d.stay_date < $3
		  )
		ORDER BY r.display_order, r.capacity, r.id
	`

	rooms := []models.Room{}
	if err := r.db.Select(&rooms, query, hotelID, checkIn, checkOut, people); err != nil {
		return nil, fmt.Errorf("failed to find available rooms: %w", err)
	}

	return rooms, nil
}

// LockAndClaim selects the first available room inside the caller's
// transaction with a row-level exclusive lock, skipping rooms already
// locked by a concurrent transaction. Concurrent bookings serialize on
// whichever room they contend for instead of blocking; when every
// candidate is locked or occupied the claim fails cleanly with
// ErrNoResourceAvailable and the caller must roll back.
func (r *RoomRepository) LockAndClaim(tx *sqlx.Tx, hotelID int64, checkIn, checkOut time.Time, people int) (*models.Room, error) {
	query := `
		SELECT r.id, r.hotel_id, r.name, r.capacity, r.display_order, r.created_at, r.updated_at
		FROM rooms r
		WHERE r.hotel_id = $1
		  AND r.capacity >= $4
		  AND NOT EXISTS (
			SELECT 1 FROM reservation_details d
			WHERE d.room_id = r.id
			  AND d.cancelled IS NULL
			  AND d.stay_date >= $2
			  AND d.stay_date < $3
		  )
		ORDER BY r.display_order, r.capacity, r.id
		FOR UPDATE OF r SKIP LOCKED
		LIMIT 1
	`

	var room models.Room
	err := tx.Get(&room, query, hotelID, checkIn, checkOut, people)
	if err == sql.ErrNoRows {
		return nil, models.ErrNoResourceAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim room: %w", err)
	}

	return &room, nil
}

// IsFree reports, inside the caller's transaction, whether a specific room
// has no non-cancelled detail on any night in [checkIn, checkOut). Details
// belonging to excludeReservation are ignored so a reservation can move
// within its own dates.
func (r *RoomRepository) IsFree(tx *sqlx.Tx, roomID int64, checkIn, checkOut time.Time, excludeReservation *uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM reservation_details d
		WHERE d.room_id = $1
		  AND d.cancelled IS NULL
		  AND d.stay_date >= $2
		  AND d.stay_date < $3
	`

	args := []interface{}{roomID, checkIn, checkOut}
	if excludeReservation != nil {
		query += ` AND d.reservation_id != $4`
		args = append(args, *excludeReservation)
	}

	var count int
	if err := tx.Get(&count, query, args...); err != nil {
		return false, fmt.Errorf("failed to check room occupancy: %w", err)
	}

	return count == 0, nil
}

// LockRoom takes the row lock for a specific room, skipping it if a
// concurrent transaction already holds it
func (r *RoomRepository) LockRoom(tx *sqlx.Tx, roomID int64) error {
	var id int64
	err := tx.Get(&id, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE SKIP LOCKED`, roomID)
	if err == sql.ErrNoRows {
		return models.ErrNoResourceAvailable
	}
	if err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}
	return nil
}
