package models

import (
	"errors"
	"time"
)

// Room is a unit of physical room inventory. Occupancy has no separate
// ledger: it is derived by scanning non-cancelled details overlapping a
// date range, so double-booking prevention happens at claim time.
type Room struct {
	ID           int64     `json:"id" db:"id"`
	HotelID      int64     `json:"hotel_id" db:"hotel_id"`
	Name         string    `json:"name" db:"name"`
	Capacity     int       `json:"capacity" db:"capacity"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Hotel is a property operated by the group
type Hotel struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ErrNoResourceAvailable is returned when no unlocked, unoccupied room or
// parking spot matches the requested dates and capacity. The enclosing
// transaction must be rolled back; the caller may retry the whole operation.
var ErrNoResourceAvailable = errors.New("no resource available for the requested dates")

// ErrRoomNotInHotel is returned when an explicitly requested room belongs
// to a different hotel than the reservation.
var ErrRoomNotInHotel = errors.New("room does not belong to the requested hotel")
