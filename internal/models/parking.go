package models

import (
	"time"

	"github.com/google/uuid"
)

// ParkingSpot is a unit of parking inventory
type ParkingSpot struct {
	ID           int64     `json:"id" db:"id"`
	HotelID      int64     `json:"hotel_id" db:"hotel_id"`
	Name         string    `json:"name" db:"name"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ReservationParking is an exclusive claim on a spot for [date_from, date_to).
// Cancel/recover of the parent reservation cascades to these rows.
type ReservationParking struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ReservationID uuid.UUID  `json:"reservation_id" db:"reservation_id"`
	ParkingSpotID int64      `json:"parking_spot_id" db:"parking_spot_id"`
	DateFrom      time.Time  `json:"date_from" db:"date_from"`
	DateTo        time.Time  `json:"date_to" db:"date_to"`
	PricePerNight int64      `json:"price_per_night" db:"price_per_night"`
	Cancelled     *time.Time `json:"cancelled,omitempty" db:"cancelled"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
