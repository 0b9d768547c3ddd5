package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusHold      ReservationStatus = "hold"
	ReservationStatusProvisory ReservationStatus = "provisory"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCheckedIn ReservationStatus = "checked_in"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusBlock     ReservationStatus = "block"
)

// ReservationType represents the booking channel
type ReservationType string

const (
	ReservationTypeDirect   ReservationType = "direct"
	ReservationTypeOTA      ReservationType = "ota"
	ReservationTypeWeb      ReservationType = "web"
	ReservationTypeEmployee ReservationType = "employee"
)

// Reservation is the parent booking record. Check-in and check-out are
// derived from the min/max active detail date and are recomputed after
// every detail mutation, never edited independently.
type Reservation struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	HotelID        int64             `json:"hotel_id" db:"hotel_id"`
	ClientID       int64             `json:"client_id" db:"client_id"`
	CheckIn        time.Time         `json:"check_in" db:"check_in"`
	CheckOut       time.Time         `json:"check_out" db:"check_out"`
	NumberOfPeople int               `json:"number_of_people" db:"number_of_people"`
	Status         ReservationStatus `json:"status" db:"status"`
	Type           ReservationType   `json:"type" db:"type"`
	PaymentTiming  *string           `json:"payment_timing,omitempty" db:"payment_timing"`
	Comment        *string           `json:"comment,omitempty" db:"comment"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the reservation can no longer change state
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusCancelled
}

var (
	// ErrInvalidDates is returned when check-out does not follow check-in
	ErrInvalidDates = errors.New("check_out must be after check_in")
	// ErrNonPositiveHeadcount is returned when a mutation would leave zero or fewer guests
	ErrNonPositiveHeadcount = errors.New("number_of_people must be positive")
	// ErrReservationCancelled is returned for mutations against a cancelled reservation
	ErrReservationCancelled = errors.New("reservation is cancelled")
	// ErrReservationNotFound is returned when the reservation does not exist
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrTooManyNights is returned when a mutation covers more nights than allowed per call
	ErrTooManyNights = errors.New("date range exceeds the allowed nights per operation")
)

// CreateReservationRequest creates a new hold for one room over a date range
type CreateReservationRequest struct {
	HotelID        int64           `json:"hotel_id" binding:"required"`
	ClientID       int64           `json:"client_id" binding:"required"`
	RoomID         *int64          `json:"room_id,omitempty"`
	CheckIn        string          `json:"check_in" binding:"required"`
	CheckOut       string          `json:"check_out" binding:"required"`
	PlanID         *int64          `json:"plan_id,omitempty"`
	HotelPlanID    *int64          `json:"hotel_plan_id,omitempty"`
	PlanType       PlanType        `json:"plan_type"`
	NumberOfPeople int             `json:"number_of_people" binding:"required,min=1"`
	Type           ReservationType `json:"type"`
	PaymentTiming  *string         `json:"payment_timing,omitempty"`
	Comment        *string         `json:"comment,omitempty"`
}

// ChangeStatusRequest transitions a reservation (and its details) between states
type ChangeStatusRequest struct {
	Status  ReservationStatus `json:"status" binding:"required"`
	WithFee bool              `json:"with_fee"`
}

// MoveStayRequest moves and/or resizes one room's nights within a reservation
type MoveStayRequest struct {
	RoomID      int64  `json:"room_id" binding:"required"`
	NewRoomID   *int64 `json:"new_room_id,omitempty"`
	NewCheckIn  string `json:"new_check_in" binding:"required"`
	NewCheckOut string `json:"new_check_out" binding:"required"`
	ActorID     *int64 `json:"actor_id,omitempty"`
}

// ChangeGuestCountRequest adjusts the headcount by a signed delta
type ChangeGuestCountRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AssignParkingRequest claims a parking spot for a date range
type AssignParkingRequest struct {
	DateFrom      string `json:"date_from" binding:"required"`
	DateTo        string `json:"date_to" binding:"required"`
	PricePerNight int64  `json:"price_per_night"`
}

// ChangePlanRequest switches every active detail of a reservation to a
// different plan
type ChangePlanRequest struct {
	PlanID      *int64   `json:"plan_id,omitempty"`
	HotelPlanID *int64   `json:"hotel_plan_id,omitempty"`
	PlanType    PlanType `json:"plan_type"`
}

// MutationResponse reports the outcome of a reservation mutation. The
// reservation id may differ from the input id when a split occurred.
type MutationResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Message       string    `json:"message,omitempty"`
}
