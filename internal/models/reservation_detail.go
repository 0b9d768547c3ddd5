package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReservationDetail is the atomic billing unit: one row per
// (reservation, room, night). Price is the denormalized total for that
// night as computed by the rate aggregator.
type ReservationDetail struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ReservationID  uuid.UUID  `json:"reservation_id" db:"reservation_id"`
	RoomID         int64      `json:"room_id" db:"room_id"`
	StayDate       time.Time  `json:"stay_date" db:"stay_date"`
	PlanID         *int64     `json:"plan_id,omitempty" db:"plan_id"`
	HotelPlanID    *int64     `json:"hotel_plan_id,omitempty" db:"hotel_plan_id"`
	PlanType       PlanType   `json:"plan_type" db:"plan_type"`
	NumberOfPeople int        `json:"number_of_people" db:"number_of_people"`
	Price          int64      `json:"price" db:"price"`
	Cancelled      *time.Time `json:"cancelled,omitempty" db:"cancelled"`
	Billable       bool       `json:"billable" db:"billable"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// PlanRef returns the detail's plan scope
func (d *ReservationDetail) PlanRef() PlanRef {
	return PlanRef{PlanID: d.PlanID, HotelPlanID: d.HotelPlanID}
}

// IsCancelled reports whether the night has been voided
func (d *ReservationDetail) IsCancelled() bool {
	return d.Cancelled != nil
}

// NightRevenue is the revenue the night contributes: the stored price for
// per-room plans, price times headcount for per-person plans.
func (d *ReservationDetail) NightRevenue() int64 {
	if d.PlanType == PlanTypePerPerson {
		return d.Price * int64(d.NumberOfPeople)
	}
	return d.Price
}

// ReservationGuest is a named guest attached to one detail
type ReservationGuest struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DetailID      uuid.UUID `json:"reservation_detail_id" db:"reservation_detail_id"`
	GuestClientID int64     `json:"guest_client_id" db:"guest_client_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

var (
	// ErrDetailNotFound is returned when the detail does not exist
	ErrDetailNotFound = errors.New("reservation detail not found")
	// ErrDetailNotCancelled is returned when recovering a detail that is not cancelled
	ErrDetailNotCancelled = errors.New("reservation detail is not cancelled")
	// ErrDetailAlreadyCancelled is returned when cancelling an already cancelled detail
	ErrDetailAlreadyCancelled = errors.New("reservation detail is already cancelled")
)
