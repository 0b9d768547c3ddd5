package models

import "errors"

// PlanType determines how a detail's nightly price scales
type PlanType string

const (
	PlanTypePerRoom   PlanType = "per_room"
	PlanTypePerPerson PlanType = "per_person"
)

// PlanRef identifies a pricing plan: either a global plan shared across
// hotels or a hotel-specific plan. Exactly one of the two must be set.
type PlanRef struct {
	PlanID      *int64 `json:"plan_id,omitempty" db:"plan_id"`
	HotelPlanID *int64 `json:"hotel_plan_id,omitempty" db:"hotel_plan_id"`
}

var (
	// ErrInvalidPlanRef is returned when a plan reference is missing or ambiguous
	ErrInvalidPlanRef = errors.New("exactly one of plan_id or hotel_plan_id must be set")
)

// Validate checks the mutual exclusivity of the plan reference
func (p PlanRef) Validate() error {
	if (p.PlanID == nil) == (p.HotelPlanID == nil) {
		return ErrInvalidPlanRef
	}
	return nil
}

// IsGlobal reports whether the reference points to a global plan
func (p PlanRef) IsGlobal() bool {
	return p.PlanID != nil
}

// Equal reports whether two references point to the same plan
func (p PlanRef) Equal(other PlanRef) bool {
	if p.PlanID != nil && other.PlanID != nil {
		return *p.PlanID == *other.PlanID
	}
	if p.HotelPlanID != nil && other.HotelPlanID != nil {
		return *p.HotelPlanID == *other.HotelPlanID
	}
	return false
}

// Plan represents a global pricing plan shared across hotels
type Plan struct {
	ID       int64    `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	PlanType PlanType `json:"plan_type" db:"plan_type"`
}

// HotelPlan represents a hotel-specific pricing plan
type HotelPlan struct {
	ID       int64    `json:"id" db:"id"`
	HotelID  int64    `json:"hotel_id" db:"hotel_id"`
	Name     string   `json:"name" db:"name"`
	PlanType PlanType `json:"plan_type" db:"plan_type"`
}
