package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType classifies how a pricing rule modifies the nightly price
type AdjustmentType string

const (
	AdjustmentBaseRate   AdjustmentType = "base_rate"
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentFlatFee    AdjustmentType = "flat_fee"
)

// ConditionType classifies the calendar condition attached to a rule
type ConditionType string

const (
	ConditionNone      ConditionType = "none"
	ConditionMonth     ConditionType = "month"
	ConditionDayOfWeek ConditionType = "day_of_week"
)

// TaxTypeNonTaxable marks the non-taxable percentage class that is applied
// after the price has been rounded to a whole currency unit. Every other
// tax type id is the taxable, pre-rounding class.
const TaxTypeNonTaxable = 1

// PricingRule is a date-scoped pricing adjustment for one plan at one hotel.
// Rows referenced by materialized reservation rates are never mutated in
// place; staff edits go through explicit create/update/delete.
type PricingRule struct {
	ID                 int64           `json:"id" db:"id"`
	HotelID            int64           `json:"hotel_id" db:"hotel_id"`
	PlanID             *int64          `json:"plan_id,omitempty" db:"plan_id"`
	HotelPlanID        *int64          `json:"hotel_plan_id,omitempty" db:"hotel_plan_id"`
	AdjustmentType     AdjustmentType  `json:"adjustment_type" db:"adjustment_type"`
	AdjustmentValue    decimal.Decimal `json:"adjustment_value" db:"adjustment_value"`
	TaxTypeID          int             `json:"tax_type_id" db:"tax_type_id"`
	TaxRate            decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	ConditionType      ConditionType   `json:"condition_type" db:"condition_type"`
	ConditionValue     string          `json:"condition_value" db:"condition_value"`
	DateStart          time.Time       `json:"date_start" db:"date_start"`
	DateEnd            *time.Time      `json:"date_end,omitempty" db:"date_end"`
	IncludeInCancelFee bool            `json:"include_in_cancel_fee" db:"include_in_cancel_fee"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

var (
	// ErrInvalidAdjustmentType is returned for rules with an unknown adjustment type
	ErrInvalidAdjustmentType = errors.New("invalid adjustment_type")
	// ErrInvalidDateWindow is returned when date_end precedes date_start
	ErrInvalidDateWindow = errors.New("date_end must not precede date_start")
)

// PlanRef returns the rule's plan scope
func (r *PricingRule) PlanRef() PlanRef {
	return PlanRef{PlanID: r.PlanID, HotelPlanID: r.HotelPlanID}
}

// Validate checks rule integrity before any write
func (r *PricingRule) Validate() error {
	if err := r.PlanRef().Validate(); err != nil {
		return err
	}
	switch r.AdjustmentType {
	case AdjustmentBaseRate, AdjustmentPercentage, AdjustmentFlatFee:
	default:
		return ErrInvalidAdjustmentType
	}
	if r.DateEnd != nil && r.DateEnd.Before(r.DateStart) {
		return ErrInvalidDateWindow
	}
	return nil
}

// AppliesOn reports whether the rule's date window covers the given date.
// A nil date_end leaves the window open-ended.
func (r *PricingRule) AppliesOn(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	if day.Before(r.DateStart.Truncate(24 * time.Hour)) {
		return false
	}
	if r.DateEnd != nil && day.After(r.DateEnd.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// CreatePricingRuleRequest is the staff request to create a pricing rule
type CreatePricingRuleRequest struct {
	HotelID            int64           `json:"hotel_id" binding:"required"`
	PlanID             *int64          `json:"plan_id,omitempty"`
	HotelPlanID        *int64          `json:"hotel_plan_id,omitempty"`
	AdjustmentType     AdjustmentType  `json:"adjustment_type" binding:"required"`
	AdjustmentValue    decimal.Decimal `json:"adjustment_value"`
	TaxTypeID          int             `json:"tax_type_id"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	ConditionType      ConditionType   `json:"condition_type"`
	ConditionValue     string          `json:"condition_value"`
	DateStart          string          `json:"date_start" binding:"required"`
	DateEnd            *string         `json:"date_end,omitempty"`
	IncludeInCancelFee bool            `json:"include_in_cancel_fee"`
}
