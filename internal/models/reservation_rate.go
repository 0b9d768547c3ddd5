package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationRate is one materialized rule application on one detail: the
// bill-of-adjustments row recording how the night price was built. The set
// for a detail is replaced wholesale whenever its plan or date changes.
type ReservationRate struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	DetailID           uuid.UUID       `json:"reservation_detail_id" db:"reservation_detail_id"`
	PricingRuleID      *int64          `json:"pricing_rule_id,omitempty" db:"pricing_rule_id"`
	AdjustmentType     AdjustmentType  `json:"adjustment_type" db:"adjustment_type"`
	AdjustmentValue    decimal.Decimal `json:"adjustment_value" db:"adjustment_value"`
	TaxTypeID          int             `json:"tax_type_id" db:"tax_type_id"`
	TaxRate            decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Amount             int64           `json:"amount" db:"amount"`
	IncludeInCancelFee bool            `json:"include_in_cancel_fee" db:"include_in_cancel_fee"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}
