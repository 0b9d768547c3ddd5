package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationAddon is an extra line item (breakfast, spa access, ...)
// attached to one detail. Addons carry their own lifecycle and are not
// part of the materialized rate breakdown.
type ReservationAddon struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	DetailID  uuid.UUID       `json:"reservation_detail_id" db:"reservation_detail_id"`
	AddonID   int64           `json:"addon_id" db:"addon_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice int64           `json:"unit_price" db:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Total is the addon line total
func (a *ReservationAddon) Total() int64 {
	return a.UnitPrice * int64(a.Quantity)
}

// AddAddonRequest attaches an addon to a detail
type AddAddonRequest struct {
	AddonID   int64           `json:"addon_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice int64           `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}
