package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stayforge/hotel-backend/internal/pricing"
)

// RateRepository handles the materialized bill-of-adjustments rows
// (reservation_rates). A detail's rows are only ever replaced wholesale,
// never edited in place.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository creates a new RateRepository
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ReplaceForDetail deletes the detail's existing rate rows and inserts the
// freshly computed breakdown in evaluation order
func (r *RateRepository) ReplaceForDetail(tx *sqlx.Tx, detailID uuid.UUID, lines []pricing.RateLine) error {
	if _, err := tx.Exec(`DELETE FROM reservation_rates WHERE reservation_detail_id = $1`, detailID); err != nil {
		return fmt.Errorf("failed to delete reservation rates: %w", err)
	}

	query := `
		INSERT INTO reservation_rates (
			id, reservation_detail_id, pricing_rule_id, adjustment_type,
			adjustment_value, tax_type_id, tax_rate, amount, include_in_cancel_fee
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, line := range lines {
		_, err := tx.Exec(
			query,
			uuid.New(), detailID, line.PricingRuleID, line.AdjustmentType,
			line.AdjustmentValue, line.TaxTypeID, line.TaxRate, line.Amount,
			line.IncludeInCancelFee,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation rate: %w", err)
		}
	}

	return nil
}

// DeleteForDetail removes all rate rows of a detail
func (r *RateRepository) DeleteForDetail(tx *sqlx.Tx, detailID uuid.UUID) error {
	if _, err := tx.Exec(`DELETE FROM reservation_rates WHERE reservation_detail_id = $1`, detailID); err != nil {
		return fmt.Errorf("failed to delete reservation rates: %w", err)
	}
	return nil
}

// ListByDetail retrieves the rate rows of a detail in insertion order
func (r *RateRepository) ListByDetail(detailID uuid.UUID) ([]models.ReservationRate, error) {
	return listRates(r.db, detailID)
}

// ListByDetailTx retrieves the rate rows inside the caller's transaction
func (r *RateRepository) ListByDetailTx(tx *sqlx.Tx, detailID uuid.UUID) ([]models.ReservationRate, error) {
	return listRates(tx, detailID)
}

func listRates(q sqlx.Queryer, detailID uuid.UUID) ([]models.ReservationRate, error) {
	query := `
		SELECT id, reservation_detail_id, pricing_rule_id, adjustment_type,
		       adjustment_value, tax_type_id, tax_rate, amount,
		       include_in_cancel_fee, created_at
		FROM reservation_rates
		WHERE reservation_detail_id = $1
		ORDER BY created_at, id
	`

	rates := []models.ReservationRate{}
	if err := sqlx.Select(q, &rates, query, detailID); err != nil {
		return nil, fmt.Errorf("failed to list reservation rates: %w", err)
	}

	return rates, nil
}
