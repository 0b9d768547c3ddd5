package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// PricingRuleRepository handles database operations for pricing_rules
type PricingRuleRepository struct {
	db *sqlx.DB
}

// NewPricingRuleRepository creates a new PricingRuleRepository
func NewPricingRuleRepository(db *sqlx.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db: db}
}

const pricingRuleColumns = `
	id, hotel_id, plan_id, hotel_plan_id, adjustment_type, adjustment_value,
	tax_type_id, tax_rate, condition_type, condition_value,
	date_start, date_end, include_in_cancel_fee, created_at, updated_at
`

// Create inserts a new pricing rule
func (r *PricingRuleRepository) Create(rule *models.PricingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO pricing_rules (
			hotel_id, plan_id, hotel_plan_id, adjustment_type, adjustment_value,
			tax_type_id, tax_rate, condition_type, condition_value,
			date_start, date_end, include_in_cancel_fee
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		rule.HotelID, rule.PlanID, rule.HotelPlanID, rule.AdjustmentType, rule.AdjustmentValue,
		rule.TaxTypeID, rule.TaxRate, rule.ConditionType, rule.ConditionValue,
		rule.DateStart, rule.DateEnd, rule.IncludeInCancelFee,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pricing rule: %w", err)
	}

	return nil
}

// Update replaces a pricing rule's mutable fields
func (r *PricingRuleRepository) Update(rule *models.PricingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE pricing_rules
		SET plan_id = $2, hotel_plan_id = $3, adjustment_type = $4, adjustment_value = $5,
			tax_type_id = $6, tax_rate = $7, condition_type = $8, condition_value = $9,
			date_start = $10, date_end = $11, include_in_cancel_fee = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		rule.ID, rule.PlanID, rule.HotelPlanID, rule.AdjustmentType, rule.AdjustmentValue,
		rule.TaxTypeID, rule.TaxRate, rule.ConditionType, rule.ConditionValue,
		rule.DateStart, rule.DateEnd, rule.IncludeInCancelFee,
	).Scan(&rule.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("pricing rule not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update pricing rule: %w", err)
	}

	return nil
}

// Delete removes a pricing rule
func (r *PricingRuleRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pricing rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("pricing rule not found")
	}

	return nil
}

// GetByID retrieves a pricing rule by id
func (r *PricingRuleRepository) GetByID(id int64) (*models.PricingRule, error) {
	query := `SELECT` + pricingRuleColumns + `FROM pricing_rules WHERE id = $1`

	var rule models.PricingRule
	err := r.db.Get(&rule, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing rule: %w", err)
	}

	return &rule, nil
}

// ListByHotel retrieves all pricing rules for a hotel
func (r *PricingRuleRepository) ListByHotel(hotelID int64) ([]models.PricingRule, error) {
	query := `SELECT` + pricingRuleColumns + `FROM pricing_rules WHERE hotel_id = $1 ORDER BY id`

	rules := []models.PricingRule{}
	if err := r.db.Select(&rules, query, hotelID); err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}

	return rules, nil
}

// FetchForDate retrieves the rules whose scope matches the plan reference
// and whose date window covers the given date. Calendar conditions are
// evaluated by the caller, not here.
func (r *PricingRuleRepository) FetchForDate(hotelID int64, plan models.PlanRef, date time.Time) ([]models.PricingRule, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT` + pricingRuleColumns + `
		FROM pricing_rules
		WHERE hotel_id = $1
		  AND date_start <= $2
		  AND (date_end IS NULL OR date_end >= $2)
	`

	args := []interface{}{hotelID, date}
	if plan.IsGlobal() {
		query += ` AND plan_id = $3`
		args = append(args, *plan.PlanID)
	} else {
		query += ` AND hotel_plan_id = $3`
		args = append(args, *plan.HotelPlanID)
	}
	query += ` ORDER BY id`

	rules := []models.PricingRule{}
	if err := r.db.Select(&rules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch pricing rules: %w", err)
	}

	return rules, nil
}
