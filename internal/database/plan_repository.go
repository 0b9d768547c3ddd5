package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// PlanRepository handles plan catalog lookups. Plans come in two scopes:
// global plans shared across hotels and hotel-specific plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetPlan retrieves a global plan by id
func (r *PlanRepository) GetPlan(id int64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Get(&plan, `SELECT id, name, plan_type FROM plans WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// GetHotelPlan retrieves a hotel-specific plan by id
func (r *PlanRepository) GetHotelPlan(id int64) (*models.HotelPlan, error) {
	var plan models.HotelPlan
	err := r.db.Get(&plan, `SELECT id, hotel_id, name, plan_type FROM hotel_plans WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel plan: %w", err)
	}

	return &plan, nil
}

// ListPlans retrieves the global plan catalog
func (r *PlanRepository) ListPlans() ([]models.Plan, error) {
	plans := []models.Plan{}
	if err := r.db.Select(&plans, `SELECT id, name, plan_type FROM plans ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

// ListHotelPlans retrieves the plans specific to one hotel
func (r *PlanRepository) ListHotelPlans(hotelID int64) ([]models.HotelPlan, error) {
	plans := []models.HotelPlan{}
	err := r.db.Select(&plans, `
		SELECT id, hotel_id, name, plan_type
		FROM hotel_plans
		WHERE hotel_id = $1
		ORDER BY id
	`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotel plans: %w", err)
	}

	return plans, nil
}
